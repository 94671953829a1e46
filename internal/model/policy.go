package model

import "github.com/shopspring/decimal"

// Policy is a passenger's insurance against one flight.  There is at most
// one policy per (flight, passenger); a second purchase tops up Premium.
type Policy struct {
	Flight    FlightKey       `json:"flight"`
	Passenger Account         `json:"passenger"`
	Premium   decimal.Decimal `json:"premium_wei"`
	PaidOut   bool            `json:"paid_out"`
}
