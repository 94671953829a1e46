package model

import "fmt"

// FlightKey uniquely identifies an insurable flight.
type FlightKey struct {
	Airline   Account `json:"airline"`
	Code      string  `json:"flight"`
	Timestamp int64   `json:"timestamp"` // departure, unix seconds
}

func (k FlightKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Airline, k.Code, k.Timestamp)
}

// Flight is created by a registered, funded airline.  Status is written
// once by oracle quorum finalization.
type Flight struct {
	Key        FlightKey  `json:"key"`
	Status     StatusCode `json:"status_code"`
	Registered bool       `json:"registered"`
}
