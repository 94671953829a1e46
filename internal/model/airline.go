package model

import "github.com/shopspring/decimal"

// Airline is a governed participant of the registry.  The record is
// created when another airline proposes it and is never deleted.  Funded is
// the cumulative stake in wei.  Voters lists the funded airlines that voted
// for admission in vote order, and Votes always equals len(Voters).
type Airline struct {
	Account    Account         `json:"account"`
	Name       string          `json:"name"`
	Registered bool            `json:"registered"`
	Funded     decimal.Decimal `json:"funded_wei"`
	Votes      uint32          `json:"votes"`
	Voters     []Account       `json:"voters"`
}
