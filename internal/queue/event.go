// Package queue defines message payloads exchanged over the message broker
// and the consumer that feeds oracle requests to the relay.
package queue

import (
	"time"

	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// OracleRequestedQueue carries status requests from the API to the oracle
// relay.
const OracleRequestedQueue = "oracle.requested"

// OracleRequestedEvent is published each time a status request is opened
// or merged.  Oracles holding Index answer for the flight.
type OracleRequestedEvent struct {
	EventID     string        `json:"event_id"`
	Seq         uint64        `json:"seq"`
	Index       uint8         `json:"index"`
	Airline     model.Account `json:"airline"`
	Flight      string        `json:"flight"`
	Timestamp   int64         `json:"timestamp"`
	Requester   model.Account `json:"requester"`
	RequestedAt time.Time     `json:"requested_at"`
}

// Key returns the flight the request is about.
func (e OracleRequestedEvent) Key() model.FlightKey {
	return model.FlightKey{Airline: e.Airline, Code: e.Flight, Timestamp: e.Timestamp}
}

// FromEvent converts an engine event into the broker payload.  ok is false
// for every other event type.
func FromEvent(ev surety.Event) (OracleRequestedEvent, bool) {
	if ev.Type != surety.EventOracleRequested || ev.Flight == nil || ev.Index == nil {
		return OracleRequestedEvent{}, false
	}
	return OracleRequestedEvent{
		EventID:     ev.ID,
		Seq:         ev.Seq,
		Index:       *ev.Index,
		Airline:     ev.Flight.Airline,
		Flight:      ev.Flight.Code,
		Timestamp:   ev.Flight.Timestamp,
		Requester:   ev.Account,
		RequestedAt: ev.At,
	}, true
}
