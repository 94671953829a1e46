package surety

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// EventType names a committed state transition.
type EventType string

const (
	EventOperationalChanged EventType = "operational.changed"
	EventAirlineFunded      EventType = "airline.funded"
	EventAirlineProposed    EventType = "airline.proposed"
	EventAirlineVoted       EventType = "airline.voted"
	EventAirlineRegistered  EventType = "airline.registered"
	EventFlightRegistered   EventType = "flight.registered"
	EventPolicyPurchased    EventType = "policy.purchased"
	EventOracleRegistered   EventType = "oracle.registered"
	EventOracleRequested    EventType = "oracle.requested"
	EventOracleReported     EventType = "oracle.reported"
	EventFlightFinalized    EventType = "flight.finalized"
	EventPassengerCredited  EventType = "passenger.credited"
	EventPassengerWithdrew  EventType = "passenger.withdrew"
	EventPayoutReconciled   EventType = "payout.reconciled"
)

// Event describes one committed transition.  Fields that do not apply to
// the event type are left zero.
type Event struct {
	ID           string           `json:"id"`
	Seq          uint64           `json:"seq"`
	Type         EventType        `json:"type"`
	At           time.Time        `json:"at"`
	Account      model.Account    `json:"account,omitempty"`
	Counterparty model.Account    `json:"counterparty,omitempty"`
	Flight       *model.FlightKey `json:"flight,omitempty"`
	Index        *uint8           `json:"index,omitempty"`
	Status       model.StatusCode `json:"status_code,omitempty"`
	Amount       *decimal.Decimal `json:"amount_wei,omitempty"`
	Enabled      *bool            `json:"enabled,omitempty"`
}

// EventSink receives events after the transition that produced them has
// committed and the engine lock is released.  Transitions are delivered
// one at a time in Seq order; a later commit waits for the sinks to finish
// with the earlier one before its own events go out, so Emit must not call
// back into a mutating engine method.  Errors are logged by the engine and
// never undo the transition.
type EventSink interface {
	Emit(ctx context.Context, ev Event) error
}

// SnapshotSink persists the engine state after each commit.  Snapshots
// carry a strictly increasing Seq; sinks must ignore a snapshot older than
// the one they already hold.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// txn collects the events of one transition.
type txn struct {
	events []Event
	now    time.Time
}

func (t *txn) emit(ev Event) {
	ev.ID = uuid.NewString()
	ev.At = t.now
	t.events = append(t.events, ev)
}

func flightRef(k model.FlightKey) *model.FlightKey { return &k }
func indexRef(i uint8) *uint8                      { return &i }
func amountRef(d decimal.Decimal) *decimal.Decimal { return &d }
