// Package surety implements the flight insurance core: airline governance,
// the flight registry, the oracle quorum protocol and the insurance ledger.
//
// The engine is a single-writer state machine.  Every public mutating
// method is one indivisible transition taken under Engine.mu; a failed
// call leaves no trace.  Events and snapshots produced by a transition are
// handed to the configured sinks after the lock is released, in Seq order.
package surety

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

type airlineSlot struct {
	model.Airline
	voted map[model.Account]bool
}

type requestKey struct {
	flight model.FlightKey
	index  uint8
}

type requestSlot struct {
	model.StatusRequest
	responded map[model.Account]bool
}

type policyKey struct {
	flight    model.FlightKey
	passenger model.Account
}

// Treasury sums every value movement through the engine.
type Treasury struct {
	AirlineStakes decimal.Decimal `json:"airline_stakes_wei"`
	OracleFees    decimal.Decimal `json:"oracle_fees_wei"`
	Premiums      decimal.Decimal `json:"premiums_wei"`
	Credited      decimal.Decimal `json:"credited_wei"`
	Withdrawn     decimal.Decimal `json:"withdrawn_wei"`
}

// Engine is the serialized core.  Tables are append-only slices addressed
// through key indexes; records are never removed.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	log logrus.FieldLogger
	now func() time.Time

	enabled bool
	seq     uint64

	// pubMu guards published, the Seq of the last transition handed to
	// the sinks.  Publishing happens outside mu, one transition at a time
	// in Seq order.
	pubMu     sync.Mutex
	pubTurn   *sync.Cond
	published uint64

	airlines        []airlineSlot
	airlineIdx      map[model.Account]int
	registeredCount int

	flights          []model.Flight
	flightIdx        map[model.FlightKey]int
	flightsByAirline map[model.Account][]int

	policies            []model.Policy
	policyIdx           map[policyKey]int
	policiesByFlight    map[model.FlightKey][]int
	policiesByPassenger map[model.Account][]int
	balances            map[model.Account]decimal.Decimal
	// withdrawn is the running total paid to each account; deficit is
	// paid-out value the restored state did not know about, netted
	// against future credits.
	withdrawn map[model.Account]decimal.Decimal
	deficit   map[model.Account]decimal.Decimal

	oracles   []model.Oracle
	oracleIdx map[model.Account]int

	requests    []requestSlot
	requestIdx  map[requestKey]int
	openRequest map[model.FlightKey]int

	treasury Treasury

	indexer   Indexer
	transfer  Transferer
	sinks     []EventSink
	snapshots SnapshotSink
	restore   *Snapshot
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for committed transitions and sink errors.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithIndexer replaces the Keccak index source.
func WithIndexer(ix Indexer) Option {
	return func(e *Engine) { e.indexer = ix }
}

// WithTransferer sets where withdrawals are paid.
func WithTransferer(t Transferer) Option {
	return func(e *Engine) { e.transfer = t }
}

// WithEventSink adds sinks that receive every committed event.
func WithEventSink(sinks ...EventSink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, sinks...) }
}

// WithSnapshotSink sets the sink that persists state after each commit.
func WithSnapshotSink(s SnapshotSink) Option {
	return func(e *Engine) { e.snapshots = s }
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSnapshot starts the engine from a persisted snapshot instead of the
// seed airline.
func WithSnapshot(s *Snapshot) Option {
	return func(e *Engine) { e.restore = s }
}

// New builds an engine.  Without WithSnapshot the registry starts with the
// configured seed airline, registered with no funds and no votes.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		log:     logrus.StandardLogger(),
		now:     time.Now,
		enabled: true,
	}
	e.pubTurn = sync.NewCond(&e.pubMu)
	e.reset()
	for _, opt := range opts {
		opt(e)
	}
	if e.indexer == nil {
		e.indexer = NewKeccakIndexer(nil, cfg.OracleIndexSpace)
	}
	if e.transfer == nil {
		e.transfer = noopTransferer{}
	}
	if e.restore != nil {
		if err := e.restoreLocked(*e.restore); err != nil {
			return nil, err
		}
		e.restore = nil
		e.published = e.seq
		return e, nil
	}
	e.airlineIdx[cfg.SeedAirline] = len(e.airlines)
	e.airlines = append(e.airlines, airlineSlot{
		Airline: model.Airline{
			Account:    cfg.SeedAirline,
			Name:       cfg.SeedAirlineName,
			Registered: true,
			Voters:     []model.Account{},
		},
		voted: map[model.Account]bool{},
	})
	e.registeredCount = 1
	return e, nil
}

func (e *Engine) reset() {
	e.airlines = nil
	e.airlineIdx = make(map[model.Account]int)
	e.registeredCount = 0
	e.flights = nil
	e.flightIdx = make(map[model.FlightKey]int)
	e.flightsByAirline = make(map[model.Account][]int)
	e.policies = nil
	e.policyIdx = make(map[policyKey]int)
	e.policiesByFlight = make(map[model.FlightKey][]int)
	e.policiesByPassenger = make(map[model.Account][]int)
	e.balances = make(map[model.Account]decimal.Decimal)
	e.withdrawn = make(map[model.Account]decimal.Decimal)
	e.deficit = make(map[model.Account]decimal.Decimal)
	e.oracles = nil
	e.oracleIdx = make(map[model.Account]int)
	e.requests = nil
	e.requestIdx = make(map[requestKey]int)
	e.openRequest = make(map[model.FlightKey]int)
	e.treasury = Treasury{}
}

// Config returns the engine constants.
func (e *Engine) Config() Config { return e.cfg }

// commit runs fn as one transition.  Guarded transitions fail with
// ErrSystemDisabled while the operational switch is off.  fn must either
// fail before mutating anything or succeed; a transition that emits no
// event changes nothing and is not sequenced.
func (e *Engine) commit(ctx context.Context, guarded bool, fn func(t *txn) error) error {
	e.mu.Lock()
	if guarded && !e.enabled {
		e.mu.Unlock()
		return ErrSystemDisabled
	}
	t := &txn{now: e.now().UTC()}
	if err := fn(t); err != nil {
		e.mu.Unlock()
		return err
	}
	if len(t.events) == 0 {
		e.mu.Unlock()
		return nil
	}
	e.seq++
	seq := e.seq
	for i := range t.events {
		t.events[i].Seq = seq
	}
	var snap *Snapshot
	if e.snapshots != nil {
		s := e.snapshotLocked()
		snap = &s
	}
	e.mu.Unlock()

	e.pubMu.Lock()
	for e.published != seq-1 {
		e.pubTurn.Wait()
	}
	e.pubMu.Unlock()

	e.publish(context.WithoutCancel(ctx), t.events, snap)

	e.pubMu.Lock()
	e.published = seq
	e.pubTurn.Broadcast()
	e.pubMu.Unlock()
	return nil
}

func (e *Engine) publish(ctx context.Context, events []Event, snap *Snapshot) {
	if snap != nil {
		if err := e.snapshots.SaveSnapshot(ctx, *snap); err != nil {
			e.log.WithError(err).WithField("seq", snap.Seq).Error("surety: snapshot save failed")
		}
	}
	for _, ev := range events {
		for _, s := range e.sinks {
			if err := s.Emit(ctx, ev); err != nil {
				e.log.WithError(err).WithFields(logrus.Fields{
					"event": ev.Type,
					"seq":   ev.Seq,
				}).Warn("surety: event sink failed")
			}
		}
	}
}

// Seq returns the sequence number of the last committed transition.
func (e *Engine) Seq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// Treasury returns the running value totals.
func (e *Engine) Treasury() Treasury {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.treasury
}
