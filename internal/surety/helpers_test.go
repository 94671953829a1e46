package surety

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

var (
	ctx   = context.Background()
	owner = model.DeriveAccount("owner")
	first = model.DeriveAccount("airline-1")
)

func acct(label string) model.Account { return model.DeriveAccount(label) }

// cycleIndexer returns its values in a loop.
type cycleIndexer struct {
	values []uint8
	pos    int
}

func (c *cycleIndexer) Draw(model.Account) uint8 {
	v := c.values[c.pos%len(c.values)]
	c.pos++
	return v
}

// recordingSink keeps every event it receives.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Emit(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() Config {
	return DefaultConfig(owner, first, "Number One")
}

// newEngine builds an engine whose oracles are always assigned {1,2,3}.
func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return newEngineWith(t, testConfig(), opts...)
}

func newEngineWith(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithLogger(quietLogger()),
		WithIndexer(&cycleIndexer{values: []uint8{1, 2, 3}}),
	}
	e, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return e
}

// admit proposes each candidate from the first airline, collects votes from
// registered airlines until it is admitted, and funds it.
func admit(t *testing.T, e *Engine, candidates ...model.Account) {
	t.Helper()
	if a, err := e.GetAirline(first); err == nil && a.Funded.LessThan(e.cfg.MinAirlineStake) {
		_, err := e.Fund(ctx, first, e.cfg.MinAirlineStake)
		require.NoError(t, err)
	}
	for _, c := range candidates {
		_, err := e.ProposeAirline(ctx, first, c, "Airline "+c.String()[:8])
		require.NoError(t, err)
		for _, voter := range e.ListAirlines() {
			if !voter.Registered {
				continue
			}
			got, err := e.Vote(ctx, voter.Account, c)
			require.NoError(t, err)
			if got.Registered {
				break
			}
		}
		got, err := e.GetAirline(c)
		require.NoError(t, err)
		require.True(t, got.Registered, "candidate %s not admitted", c)
		_, err = e.Fund(ctx, c, e.cfg.MinAirlineStake)
		require.NoError(t, err)
	}
}

// registerOracles enrolls n oracles labelled oracle-0..n-1.
func registerOracles(t *testing.T, e *Engine, n int) []model.Account {
	t.Helper()
	out := make([]model.Account, 0, n)
	for i := 0; i < n; i++ {
		a := acct("oracle-" + string(rune('a'+i)))
		_, err := e.RegisterOracle(ctx, a, e.cfg.OracleRegistrationFee)
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

// openFlight admits the first airline's stake and registers a flight.
func openFlight(t *testing.T, e *Engine, code string) model.FlightKey {
	t.Helper()
	admit(t, e)
	f, err := e.RegisterFlight(ctx, first, code, 1700000000)
	require.NoError(t, err)
	return f.Key
}
