package surety

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// TestLateAirlinePaysInsurees walks a flight from purchase to withdrawal.
func TestLateAirlinePaysInsurees(t *testing.T) {
	ledger := &ledgerTransferer{}
	sink := &recordingSink{}
	e := newEngine(t, WithTransferer(ledger), WithEventSink(sink))
	oracles := registerOracles(t, e, 3)
	key := openFlight(t, e, "ND1309")

	p, q := acct("passenger-p"), acct("passenger-q")
	_, err := e.Buy(ctx, p, key, model.Ether(1))
	require.NoError(t, err)
	_, err = e.Buy(ctx, q, key, wei(3))
	require.NoError(t, err)

	r, err := e.RequestStatus(ctx, p, key)
	require.NoError(t, err)
	for i, o := range oracles {
		rep, err := e.SubmitResponse(ctx, o, r.Index, key, model.StatusLateAirline)
		require.NoError(t, err)
		assert.Equal(t, i == 2, rep.Finalized)
	}

	f, err := e.GetFlight(key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLateAirline, f.Status)

	want := model.Ether(1).Mul(decimal.RequireFromString("1.5"))
	assert.True(t, e.Balance(p).Equal(want))
	assert.Equal(t, "4", e.Balance(q).String())
	assert.Len(t, sink.ofType(EventPassengerCredited), 2)

	paid, err := e.Withdraw(ctx, p)
	require.NoError(t, err)
	assert.True(t, paid.Equal(want))
	assert.True(t, e.Balance(p).IsZero())

	_, err = e.Withdraw(ctx, p)
	assert.ErrorIs(t, err, ErrNothingToWithdraw)

	_, err = e.Buy(ctx, acct("late-buyer"), key, wei(1))
	assert.ErrorIs(t, err, ErrFlightClosed)

	// Reports after finalization credit nobody twice.
	extra := acct("oracle-late")
	_, err = e.RegisterOracle(ctx, extra, model.Ether(1))
	require.NoError(t, err)
	_, err = e.SubmitResponse(ctx, extra, r.Index, key, model.StatusLateAirline)
	require.NoError(t, err)
	assert.Equal(t, "4", e.Balance(q).String())
	assert.Len(t, sink.ofType(EventPassengerCredited), 2)

	tr := e.Treasury()
	assert.True(t, tr.Withdrawn.LessThanOrEqual(tr.Credited))
	assert.True(t, tr.Credited.Equal(want.Add(wei(4))))
}

func TestNonAirlineDelayPaysNothing(t *testing.T) {
	for _, code := range []model.StatusCode{
		model.StatusOnTime,
		model.StatusLateWeather,
		model.StatusLateTechnical,
		model.StatusLateOther,
	} {
		t.Run(code.String(), func(t *testing.T) {
			e := newEngine(t)
			oracles := registerOracles(t, e, 3)
			key := openFlight(t, e, "ND1309")
			p := acct("passenger")
			_, err := e.Buy(ctx, p, key, model.Ether(1))
			require.NoError(t, err)
			r, err := e.RequestStatus(ctx, p, key)
			require.NoError(t, err)
			for _, o := range oracles {
				_, err := e.SubmitResponse(ctx, o, r.Index, key, code)
				require.NoError(t, err)
			}
			f, err := e.GetFlight(key)
			require.NoError(t, err)
			assert.Equal(t, code, f.Status)
			assert.True(t, e.Balance(p).IsZero())
			pol, err := e.GetPolicy(key, p)
			require.NoError(t, err)
			assert.False(t, pol.PaidOut)
		})
	}
}

func TestUnassignedIndexIsRejected(t *testing.T) {
	e := newEngine(t)
	o := registerOracles(t, e, 1)[0]
	key := openFlight(t, e, "ND1309")
	_, err := e.RequestStatus(ctx, acct("passenger"), key)
	require.NoError(t, err)

	oracle, err := e.GetOracle(o)
	require.NoError(t, err)
	require.False(t, oracle.Has(7))

	_, err = e.SubmitResponse(ctx, o, 7, key, model.StatusLateAirline)
	assert.ErrorIs(t, err, ErrUnauthorized)
	f, err := e.GetFlight(key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnknown, f.Status)
}

// TestEventsAreSequenced checks that each transition carries one sequence
// number shared by all of its events.
func TestEventsAreSequenced(t *testing.T) {
	sink := &recordingSink{}
	e := newEngine(t, WithEventSink(sink))
	oracles := registerOracles(t, e, 3)
	key := openFlight(t, e, "ND1309")
	_, err := e.Buy(ctx, acct("p"), key, wei(100))
	require.NoError(t, err)
	r, err := e.RequestStatus(ctx, acct("p"), key)
	require.NoError(t, err)
	for _, o := range oracles {
		_, err := e.SubmitResponse(ctx, o, r.Index, key, model.StatusLateAirline)
		require.NoError(t, err)
	}

	var last uint64
	ids := map[string]bool{}
	for _, ev := range sink.events {
		assert.GreaterOrEqual(t, ev.Seq, last)
		last = ev.Seq
		assert.False(t, ids[ev.ID], "duplicate event id")
		ids[ev.ID] = true
		assert.False(t, ev.At.IsZero())
	}
	assert.Equal(t, e.Seq(), last)

	final := sink.ofType(EventFlightFinalized)
	credited := sink.ofType(EventPassengerCredited)
	require.Len(t, final, 1)
	require.Len(t, credited, 1)
	assert.Equal(t, final[0].Seq, credited[0].Seq)
}
