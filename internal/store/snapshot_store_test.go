package store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func openMemory(t *testing.T) *SnapshotStore {
	t.Helper()
	s, err := Open("", quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadEmpty(t *testing.T) {
	s := openMemory(t)
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSaveSkipsStaleSnapshots(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	newer := surety.Snapshot{Seq: 7, Enabled: true}
	require.NoError(t, s.SaveSnapshot(ctx, newer))
	require.NoError(t, s.SaveSnapshot(ctx, surety.Snapshot{Seq: 5, Enabled: false}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(7), got.Seq)
	assert.True(t, got.Enabled)
}

func TestEngineRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	owner, seed := model.DeriveAccount("owner"), model.DeriveAccount("seed")
	cfg := surety.DefaultConfig(owner, seed, "Seed Air")
	e, err := surety.New(cfg, surety.WithLogger(quietLogger()), surety.WithSnapshotSink(s))
	require.NoError(t, err)

	_, err = e.Fund(ctx, seed, model.Ether(10))
	require.NoError(t, err)
	_, err = e.RegisterFlight(ctx, seed, "SA100", 1700000000)
	require.NoError(t, err)
	require.NoError(t, e.SetEnabled(ctx, owner, false))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, e.Seq(), snap.Seq)

	restored, err := surety.New(cfg, surety.WithLogger(quietLogger()), surety.WithSnapshot(snap))
	require.NoError(t, err)
	assert.False(t, restored.IsEnabled())
	assert.Len(t, restored.ListFlights(seed), 1)
	a, err := restored.GetAirline(seed)
	require.NoError(t, err)
	assert.True(t, a.Funded.Equal(model.Ether(10)))
}

type recordingSink struct {
	seqs []uint64
	err  error
}

func (r *recordingSink) SaveSnapshot(_ context.Context, snap surety.Snapshot) error {
	r.seqs = append(r.seqs, snap.Seq)
	return r.err
}

func TestTee(t *testing.T) {
	boom := errors.New("disk full")
	a, b := &recordingSink{}, &recordingSink{err: boom}
	err := Tee{a, b}.SaveSnapshot(context.Background(), surety.Snapshot{Seq: 3})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []uint64{3}, a.seqs)
	assert.Equal(t, []uint64{3}, b.seqs)
}

func TestArchiveSchedule(t *testing.T) {
	a := &Archiver{every: 10, log: quietLogger()}
	assert.False(t, a.due(0))
	assert.False(t, a.due(9))
	assert.True(t, a.due(10))
	assert.True(t, a.due(30))

	// Off-interval snapshots never reach the client.
	require.NoError(t, a.SaveSnapshot(context.Background(), surety.Snapshot{Seq: 11}))

	a.every = 0
	assert.False(t, a.due(10))

	assert.Equal(t, "snapshots/00000000000000000042.json", ObjectName(42))
	assert.Less(t, ObjectName(9), ObjectName(10))
}
