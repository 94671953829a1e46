package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

func TestFromEvent(t *testing.T) {
	key := model.FlightKey{Airline: model.DeriveAccount("airline"), Code: "ND1309", Timestamp: 1700000000}
	index := uint8(4)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := surety.Event{
		ID: "ev-1", Seq: 12, Type: surety.EventOracleRequested, At: at,
		Account: model.DeriveAccount("passenger"), Flight: &key, Index: &index,
	}

	got, ok := FromEvent(ev)
	require.True(t, ok)
	assert.Equal(t, uint8(4), got.Index)
	assert.Equal(t, key, got.Key())
	assert.Equal(t, ev.Account, got.Requester)
	assert.Equal(t, at, got.RequestedAt)

	ev.Type = surety.EventFlightFinalized
	_, ok = FromEvent(ev)
	assert.False(t, ok)
}

func TestHandleMessage(t *testing.T) {
	want := OracleRequestedEvent{EventID: "ev-1", Index: 2, Airline: model.DeriveAccount("airline"), Flight: "ND1309", Timestamp: 1}
	body, err := json.Marshal(want)
	require.NoError(t, err)

	var got OracleRequestedEvent
	err = handleMessage(context.Background(), body, func(_ context.Context, ev OracleRequestedEvent) error {
		got = ev
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	boom := errors.New("engine disabled")
	err = handleMessage(context.Background(), body, func(context.Context, OracleRequestedEvent) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = handleMessage(context.Background(), []byte("{"), func(context.Context, OracleRequestedEvent) error { return nil })
	assert.Error(t, err)
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}
