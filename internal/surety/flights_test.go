package surety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

func TestRegisterFlight(t *testing.T) {
	e := newEngine(t)

	_, err := e.RegisterFlight(ctx, first, "ND1309", 1700000000)
	assert.ErrorIs(t, err, ErrUnauthorized, "unfunded airline")

	admit(t, e)
	f, err := e.RegisterFlight(ctx, first, " ND1309 ", 1700000000)
	require.NoError(t, err)
	assert.Equal(t, "ND1309", f.Key.Code)
	assert.Equal(t, model.StatusUnknown, f.Status)
	assert.True(t, f.Registered)

	_, err = e.RegisterFlight(ctx, first, "ND1309", 1700000000)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = e.RegisterFlight(ctx, first, "ND1309", 1700003600)
	require.NoError(t, err, "same code at another time is a different flight")

	_, err = e.RegisterFlight(ctx, first, "", 1700000000)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.RegisterFlight(ctx, first, "ND1310", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.RegisterFlight(ctx, acct("stranger"), "ND1310", 1700000000)
	assert.ErrorIs(t, err, ErrUnauthorized)

	flights := e.ListFlights(first)
	require.Len(t, flights, 2)
	assert.Equal(t, int64(1700000000), flights[0].Key.Timestamp)
	assert.Equal(t, int64(1700003600), flights[1].Key.Timestamp)
	assert.Empty(t, e.ListFlights(acct("stranger")))
}

func TestGetFlight(t *testing.T) {
	e := newEngine(t)
	key := openFlight(t, e, "ND1309")

	f, err := e.GetFlight(key)
	require.NoError(t, err)
	assert.Equal(t, key, f.Key)

	key.Timestamp++
	_, err = e.GetFlight(key)
	assert.ErrorIs(t, err, ErrNotFound)
}
