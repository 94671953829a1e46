package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

const secret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	acc := model.DeriveAccount("passenger")
	tok, err := NewAccessToken(secret, acc, "ACCOUNT", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	cl, err := ParseAccessToken(secret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, acc, cl.Account)
	assert.Equal(t, "ACCOUNT", cl.Role)
	assert.Equal(t, tok.Exp.Unix(), cl.Exp.Unix())
}

func TestParseAccessTokenRejects(t *testing.T) {
	acc := model.DeriveAccount("passenger")
	good, err := NewAccessToken(secret, acc, "ACCOUNT", 15)
	require.NoError(t, err)
	expired, err := NewAccessToken(secret, acc, "ACCOUNT", -1)
	require.NoError(t, err)
	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "not-an-account",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": acc.String(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret":   {"other", good.Token},
		"expired":        {secret, expired.Token},
		"garbage":        {secret, "a.b.c"},
		"bad subject":    {secret, badSub},
		"missing expiry": {secret, noExp},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.secret, tc.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), a.Exp, 5*time.Second)

	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
	assert.NotEqual(t, HashRefreshRaw(a.Raw), HashRefreshRaw(b.Raw))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter22"))
	assert.False(t, VerifyPassword(hash, "hunter23"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter22"))
}

func TestPasswordLength(t *testing.T) {
	_, err := HashPassword("", 4)
	assert.ErrorIs(t, err, ErrPasswordLength)
	_, err = HashPassword(strings.Repeat("x", 73), 4)
	assert.ErrorIs(t, err, ErrPasswordLength)
	assert.NoError(t, CheckPassword(strings.Repeat("x", 72)))

	// a zero cost falls back to the bcrypt default
	hash, err := HashPassword("hunter22", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
