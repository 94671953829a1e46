package model

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Account identifies every participant of the platform: airlines,
// passengers, oracles and the contract owner.  It is a lower-case,
// 0x-prefixed, 20-byte hex address.
type Account string

// ErrInvalidAccount is returned by ParseAccount for malformed addresses.
var ErrInvalidAccount = errors.New("invalid account address")

// ParseAccount normalises and validates an address string.
func ParseAccount(raw string) (Account, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return "", ErrInvalidAccount
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return "", ErrInvalidAccount
	}
	return Account(s), nil
}

// DeriveAccount returns a deterministic address for a label, taken from the
// last 20 bytes of its Keccak-256 digest.  The oracle relay uses it to name
// its oracle accounts.
func DeriveAccount(label string) Account {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(label))
	sum := h.Sum(nil)
	return Account("0x" + hex.EncodeToString(sum[12:]))
}

func (a Account) String() string { return string(a) }

// IsZero reports whether the account is unset.
func (a Account) IsZero() bool { return a == "" }
