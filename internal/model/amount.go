package model

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// All value transfers are denominated in wei.  Amounts are carried as
// decimals restricted to non-negative integers so sums never overflow.

// WeiPerEther is 10^18.
var WeiPerEther = decimal.New(1, 18)

// ErrInvalidWei is returned by ParseWei for negative or fractional values.
var ErrInvalidWei = errors.New("amount must be a non-negative integer number of wei")

// Ether converts a whole number of ether to wei.
func Ether(n int64) decimal.Decimal { return decimal.New(n, 18) }

// ParseWei parses a base-10 wei amount such as "1500000000000000000".
func ParseWei(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidWei
	}
	if !IsWei(d) {
		return decimal.Zero, ErrInvalidWei
	}
	return d, nil
}

// IsWei reports whether d is a valid wei amount.
func IsWei(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Truncate(0))
}

// FormatEther renders a wei amount in ether, e.g. "1.5".
func FormatEther(wei decimal.Decimal) string {
	return wei.Shift(-18).String()
}
