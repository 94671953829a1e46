package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

var ErrPasswordLength = errors.New("password must be 1 to 72 bytes")

// CheckPassword reports whether plain can be hashed without truncation.
func CheckPassword(plain string) error {
	if plain == "" || len(plain) > maxPasswordBytes {
		return ErrPasswordLength
	}
	return nil
}

// HashPassword hashes plain with cost clamped to the range bcrypt accepts.
func HashPassword(plain string, cost int) (string, error) {
	if err := CheckPassword(plain); err != nil {
		return "", err
	}
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.DefaultCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a stored hash with plain.
func VerifyPassword(hash, plain string) bool {
	if len(plain) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
