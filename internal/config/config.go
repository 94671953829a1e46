// Package config loads runtime settings from the environment.  A .env file
// in the working directory is read first when present; variables already
// set in the process take precedence over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the HTTP, database and auth settings.
type Config struct {
	Env            string
	Port           string
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
	LogLevel       string
	LogFormat      string // text or json

	// Bcrypt hashes provisioned at startup for the owner and seed airline.
	// Those accounts cannot self-register; without a hash they cannot log
	// in at all.
	OwnerPasswordHash string
	SeedPasswordHash  string
}

// LoadDotEnv reads path (default .env) into the environment.  A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

// Load reads Config.  Every missing or malformed required variable is
// reported in the returned error.
func Load() (Config, error) {
	r := &reader{}
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		DBUser:         r.must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         r.must("DB_HOST"),
		DBPort:         r.must("DB_PORT"),
		DBName:         r.must("DB_NAME"),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     r.mustInt("BCRYPT_COST"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		LogFormat:      envStr("LOG_FORMAT", "text"),

		OwnerPasswordHash: r.bcryptHash("OWNER_PASSWORD_HASH"),
		SeedPasswordHash:  r.bcryptHash("SEED_AIRLINE_PASSWORD_HASH"),
	}
	return cfg, r.err()
}

// reader collects the failures of a batch of required lookups.
type reader struct {
	errs []error
}

func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.errs = append(r.errs, fmt.Errorf("missing required env var %s", key))
	}
	return v
}

func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}

// bcryptHash reads an optional bcrypt hash and rejects anything bcrypt
// cannot verify against.
func (r *reader) bcryptHash(key string) string {
	v := os.Getenv(key)
	if v == "" {
		return ""
	}
	if _, err := bcrypt.Cost([]byte(v)); err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid bcrypt hash for %s: %w", key, err))
		return ""
	}
	return v
}

func (r *reader) fail(err error) {
	r.errs = append(r.errs, err)
}

func (r *reader) err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(r.errs...))
}
