package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// LoadSuretyConfig builds the engine constants.  OWNER_ACCOUNT and
// SEED_AIRLINE_ACCOUNT are required; everything else defaults to the
// deployed values.  Amounts are integer wei.
func LoadSuretyConfig() (surety.Config, error) {
	r := &reader{}
	owner := r.account("OWNER_ACCOUNT")
	seed := r.account("SEED_AIRLINE_ACCOUNT")
	cfg := surety.DefaultConfig(owner, seed, envStr("SEED_AIRLINE_NAME", "Seed Airline"))

	cfg.MinAirlineStake = r.wei("MIN_AIRLINE_STAKE_WEI", cfg.MinAirlineStake)
	cfg.BootstrapAirlines = envInt("BOOTSTRAP_AIRLINES", cfg.BootstrapAirlines)
	cfg.AdmissionCountsCandidate = envBool("ADMISSION_COUNTS_CANDIDATE", cfg.AdmissionCountsCandidate)
	cfg.OracleQuorum = envInt("ORACLE_QUORUM", cfg.OracleQuorum)
	cfg.OracleRegistrationFee = r.wei("ORACLE_REGISTRATION_FEE_WEI", cfg.OracleRegistrationFee)
	cfg.OracleIndexSpace = uint8(envInt("ORACLE_INDEX_SPACE", int(cfg.OracleIndexSpace)))
	cfg.RequestTTL = envDur("ORACLE_REQUEST_TTL", cfg.RequestTTL)
	cfg.PremiumCap = r.wei("PREMIUM_CAP_WEI", cfg.PremiumCap)
	cfg.PayoutNumerator = int64(envInt("PAYOUT_NUMERATOR", int(cfg.PayoutNumerator)))
	cfg.PayoutDenominator = int64(envInt("PAYOUT_DENOMINATOR", int(cfg.PayoutDenominator)))

	if err := r.err(); err != nil {
		return surety.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return surety.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (r *reader) account(key string) model.Account {
	raw := r.must(key)
	if raw == "" {
		return ""
	}
	acc, err := model.ParseAccount(raw)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
	}
	return acc
}

func (r *reader) wei(key string, def decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := model.ParseWei(raw)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}
