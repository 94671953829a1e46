package surety

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// Config holds the engine constants.  DefaultConfig returns the values the
// platform was deployed with.
type Config struct {
	Owner           model.Account
	SeedAirline     model.Account
	SeedAirlineName string

	// MinAirlineStake is the funding an airline needs before it may propose,
	// vote or register flights.
	MinAirlineStake decimal.Decimal
	// BootstrapAirlines is the registry size below which one vote admits a
	// candidate.  From this size on a strict majority is required.
	BootstrapAirlines int
	// AdmissionCountsCandidate adds the candidate to the registered count
	// used as the majority denominator.
	AdmissionCountsCandidate bool

	OracleQuorum          int
	OracleRegistrationFee decimal.Decimal
	OracleIndexSpace      uint8
	// RequestTTL is how long a status request stays open before a new
	// RequestStatus supersedes it.  Zero keeps it open until it is stuck.
	RequestTTL time.Duration

	PremiumCap decimal.Decimal
	// Payouts are floor(premium * PayoutNumerator / PayoutDenominator).
	PayoutNumerator   int64
	PayoutDenominator int64
}

// DefaultConfig returns the production constants for the given owner and
// seed airline.
func DefaultConfig(owner, seed model.Account, seedName string) Config {
	return Config{
		Owner:                 owner,
		SeedAirline:           seed,
		SeedAirlineName:       seedName,
		MinAirlineStake:       model.Ether(10),
		BootstrapAirlines:     4,
		OracleQuorum:          3,
		OracleRegistrationFee: model.Ether(1),
		OracleIndexSpace:      10,
		RequestTTL:            10 * time.Minute,
		PremiumCap:            model.Ether(1),
		PayoutNumerator:       3,
		PayoutDenominator:     2,
	}
}

// Validate checks that the configuration can drive an engine.
func (c Config) Validate() error {
	switch {
	case c.Owner.IsZero():
		return fmt.Errorf("%w: owner account is required", ErrInvalidInput)
	case c.SeedAirline.IsZero():
		return fmt.Errorf("%w: seed airline account is required", ErrInvalidInput)
	case !model.IsWei(c.MinAirlineStake):
		return fmt.Errorf("%w: minimum airline stake", ErrInvalidAmount)
	case c.BootstrapAirlines < 1:
		return fmt.Errorf("%w: bootstrap airlines must be at least 1", ErrInvalidInput)
	case c.OracleQuorum < 1:
		return fmt.Errorf("%w: oracle quorum must be at least 1", ErrInvalidInput)
	case !model.IsWei(c.OracleRegistrationFee):
		return fmt.Errorf("%w: oracle registration fee", ErrInvalidAmount)
	case c.OracleIndexSpace < 3:
		return fmt.Errorf("%w: oracle index space must hold 3 distinct indexes", ErrInvalidInput)
	case !model.IsWei(c.PremiumCap) || !c.PremiumCap.IsPositive():
		return fmt.Errorf("%w: premium cap", ErrInvalidAmount)
	case c.PayoutNumerator < 1 || c.PayoutDenominator < 1:
		return fmt.Errorf("%w: payout ratio", ErrInvalidInput)
	case c.RequestTTL < 0:
		return fmt.Errorf("%w: request ttl", ErrInvalidInput)
	}
	return nil
}
