package surety

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// Transferer pays out withdrawn credit.  It runs inside the withdrawal
// transition; an error aborts the withdrawal and restores the balance.
type Transferer interface {
	Transfer(ctx context.Context, to model.Account, amount decimal.Decimal) error
}

type noopTransferer struct{}

func (noopTransferer) Transfer(context.Context, model.Account, decimal.Decimal) error { return nil }

// Buy insures passenger against key.  The flight must be registered and
// still Unknown.  A second purchase on the same policy tops up the premium;
// the cumulative premium may not exceed the cap.
func (e *Engine) Buy(ctx context.Context, passenger model.Account, key model.FlightKey, premium decimal.Decimal) (model.Policy, error) {
	var out model.Policy
	err := e.commit(ctx, true, func(t *txn) error {
		if !model.IsWei(premium) || !premium.IsPositive() {
			return fmt.Errorf("%w: premium must be a positive wei amount", ErrInvalidAmount)
		}
		if passenger.IsZero() {
			return fmt.Errorf("%w: passenger account is required", ErrInvalidInput)
		}
		fi, ok := e.flightIdx[key]
		if !ok {
			return fmt.Errorf("%w: flight %s", ErrNotFound, key)
		}
		if e.flights[fi].Status != model.StatusUnknown {
			return fmt.Errorf("%w: %s is %s", ErrFlightClosed, key, e.flights[fi].Status)
		}
		pk := policyKey{flight: key, passenger: passenger}
		total := premium
		pi, exists := e.policyIdx[pk]
		if exists {
			total = e.policies[pi].Premium.Add(premium)
		}
		if total.GreaterThan(e.cfg.PremiumCap) {
			return fmt.Errorf("%w: premium %s exceeds the cap of %s wei", ErrInvalidAmount, total, e.cfg.PremiumCap)
		}
		if exists {
			e.policies[pi].Premium = total
		} else {
			pi = len(e.policies)
			e.policies = append(e.policies, model.Policy{Flight: key, Passenger: passenger, Premium: total})
			e.policyIdx[pk] = pi
			e.policiesByFlight[key] = append(e.policiesByFlight[key], pi)
			e.policiesByPassenger[passenger] = append(e.policiesByPassenger[passenger], pi)
		}
		e.treasury.Premiums = e.treasury.Premiums.Add(premium)
		t.emit(Event{Type: EventPolicyPurchased, Account: passenger, Flight: flightRef(key), Amount: amountRef(premium)})
		out = e.policies[pi]
		return nil
	})
	return out, err
}

// creditLocked credits every unpaid policy on key.  PaidOut guards each
// policy, so a second call for the same flight credits nothing.
func (e *Engine) creditLocked(t *txn, key model.FlightKey) {
	for _, pi := range e.policiesByFlight[key] {
		p := &e.policies[pi]
		if p.PaidOut {
			continue
		}
		payout := e.payoutFor(p.Premium)
		p.PaidOut = true
		e.addCreditLocked(p.Passenger, payout)
		e.treasury.Credited = e.treasury.Credited.Add(payout)
		t.emit(Event{Type: EventPassengerCredited, Account: p.Passenger, Flight: flightRef(key), Amount: amountRef(payout)})
		e.log.WithFields(logrus.Fields{
			"passenger": p.Passenger,
			"flight":    key.String(),
			"payout":    payout.String(),
		}).Info("surety: insuree credited")
	}
}

// payoutFor returns floor(premium * numerator / denominator) in wei.
func (e *Engine) payoutFor(premium decimal.Decimal) decimal.Decimal {
	n := new(big.Int).Mul(premium.BigInt(), big.NewInt(e.cfg.PayoutNumerator))
	n.Quo(n, big.NewInt(e.cfg.PayoutDenominator))
	return decimal.NewFromBigInt(n, 0)
}

// Withdraw pays out the passenger's whole balance.  The balance is zeroed
// before the transfer runs; if the transfer fails it is restored and the
// error returned.  The transfer does not inherit ctx cancellation: a
// caller giving up must not make a completed payment look failed.
func (e *Engine) Withdraw(ctx context.Context, passenger model.Account) (decimal.Decimal, error) {
	var paid decimal.Decimal
	err := e.commit(ctx, true, func(t *txn) error {
		amount := e.balances[passenger]
		if !amount.IsPositive() {
			return fmt.Errorf("%w: %s has no credit", ErrNothingToWithdraw, passenger)
		}
		e.balances[passenger] = decimal.Zero
		if err := e.transfer.Transfer(context.WithoutCancel(ctx), passenger, amount); err != nil {
			e.balances[passenger] = amount
			return fmt.Errorf("surety: transfer to %s failed: %w", passenger, err)
		}
		e.treasury.Withdrawn = e.treasury.Withdrawn.Add(amount)
		e.withdrawn[passenger] = e.withdrawn[passenger].Add(amount)
		t.emit(Event{Type: EventPassengerWithdrew, Account: passenger, Amount: amountRef(amount)})
		e.log.WithFields(logrus.Fields{
			"passenger": passenger,
			"amount":    amount.String(),
		}).Info("surety: credit withdrawn")
		paid = amount
		return nil
	})
	return paid, err
}

// Balance returns the withdrawable credit of passenger.
func (e *Engine) Balance(passenger model.Account) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances[passenger]
}

// ListPolicies returns the passenger's policies in purchase order.
func (e *Engine) ListPolicies(passenger model.Account) []model.Policy {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.policiesByPassenger[passenger]
	out := make([]model.Policy, 0, len(idx))
	for _, i := range idx {
		out = append(out, e.policies[i])
	}
	return out
}

// GetPolicy returns the policy of passenger on key.
func (e *Engine) GetPolicy(key model.FlightKey, passenger model.Account) (model.Policy, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.policyIdx[policyKey{flight: key, passenger: passenger}]
	if !ok {
		return model.Policy{}, fmt.Errorf("%w: no policy for %s on %s", ErrNotFound, passenger, key)
	}
	return e.policies[i], nil
}
