package surety

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// Fund adds amount to an airline's operating stake.  Pending airlines may
// fund themselves before they are admitted.  Funding never changes the
// registered flag.
func (e *Engine) Fund(ctx context.Context, airline model.Account, amount decimal.Decimal) (model.Airline, error) {
	var out model.Airline
	err := e.commit(ctx, true, func(t *txn) error {
		if !model.IsWei(amount) || !amount.IsPositive() {
			return fmt.Errorf("%w: funding must be a positive wei amount", ErrInvalidAmount)
		}
		i, ok := e.airlineIdx[airline]
		if !ok {
			return fmt.Errorf("%w: airline %s", ErrNotFound, airline)
		}
		a := &e.airlines[i]
		a.Funded = a.Funded.Add(amount)
		e.treasury.AirlineStakes = e.treasury.AirlineStakes.Add(amount)
		t.emit(Event{Type: EventAirlineFunded, Account: airline, Amount: amountRef(amount)})
		out = a.view()
		return nil
	})
	return out, err
}

// ProposeAirline creates a pending record for candidate.  The proposer must
// be registered and hold at least the minimum stake.  Proposing does not
// count as a vote.
func (e *Engine) ProposeAirline(ctx context.Context, proposer, candidate model.Account, name string) (model.Airline, error) {
	var out model.Airline
	err := e.commit(ctx, true, func(t *txn) error {
		if err := e.requireActiveAirline(proposer); err != nil {
			return err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: airline name is required", ErrInvalidInput)
		}
		if candidate.IsZero() {
			return fmt.Errorf("%w: candidate account is required", ErrInvalidInput)
		}
		if i, ok := e.airlineIdx[candidate]; ok {
			if e.airlines[i].Registered {
				return fmt.Errorf("%w: airline %s is already registered", ErrAlreadyExists, candidate)
			}
			return fmt.Errorf("%w: airline %s is already proposed", ErrAlreadyExists, candidate)
		}
		e.airlineIdx[candidate] = len(e.airlines)
		e.airlines = append(e.airlines, airlineSlot{
			Airline: model.Airline{Account: candidate, Name: name, Voters: []model.Account{}},
			voted:   map[model.Account]bool{},
		})
		t.emit(Event{Type: EventAirlineProposed, Account: candidate, Counterparty: proposer})
		out = e.airlines[len(e.airlines)-1].view()
		return nil
	})
	return out, err
}

// Vote records voter's approval of a pending candidate and admits the
// candidate once the admission threshold is met.  Each voter counts once.
func (e *Engine) Vote(ctx context.Context, voter, candidate model.Account) (model.Airline, error) {
	var out model.Airline
	err := e.commit(ctx, true, func(t *txn) error {
		if err := e.requireActiveAirline(voter); err != nil {
			return err
		}
		i, ok := e.airlineIdx[candidate]
		if !ok {
			return fmt.Errorf("%w: airline %s", ErrNotFound, candidate)
		}
		c := &e.airlines[i]
		if c.Registered {
			return fmt.Errorf("%w: airline %s is already registered", ErrAlreadyExists, candidate)
		}
		if c.voted[voter] {
			return fmt.Errorf("%w: %s already voted for %s", ErrAlreadyExists, voter, candidate)
		}
		c.voted[voter] = true
		c.Voters = append(c.Voters, voter)
		c.Votes++
		t.emit(Event{Type: EventAirlineVoted, Account: candidate, Counterparty: voter})

		if e.admits(c.Votes) {
			c.Registered = true
			e.registeredCount++
			t.emit(Event{Type: EventAirlineRegistered, Account: candidate})
			e.log.WithFields(logrus.Fields{
				"airline": candidate,
				"votes":   c.Votes,
			}).Info("surety: airline admitted")
		}
		out = c.view()
		return nil
	})
	return out, err
}

// admits applies the two-regime admission threshold.  Below
// BootstrapAirlines registered airlines one vote is enough; from then on
// votes must be a strict majority of the registered airlines.
func (e *Engine) admits(votes uint32) bool {
	if e.registeredCount < e.cfg.BootstrapAirlines {
		return votes >= 1
	}
	n := e.registeredCount
	if e.cfg.AdmissionCountsCandidate {
		n++
	}
	return int(votes)*2 > n
}

// requireActiveAirline is the gate for proposing, voting and flight
// registration.
func (e *Engine) requireActiveAirline(account model.Account) error {
	i, ok := e.airlineIdx[account]
	if !ok || !e.airlines[i].Registered {
		return fmt.Errorf("%w: %s is not a registered airline", ErrUnauthorized, account)
	}
	if e.airlines[i].Funded.LessThan(e.cfg.MinAirlineStake) {
		return fmt.Errorf("%w: %s has not funded the minimum stake", ErrUnauthorized, account)
	}
	return nil
}

// GetAirline returns the airline record for account.
func (e *Engine) GetAirline(account model.Account) (model.Airline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.airlineIdx[account]
	if !ok {
		return model.Airline{}, fmt.Errorf("%w: airline %s", ErrNotFound, account)
	}
	return e.airlines[i].view(), nil
}

// ListAirlines returns every airline in creation order.
func (e *Engine) ListAirlines() []model.Airline {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Airline, 0, len(e.airlines))
	for i := range e.airlines {
		out = append(out, e.airlines[i].view())
	}
	return out
}

// RegisteredAirlines returns the number of admitted airlines.
func (e *Engine) RegisteredAirlines() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registeredCount
}

func (s *airlineSlot) view() model.Airline {
	a := s.Airline
	a.Voters = append([]model.Account{}, s.Voters...)
	return a
}
