// Package relay runs the simulated oracle fleet.  It enrolls a range of
// oracle accounts with the engine and answers every status request on the
// indexes each oracle holds.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/queue"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// Core is the part of the engine the relay drives.
type Core interface {
	RegisterOracle(ctx context.Context, account model.Account, fee decimal.Decimal) (model.Oracle, error)
	GetOracle(account model.Account) (model.Oracle, error)
	SubmitResponse(ctx context.Context, oracle model.Account, index uint8, key model.FlightKey, code model.StatusCode) (surety.Report, error)
}

// Config sizes the fleet.
type Config struct {
	Oracles int
	// Label prefixes the derived oracle accounts: <label>-0, <label>-1, ...
	Label   string
	Fee     decimal.Decimal
	Workers int
}

type Relay struct {
	core   Core
	policy StatusPolicy
	cfg    Config
	log    logrus.FieldLogger

	mu         sync.RWMutex
	oracles    []model.Oracle
	registered bool
}

func New(core Core, policy StatusPolicy, cfg Config, log logrus.FieldLogger) *Relay {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Relay{core: core, policy: policy, cfg: cfg, log: log}
}

// DeriveAccounts returns the n oracle accounts for label.
func DeriveAccounts(label string, n int) []model.Account {
	out := make([]model.Account, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.DeriveAccount(fmt.Sprintf("%s-%d", label, i)))
	}
	return out
}

// Register enrolls the fleet.  Accounts enrolled by an earlier run keep
// their indexes.  Handle calls it again until it has succeeded once.
func (r *Relay) Register(ctx context.Context) error {
	oracles := make([]model.Oracle, 0, r.cfg.Oracles)
	for _, acc := range DeriveAccounts(r.cfg.Label, r.cfg.Oracles) {
		o, err := r.core.RegisterOracle(ctx, acc, r.cfg.Fee)
		if errors.Is(err, surety.ErrAlreadyExists) {
			o, err = r.core.GetOracle(acc)
		}
		if err != nil {
			return fmt.Errorf("relay: register %s: %w", acc, err)
		}
		oracles = append(oracles, o)
	}
	r.mu.Lock()
	r.oracles = oracles
	r.registered = true
	r.mu.Unlock()
	r.log.WithField("oracles", len(oracles)).Info("relay: oracle fleet registered")
	return nil
}

// Oracles returns the registered fleet.
func (r *Relay) Oracles() []model.Oracle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Oracle{}, r.oracles...)
}

// Handle answers req with every oracle that holds its index.  The status
// is drawn once for the request so the holders agree.  A fleet that could
// not be enrolled earlier is enrolled first.  Rejected responses are
// logged; a disabled engine aborts the batch.
func (r *Relay) Handle(ctx context.Context, req queue.OracleRequestedEvent) error {
	if err := r.ensureRegistered(ctx); err != nil {
		return err
	}
	key := req.Key()
	code := r.policy.Status(req)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	answered := 0
	for _, o := range r.Oracles() {
		if !o.Has(req.Index) {
			continue
		}
		answered++
		g.Go(func() error {
			rep, err := r.core.SubmitResponse(gctx, o.Account, req.Index, key, code)
			switch {
			case errors.Is(err, surety.ErrSystemDisabled):
				return err
			case err != nil:
				r.log.WithError(err).WithField("oracle", o.Account).Warn("relay: response rejected")
				return nil
			}
			if rep.Counted && rep.Finalized && rep.Status == code {
				r.log.WithFields(logrus.Fields{
					"flight": key.String(),
					"status": code.String(),
				}).Debug("relay: response joined the finalizing quorum")
			}
			return nil
		})
	}
	err := g.Wait()
	r.log.WithFields(logrus.Fields{
		"flight":   key.String(),
		"index":    req.Index,
		"status":   code.String(),
		"answered": answered,
	}).Info("relay: status request handled")
	return err
}

func (r *Relay) ensureRegistered(ctx context.Context) error {
	r.mu.RLock()
	done := r.registered
	r.mu.RUnlock()
	if done {
		return nil
	}
	return r.Register(ctx)
}

// Run handles requests from ch until it is closed or ctx ends.
func (r *Relay) Run(ctx context.Context, ch <-chan queue.OracleRequestedEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.Handle(ctx, req); err != nil {
				r.log.WithError(err).Error("relay: request failed")
			}
		}
	}
}
