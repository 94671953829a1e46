package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/config"
	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/queue"
	"github.com/Qiyd81/flightsurety-2/internal/relay"
	"github.com/Qiyd81/flightsurety-2/internal/repository"
	"github.com/Qiyd81/flightsurety-2/internal/service"
	"github.com/Qiyd81/flightsurety-2/internal/store"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

type snapshots struct {
	sink     surety.SnapshotSink
	restored *surety.Snapshot
	close    func()
}

// openSnapshots opens the Badger store, loads the last snapshot and, when
// MinIO is configured, tees snapshots into the archive bucket too.
func openSnapshots(ctx context.Context, ints config.Integrations, log logrus.FieldLogger) (*snapshots, error) {
	st, err := store.Open(ints.BadgerDir, log)
	if err != nil {
		return nil, err
	}
	snap, err := st.Load(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	out := &snapshots{sink: st, restored: snap, close: func() { _ = st.Close() }}
	if snap != nil {
		log.WithField("seq", snap.Seq).Info("restoring engine snapshot")
	}
	if ints.MinioEndpoint == "" {
		return out, nil
	}
	arch, err := store.NewArchiver(store.ArchiveConfig{
		Endpoint:  ints.MinioEndpoint,
		AccessKey: ints.MinioAccessKey,
		SecretKey: ints.MinioSecretKey,
		Bucket:    ints.MinioBucket,
		UseSSL:    ints.MinioUseSSL,
		Every:     ints.ArchiveEvery,
	}, log)
	if err == nil {
		err = arch.EnsureBucket(ctx)
	}
	if err != nil {
		log.WithError(err).Warn("snapshot archive disabled")
		return out, nil
	}
	out.sink = store.Tee{st, arch}
	return out, nil
}

type sinkSet struct {
	list []surety.EventSink
	// requests feeds the in-process relay when no broker is configured.
	requests <-chan queue.OracleRequestedEvent
	closers  []func()
}

func (s *sinkSet) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openSinks builds the event fan-out: the MySQL journal and the websocket
// hub always, RabbitMQ or the in-process relay channel for oracle requests,
// and NATS and InfluxDB when configured.
func openSinks(ints config.Integrations, journal surety.EventSink, hub surety.EventSink, log logrus.FieldLogger) (*sinkSet, error) {
	s := &sinkSet{list: []surety.EventSink{journal, hub}}

	if ints.AMQPURL != "" {
		pub := service.NewPublisher(ints.AMQPURL, log)
		s.list = append(s.list, pub)
		s.closers = append(s.closers, func() { _ = pub.Close() })
	} else if ints.RelayEnabled {
		ch := relay.NewChannelSink(ints.RelayBuffer, log)
		s.list = append(s.list, ch)
		s.requests = ch.Requests()
	}

	if ints.NATSURL != "" {
		ns, err := service.NewNATSSink(service.NATSConfig{
			URL:            ints.NATSURL,
			Name:           "flightsurety",
			SubjectPrefix:  ints.NATSSubjectPrefix,
			ReconnectWait:  2 * time.Second,
			MaxReconnects:  -1,
			ConnectTimeout: 5 * time.Second,
		}, log)
		if err != nil {
			s.close()
			return nil, err
		}
		s.list = append(s.list, ns)
		s.closers = append(s.closers, func() { _ = ns.Close() })
	}

	if ints.InfluxURL != "" {
		ms := service.NewMetricsSink(service.InfluxConfig{
			URL:    ints.InfluxURL,
			Token:  ints.InfluxToken,
			Org:    ints.InfluxOrg,
			Bucket: ints.InfluxBucket,
		})
		s.list = append(s.list, ms)
		s.closers = append(s.closers, ms.Close)
	}
	return s, nil
}

// runRelay enrolls the simulated oracle fleet and answers requests from
// the broker, or from the in-process channel when there is none.
func runRelay(ctx context.Context, eng *surety.Engine, ints config.Integrations, requests <-chan queue.OracleRequestedEvent, log logrus.FieldLogger) error {
	r := relay.New(eng, relay.NewRandomStatus(ints.RelaySeed), relay.Config{
		Oracles: ints.RelayOracles,
		Label:   ints.RelayLabel,
		Fee:     eng.Config().OracleRegistrationFee,
		Workers: ints.RelayWorkers,
	}, log)
	if err := r.Register(ctx); err != nil {
		if errors.Is(err, surety.ErrSystemDisabled) {
			log.WithError(err).Warn("relay: engine paused; oracle fleet will register on the first request")
		} else {
			return fmt.Errorf("relay: %w", err)
		}
	}

	var err error
	if ints.AMQPURL != "" {
		err = queue.StartOracleRequestConsumer(ctx, ints.AMQPURL, func(ctx context.Context, ev queue.OracleRequestedEvent) error {
			if err := r.Handle(ctx, ev); err != nil && !errors.Is(err, surety.ErrSystemDisabled) {
				return err
			}
			return nil
		}, log)
	} else {
		err = r.Run(ctx, requests)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type credentialStore interface {
	Provision(ctx context.Context, account model.Account, hash, role string) error
	Disable(ctx context.Context, account model.Account) error
}

// provisionOperators installs the owner and seed airline credentials from
// configuration.  An operator with no configured hash is disabled, so the
// account cannot sign in until one is set.
func provisionOperators(ctx context.Context, creds credentialStore, cfg config.Config, engCfg surety.Config, log logrus.FieldLogger) error {
	type operator struct {
		account model.Account
		hash    string
		role    string
		env     string
	}
	ops := []operator{{engCfg.Owner, cfg.OwnerPasswordHash, repository.RoleOwner, "OWNER_PASSWORD_HASH"}}
	if engCfg.SeedAirline != engCfg.Owner {
		ops = append(ops, operator{engCfg.SeedAirline, cfg.SeedPasswordHash, repository.RoleAccount, "SEED_AIRLINE_PASSWORD_HASH"})
	}
	for _, op := range ops {
		if op.hash == "" {
			if err := creds.Disable(ctx, op.account); err != nil {
				return fmt.Errorf("disable %s: %w", op.account, err)
			}
			log.WithField("account", op.account).Warnf("%s not set; operator sign-in disabled", op.env)
			continue
		}
		if err := creds.Provision(ctx, op.account, op.hash, op.role); err != nil {
			return fmt.Errorf("provision %s: %w", op.account, err)
		}
		log.WithFields(logrus.Fields{"account": op.account, "role": op.role}).Info("operator credential provisioned")
	}
	return nil
}

type payoutLedger interface {
	Totals(ctx context.Context) (map[model.Account]decimal.Decimal, error)
}

// reconcilePayouts settles payouts made after the restored snapshot was
// taken against the engine balances.
func reconcilePayouts(ctx context.Context, eng *surety.Engine, ledger payoutLedger, log logrus.FieldLogger) error {
	paid, err := ledger.Totals(ctx)
	if err != nil {
		return fmt.Errorf("load payout totals: %w", err)
	}
	adjusted, err := eng.ReconcilePayouts(ctx, paid)
	if err != nil {
		return err
	}
	if len(adjusted) > 0 {
		log.WithField("accounts", len(adjusted)).Warn("payouts reconciled against restored state")
	}
	return nil
}
