package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Qiyd81/flightsurety-2/internal/config"
	"github.com/Qiyd81/flightsurety-2/internal/database"
	"github.com/Qiyd81/flightsurety-2/internal/handler"
	"github.com/Qiyd81/flightsurety-2/internal/middleware"
	"github.com/Qiyd81/flightsurety-2/internal/repository"
	"github.com/Qiyd81/flightsurety-2/internal/router"
	"github.com/Qiyd81/flightsurety-2/internal/stream"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

func main() {
	log := logrus.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(log *logrus.Logger) error {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	configureLogger(log, cfg)
	engCfg, err := config.LoadSuretyConfig()
	if err != nil {
		return err
	}
	ints := config.LoadIntegrations()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	if err := provisionOperators(ctx, repository.NewAccountRepo(db), cfg, engCfg, log); err != nil {
		return err
	}

	snaps, err := openSnapshots(ctx, ints, log)
	if err != nil {
		return err
	}
	defer snaps.close()

	hub := stream.NewHub(log)
	sinks, err := openSinks(ints, repository.NewJournalRepo(db), hub, log)
	if err != nil {
		return err
	}
	defer sinks.close()

	var entropy []byte
	if ints.EntropySeed != "" {
		entropy = []byte(ints.EntropySeed)
	}
	opts := []surety.Option{
		surety.WithLogger(log),
		surety.WithIndexer(surety.NewKeccakIndexer(entropy, engCfg.OracleIndexSpace)),
		surety.WithTransferer(repository.NewPayoutRepo(db)),
		surety.WithEventSink(sinks.list...),
		surety.WithSnapshotSink(snaps.sink),
	}
	if snaps.restored != nil {
		opts = append(opts, surety.WithSnapshot(snaps.restored))
	}
	eng, err := surety.New(engCfg, opts...)
	if err != nil {
		return err
	}
	if err := reconcilePayouts(ctx, eng, repository.NewPayoutRepo(db), log); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"seq":         eng.Seq(),
		"operational": eng.IsEnabled(),
		"owner":       engCfg.Owner,
	}).Info("engine ready")

	e := newEcho(cfg, eng, db, hub, engCfg, log)

	g, gctx := errgroup.WithContext(ctx)
	if ints.RelayEnabled {
		g.Go(func() error { return runRelay(gctx, eng, ints, sinks.requests, log) })
	}
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), ints.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	return g.Wait()
}

func configureLogger(log *logrus.Logger, cfg config.Config) {
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func newEcho(cfg config.Config, eng *surety.Engine, db *sql.DB, hub *stream.Hub, engCfg surety.Config, log *logrus.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log))

	var oracleCache echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		oracleCache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	}

	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	h := handler.NewSuretyHandler(eng, repository.NewJournalRepo(db), repository.NewPayoutRepo(db), log)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, engCfg.Owner, accounts, tokens, engCfg.SeedAirline), cfg.JWTSecret)
	router.RegisterPublic(e, h, hub.Serve, oracleCache)
	router.RegisterAccount(e, h, cfg.JWTSecret)
	router.RegisterOwner(e, h, cfg.JWTSecret)
	return e
}
