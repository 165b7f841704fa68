package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"carecoin/internal/ledger/cache"
	"carecoin/internal/ledger/events"
	ledgerhandler "carecoin/internal/ledger/handler"
	ledgermetrics "carecoin/internal/ledger/metrics"
	"carecoin/internal/ledger/service"
	"carecoin/internal/ledger/store"
	"carecoin/internal/platform/config"
	"carecoin/internal/platform/httpserver"
	"carecoin/internal/platform/jwt"
	"carecoin/internal/platform/logger"
	platformredis "carecoin/internal/platform/redis"
	httptransport "carecoin/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Ledger logic lives in internal/ledger.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ledgerStore store.Store
	serviceOpts := []service.Option{service.WithLogger(log)}
	if cfg.PostgresURL != "" {
		db, err := store.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("schema setup failed", "error", err)
			os.Exit(1)
		}
		ledgerStore = pg
		serviceOpts = append(serviceOpts, service.WithTx(store.NewTxRunner(db)))
	} else {
		log.Warn("no postgres configured, ledger state is in-memory only")
		ledgerStore = store.NewInMemory()
	}

	metrics := ledgermetrics.New()
	serviceOpts = append(serviceOpts, service.WithMetrics(metrics))

	publisher := events.NewPublisher(log, cfg.EventBuffer,
		events.WithDropCounter(metrics.IncrementEventsDropped))
	sinks := []events.Sink{events.NewMemorySink()}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := events.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	worker := events.NewWorker(publisher, log, sinks...)
	serviceOpts = append(serviceOpts, service.WithEvents(publisher))

	ledgerService := service.NewService(ledgerStore, cfg.OwnerAccount, serviceOpts...)

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	balanceCache := cache.New(redisClient, 30*time.Second, log)

	jwtService := jwt.NewService(cfg.JWTSigningKey, "carecoin")
	handler := ledgerhandler.New(ledgerService, log, balanceCache, jwtService)
	router := httptransport.NewRouter(handler)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting carecoin ledger", "addr", cfg.Addr, "owner", cfg.OwnerAccount)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		publisher.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("carecoin ledger stopped")
}
