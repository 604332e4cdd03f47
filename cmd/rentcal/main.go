package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rentcal/internal/app/middleware"
	"rentcal/internal/app/outbox"
	"rentcal/internal/app/uow"
	"rentcal/internal/infra/broker/kafka"
	"rentcal/internal/infra/config"
	mongorepo "rentcal/internal/infra/db/mongo"
	ginserver "rentcal/internal/infra/http/gin"
	"rentcal/internal/infra/inbox"
	"rentcal/internal/infra/obs"
	outboxrelay "rentcal/internal/infra/outbox"
	"rentcal/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := obs.NewLogger(getenv("APP_ENV", "dev"), os.Getenv("LOG_LEVEL"))
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger = obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("rentcal stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("rentcal stopped")
}

// storage is everything that differs between the memory and mongo backends.
type storage struct {
	factory     uow.UoWFactory
	outbox      outbox.Outbox
	idempotency middleware.IdempotencyStore
	inbox       kafka.Inbox
	// claims is nil when events cannot be relayed (memory storage).
	claims outboxrelay.ClaimStore
	ready  func(ctx context.Context) error
	close  func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.Storage == config.StorageMongo {
		client, err := mongorepo.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storage{}, fmt.Errorf("connect mongo: %w", err)
		}
		store := outboxrelay.NewStore(client.DB)
		return storage{
			factory:     client.Repositories(mongorepo.WithLogger(logger)),
			outbox:      store,
			idempotency: mongorepo.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
			inbox:       inbox.NewStore(client.DB, cfg.KafkaGroupID),
			claims:      store,
			ready:       client.Ping,
			close:       client.Close,
		}, nil
	}
	return storage{
		factory:     memory.NewFactory(),
		outbox:      memory.NewOutbox(),
		idempotency: memory.NewIdempotencyStore(),
		inbox:       memory.NewInbox(),
		ready:       func(context.Context) error { return nil },
		close:       func(context.Context) error { return nil },
	}, nil
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}()
	logger.Info("storage ready", "backend", cfg.Storage)

	app := buildApplication(appDeps{
		Factory:        st.factory,
		Outbox:         st.outbox,
		Idempotency:    st.idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
		MaxDays:        cfg.CalendarMaxDays,
		Location:       cfg.TimeZone,
		Logger:         logger,
	})

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" && cfg.Storage == config.StorageMemory {
		fixturesPath = defaultFixturesPath()
	}
	if fixturesPath != "" {
		if err := loadFixtures(ctx, fixturesPath, st.factory, app.commands, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: map[string]obs.Check{"storage": st.ready}}, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		return nil
	})

	if mem, ok := st.idempotency.(*memory.IdempotencyStore); ok && cfg.IdempotencyTTL > 0 {
		g.Go(func() error {
			sweepIdempotency(gctx, mem, cfg.IdempotencyTTL, logger)
			return nil
		})
	}

	if cfg.KafkaEnabled() {
		if err := startKafka(gctx, g, cfg, st, app, logger); err != nil {
			return err
		}
	} else {
		logger.Info("KAFKA_BROKERS not set, event relay and closure sync disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func startKafka(ctx context.Context, g *errgroup.Group, cfg config.Config, st storage, app application, logger *slog.Logger) error {
	if st.claims != nil {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		worker := &outboxrelay.Worker{
			Store:       st.claims,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
			Logger:      logger,
		}
		g.Go(func() error {
			defer producer.Close()
			logger.Info("outbox relay starting", "interval", cfg.OutboxPollInterval)
			return worker.Run(ctx)
		})
	} else {
		logger.Warn("outbox relay needs STORAGE=mongo; events stay in memory")
	}

	handler := &kafka.ClosureSyncHandler{Bus: app.commands, Inbox: st.inbox, Logger: logger}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, handler, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	topic := cfg.KafkaTopicPrefix + cfg.KafkaClosuresTopic
	g.Go(func() error {
		defer consumer.Close()
		logger.Info("closure sync consumer starting", "topic", topic, "group", cfg.KafkaGroupID)
		return consumer.Run(ctx, []string{topic})
	})
	return nil
}

// sweepIdempotency bounds the memory store; mongo expires records with a TTL index.
func sweepIdempotency(ctx context.Context, store *memory.IdempotencyStore, ttl time.Duration, logger *slog.Logger) {
	interval := min(ttl, time.Hour)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Purge(now.Add(-ttl)); n > 0 {
				logger.Debug("idempotency records purged", "count", n)
			}
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
