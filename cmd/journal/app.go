package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/trogers1052/trading-journal/internal/cache"
	"github.com/trogers1052/trading-journal/internal/config"
	"github.com/trogers1052/trading-journal/internal/database"
	"github.com/trogers1052/trading-journal/internal/intake"
	"github.com/trogers1052/trading-journal/internal/journal"
	"github.com/trogers1052/trading-journal/internal/kafka"
	"github.com/trogers1052/trading-journal/internal/logging"
	"github.com/trogers1052/trading-journal/internal/store"
)

// backend is a store backend that also remembers applied command ids
type backend interface {
	store.Backend
	kafka.CommandLog
}

type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	backend  backend
	store    *store.Store
	producer *kafka.Producer
	journal  *journal.Service
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.New(cfg.Log), nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger, migrate bool) (backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn().Msg("Using in-memory store; nothing survives a restart")
		return store.NewMemory(), nil

	case config.BackendRedis:
		r, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
		return r, nil

	default:
		db, err := database.New(cfg.Database.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if migrate {
			if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		logger.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Connected to PostgreSQL")
		return db, nil
	}
}

// newApp wires config, persistence, events and the journal service
func newApp(ctx context.Context, migrate, withEvents bool) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	b, err := openBackend(ctx, cfg, logger, migrate)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, backend: b, store: store.New(b)}

	var events journal.EventPublisher
	if withEvents && len(cfg.Kafka.Brokers) > 0 {
		a.producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		events = a.producer
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Publishing journal events")
	}

	var categorizer intake.Categorizer = intake.NoopCategorizer{}
	if cfg.Claude.APIKey != "" {
		categorizer = intake.NewClaudeCategorizer(cfg.Claude, cfg.Journal.Policies(), logger)
	} else {
		logger.Warn().Msg("CLAUDE_API_KEY not set; AI intake disabled")
	}

	defaults := store.DefaultSettings(cfg.Journal.StartingValues(), cfg.Journal.MaxRiskPercent, time.Now())
	svc, err := journal.New(ctx, a.store, defaults, journal.Options{
		Policy:      intake.NewPolicy(cfg.Journal.Policies()),
		Categorizer: categorizer,
		Events:      events,
		Logger:      logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.journal = svc
	return a, nil
}

func (a *app) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close Kafka producer")
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close store")
	}
}
