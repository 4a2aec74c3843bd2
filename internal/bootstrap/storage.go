// Package bootstrap opens the configured storage backend for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/config"
	"github.com/jobxpress/creditgate/internal/db/postgres"
	dbRedis "github.com/jobxpress/creditgate/internal/db/redis"
	accountrepo "github.com/jobxpress/creditgate/internal/repository/account"
	eventrepo "github.com/jobxpress/creditgate/internal/repository/event"
	billinguc "github.com/jobxpress/creditgate/internal/usecase/billing"
	webhookuc "github.com/jobxpress/creditgate/internal/usecase/webhook"
)

// Pinger checks backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Storage bundles the repositories of one backend.
type Storage struct {
	Accounts billinguc.Repository
	Events   webhookuc.EventLog
	Pinger   Pinger
	close    func()
}

// Close releases the backend connections.
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage connects to the configured driver, waits for it and, for postgres, applies the schema.
func OpenStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Storage, error) {
	ready := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
			RESP2:    cfg.Database.RESP2,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		if err := store.WaitForReady(ctx, ready); err != nil {
			store.Close()
			return nil, fmt.Errorf("%s not ready: %w", cfg.Database.Driver, err)
		}
		logger.Info("Connected to database",
			zap.String("driver", cfg.Database.Driver),
			zap.Strings("addrs", cfg.Database.Addrs),
		)
		return &Storage{
			Accounts: accountrepo.New(store, cfg.Storage.KeyPrefix),
			Events:   eventrepo.New(store, cfg.Storage.KeyPrefix, cfg.Stripe.EventTTL()),
			Pinger:   store,
			close:    store.Close,
		}, nil

	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, postgres.Config{
			DSN:      cfg.Database.DSN,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := pg.WaitForReady(ctx, ready); err != nil {
			pg.Close()
			return nil, fmt.Errorf("postgres not ready: %w", err)
		}
		if err := postgres.Migrate(ctx, pg); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
		return &Storage{
			Accounts: accountrepo.NewPostgres(pg),
			Events:   eventrepo.NewPostgres(pg),
			Pinger:   pg,
			close:    pg.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
