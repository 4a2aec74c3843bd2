package creditgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/db"
	dbRedis "github.com/jobxpress/creditgate/internal/db/redis"
	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	accountrepo "github.com/jobxpress/creditgate/internal/repository/account"
	billinguc "github.com/jobxpress/creditgate/internal/usecase/billing"
	gateuc "github.com/jobxpress/creditgate/internal/usecase/gate"
	healthuc "github.com/jobxpress/creditgate/internal/usecase/health"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type billingUseCase interface {
	Credits(ctx context.Context, userID string) (account.View, error)
	CanSpend(ctx context.Context, userID string, cost int) (bool, int, error)
	DebitSearch(ctx context.Context, userID string, results int) (int, error)
	DebitAdvice(ctx context.Context, userID string) (int, error)
	ChangePlan(ctx context.Context, userID string, p plan.Plan, customerID string) (account.Account, error)
	Refill(ctx context.Context, userID string) (account.Account, error)
}

type gateUseCase interface {
	Start(ctx context.Context, owner string) string
	State(ctx context.Context, sid string) (gateuc.View, error)
	Open(ctx context.Context, sid string, snapshot *credits.Snapshot) (gateuc.View, error)
	Close(ctx context.Context, sid string) (gateuc.View, error)
	CheckUser(ctx context.Context, sid, userID string) (gateuc.View, bool, error)
	End(ctx context.Context, sid string) error
	Run(ctx context.Context)
}

// Client is the creditgate SDK entry point.
type Client struct {
	store     db.Store
	billing   billingUseCase
	gate      gateUseCase
	healthSvc healthUseCase
	obs       *observer
	stop      context.CancelFunc
}

// New creates a Client, connects to the database and starts the idle-session sweeper.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("creditgate: database address required (use WithValkey or WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("creditgate: database not ready: %w", err)
	}

	c := wireClient(store, cfg, obs)
	runCtx, cancel := context.WithCancel(context.Background())
	c.stop = cancel
	go c.gate.Run(runCtx)
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
			RESP2:    cfg.resp2,
		})
		if err != nil {
			return nil, fmt.Errorf("creditgate: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("creditgate: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()

	accounts := accountrepo.New(store, cfg.keyPrefix)
	billingSvc := billinguc.New(accounts, logger).WithLazyReset(cfg.lazyReset)
	gateSvc := gateuc.New(billingSvc, cfg.paymentLink, cfg.sessionTTL, logger)

	return &Client{
		store:     store,
		billing:   billingSvc,
		gate:      gateSvc,
		healthSvc: healthuc.New(store, nil),
		obs:       obs,
	}
}

// Close stops the session sweeper and releases all resources.
func (c *Client) Close() {
	if c.stop != nil {
		c.stop()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
