package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobxpress/creditgate/internal/bootstrap"
	"github.com/jobxpress/creditgate/internal/config"
	logpkg "github.com/jobxpress/creditgate/internal/logger"
	billinguc "github.com/jobxpress/creditgate/internal/usecase/billing"
	"github.com/jobxpress/creditgate/internal/version"
)

// billingOpener connects to the ledger. The returned func releases it.
type billingOpener func(ctx context.Context, env string) (*billinguc.Service, func(), error)

type rootOptions struct {
	env     string
	timeout time.Duration
	open    billingOpener
}

func newRootCmd(open billingOpener) *cobra.Command {
	opts := &rootOptions{open: open}

	root := &cobra.Command{
		Use:           "creditctl",
		Short:         "Administer creditgate plans and credits",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.env, "env", "e", config.GetEnv(), "Config environment (config/<env>.yaml)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Operation timeout")

	root.AddCommand(newPlansCmd())
	root.AddCommand(newAccountCmd(opts))
	root.AddCommand(newWebhookCmd(opts))
	root.AddCommand(newTokenCmd(opts))
	return root
}

// withBilling runs fn with a connected billing service.
func (o *rootOptions) withBilling(cmd *cobra.Command, fn func(ctx context.Context, svc *billinguc.Service) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	svc, closeFn, err := o.open(ctx, o.env)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc)
}

// openBilling loads config/<env>.yaml and connects to its store.
func openBilling(ctx context.Context, env string) (*billinguc.Service, func(), error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logpkg.NewLogger(env, "warn")
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	storage, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	svc := billinguc.New(storage.Accounts, logger.Named("creditctl")).
		WithLazyReset(cfg.Billing.LazyResetEnabled())

	return svc, func() {
		storage.Close()
		_ = logger.Sync()
	}, nil
}

// loadSecret reads one secret from the environment's config.
func loadSecret(env string, pick func(config.Config) string) (string, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return "", err
	}
	return pick(cfg), nil
}
