package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobxpress/creditgate/internal/config"
	webhookuc "github.com/jobxpress/creditgate/internal/usecase/webhook"
)

func newWebhookCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Stripe webhook helpers",
	}
	cmd.AddCommand(newWebhookSignCmd(opts))
	return cmd
}

// newWebhookSignCmd prints a Stripe-Signature header for a payload, for replaying events locally.
func newWebhookSignCmd(opts *rootOptions) *cobra.Command {
	var file, secret string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print a Stripe-Signature header for a payload file (- for stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				payload []byte
				err     error
			)
			if file == "-" {
				payload, err = io.ReadAll(cmd.InOrStdin())
			} else {
				payload, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			if secret == "" {
				secret, err = loadSecret(opts.env, func(c config.Config) string { return c.Stripe.WebhookSecret })
				if err != nil {
					return err
				}
			}
			if secret == "" {
				return fmt.Errorf("no webhook secret: pass --secret or set stripe.webhook_secret")
			}

			fmt.Fprintln(cmd.OutOrStdout(), webhookuc.SignatureHeader(payload, secret, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Payload file")
	cmd.Flags().StringVar(&secret, "secret", "", "Webhook secret (default: stripe.webhook_secret)")
	return cmd
}
