package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobxpress/creditgate/internal/config"
	chiTransport "github.com/jobxpress/creditgate/internal/transport/chi"
)

// newTokenCmd issues a user access token signed with auth.jwt_secret, for local testing.
func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		userID, email, secret string
		ttl                   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a user access token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				var err error
				secret, err = loadSecret(opts.env, func(c config.Config) string { return c.Auth.JWTSecret })
				if err != nil {
					return err
				}
			}
			tok, err := chiTransport.IssueToken(secret, userID, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (default: auth.jwt_secret)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
