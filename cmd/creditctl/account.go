package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	billinguc "github.com/jobxpress/creditgate/internal/usecase/billing"
)

func newAccountCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect and change user accounts",
	}
	cmd.AddCommand(newAccountShowCmd(opts))
	cmd.AddCommand(newAccountSetPlanCmd(opts))
	cmd.AddCommand(newAccountRefillCmd(opts))
	return cmd
}

func newAccountShowCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user's plan and credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBilling(cmd, func(ctx context.Context, svc *billinguc.Service) error {
				view, err := svc.Credits(ctx, userID)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), view.Account)
				}
				printAccount(cmd.OutOrStdout(), view.Account)
				fmt.Fprintf(cmd.OutOrStdout(), "next reset:  %s (%s)\n",
					formatTime(view.Account.NextResetAt()), view.Countdown)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newAccountSetPlanCmd(opts *rootOptions) *cobra.Command {
	var userID, planName, customerID string
	cmd := &cobra.Command{
		Use:   "set-plan",
		Short: "Move a user to a plan and refill its allotment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := plan.Parse(planName)
			if err != nil {
				return err
			}
			return opts.withBilling(cmd, func(ctx context.Context, svc *billinguc.Service) error {
				a, err := svc.ChangePlan(ctx, userID, p, customerID)
				if err != nil {
					return err
				}
				printAccount(cmd.OutOrStdout(), a)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id (required)")
	cmd.Flags().StringVarP(&planName, "plan", "p", "", "FREE, STARTER or PRO (required)")
	cmd.Flags().StringVar(&customerID, "customer", "", "Stripe customer id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func newAccountRefillCmd(opts *rootOptions) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "refill",
		Short: "Refill a user's credits to the plan allotment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBilling(cmd, func(ctx context.Context, svc *billinguc.Service) error {
				a, err := svc.Refill(ctx, userID)
				if err != nil {
					return err
				}
				printAccount(cmd.OutOrStdout(), a)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printAccount(w io.Writer, a account.Account) {
	fmt.Fprintf(w, "user:        %s\n", a.UserID)
	if a.Email != "" {
		fmt.Fprintf(w, "email:       %s\n", a.Email)
	}
	fmt.Fprintf(w, "plan:        %s\n", a.Plan)
	fmt.Fprintf(w, "credits:     %d/%d\n", a.Credits, plan.Lookup(a.Plan).Credits)
	if a.StripeCustomerID != "" {
		fmt.Fprintf(w, "customer:    %s\n", a.StripeCustomerID)
	}
	fmt.Fprintf(w, "last reset:  %s\n", formatTime(a.LastReset))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
