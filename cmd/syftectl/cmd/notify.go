package cmd

import (
	"context"
	"fmt"

	"github.com/Dune005/syfte/internal/app"
	"github.com/Dune005/syfte/internal/config"
	"github.com/Dune005/syfte/internal/logger"
	"github.com/spf13/cobra"
)

// withApp loads config, wires the app and closes it after fn returns.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg := config.Load()
	logger.Init(logger.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.AppEnv,
	})
	defer logger.Flush()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(a)
}

func NotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Push reminder tools",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run-once",
		Short: "Send the reminders due at the current minute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.NotificationService.RunReminders(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reminded %d users\n", n)
				return nil
			})
		},
	})
	return cmd
}

func CleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-tokens",
		Short: "Delete expired and used password reset tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.AuthService.CleanupExpiredTokens()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d tokens\n", n)
				return nil
			})
		},
	}
}
