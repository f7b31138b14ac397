package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"absensi/internal/app/server"
	"absensi/internal/domain/attendance"
	"absensi/internal/platform/config"
	"absensi/internal/platform/db"
	"absensi/internal/platform/jobs"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var cfg config.Config
	root := &cobra.Command{
		Use:           "absensi",
		Short:         "Employee attendance and payroll server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg = config.Load()
			slog.SetDefault(server.NewLogger(cfg))
		},
	}
	root.AddCommand(
		newServeCmd(&cfg),
		newMigrateCmd(&cfg),
		newSeedCmd(&cfg),
		newSweepCmd(&cfg),
	)
	return root
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				cfg.Addr = addr
			}
			return server.Run(cmd.Context(), *cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides APP_ADDR)")
	return cmd
}

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			return db.Migrate(cfg.DatabaseURL)
		},
	}
}

func newSeedCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the first administrator and reference data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Seed(cmd.Context(), pool, *cfg)
		},
	}
}

func newSweepCmd(cfg *config.Config) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Issue absence warnings for one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			loc := cfg.Location()
			at := time.Now().In(loc)
			if day != "" {
				parsed, err := time.ParseInLocation("2006-01-02", day, loc)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				at = parsed
			}
			pool, err := db.Connect(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := attendance.NewService(attendance.NewStore(pool), loc)
			n, err := jobs.New(pool, svc, loc, nil).SweepNow(cmd.Context(), at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d warnings issued for %s\n", n, at.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "day to sweep, YYYY-MM-DD (default today)")
	return cmd
}
