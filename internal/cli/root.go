// Package cli implements the controlio command line interface. Commands
// open the SQLite database directly, so the server does not need to be
// running.
package cli

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/RelikeddDev/controlio/internal/config"
	"github.com/RelikeddDev/controlio/internal/services"
	"github.com/RelikeddDev/controlio/internal/storage"
)

// NewRootCommand creates the root CLI command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "controlio",
		Short: "Credit card billing cycles and payment projections",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newUpcomingCommand())
	rootCmd.AddCommand(newPersonalDayCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newExportCommand())

	return rootCmd
}

// openPayments wires a payments service over the configured database.
// The returned closer must be called when done.
func openPayments() (*services.PaymentsService, func() error, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration: %w", err)
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}
	return services.NewPaymentsService(repo, repo), repo.Close, nil
}

// parseAsOf turns an optional --as-of flag into a reference time. Empty
// means now.
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
