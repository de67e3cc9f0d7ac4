package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RelikeddDev/controlio/internal/export"
)

func newExportCommand() *cobra.Command {
	var (
		outFlag  string
		asOfFlag string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write upcoming payments to an XLSX statement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf, err := parseAsOf(asOfFlag)
			if err != nil {
				return err
			}
			payments, closeFn, err := openPayments()
			if err != nil {
				return err
			}
			defer closeFn()

			projections, err := payments.Upcoming(cmd.Context(), asOf)
			if err != nil {
				return err
			}

			f, err := os.Create(outFlag)
			if err != nil {
				return fmt.Errorf("create %s: %w", outFlag, err)
			}
			defer f.Close()

			if err := export.WriteStatement(f, projections); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d cards)\n", outFlag, len(projections))
			return nil
		},
	}

	cmd.Flags().StringVar(&outFlag, "out", "statement.xlsx", "output file path")
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "reference date (YYYY-MM-DD, default today)")
	return cmd
}
