package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RelikeddDev/controlio/internal/core"
)

func newPersonalDayCommand() *cobra.Command {
	var (
		dayFlag  int
		asOfFlag string
	)

	cmd := &cobra.Command{
		Use:   "personal-day",
		Short: "Total owed across cards scheduled for a personal payment day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !core.ValidDayOfMonth(dayFlag) {
				return fmt.Errorf("--day must be between 1 and 31")
			}
			asOf, err := parseAsOf(asOfFlag)
			if err != nil {
				return err
			}
			payments, closeFn, err := openPayments()
			if err != nil {
				return err
			}
			defer closeFn()

			total, matched, err := payments.PersonalDayTotal(cmd.Context(), dayFlag, asOf)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range matched {
				fmt.Fprintf(out, "  %s (%s): %s\n", p.CardName, p.Bank, p.Total)
			}
			fmt.Fprintf(out, "To pay on day %d: %s\n", dayFlag, total)
			return nil
		},
	}

	cmd.Flags().IntVar(&dayFlag, "day", 0, "day of month (1-31)")
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "reference date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}
