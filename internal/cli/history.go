package cli

import (
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		asOfFlag string
		jsonFlag bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recently closed cycle for every credit card",
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

			closed, err := payments.History(cmd.Context(), asOf)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printProjectionsJSON(cmd.OutOrStdout(), closed)
			}
			printProjectionsTable(cmd.OutOrStdout(), closed)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "reference date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "output JSON instead of a table")
	return cmd
}
