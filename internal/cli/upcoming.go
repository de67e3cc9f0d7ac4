package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/RelikeddDev/controlio/internal/billing"
)

func newUpcomingCommand() *cobra.Command {
	var (
		asOfFlag string
		jsonFlag bool
	)

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show the next payment for every credit card",
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

			if jsonFlag {
				return printProjectionsJSON(cmd.OutOrStdout(), projections)
			}
			printProjectionsTable(cmd.OutOrStdout(), projections)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "reference date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "output JSON instead of a table")
	return cmd
}

func printProjectionsJSON(w io.Writer, projections []billing.Projection) error {
	type row struct {
		Card             string `json:"card"`
		Bank             string `json:"bank"`
		PeriodStart      string `json:"period_start"`
		PeriodEnd        string `json:"period_end"`
		PaymentDate      string `json:"payment_date"`
		DaysUntilPayment int    `json:"days_until_payment"`
		TotalCents       int64  `json:"total_cents"`
		Total            string `json:"total"`
	}
	out := make([]row, 0, len(projections))
	for _, p := range projections {
		out = append(out, row{
			Card:             p.CardName,
			Bank:             p.Bank,
			PeriodStart:      p.Period.Start.Format("2006-01-02"),
			PeriodEnd:        p.Period.End.Format("2006-01-02"),
			PaymentDate:      p.PaymentDate.Format("2006-01-02"),
			DaysUntilPayment: p.DaysUntilPayment,
			TotalCents:       p.Total.Cents,
			Total:            p.Total.String(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printProjectionsTable(w io.Writer, projections []billing.Projection) {
	if len(projections) == 0 {
		fmt.Fprintln(w, "No credit cards configured.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Card", "Bank", "Cycle", "Payment Date", "Days", "Total"})

	var totalCents int64
	for _, p := range projections {
		cycle := fmt.Sprintf("%s .. %s",
			p.Period.Start.Format("2006-01-02"),
			p.Period.End.Format("2006-01-02"))
		t.AppendRow(table.Row{
			p.CardName,
			p.Bank,
			cycle,
			p.PaymentDate.Format("2006-01-02"),
			p.DaysUntilPayment,
			p.Total.String(),
		})
		totalCents += p.Total.Cents
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total",
		fmt.Sprintf("$%d.%02d", totalCents/100, totalCents%100)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
