// Package export renders payment projections as an XLSX statement.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/RelikeddDev/controlio/internal/billing"
)

const sheetName = "Upcoming Payments"

var header = []string{
	"Card", "Bank", "Last Four", "Period Start", "Period End",
	"Payment Date", "Days Until Payment", "Charges", "Total",
}

// WriteStatement writes one row per card projection plus a grand total
// row to w in XLSX format.
func WriteStatement(w io.Writer, projections []billing.Projection) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	var totalCents int64
	for i, p := range projections {
		row := i + 2
		values := []any{
			p.CardName,
			p.Bank,
			p.LastFourDigits,
			p.Period.Start.Format("2006-01-02"),
			p.Period.End.Format("2006-01-02"),
			p.PaymentDate.Format("2006-01-02"),
			p.DaysUntilPayment,
			p.TransactionsCount,
			p.Total.Float64(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("row %d cell: %w", row, err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
		totalCents += p.Total.Cents
	}

	totalRow := len(projections) + 2
	labelCell, err := excelize.CoordinatesToCellName(1, totalRow)
	if err != nil {
		return fmt.Errorf("total label cell: %w", err)
	}
	if err := f.SetCellValue(sheetName, labelCell, "Total"); err != nil {
		return fmt.Errorf("write total label: %w", err)
	}
	totalCell, err := excelize.CoordinatesToCellName(len(header), totalRow)
	if err != nil {
		return fmt.Errorf("total cell: %w", err)
	}
	if err := f.SetCellValue(sheetName, totalCell, float64(totalCents)/100.0); err != nil {
		return fmt.Errorf("write total: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
