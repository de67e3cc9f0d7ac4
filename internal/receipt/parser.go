// Package receipt turns raw OCR text into a draft transaction guess.
// The extraction is a line-by-line heuristic: the first token that looks
// like a money amount and the first token that looks like a date win.
// Drafts always need human review before they become transactions.
package receipt

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RelikeddDev/controlio/internal/core"
)

var (
	amountPattern = regexp.MustCompile(`(?:\$|\b)(\d+(?:[.,]\d{1,2})?)\b`)
	datePattern   = regexp.MustCompile(`\b(\d{1,4})[/\-.](\d{1,2})[/\-.](\d{1,4})\b`)
)

// Draft is the best-effort extraction from one receipt. Zero fields mean
// the corresponding token was not found.
type Draft struct {
	Amount core.Money
	Date   time.Time
}

// Found reports whether anything usable was extracted.
func (d Draft) Found() bool {
	return d.Amount.Cents != 0 || !d.Date.IsZero()
}

// Parse scans rawText for the first amount-like and date-like tokens.
func Parse(rawText string) Draft {
	var draft Draft
	for _, line := range strings.Split(rawText, "\n") {
		if draft.Amount.Cents == 0 {
			if m := amountPattern.FindStringSubmatch(line); m != nil {
				draft.Amount = parseAmount(m[1])
			}
		}
		if draft.Date.IsZero() {
			if m := datePattern.FindStringSubmatch(line); m != nil {
				draft.Date = parseDate(m[1], m[2], m[3])
			}
		}
		if draft.Amount.Cents != 0 && !draft.Date.IsZero() {
			break
		}
	}
	return draft
}

func parseAmount(token string) core.Money {
	normalized := strings.ReplaceAll(token, ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil || d.Sign() <= 0 {
		return core.Money{}
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0)
	if !cents.IsInteger() || cents.BigInt().BitLen() > 62 {
		return core.Money{}
	}
	return core.Money{Cents: cents.IntPart()}
}

// parseDate accepts year-first (2024/03/02) and day-first (02/03/2024)
// tokens. Two-digit years are read as 2000+.
func parseDate(a, b, c string) time.Time {
	first, second, third := atoi(a), atoi(b), atoi(c)

	var year, month, day int
	switch {
	case len(a) == 4:
		year, month, day = first, second, third
	case len(c) == 4:
		year, month, day = third, second, first
	default:
		// Ambiguous short form, read as yy/mm/dd like the long form.
		year, month, day = 2000+first, second, third
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject overflowed dates like Feb 30.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}
	}
	return t
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
