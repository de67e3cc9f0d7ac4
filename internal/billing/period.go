// Package billing computes credit-card billing cycles and payment
// projections. It is pure: no I/O, no shared state, inputs are never
// mutated. All dates are handled at day granularity in UTC.
package billing

import (
	"time"

	"github.com/RelikeddDev/controlio/internal/core"
)

// Period is one billing cycle: the day after the previous cutoff through the
// next cutoff, both ends inclusive.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the period, endpoints included.
func (p Period) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(p.Start)) && !d.After(DateOnly(p.End))
}

// DateOnly truncates t to midnight UTC so comparisons work at day
// granularity regardless of the wall-clock time carried by inputs.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// setDayClamped returns t's month at the given day-of-month, clamped to the
// month's last valid day. Day 31 in February becomes the 28th (or 29th), it
// never overflows into the next month.
func setDayClamped(t time.Time, day int) time.Time {
	y, m, _ := t.Date()
	if last := daysIn(y, m); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// addMonths shifts t by n calendar months, clamping the day to the target
// month's last valid day (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return setDayClamped(first, d)
}

// ResolvePeriod returns the billing cycle that referenceDate falls in for a
// card closing its statement on cutoffDay. On or before the cutoff the cycle
// started the previous month; after the cutoff a new cycle has begun.
func ResolvePeriod(referenceDate time.Time, cutoffDay int) (Period, error) {
	if !core.ValidDayOfMonth(cutoffDay) {
		return Period{}, core.ErrInvalidCutoffDay
	}
	ref := DateOnly(referenceDate)
	if ref.Day() <= cutoffDay {
		return Period{
			Start: setDayClamped(addMonths(ref, -1), cutoffDay+1),
			End:   setDayClamped(ref, cutoffDay),
		}, nil
	}
	return Period{
		Start: setDayClamped(ref, cutoffDay+1),
		End:   setDayClamped(addMonths(ref, 1), cutoffDay),
	}, nil
}

// ResolvePaymentDate returns the contractual due date for a cycle ending at
// periodEnd: the next occurrence of paymentDay on or after the cutoff.
func ResolvePaymentDate(periodEnd time.Time, paymentDay int) (time.Time, error) {
	if !core.ValidDayOfMonth(paymentDay) {
		return time.Time{}, core.ErrInvalidPaymentDay
	}
	end := DateOnly(periodEnd)
	if paymentDay >= end.Day() {
		return setDayClamped(end, paymentDay), nil
	}
	return setDayClamped(addMonths(end, 1), paymentDay), nil
}

// LastClosedPeriod returns the most recently completed billing cycle as of
// the given date: the cycle whose cutoff has already passed.
func LastClosedPeriod(asOf time.Time, cutoffDay int) (Period, error) {
	if !core.ValidDayOfMonth(cutoffDay) {
		return Period{}, core.ErrInvalidCutoffDay
	}
	ref := DateOnly(asOf)
	var end time.Time
	if ref.Day() >= cutoffDay {
		end = setDayClamped(ref, cutoffDay)
	} else {
		end = setDayClamped(addMonths(ref, -1), cutoffDay)
	}
	start := addMonths(end.AddDate(0, 0, 1), -1)
	return Period{Start: start, End: end}, nil
}

// FilterByPeriod returns the transactions whose date falls inside the
// period, both endpoints inclusive. The result is freshly allocated; the
// input slice is not touched.
func FilterByPeriod(transactions []core.Transaction, p Period) []core.Transaction {
	var out []core.Transaction
	for _, tx := range transactions {
		if p.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}
