package billing

import (
	"sort"
	"time"

	"github.com/RelikeddDev/controlio/internal/core"
)

// InstallmentCharge is one synthesized monthly part of an installment plan
// that falls due inside a billing cycle.
type InstallmentCharge struct {
	TransactionID string
	Description   string
	Number        int // 1-based part index
	Total         int // total parts in the plan
	DueDate       time.Time
	Amount        core.Money
}

// Projection is the computed payment outlook for one card and one cycle.
type Projection struct {
	CardID         string
	CardName       string
	Bank           string
	LastFourDigits string
	Color          string

	Period           Period
	PaymentDate      time.Time
	DaysUntilPayment int

	Total             core.Money
	TransactionsCount int

	PeriodTransactions []core.Transaction
	InstallmentsDue    []InstallmentCharge
	RecurringActive    []core.Transaction
}

// PersonalDayProjection is the amount owed if the user settles the card on
// one of their preferred payment days instead of the contractual due date.
type PersonalDayProjection struct {
	Day        int
	Projection Projection
}

// CalculateNextPayment resolves the billing cycle containing asOf, its
// contractual payment date, and the total the card will demand: ordinary
// expenses dated inside the cycle, installment parts falling due in it, and
// recurring charges active during it. Income never increases the total, and
// empty input yields a zero projection rather than an error.
func CalculateNextPayment(card core.Card, transactions []core.Transaction, asOf time.Time) (Projection, error) {
	period, err := ResolvePeriod(asOf, card.CutoffDay)
	if err != nil {
		return Projection{}, err
	}
	paymentDate, err := ResolvePaymentDate(period.End, card.PaymentDay)
	if err != nil {
		return Projection{}, err
	}

	proj := projectPeriod(card, transactions, period)
	proj.PaymentDate = paymentDate
	proj.DaysUntilPayment = wholeDaysBetween(DateOnly(asOf), paymentDate)
	return proj, nil
}

// projectPeriod attributes every transaction to the given cycle under its
// kind's rule and sums the amount owed.
func projectPeriod(card core.Card, transactions []core.Transaction, period Period) Projection {
	proj := Projection{
		CardID:         card.ID,
		CardName:       card.Name,
		Bank:           card.Bank,
		LastFourDigits: card.LastFourDigits,
		Color:          card.Color,
		Period:         period,
	}

	for _, tx := range transactions {
		switch tx.Kind {
		case core.KindOrdinary:
			if !period.Contains(tx.Date) {
				continue
			}
			proj.PeriodTransactions = append(proj.PeriodTransactions, tx)
			// The cycle total reflects spend, not net: income inside the
			// period is listed but never reduces or increases the amount due.
			if tx.Type == core.Expense {
				proj.Total = proj.Total.Add(abs(tx.Amount))
			}

		case core.KindInstallment:
			for _, charge := range installmentsInPeriod(tx, period) {
				proj.Total = proj.Total.Add(charge.Amount)
				proj.InstallmentsDue = append(proj.InstallmentsDue, charge)
			}

		case core.KindRecurring:
			if !recurringActiveIn(tx, period) {
				continue
			}
			// One charge per cycle, regardless of how many months elapsed.
			proj.Total = proj.Total.Add(abs(tx.Amount))
			proj.RecurringActive = append(proj.RecurringActive, tx)
		}
	}

	proj.TransactionsCount = len(proj.PeriodTransactions) +
		len(proj.InstallmentsDue) + len(proj.RecurringActive)
	return proj
}

// installmentsInPeriod synthesizes the plan's monthly parts and returns the
// ones falling due inside the period. Each part is amount/installments in
// cents; the integer-division remainder stays unbilled.
func installmentsInPeriod(tx core.Transaction, period Period) []InstallmentCharge {
	if tx.Installments < 1 || tx.FirstPaymentDate.IsZero() {
		return nil
	}
	part := abs(tx.Amount).DivideBy(tx.Installments)
	var due []InstallmentCharge
	for i := 0; i < tx.Installments; i++ {
		dueDate := addMonths(DateOnly(tx.FirstPaymentDate), i)
		if !period.Contains(dueDate) {
			continue
		}
		due = append(due, InstallmentCharge{
			TransactionID: tx.ID,
			Description:   tx.Description,
			Number:        i + 1,
			Total:         tx.Installments,
			DueDate:       dueDate,
			Amount:        part,
		})
	}
	return due
}

// recurringActiveIn reports whether a recurring charge bills in the period:
// it must have started on or before the period end and either run open ended
// or end strictly after the period start.
func recurringActiveIn(tx core.Transaction, period Period) bool {
	if tx.RecurringStart.IsZero() {
		return false
	}
	if tx.RecurringInterval != core.IntervalMonthly {
		// Only monthly recurrence is supported.
		return false
	}
	start := DateOnly(tx.RecurringStart)
	if !start.Before(DateOnly(period.End).AddDate(0, 0, 1)) {
		return false
	}
	if tx.RecurringEnd.IsZero() {
		return true
	}
	return DateOnly(tx.RecurringEnd).After(DateOnly(period.Start))
}

// AllUpcomingPayments projects the next payment for every credit card,
// sorted ascending by payment date. Debit cards carry no billing cycle and
// are skipped.
func AllUpcomingPayments(cards []core.Card, transactions []core.Transaction, asOf time.Time) ([]Projection, error) {
	var projections []Projection
	for _, card := range cards {
		if !card.IsCredit() {
			continue
		}
		proj, err := CalculateNextPayment(card, transactionsForCard(transactions, card.ID), asOf)
		if err != nil {
			return nil, err
		}
		projections = append(projections, proj)
	}
	sort.SliceStable(projections, func(i, j int) bool {
		return projections[i].PaymentDate.Before(projections[j].PaymentDate)
	})
	return projections, nil
}

// TotalToPayOnPersonalDay sums the projected totals of every credit card the
// user has scheduled for the given personal payment day, and returns the
// per-card projections making up that sum.
func TotalToPayOnPersonalDay(cards []core.Card, transactions []core.Transaction, day int, asOf time.Time) (core.Money, []Projection, error) {
	var (
		total   core.Money
		matched []Projection
	)
	for _, card := range cards {
		if !card.IsCredit() || !card.HasPersonalPaymentDay(day) {
			continue
		}
		proj, err := CalculateNextPayment(card, transactionsForCard(transactions, card.ID), asOf)
		if err != nil {
			return core.Money{}, nil, err
		}
		total = total.Add(proj.Total)
		matched = append(matched, proj)
	}
	return total, matched, nil
}

// PersonalPaymentAmounts projects, for each of the card's personal payment
// days, the amount owed if the user pays on that day of the asOf month. The
// payment date is the personal day itself; the cycle is the one containing
// that day.
func PersonalPaymentAmounts(card core.Card, transactions []core.Transaction, asOf time.Time) ([]PersonalDayProjection, error) {
	if len(card.PersonalPaymentDays) == 0 {
		return nil, nil
	}
	var out []PersonalDayProjection
	for _, day := range card.PersonalPaymentDays {
		payDate := setDayClamped(DateOnly(asOf), day)
		period, err := ResolvePeriod(payDate, card.CutoffDay)
		if err != nil {
			return nil, err
		}
		proj := projectPeriod(card, transactions, period)
		proj.PaymentDate = payDate
		proj.DaysUntilPayment = wholeDaysBetween(DateOnly(asOf), payDate)
		out = append(out, PersonalDayProjection{Day: day, Projection: proj})
	}
	return out, nil
}

// ClosedPeriodAmount projects the card's most recently completed cycle:
// what the last statement closed at.
func ClosedPeriodAmount(card core.Card, transactions []core.Transaction, asOf time.Time) (Projection, error) {
	period, err := LastClosedPeriod(asOf, card.CutoffDay)
	if err != nil {
		return Projection{}, err
	}
	paymentDate, err := ResolvePaymentDate(period.End, card.PaymentDay)
	if err != nil {
		return Projection{}, err
	}
	proj := projectPeriod(card, transactions, period)
	proj.PaymentDate = paymentDate
	proj.DaysUntilPayment = wholeDaysBetween(DateOnly(asOf), paymentDate)
	return proj, nil
}

func transactionsForCard(transactions []core.Transaction, cardID string) []core.Transaction {
	var out []core.Transaction
	for _, tx := range transactions {
		if tx.CardID == cardID {
			out = append(out, tx)
		}
	}
	return out
}

func wholeDaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

func abs(m core.Money) core.Money {
	if m.Cents < 0 {
		return core.Money{Cents: -m.Cents}
	}
	return m
}
