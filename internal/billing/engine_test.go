package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RelikeddDev/controlio/internal/core"
)

func testCard() core.Card {
	return core.Card{
		ID:                  "card-1",
		Name:                "Oro",
		Bank:                "BBVA",
		Type:                core.CardCredit,
		LastFourDigits:      "4821",
		CutoffDay:           1,
		PaymentDay:          15,
		PersonalPaymentDays: []int{15},
	}
}

func cents(c int64) core.Money { return core.Money{Cents: c} }

func ordinary(id string, cardID string, txType core.TransactionType, amountCents int64, day time.Time) core.Transaction {
	return core.Transaction{
		ID:     id,
		CardID: cardID,
		Type:   txType,
		Kind:   core.KindOrdinary,
		Amount: cents(amountCents),
		Date:   day,
	}
}

func TestCalculateNextPayment_OrdinaryExpenses(t *testing.T) {
	card := testCard()
	asOf := date(2024, time.March, 1) // period [2024-02-02, 2024-03-01]
	txs := []core.Transaction{
		ordinary("t1", card.ID, core.Expense, 12050, date(2024, time.February, 10)),
		ordinary("t2", card.ID, core.Expense, 8000, date(2024, time.March, 1)), // on period end
		ordinary("t3", card.ID, core.Expense, 5000, date(2024, time.March, 2)), // outside
	}

	proj, err := CalculateNextPayment(card, txs, asOf)
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.February, 2), proj.Period.Start)
	assert.Equal(t, date(2024, time.March, 1), proj.Period.End)
	assert.Equal(t, date(2024, time.March, 15), proj.PaymentDate)
	assert.Equal(t, 14, proj.DaysUntilPayment)
	assert.Equal(t, cents(20050), proj.Total)
	assert.Len(t, proj.PeriodTransactions, 2)
	assert.Equal(t, 2, proj.TransactionsCount)
}

func TestCalculateNextPayment_IncomeNeverIncreasesTotal(t *testing.T) {
	card := testCard()
	asOf := date(2024, time.March, 1)
	txs := []core.Transaction{
		ordinary("e1", card.ID, core.Expense, 10000, date(2024, time.February, 14)),
		ordinary("i1", card.ID, core.Income, 99900, date(2024, time.February, 14)),
	}

	proj, err := CalculateNextPayment(card, txs, asOf)
	require.NoError(t, err)

	assert.Equal(t, cents(10000), proj.Total, "income inside the period must not change the amount due")
	assert.Len(t, proj.PeriodTransactions, 2, "income still shows in the breakdown")
}

func TestCalculateNextPayment_InstallmentAttribution(t *testing.T) {
	card := testCard()
	asOf := date(2024, time.March, 1) // period [2024-02-02, 2024-03-01]
	plan := core.Transaction{
		ID:               "msi-1",
		CardID:           card.ID,
		Type:             core.Expense,
		Kind:             core.KindInstallment,
		Amount:           cents(90000), // $900 over 3 months
		Description:      "Television",
		Installments:     3,
		FirstPaymentDate: date(2024, time.January, 10),
	}

	proj, err := CalculateNextPayment(card, []core.Transaction{plan}, asOf)
	require.NoError(t, err)

	require.Len(t, proj.InstallmentsDue, 1, "only the Feb 10 part falls in this cycle")
	charge := proj.InstallmentsDue[0]
	assert.Equal(t, cents(30000), charge.Amount)
	assert.Equal(t, 2, charge.Number)
	assert.Equal(t, 3, charge.Total)
	assert.Equal(t, date(2024, time.February, 10), charge.DueDate)
	assert.Equal(t, cents(30000), proj.Total)
	assert.Equal(t, 1, proj.TransactionsCount)
}

// Summing every synthesized part must recover the original amount up to the
// integer-division remainder, which is always under one cent per part.
func TestInstallmentConservation(t *testing.T) {
	for _, tc := range []struct {
		amountCents int64
		parts       int
	}{
		{90000, 3},
		{100000, 3},
		{99999, 7},
		{1234567, 12},
		{50, 48},
	} {
		plan := core.Transaction{
			ID:               "msi",
			Amount:           cents(tc.amountCents),
			Kind:             core.KindInstallment,
			Installments:     tc.parts,
			FirstPaymentDate: date(2024, time.January, 10),
		}
		// A window wide enough to catch every part.
		period := Period{Start: date(2023, time.December, 1), End: date(2030, time.January, 1)}
		charges := installmentsInPeriod(plan, period)
		require.Len(t, charges, tc.parts)

		var sum int64
		for _, c := range charges {
			sum += c.Amount.Cents
		}
		remainder := tc.amountCents - sum
		assert.GreaterOrEqual(t, remainder, int64(0), "amount=%d parts=%d", tc.amountCents, tc.parts)
		assert.Less(t, remainder, int64(tc.parts), "amount=%d parts=%d", tc.amountCents, tc.parts)
	}
}

func TestInstallmentDueDates_ClampShortMonths(t *testing.T) {
	plan := core.Transaction{
		ID:               "msi",
		Amount:           cents(120000),
		Kind:             core.KindInstallment,
		Installments:     4,
		FirstPaymentDate: date(2024, time.January, 31),
	}
	period := Period{Start: date(2024, time.January, 1), End: date(2024, time.December, 31)}

	charges := installmentsInPeriod(plan, period)
	require.Len(t, charges, 4)
	assert.Equal(t, date(2024, time.January, 31), charges[0].DueDate)
	assert.Equal(t, date(2024, time.February, 29), charges[1].DueDate)
	assert.Equal(t, date(2024, time.March, 31), charges[2].DueDate)
	assert.Equal(t, date(2024, time.April, 30), charges[3].DueDate)
}

func TestCalculateNextPayment_Recurring(t *testing.T) {
	card := testCard()
	asOf := date(2024, time.March, 1) // period [2024-02-02, 2024-03-01]

	subscription := func(id string, start, end time.Time) core.Transaction {
		return core.Transaction{
			ID:                id,
			CardID:            card.ID,
			Type:              core.Expense,
			Kind:              core.KindRecurring,
			Amount:            cents(5000),
			RecurringInterval: core.IntervalMonthly,
			RecurringStart:    start,
			RecurringEnd:      end,
		}
	}

	tests := []struct {
		name   string
		tx     core.Transaction
		active bool
	}{
		{"open ended, started before period", subscription("s1", date(2023, time.December, 1), time.Time{}), true},
		{"starts on period end", subscription("s2", date(2024, time.March, 1), time.Time{}), true},
		{"starts after period end", subscription("s3", date(2024, time.March, 2), time.Time{}), false},
		{"ended before period start", subscription("s4", date(2023, time.June, 1), date(2024, time.January, 20)), false},
		{"ends exactly on period start", subscription("s5", date(2023, time.June, 1), date(2024, time.February, 2)), false},
		{"ends the day after period start", subscription("s6", date(2023, time.June, 1), date(2024, time.February, 3)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj, err := CalculateNextPayment(card, []core.Transaction{tt.tx}, asOf)
			require.NoError(t, err)
			if tt.active {
				assert.Equal(t, cents(5000), proj.Total)
				assert.Len(t, proj.RecurringActive, 1)
			} else {
				assert.Equal(t, cents(0), proj.Total)
				assert.Empty(t, proj.RecurringActive)
			}
		})
	}
}

// A recurring charge active across consecutive cycles contributes exactly
// once per cycle, never zero and never twice.
func TestRecurringOncePerPeriod(t *testing.T) {
	card := testCard()
	card.CutoffDay = 15
	sub := core.Transaction{
		ID:                "sub",
		CardID:            card.ID,
		Type:              core.Expense,
		Kind:              core.KindRecurring,
		Amount:            cents(9900),
		RecurringInterval: core.IntervalMonthly,
		RecurringStart:    date(2023, time.December, 1),
		RecurringEnd:      date(2024, time.August, 1),
	}

	asOf := date(2024, time.January, 10)
	for i := 0; i < 6; i++ {
		proj, err := CalculateNextPayment(card, []core.Transaction{sub}, asOf)
		require.NoError(t, err)
		assert.Equal(t, cents(9900), proj.Total, "cycle starting at %s", proj.Period.Start.Format("2006-01-02"))
		assert.Len(t, proj.RecurringActive, 1)
		asOf = addMonths(asOf, 1)
	}
}

func TestCalculateNextPayment_InvalidConfiguration(t *testing.T) {
	card := testCard()
	card.CutoffDay = 0
	_, err := CalculateNextPayment(card, nil, date(2024, time.March, 1))
	assert.ErrorIs(t, err, core.ErrInvalidCutoffDay)

	card = testCard()
	card.PaymentDay = 40
	_, err = CalculateNextPayment(card, nil, date(2024, time.March, 1))
	assert.ErrorIs(t, err, core.ErrInvalidPaymentDay)
}

func TestCalculateNextPayment_EmptyInput(t *testing.T) {
	proj, err := CalculateNextPayment(testCard(), nil, date(2024, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, cents(0), proj.Total)
	assert.Zero(t, proj.TransactionsCount)
	assert.Empty(t, proj.PeriodTransactions)
}

func TestAllUpcomingPayments(t *testing.T) {
	early := testCard()
	early.ID, early.Name, early.CutoffDay, early.PaymentDay = "c-early", "Azul", 1, 5
	late := testCard()
	late.ID, late.Name, late.CutoffDay, late.PaymentDay = "c-late", "Oro", 1, 25
	debit := core.Card{ID: "c-debit", Name: "Nomina", Type: core.CardDebit}

	txs := []core.Transaction{
		ordinary("t1", "c-early", core.Expense, 1000, date(2024, time.February, 10)),
		ordinary("t2", "c-late", core.Expense, 2000, date(2024, time.February, 10)),
		ordinary("t3", "c-debit", core.Expense, 77700, date(2024, time.February, 10)),
	}

	// List the later card first to prove sorting by payment date.
	projections, err := AllUpcomingPayments([]core.Card{late, early, debit}, txs, date(2024, time.March, 1))
	require.NoError(t, err)

	require.Len(t, projections, 2, "debit cards have no billing cycle")
	assert.Equal(t, "c-early", projections[0].CardID)
	assert.Equal(t, date(2024, time.March, 5), projections[0].PaymentDate)
	assert.Equal(t, cents(1000), projections[0].Total)
	assert.Equal(t, "c-late", projections[1].CardID)
	assert.Equal(t, date(2024, time.March, 25), projections[1].PaymentDate)
	assert.Equal(t, cents(2000), projections[1].Total)
	assert.Equal(t, "Azul", projections[0].CardName)
}

func TestTotalToPayOnPersonalDay(t *testing.T) {
	a := testCard()
	a.ID, a.PersonalPaymentDays = "card-a", []int{15}
	b := testCard()
	b.ID, b.PersonalPaymentDays = "card-b", []int{15, 30}
	c := testCard()
	c.ID, c.PersonalPaymentDays = "card-c", []int{30}

	txs := []core.Transaction{
		ordinary("t1", "card-a", core.Expense, 30000, date(2024, time.February, 10)),
		ordinary("t2", "card-b", core.Expense, 45000, date(2024, time.February, 10)),
		ordinary("t3", "card-c", core.Expense, 11111, date(2024, time.February, 10)),
	}
	asOf := date(2024, time.March, 1)

	total, matched, err := TotalToPayOnPersonalDay([]core.Card{a, b, c}, txs, 15, asOf)
	require.NoError(t, err)
	assert.Equal(t, cents(75000), total)
	require.Len(t, matched, 2, "cards a and b pay on day 15")
	assert.Equal(t, "card-a", matched[0].CardID)
	assert.Equal(t, cents(30000), matched[0].Total)
	assert.Equal(t, "card-b", matched[1].CardID)
	assert.Equal(t, cents(45000), matched[1].Total)

	total, matched, err = TotalToPayOnPersonalDay([]core.Card{a, b, c}, txs, 30, asOf)
	require.NoError(t, err)
	assert.Equal(t, cents(56111), total)
	require.Len(t, matched, 2)

	total, matched, err = TotalToPayOnPersonalDay([]core.Card{a, b, c}, txs, 7, asOf)
	require.NoError(t, err)
	assert.Equal(t, cents(0), total, "no card pays on day 7")
	assert.Empty(t, matched)
}

func TestPersonalPaymentAmounts(t *testing.T) {
	card := testCard()
	card.CutoffDay = 20
	card.PersonalPaymentDays = []int{15, 30}

	txs := []core.Transaction{
		// Inside the cycle containing March 15 ([Feb 21, Mar 20]).
		ordinary("t1", card.ID, core.Expense, 10000, date(2024, time.March, 2)),
		// Inside the cycle containing March 30 ([Mar 21, Apr 20]).
		ordinary("t2", card.ID, core.Expense, 20000, date(2024, time.March, 25)),
	}
	asOf := date(2024, time.March, 18)

	out, err := PersonalPaymentAmounts(card, txs, asOf)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, 15, out[0].Day)
	assert.Equal(t, date(2024, time.March, 15), out[0].Projection.PaymentDate)
	assert.Equal(t, cents(10000), out[0].Projection.Total)
	assert.Equal(t, -3, out[0].Projection.DaysUntilPayment, "personal day already passed")

	assert.Equal(t, 30, out[1].Day)
	assert.Equal(t, date(2024, time.March, 30), out[1].Projection.PaymentDate)
	assert.Equal(t, cents(20000), out[1].Projection.Total)
	assert.Equal(t, 12, out[1].Projection.DaysUntilPayment)
}

func TestPersonalPaymentAmounts_NoPersonalDays(t *testing.T) {
	card := testCard()
	card.PersonalPaymentDays = nil
	out, err := PersonalPaymentAmounts(card, nil, date(2024, time.March, 1))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestClosedPeriodAmount(t *testing.T) {
	card := testCard()
	card.CutoffDay = 15
	card.PaymentDay = 25

	txs := []core.Transaction{
		ordinary("in", card.ID, core.Expense, 40000, date(2024, time.June, 1)),
		ordinary("out", card.ID, core.Expense, 9000, date(2024, time.June, 16)), // current open cycle
	}

	proj, err := ClosedPeriodAmount(card, txs, date(2024, time.June, 20))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.May, 16), proj.Period.Start)
	assert.Equal(t, date(2024, time.June, 15), proj.Period.End)
	assert.Equal(t, date(2024, time.June, 25), proj.PaymentDate)
	assert.Equal(t, cents(40000), proj.Total)
}

func TestProjectionDoesNotMutateInput(t *testing.T) {
	card := testCard()
	txs := []core.Transaction{
		ordinary("t1", card.ID, core.Expense, 1000, date(2024, time.February, 10)),
	}
	before := txs[0]

	_, err := CalculateNextPayment(card, txs, date(2024, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, before, txs[0])
}
