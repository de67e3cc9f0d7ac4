package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CardCredit CardType = "credit"
	CardDebit  CardType = "debit"

	Expense TransactionType = "expense"
	Income  TransactionType = "income"

	KindOrdinary    TransactionKind = "ordinary"
	KindInstallment TransactionKind = "installment"
	KindRecurring   TransactionKind = "recurring"

	IntervalMonthly RecurringInterval = "monthly"
)

type (
	CardType          string
	TransactionType   string
	TransactionKind   string
	RecurringInterval string

	// Card holds a payment card's configuration. CutoffDay and PaymentDay are
	// calendar day-of-month values (1-31), clamped to the last valid day of
	// shorter months when projected onto a concrete date.
	Card struct {
		ID                  string
		Name                string
		Bank                string
		Type                CardType
		LastFourDigits      string
		Color               string
		CutoffDay           int
		PaymentDay          int
		PersonalPaymentDays []int
		CreditLimit         Money
		AnnualFee           Money
		Notes               string
		CreatedAt           time.Time
		UpdatedAt           time.Time
	}

	// Transaction is a single recorded charge or income. The Kind field picks
	// exactly one projection rule: ordinary charges bill in the cycle their
	// Date falls in, installment plans bill in monthly parts from
	// FirstPaymentDate, and recurring charges bill once per cycle between
	// RecurringStart and RecurringEnd.
	Transaction struct {
		ID          string
		CardID      string
		CategoryID  string
		Type        TransactionType
		Kind        TransactionKind
		Amount      Money // positive magnitude; Type carries the sign of effect
		Date        time.Time
		Description string

		// Installment plans only.
		Installments     int
		FirstPaymentDate time.Time

		// Recurring charges only. RecurringEnd is optional (zero = open ended).
		RecurringInterval RecurringInterval
		RecurringStart    time.Time
		RecurringEnd      time.Time

		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Category struct {
		ID        string
		Name      string
		Type      TransactionType
		Color     string
		Icon      string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyName          = errors.New("empty name")
	ErrMissingCard        = errors.New("missing card id")
	ErrMissingCategory    = errors.New("missing category id")
	ErrInvalidCardType    = errors.New("invalid card type")
	ErrInvalidCutoffDay   = errors.New("cutoff day must be between 1 and 31")
	ErrInvalidPaymentDay  = errors.New("payment day must be between 1 and 31")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidInstallment = errors.New("installment plan needs installments >= 1 and a first payment date")
	ErrInvalidRecurrence  = errors.New("recurring charge needs a monthly interval and a start date")
)

// ValidDayOfMonth reports whether d is usable as a calendar day-of-month.
func ValidDayOfMonth(d int) bool {
	return d >= 1 && d <= 31
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	switch c.Type {
	case CardCredit, CardDebit:
	default:
		return ErrInvalidCardType
	}
	if c.Type == CardDebit {
		// Debit cards have no billing cycle; cutoff/payment days are ignored.
		return nil
	}
	if !ValidDayOfMonth(c.CutoffDay) {
		return ErrInvalidCutoffDay
	}
	if !ValidDayOfMonth(c.PaymentDay) {
		return ErrInvalidPaymentDay
	}
	for _, d := range c.PersonalPaymentDays {
		if !ValidDayOfMonth(d) {
			return fmt.Errorf("personal payment day %d: %w", d, ErrInvalidPaymentDay)
		}
	}
	return nil
}

// IsCredit reports whether the card carries a billing cycle.
func (c Card) IsCredit() bool {
	return c.Type == CardCredit
}

// HasPersonalPaymentDay reports whether day is one of the user's preferred
// payment days for this card.
func (c Card) HasPersonalPaymentDay(day int) bool {
	for _, d := range c.PersonalPaymentDays {
		if d == day {
			return true
		}
	}
	return false
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.CardID == "" {
		return ErrMissingCard
	}
	if t.CategoryID == "" {
		return ErrMissingCategory
	}
	switch t.Type {
	case Expense, Income:
	default:
		return ErrInvalidType
	}
	switch t.Kind {
	case KindOrdinary:
		if t.Date.IsZero() {
			return ErrInvalidDate
		}
	case KindInstallment:
		if t.Type != Expense {
			return fmt.Errorf("installment plan must be an expense: %w", ErrInvalidType)
		}
		if t.Installments < 1 || t.FirstPaymentDate.IsZero() {
			return ErrInvalidInstallment
		}
	case KindRecurring:
		if t.Type != Expense {
			return fmt.Errorf("recurring charge must be an expense: %w", ErrInvalidType)
		}
		if t.RecurringInterval != IntervalMonthly || t.RecurringStart.IsZero() {
			return ErrInvalidRecurrence
		}
		if !t.RecurringEnd.IsZero() && t.RecurringEnd.Before(t.RecurringStart) {
			return fmt.Errorf("recurring end before start: %w", ErrInvalidRecurrence)
		}
	default:
		return ErrInvalidKind
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	switch c.Type {
	case Expense, Income:
	default:
		return ErrInvalidType
	}
	return nil
}
