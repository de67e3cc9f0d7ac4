package http

import (
	"fmt"
	"time"

	"github.com/RelikeddDev/controlio/internal/billing"
	"github.com/RelikeddDev/controlio/internal/core"
)

// Wire formats. Money travels as a decimal string on requests
// ("1234.56") and as cents plus a display string on responses.

const wireDate = "2006-01-02"

type cardRequest struct {
	Name                string `json:"name"`
	Bank                string `json:"bank"`
	Type                string `json:"type"`
	LastFourDigits      string `json:"last_four_digits"`
	Color               string `json:"color"`
	CutoffDay           int    `json:"cutoff_day"`
	PaymentDay          int    `json:"payment_day"`
	PersonalPaymentDays []int  `json:"personal_payment_days"`
	CreditLimit         string `json:"credit_limit"`
	AnnualFee           string `json:"annual_fee"`
	Notes               string `json:"notes"`
}

func (req cardRequest) toDomain() (core.Card, error) {
	card := core.Card{
		Name:                req.Name,
		Bank:                req.Bank,
		Type:                core.CardType(req.Type),
		LastFourDigits:      req.LastFourDigits,
		Color:               req.Color,
		CutoffDay:           req.CutoffDay,
		PaymentDay:          req.PaymentDay,
		PersonalPaymentDays: req.PersonalPaymentDays,
		Notes:               req.Notes,
	}
	var err error
	if card.CreditLimit, err = optionalAmount(req.CreditLimit); err != nil {
		return core.Card{}, fmt.Errorf("credit_limit: %w", err)
	}
	if card.AnnualFee, err = optionalAmount(req.AnnualFee); err != nil {
		return core.Card{}, fmt.Errorf("annual_fee: %w", err)
	}
	return card, nil
}

type cardResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Bank                string `json:"bank"`
	Type                string `json:"type"`
	LastFourDigits      string `json:"last_four_digits"`
	Color               string `json:"color"`
	CutoffDay           int    `json:"cutoff_day"`
	PaymentDay          int    `json:"payment_day"`
	PersonalPaymentDays []int  `json:"personal_payment_days"`
	CreditLimitCents    int64  `json:"credit_limit_cents"`
	AnnualFeeCents      int64  `json:"annual_fee_cents"`
	Notes               string `json:"notes"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

func toCardResponse(c core.Card) cardResponse {
	return cardResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Bank:                c.Bank,
		Type:                string(c.Type),
		LastFourDigits:      c.LastFourDigits,
		Color:               c.Color,
		CutoffDay:           c.CutoffDay,
		PaymentDay:          c.PaymentDay,
		PersonalPaymentDays: c.PersonalPaymentDays,
		CreditLimitCents:    c.CreditLimit.Cents,
		AnnualFeeCents:      c.AnnualFee.Cents,
		Notes:               c.Notes,
		CreatedAt:           c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type transactionRequest struct {
	CardID      string `json:"card_id"`
	CategoryID  string `json:"category_id"`
	Type        string `json:"type"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`

	Installments     int    `json:"installments,omitempty"`
	FirstPaymentDate string `json:"first_payment_date,omitempty"`

	RecurringInterval string `json:"recurring_interval,omitempty"`
	RecurringStart    string `json:"recurring_start,omitempty"`
	RecurringEnd      string `json:"recurring_end,omitempty"`
}

func (req transactionRequest) toDomain() (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	tx := core.Transaction{
		CardID:            req.CardID,
		CategoryID:        req.CategoryID,
		Type:              core.TransactionType(req.Type),
		Kind:              core.TransactionKind(req.Kind),
		Amount:            core.Money{Cents: cents},
		Description:       req.Description,
		Installments:      req.Installments,
		RecurringInterval: core.RecurringInterval(req.RecurringInterval),
	}
	if tx.Kind == "" {
		tx.Kind = core.KindOrdinary
	}
	if tx.Date, err = optionalDate(req.Date); err != nil {
		return core.Transaction{}, fmt.Errorf("date: %w", err)
	}
	if tx.FirstPaymentDate, err = optionalDate(req.FirstPaymentDate); err != nil {
		return core.Transaction{}, fmt.Errorf("first_payment_date: %w", err)
	}
	if tx.RecurringStart, err = optionalDate(req.RecurringStart); err != nil {
		return core.Transaction{}, fmt.Errorf("recurring_start: %w", err)
	}
	if tx.RecurringEnd, err = optionalDate(req.RecurringEnd); err != nil {
		return core.Transaction{}, fmt.Errorf("recurring_end: %w", err)
	}
	return tx, nil
}

type transactionResponse struct {
	ID          string `json:"id"`
	CardID      string `json:"card_id"`
	CategoryID  string `json:"category_id"`
	Type        string `json:"type"`
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description"`

	Installments     int    `json:"installments,omitempty"`
	FirstPaymentDate string `json:"first_payment_date,omitempty"`

	RecurringInterval string `json:"recurring_interval,omitempty"`
	RecurringStart    string `json:"recurring_start,omitempty"`
	RecurringEnd      string `json:"recurring_end,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:                t.ID,
		CardID:            t.CardID,
		CategoryID:        t.CategoryID,
		Type:              string(t.Type),
		Kind:              string(t.Kind),
		AmountCents:       t.Amount.Cents,
		Amount:            t.Amount.String(),
		Date:              formatDate(t.Date),
		Description:       t.Description,
		Installments:      t.Installments,
		FirstPaymentDate:  formatDate(t.FirstPaymentDate),
		RecurringInterval: string(t.RecurringInterval),
		RecurringStart:    formatDate(t.RecurringStart),
		RecurringEnd:      formatDate(t.RecurringEnd),
	}
}

type installmentChargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Description   string `json:"description"`
	Number        int    `json:"number"`
	Total         int    `json:"total"`
	DueDate       string `json:"due_date"`
	AmountCents   int64  `json:"amount_cents"`
	Amount        string `json:"amount"`
}

type projectionResponse struct {
	CardID           string                      `json:"card_id"`
	CardName         string                      `json:"card_name"`
	Bank             string                      `json:"bank"`
	LastFourDigits   string                      `json:"last_four_digits"`
	Color            string                      `json:"color"`
	PeriodStart      string                      `json:"period_start"`
	PeriodEnd        string                      `json:"period_end"`
	PaymentDate      string                      `json:"payment_date"`
	DaysUntilPayment int                         `json:"days_until_payment"`
	TotalCents       int64                       `json:"total_cents"`
	Total            string                      `json:"total"`
	Transactions     int                         `json:"transactions_count"`
	Period           []transactionResponse       `json:"period_transactions"`
	Installments     []installmentChargeResponse `json:"installments_due"`
	Recurring        []transactionResponse       `json:"recurring_active"`
}

func toProjectionResponse(p billing.Projection) projectionResponse {
	resp := projectionResponse{
		CardID:           p.CardID,
		CardName:         p.CardName,
		Bank:             p.Bank,
		LastFourDigits:   p.LastFourDigits,
		Color:            p.Color,
		PeriodStart:      formatDate(p.Period.Start),
		PeriodEnd:        formatDate(p.Period.End),
		PaymentDate:      formatDate(p.PaymentDate),
		DaysUntilPayment: p.DaysUntilPayment,
		TotalCents:       p.Total.Cents,
		Total:            p.Total.String(),
		Transactions:     p.TransactionsCount,
		Period:           []transactionResponse{},
		Installments:     []installmentChargeResponse{},
		Recurring:        []transactionResponse{},
	}
	for _, tx := range p.PeriodTransactions {
		resp.Period = append(resp.Period, toTransactionResponse(tx))
	}
	for _, charge := range p.InstallmentsDue {
		resp.Installments = append(resp.Installments, installmentChargeResponse{
			TransactionID: charge.TransactionID,
			Description:   charge.Description,
			Number:        charge.Number,
			Total:         charge.Total,
			DueDate:       formatDate(charge.DueDate),
			AmountCents:   charge.Amount.Cents,
			Amount:        charge.Amount.String(),
		})
	}
	for _, tx := range p.RecurringActive {
		resp.Recurring = append(resp.Recurring, toTransactionResponse(tx))
	}
	return resp
}

type personalDayResponse struct {
	Day        int                `json:"day"`
	Projection projectionResponse `json:"projection"`
}

type receiptResponse struct {
	ID               string `json:"id"`
	CardID           string `json:"card_id"`
	Status           string `json:"status"`
	RawText          string `json:"raw_text,omitempty"`
	DraftAmountCents int64  `json:"draft_amount_cents,omitempty"`
	DraftAmount      string `json:"draft_amount,omitempty"`
	DraftDate        string `json:"draft_date,omitempty"`
	FailReason       string `json:"fail_reason,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func toReceiptResponse(r core.Receipt) receiptResponse {
	resp := receiptResponse{
		ID:         r.ID,
		CardID:     r.CardID,
		Status:     string(r.Status),
		RawText:    r.RawText,
		FailReason: r.FailReason,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		DraftDate:  formatDate(r.DraftDate),
	}
	if r.DraftAmount.Cents != 0 {
		resp.DraftAmountCents = r.DraftAmount.Cents
		resp.DraftAmount = r.DraftAmount.String()
	}
	return resp
}

func optionalAmount(s string) (core.Money, error) {
	if s == "" {
		return core.Money{}, nil
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(wireDate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date: %w", s, core.ErrInvalidDate)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(wireDate)
}
