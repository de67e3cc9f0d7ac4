package services

import (
	"context"
	"fmt"
	"time"

	"github.com/RelikeddDev/controlio/internal/billing"
	"github.com/RelikeddDev/controlio/internal/core"
)

// PaymentsService answers projection queries by feeding fresh storage
// snapshots to the billing engine.
type PaymentsService struct {
	cards CardStore
	txs   TransactionStore
	now   func() time.Time
}

func NewPaymentsService(cards CardStore, txs TransactionStore) *PaymentsService {
	return &PaymentsService{cards: cards, txs: txs, now: time.Now}
}

func (s *PaymentsService) snapshot(ctx context.Context) ([]core.Card, []core.Transaction, error) {
	cards, err := s.cards.ListCards(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load cards: %w", err)
	}
	txs, err := s.txs.ListTransactions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load transactions: %w", err)
	}
	return cards, txs, nil
}

// Upcoming returns the next payment projection for every credit card,
// soonest payment first.
func (s *PaymentsService) Upcoming(ctx context.Context, asOf time.Time) ([]billing.Projection, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	cards, txs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return billing.AllUpcomingPayments(cards, txs, asOf)
}

// NextPayment projects a single card's current cycle.
func (s *PaymentsService) NextPayment(ctx context.Context, cardID string, asOf time.Time) (billing.Projection, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	card, err := s.cards.GetCard(ctx, cardID)
	if err != nil {
		return billing.Projection{}, err
	}
	txs, err := s.txs.ListTransactionsByCard(ctx, cardID)
	if err != nil {
		return billing.Projection{}, fmt.Errorf("load transactions: %w", err)
	}
	return billing.CalculateNextPayment(card, txs, asOf)
}

// PersonalDayTotal sums what is owed across all cards configured to be
// paid on the given day of month, alongside the per-card projections.
func (s *PaymentsService) PersonalDayTotal(ctx context.Context, day int, asOf time.Time) (core.Money, []billing.Projection, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	cards, txs, err := s.snapshot(ctx)
	if err != nil {
		return core.Money{}, nil, err
	}
	return billing.TotalToPayOnPersonalDay(cards, txs, day, asOf)
}

// PersonalDayBreakdown projects one card's cycle for each of its
// personal payment days.
func (s *PaymentsService) PersonalDayBreakdown(ctx context.Context, cardID string, asOf time.Time) ([]billing.PersonalDayProjection, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	card, err := s.cards.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	txs, err := s.txs.ListTransactionsByCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return billing.PersonalPaymentAmounts(card, txs, asOf)
}

// History returns the most recently closed cycle for every credit card.
func (s *PaymentsService) History(ctx context.Context, asOf time.Time) ([]billing.Projection, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	cards, txs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var closed []billing.Projection
	for _, card := range cards {
		if !card.IsCredit() {
			continue
		}
		p, err := billing.ClosedPeriodAmount(card, cardTransactions(txs, card.ID), asOf)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", card.ID, err)
		}
		closed = append(closed, p)
	}
	return closed, nil
}

func cardTransactions(txs []core.Transaction, cardID string) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if t.CardID == cardID {
			out = append(out, t)
		}
	}
	return out
}
