package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RelikeddDev/controlio/internal/core"
)

// TransactionService validates and persists charges. Referential checks
// run before any write so a bad batch leaves no partial state.
type TransactionService struct {
	store      TransactionStore
	cards      CardStore
	categories CategoryStore
	now        func() time.Time
}

func NewTransactionService(store TransactionStore, cards CardStore, categories CategoryStore) *TransactionService {
	return &TransactionService{
		store:      store,
		cards:      cards,
		categories: categories,
		now:        time.Now,
	}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	prepared, err := s.prepare(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.CreateTransaction(ctx, prepared); err != nil {
		return core.Transaction{}, err
	}
	return prepared, nil
}

// CreateBatch validates every transaction up front and inserts them
// atomically.
func (s *TransactionService) CreateBatch(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	prepared := make([]core.Transaction, len(txs))
	for i, t := range txs {
		p, err := s.prepare(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		prepared[i] = p
	}
	if err := s.store.CreateTransactions(ctx, prepared); err != nil {
		return nil, err
	}
	return prepared, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *TransactionService) ListByCard(ctx context.Context, cardID string) ([]core.Transaction, error) {
	return s.store.ListTransactionsByCard(ctx, cardID)
}

func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	existing, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkReferences(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTransaction(ctx, id)
}

func (s *TransactionService) prepare(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	if err := s.checkReferences(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	t.UpdatedAt = t.CreatedAt
	return t, nil
}

func (s *TransactionService) checkReferences(ctx context.Context, t core.Transaction) error {
	if _, err := s.cards.GetCard(ctx, t.CardID); err != nil {
		return fmt.Errorf("card %s: %w", t.CardID, err)
	}
	if _, err := s.categories.GetCategory(ctx, t.CategoryID); err != nil {
		return fmt.Errorf("category %s: %w", t.CategoryID, err)
	}
	return nil
}
