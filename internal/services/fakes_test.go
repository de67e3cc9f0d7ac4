package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/RelikeddDev/controlio/internal/core"
	"github.com/RelikeddDev/controlio/internal/storage"
)

// fakeStore is an in-memory implementation of the storage ports.
type fakeStore struct {
	mu         sync.Mutex
	cards      map[string]core.Card
	categories map[string]core.Category
	txs        map[string]core.Transaction
	receipts   map[string]core.Receipt
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cards:      make(map[string]core.Card),
		categories: make(map[string]core.Category),
		txs:        make(map[string]core.Transaction),
		receipts:   make(map[string]core.Receipt),
	}
}

func (f *fakeStore) CreateCard(_ context.Context, c core.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[c.ID] = c
	return nil
}

func (f *fakeStore) GetCard(_ context.Context, id string) (core.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return core.Card{}, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCards(_ context.Context) ([]core.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Card, 0, len(f.cards))
	for _, c := range f.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) UpdateCard(_ context.Context, c core.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[c.ID]; !ok {
		return storage.ErrNotFound
	}
	f.cards[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteCard(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.cards, id)
	return nil
}

func (f *fakeStore) CreateCategory(_ context.Context, c core.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[c.ID] = c
	return nil
}

func (f *fakeStore) GetCategory(_ context.Context, id string) (core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return core.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCategories(_ context.Context) ([]core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, c core.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[c.ID]; !ok {
		return storage.ErrNotFound
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs[t.ID] = t
	return nil
}

func (f *fakeStore) CreateTransactions(ctx context.Context, txs []core.Transaction) error {
	for _, t := range txs {
		if err := f.CreateTransaction(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txs[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Transaction, 0, len(f.txs))
	for _, t := range f.txs {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) ListTransactionsByCard(_ context.Context, cardID string) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Transaction
	for _, t := range f.txs {
		if t.CardID == cardID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txs[t.ID]; !ok {
		return storage.ErrNotFound
	}
	f.txs[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.txs, id)
	return nil
}

func (f *fakeStore) CreateReceipt(_ context.Context, r core.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[r.ID] = r
	return nil
}

func (f *fakeStore) GetReceipt(_ context.Context, id string) (core.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[id]
	if !ok {
		return core.Receipt{}, storage.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListReceiptsByStatus(_ context.Context, status core.ReceiptStatus, limit int) ([]core.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Receipt
	for _, r := range f.receipts {
		if r.Status == status && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateReceiptResult(_ context.Context, r core.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.receipts[r.ID]; !ok {
		return storage.ErrNotFound
	}
	f.receipts[r.ID] = r
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	fail      bool
}

func (p *fakePublisher) PublishReceiptAnalyze(_ context.Context, receiptID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, receiptID)
	return nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (e fakeExtractor) ExtractText(_ context.Context, _ string) (string, error) {
	return e.text, e.err
}
