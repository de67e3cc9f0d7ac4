// Package services provides business logic and orchestration over
// storage, the message queue, and the billing engine.
package services

import (
	"context"

	"github.com/RelikeddDev/controlio/internal/core"
)

// CardStore is the card persistence surface the services need.
type CardStore interface {
	CreateCard(ctx context.Context, c core.Card) error
	GetCard(ctx context.Context, id string) (core.Card, error)
	ListCards(ctx context.Context) ([]core.Card, error)
	UpdateCard(ctx context.Context, c core.Card) error
	DeleteCard(ctx context.Context, id string) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) error
	GetCategory(ctx context.Context, id string) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
	CreateTransactions(ctx context.Context, txs []core.Transaction) error
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListTransactionsByCard(ctx context.Context, cardID string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

type ReceiptStore interface {
	CreateReceipt(ctx context.Context, r core.Receipt) error
	GetReceipt(ctx context.Context, id string) (core.Receipt, error)
	ListReceiptsByStatus(ctx context.Context, status core.ReceiptStatus, limit int) ([]core.Receipt, error)
	UpdateReceiptResult(ctx context.Context, r core.Receipt) error
}

// ReceiptPublisher enqueues receipt analysis jobs. A nil publisher is
// tolerated; uploads then wait for the worker's poll pass.
type ReceiptPublisher interface {
	PublishReceiptAnalyze(ctx context.Context, receiptID string) error
}
