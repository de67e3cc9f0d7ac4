package core

import (
	"errors"
	"time"
)

const (
	ReceiptPending    ReceiptStatus = "pending"
	ReceiptProcessing ReceiptStatus = "processing"
	ReceiptDone       ReceiptStatus = "done"
	ReceiptFailed     ReceiptStatus = "failed"
)

type ReceiptStatus string

// Receipt is an uploaded receipt image queued for text extraction. The
// extracted draft is a best-effort guess and always requires human review
// before it becomes a transaction.
type Receipt struct {
	ID          string
	CardID      string
	ImageBase64 string
	Status      ReceiptStatus
	RawText     string

	// Draft fields extracted by the parser; zero values mean "not found".
	DraftAmount Money
	DraftDate   time.Time

	FailReason string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var ErrEmptyImage = errors.New("empty receipt image")

func (r Receipt) Validate() error {
	if r.ImageBase64 == "" {
		return ErrEmptyImage
	}
	if r.CardID == "" {
		return ErrMissingCard
	}
	return nil
}
