package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/RelikeddDev/controlio/internal/core"
	"github.com/RelikeddDev/controlio/internal/receipt"
	"github.com/RelikeddDev/controlio/internal/vision"
)

// ReceiptService stores uploaded receipt images and runs the analysis
// pipeline: OCR via the extractor, then heuristic draft parsing.
type ReceiptService struct {
	store      ReceiptStore
	cards      CardStore
	publisher  ReceiptPublisher
	maxImageKB int
	now        func() time.Time
}

func NewReceiptService(store ReceiptStore, cards CardStore, publisher ReceiptPublisher, maxImageKB int) *ReceiptService {
	return &ReceiptService{
		store:      store,
		cards:      cards,
		publisher:  publisher,
		maxImageKB: maxImageKB,
		now:        time.Now,
	}
}

// Upload validates and stores a receipt, then enqueues analysis. A failed
// publish is not fatal; the worker's poll pass picks pending receipts up.
func (s *ReceiptService) Upload(ctx context.Context, r core.Receipt) (core.Receipt, error) {
	if err := r.Validate(); err != nil {
		return core.Receipt{}, fmt.Errorf("validate receipt: %w", err)
	}
	if _, err := base64.StdEncoding.DecodeString(r.ImageBase64); err != nil {
		return core.Receipt{}, fmt.Errorf("decode image: %w", err)
	}
	if s.maxImageKB > 0 && len(r.ImageBase64) > s.maxImageKB*1024 {
		return core.Receipt{}, fmt.Errorf("image exceeds %d KB limit", s.maxImageKB)
	}
	if _, err := s.cards.GetCard(ctx, r.CardID); err != nil {
		return core.Receipt{}, fmt.Errorf("card %s: %w", r.CardID, err)
	}

	r.ID = uuid.NewString()
	r.Status = core.ReceiptPending
	r.CreatedAt = s.now().UTC()
	r.UpdatedAt = r.CreatedAt
	if err := s.store.CreateReceipt(ctx, r); err != nil {
		return core.Receipt{}, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReceiptAnalyze(ctx, r.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish receipt analyze message",
				"receipt_id", r.ID, "error", err)
		}
	} else {
		slog.WarnContext(ctx, "AMQP client not available, receipt waits for poll pass",
			"receipt_id", r.ID)
	}

	return r, nil
}

func (s *ReceiptService) Get(ctx context.Context, id string) (core.Receipt, error) {
	return s.store.GetReceipt(ctx, id)
}

// Process runs text extraction for one stored receipt and records the
// draft. Extraction failures mark the receipt failed and return nil so
// the queue does not requeue a poisoned image forever.
func (s *ReceiptService) Process(ctx context.Context, extractor vision.TextExtractor, receiptID string) error {
	rc, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return fmt.Errorf("load receipt %s: %w", receiptID, err)
	}
	if rc.Status == core.ReceiptDone {
		return nil
	}

	rc.Status = core.ReceiptProcessing
	rc.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateReceiptResult(ctx, rc); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	rawText, err := extractor.ExtractText(ctx, rc.ImageBase64)
	if err != nil {
		slog.ErrorContext(ctx, "Text extraction failed",
			"receipt_id", rc.ID, "error", err)
		rc.Status = core.ReceiptFailed
		rc.FailReason = err.Error()
		rc.UpdatedAt = s.now().UTC()
		return s.store.UpdateReceiptResult(ctx, rc)
	}

	draft := receipt.Parse(rawText)
	rc.Status = core.ReceiptDone
	rc.RawText = rawText
	rc.DraftAmount = draft.Amount
	rc.DraftDate = draft.Date
	rc.FailReason = ""
	rc.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateReceiptResult(ctx, rc); err != nil {
		return fmt.Errorf("store analysis result: %w", err)
	}

	slog.InfoContext(ctx, "Receipt analyzed",
		"receipt_id", rc.ID,
		"draft_amount_cents", draft.Amount.Cents,
		"draft_date_found", !draft.Date.IsZero())
	return nil
}

// ProcessPending is the fallback poll pass for receipts whose queue
// message was lost.
func (s *ReceiptService) ProcessPending(ctx context.Context, extractor vision.TextExtractor, limit int) (int, error) {
	pending, err := s.store.ListReceiptsByStatus(ctx, core.ReceiptPending, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending receipts: %w", err)
	}
	processed := 0
	for _, rc := range pending {
		if err := s.Process(ctx, extractor, rc.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to process pending receipt",
				"receipt_id", rc.ID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}
