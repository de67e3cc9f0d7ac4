package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/RelikeddDev/controlio/internal/billing"
	"github.com/RelikeddDev/controlio/internal/core"
	"github.com/RelikeddDev/controlio/internal/export"
)

type receiptUploadRequest struct {
	CardID      string `json:"card_id"`
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	created, err := s.receipts.Upload(r.Context(), core.Receipt{
		CardID:      req.CardID,
		ImageBase64: req.ImageBase64,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toReceiptResponse(created))
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	rc, err := s.receipts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptResponse(rc))
}

func (s *Server) handleExportStatement(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// With card_id the statement covers that card alone; without it,
	// every credit card's upcoming projection.
	var projections []billing.Projection
	if cardID := r.URL.Query().Get("card_id"); cardID != "" {
		proj, err := s.payments.NextPayment(r.Context(), cardID, asOf)
		if err != nil {
			writeError(w, r, err)
			return
		}
		projections = []billing.Projection{proj}
	} else {
		projections, err = s.payments.Upcoming(r.Context(), asOf)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	stamp := asOf
	if stamp.IsZero() {
		stamp = time.Now()
	}
	filename := fmt.Sprintf("statement_%s.xlsx", stamp.Format("2006-01-02"))
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteStatement(w, projections); err != nil {
		// Headers are already out; all we can do is log.
		slog.ErrorContext(r.Context(), "Statement export failed", "error", err)
	}
}
