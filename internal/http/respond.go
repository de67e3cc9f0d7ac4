package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/RelikeddDev/controlio/internal/core"
	"github.com/RelikeddDev/controlio/internal/storage"
)

const maxBodyBytes = 1 << 20 // request bodies over 1 MiB are rejected

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes. Unrecognized
// errors become opaque 500s so storage details never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func isValidationError(err error) bool {
	for _, v := range []error{
		core.ErrInvalidAmount, core.ErrInvalidDate, core.ErrEmptyName,
		core.ErrMissingCard, core.ErrMissingCategory, core.ErrInvalidCardType,
		core.ErrInvalidCutoffDay, core.ErrInvalidPaymentDay, core.ErrInvalidKind,
		core.ErrInvalidType, core.ErrInvalidInstallment, core.ErrInvalidRecurrence,
		core.ErrEmptyImage,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("request body has trailing data")
	}
	io.Copy(io.Discard, r.Body)
	return nil
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
