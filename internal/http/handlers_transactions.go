package http

import (
	"fmt"
	"net/http"

	"github.com/RelikeddDev/controlio/internal/core"
)

const maxBatchSize = 100

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.transactions.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	tx, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.transactions.Create(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateProjections()
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleCreateTransactionBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []transactionRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(reqs) == 0 {
		badRequest(w, "empty batch")
		return
	}
	if len(reqs) > maxBatchSize {
		badRequest(w, fmt.Sprintf("batch exceeds %d transactions", maxBatchSize))
		return
	}

	txs := make([]core.Transaction, len(reqs))
	for i, req := range reqs {
		tx, err := req.toDomain()
		if err != nil {
			writeError(w, r, fmt.Errorf("transaction %d: %w", i, err))
			return
		}
		txs[i] = tx
	}

	created, err := s.transactions.CreateBatch(r.Context(), txs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateProjections()
	writeJSON(w, http.StatusCreated, toTransactionResponses(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	tx, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx.ID = r.PathValue("id")
	updated, err := s.transactions.Update(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateProjections()
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateProjections()
	writeJSON(w, http.StatusNoContent, nil)
}
