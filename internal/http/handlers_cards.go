package http

import (
	"net/http"

	"github.com/RelikeddDev/controlio/internal/core"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		resp = append(resp, toCardResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	card, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.cards.Create(r.Context(), card)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateProjections()
	writeJSON(w, http.StatusCreated, toCardResponse(created))
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.cards.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	card, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	card.ID = r.PathValue("id")
	updated, err := s.cards.Update(r.Context(), card)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateProjections()
	writeJSON(w, http.StatusOK, toCardResponse(updated))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.cards.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateProjections()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListCardTransactions(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("id")
	if _, err := s.cards.Get(r.Context(), cardID); err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.transactions.ListByCard(r.Context(), cardID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	resp := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		resp = append(resp, toTransactionResponse(t))
	}
	return resp
}
