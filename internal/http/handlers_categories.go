package http

import (
	"net/http"

	"github.com/RelikeddDev/controlio/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		resp = append(resp, categoryResponse{
			ID:    c.ID,
			Name:  c.Name,
			Type:  string(c.Type),
			Icon:  c.Icon,
			Color: c.Color,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	created, err := s.categories.Create(r.Context(), core.Category{
		Name:  req.Name,
		Type:  core.TransactionType(req.Type),
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{
		ID:    created.ID,
		Name:  created.Name,
		Type:  string(created.Type),
		Icon:  created.Icon,
		Color: created.Color,
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	updated, err := s.categories.Update(r.Context(), core.Category{
		ID:    r.PathValue("id"),
		Name:  req.Name,
		Type:  core.TransactionType(req.Type),
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{
		ID:    updated.ID,
		Name:  updated.Name,
		Type:  string(updated.Type),
		Icon:  updated.Icon,
		Color: updated.Color,
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.categories.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
