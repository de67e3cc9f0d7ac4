package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/RelikeddDev/controlio/internal/billing"
	"github.com/RelikeddDev/controlio/internal/core"
)

// asOfParam reads the optional as_of=YYYY-MM-DD query parameter. A zero
// time means "now" downstream.
func asOfParam(r *http.Request) (time.Time, error) {
	return optionalDate(r.URL.Query().Get("as_of"))
}

// cacheStamp keys cached projections by date. A zero asOf means "now" and
// must key on today, or a cached entry would outlive the day it was
// computed for.
func cacheStamp(asOf time.Time) string {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return formatDate(billing.DateOnly(asOf))
}

func (s *Server) handleUpcomingPayments(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cacheKey := "upcoming:" + cacheStamp(asOf)
	if cached, ok := s.upcomingCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, toProjectionResponses(cached))
		return
	}

	projections, err := s.payments.Upcoming(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.upcomingCache.Set(cacheKey, projections)
	writeJSON(w, http.StatusOK, toProjectionResponses(projections))
}

func (s *Server) handleNextPayment(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	proj, err := s.payments.NextPayment(r.Context(), r.PathValue("cardID"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionResponse(proj))
}

func (s *Server) handlePersonalDayTotal(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(r.URL.Query().Get("day"))
	if err != nil || !core.ValidDayOfMonth(day) {
		badRequest(w, "day must be an integer between 1 and 31")
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, matched, err := s.payments.PersonalDayTotal(r.Context(), day, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"day":         day,
		"total_cents": total.Cents,
		"total":       total.String(),
		"cards":       toProjectionResponses(matched),
	})
}

func (s *Server) handlePersonalDayBreakdown(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	breakdown, err := s.payments.PersonalDayBreakdown(r.Context(), r.PathValue("id"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]personalDayResponse, 0, len(breakdown))
	for _, pd := range breakdown {
		resp = append(resp, personalDayResponse{
			Day:        pd.Day,
			Projection: toProjectionResponse(pd.Projection),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cacheKey := "history:" + cacheStamp(asOf)
	if cached, ok := s.historyCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, toProjectionResponses(cached))
		return
	}

	closed, err := s.payments.History(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.historyCache.Set(cacheKey, closed)
	writeJSON(w, http.StatusOK, toProjectionResponses(closed))
}

func toProjectionResponses(projections []billing.Projection) []projectionResponse {
	resp := make([]projectionResponse, 0, len(projections))
	for _, p := range projections {
		resp = append(resp, toProjectionResponse(p))
	}
	return resp
}
