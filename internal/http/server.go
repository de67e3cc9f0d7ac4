// Package http exposes the JSON API: card and transaction CRUD, payment
// projections, receipt uploads and statement export.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/RelikeddDev/controlio/internal/billing"
	"github.com/RelikeddDev/controlio/internal/cache"
	"github.com/RelikeddDev/controlio/internal/services"
)

type Server struct {
	http.Server
	cards        *services.CardService
	categories   *services.CategoryService
	transactions *services.TransactionService
	payments     *services.PaymentsService
	receipts     *services.ReceiptService

	rateLimiter *rateLimiter

	// Projection caches, purged whenever a write changes the inputs.
	upcomingCache *cache.LRU[[]billing.Projection]
	historyCache  *cache.LRU[[]billing.Projection]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

type Options struct {
	Addr      string
	CacheSize int
	CacheTTL  time.Duration
}

func NewServer(opts Options,
	cards *services.CardService,
	categories *services.CategoryService,
	transactions *services.TransactionService,
	payments *services.PaymentsService,
	receipts *services.ReceiptService,
) *Server {
	mux := http.NewServeMux()

	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 2 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		cards:            cards,
		categories:       categories,
		transactions:     transactions,
		payments:         payments,
		receipts:         receipts,
		rateLimiter:      newRateLimiter(),
		upcomingCache:    cache.NewLRU[[]billing.Projection](opts.CacheSize, opts.CacheTTL),
		historyCache:     cache.NewLRU[[]billing.Projection](opts.CacheSize, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/cards", s.guard(s.handleListCards))
	mux.HandleFunc("POST /api/cards", s.guard(s.handleCreateCard))
	mux.HandleFunc("GET /api/cards/{id}", s.guard(s.handleGetCard))
	mux.HandleFunc("PUT /api/cards/{id}", s.guard(s.handleUpdateCard))
	mux.HandleFunc("DELETE /api/cards/{id}", s.guard(s.handleDeleteCard))
	mux.HandleFunc("GET /api/cards/{id}/transactions", s.guard(s.handleListCardTransactions))
	mux.HandleFunc("GET /api/cards/{id}/personal-days", s.guard(s.handlePersonalDayBreakdown))

	mux.HandleFunc("GET /api/categories", s.guard(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.guard(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.guard(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.guard(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/transactions", s.guard(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.guard(s.handleCreateTransaction))
	mux.HandleFunc("POST /api/transactions/batch", s.guard(s.handleCreateTransactionBatch))
	mux.HandleFunc("GET /api/transactions/{id}", s.guard(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.guard(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.guard(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/payments/upcoming", s.guard(s.handleUpcomingPayments))
	mux.HandleFunc("GET /api/payments/next/{cardID}", s.guard(s.handleNextPayment))
	mux.HandleFunc("GET /api/payments/personal-day", s.guard(s.handlePersonalDayTotal))
	mux.HandleFunc("GET /api/payments/history", s.guard(s.handlePaymentHistory))

	mux.HandleFunc("POST /api/receipts", s.guard(s.handleUploadReceipt))
	mux.HandleFunc("GET /api/receipts/{id}", s.guard(s.handleGetReceipt))

	mux.HandleFunc("GET /api/export/statement", s.guard(s.handleExportStatement))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.upcomingCache.CleanExpired() + s.historyCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateProjections drops cached projections after any write that
// changes cards or transactions.
func (s *Server) invalidateProjections() {
	s.upcomingCache.Purge()
	s.historyCache.Purge()
}

func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// guard adds security headers, rate limiting on writes, request IDs and
// request logging.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests,
				errorResponse{Error: "rate limit exceeded, try again later"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
