package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/RelikeddDev/controlio/internal/services"
	"github.com/RelikeddDev/controlio/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cards := services.NewCardService(repo)
	categories := services.NewCategoryService(repo)
	transactions := services.NewTransactionService(repo, repo, repo)
	payments := services.NewPaymentsService(repo, repo)
	receipts := services.NewReceiptService(repo, repo, nil, 1024)

	s := NewServer(Options{Addr: ":0", CacheSize: 10, CacheTTL: time.Minute},
		cards, categories, transactions, payments, receipts)
	ts := httptest.NewServer(s.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func createCard(t *testing.T, baseURL string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, baseURL+"/api/cards", map[string]any{
		"name":                  "Gold",
		"bank":                  "Citi",
		"type":                  "credit",
		"cutoff_day":            1,
		"payment_day":           15,
		"personal_payment_days": []int{15},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var card cardResponse
	require.NoError(t, json.Unmarshal(body, &card))
	return card.ID
}

func createCategory(t *testing.T, baseURL string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, baseURL+"/api/categories", map[string]any{
		"name": "Groceries",
		"type": "expense",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var cat categoryResponse
	require.NoError(t, json.Unmarshal(body, &cat))
	return cat.ID
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+path, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestCardLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	cardID := createCard(t, ts.URL)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/cards/"+cardID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var card cardResponse
	require.NoError(t, json.Unmarshal(body, &card))
	assert.Equal(t, "Gold", card.Name)
	assert.Equal(t, []int{15}, card.PersonalPaymentDays)

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/cards/"+cardID, map[string]any{
		"name":        "Gold Elite",
		"type":        "credit",
		"cutoff_day":  1,
		"payment_day": 15,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/cards/"+cardID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/cards/"+cardID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateCardValidation(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/cards", map[string]any{
		"name":        "Broken",
		"type":        "credit",
		"cutoff_day":  0,
		"payment_day": 15,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "cutoff day")
}

func TestCategoryLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	catID := createCategory(t, ts.URL)

	resp, body := doJSON(t, http.MethodPut, ts.URL+"/api/categories/"+catID, map[string]any{
		"name": "Food & Drink",
		"type": "expense",
		"icon": "🍔",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated categoryResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, catID, updated.ID)
	assert.Equal(t, "Food & Drink", updated.Name)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cats []categoryResponse
	require.NoError(t, json.Unmarshal(body, &cats))
	require.Len(t, cats, 1)
	assert.Equal(t, "Food & Drink", cats[0].Name)

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/categories/ghost", map[string]any{
		"name": "Ghost",
		"type": "expense",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/categories/"+catID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestTransactionAndUpcomingFlow(t *testing.T) {
	_, ts := newTestServer(t)
	cardID := createCard(t, ts.URL)
	catID := createCategory(t, ts.URL)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
		"card_id":     cardID,
		"category_id": catID,
		"type":        "expense",
		"kind":        "ordinary",
		"amount":      "150.75",
		"date":        "2024-02-10",
		"description": "groceries",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodGet,
		ts.URL+"/api/payments/upcoming?as_of=2024-02-20", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var projections []projectionResponse
	require.NoError(t, json.Unmarshal(body, &projections))
	require.Len(t, projections, 1)
	assert.Equal(t, int64(15075), projections[0].TotalCents)
	assert.Equal(t, "2024-03-15", projections[0].PaymentDate)
	assert.Equal(t, "2024-02-02", projections[0].PeriodStart)
	assert.Equal(t, "2024-03-01", projections[0].PeriodEnd)
}

func TestUpcomingCacheInvalidatedByWrites(t *testing.T) {
	_, ts := newTestServer(t)
	cardID := createCard(t, ts.URL)
	catID := createCategory(t, ts.URL)

	post := func(amount string) {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
			"card_id":     cardID,
			"category_id": catID,
			"type":        "expense",
			"kind":        "ordinary",
			"amount":      amount,
			"date":        "2024-02-10",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}
	total := func() int64 {
		resp, body := doJSON(t, http.MethodGet,
			ts.URL+"/api/payments/upcoming?as_of=2024-02-20", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var projections []projectionResponse
		require.NoError(t, json.Unmarshal(body, &projections))
		require.Len(t, projections, 1)
		return projections[0].TotalCents
	}

	post("100.00")
	assert.Equal(t, int64(10000), total())

	// A second write must not serve the stale cached projection.
	post("50.00")
	assert.Equal(t, int64(15000), total())
}

func TestTransactionBatch(t *testing.T) {
	_, ts := newTestServer(t)
	cardID := createCard(t, ts.URL)
	catID := createCategory(t, ts.URL)

	batch := []map[string]any{
		{
			"card_id": cardID, "category_id": catID,
			"type": "expense", "kind": "installment",
			"amount": "900.00", "installments": 3,
			"first_payment_date": "2024-01-10",
			"date":               "2024-01-05",
		},
		{
			"card_id": cardID, "category_id": catID,
			"type": "expense", "kind": "recurring",
			"amount":             "15.99",
			"recurring_interval": "monthly",
			"recurring_start":    "2024-01-01",
		},
	}
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/transactions/batch", batch)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created []transactionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Len(t, created, 2)

	// Cycle [2024-02-02, 2024-03-01]: installment 2/3 of $900 plus the
	// subscription.
	resp, body = doJSON(t, http.MethodGet,
		ts.URL+"/api/payments/upcoming?as_of=2024-02-20", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var projections []projectionResponse
	require.NoError(t, json.Unmarshal(body, &projections))
	require.Len(t, projections, 1)
	assert.Equal(t, int64(30000+1599), projections[0].TotalCents)
	require.Len(t, projections[0].Installments, 1)
	assert.Equal(t, 2, projections[0].Installments[0].Number)
}

func TestBatchRejectsOversize(t *testing.T) {
	_, ts := newTestServer(t)

	batch := make([]map[string]any, maxBatchSize+1)
	for i := range batch {
		batch[i] = map[string]any{"amount": "1.00"}
	}
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/transactions/batch", batch)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPersonalDayTotal(t *testing.T) {
	_, ts := newTestServer(t)
	cardID := createCard(t, ts.URL)
	catID := createCategory(t, ts.URL)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
		"card_id":     cardID,
		"category_id": catID,
		"type":        "expense",
		"kind":        "ordinary",
		"amount":      "75.00",
		"date":        "2024-02-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodGet,
		ts.URL+"/api/payments/personal-day?day=15&as_of=2024-02-20", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Day        int                  `json:"day"`
		TotalCents int64                `json:"total_cents"`
		Total      string               `json:"total"`
		Cards      []projectionResponse `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, int64(7500), result.TotalCents)
	assert.Equal(t, "$75.00", result.Total)
	require.Len(t, result.Cards, 1, "the total carries its per-card breakdown")
	assert.Equal(t, cardID, result.Cards[0].CardID)
	assert.Equal(t, int64(7500), result.Cards[0].TotalCents)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/payments/personal-day?day=42", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/payments/personal-day", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReceiptUploadAndStatus(t *testing.T) {
	_, ts := newTestServer(t)
	cardID := createCard(t, ts.URL)

	image := base64.StdEncoding.EncodeToString([]byte("fake receipt image"))
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/receipts", map[string]any{
		"card_id":      cardID,
		"image_base64": image,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	var rc receiptResponse
	require.NoError(t, json.Unmarshal(body, &rc))
	assert.Equal(t, "pending", rc.Status)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/receipts/"+rc.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got receiptResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, rc.ID, got.ID)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/receipts", map[string]any{
		"card_id":      cardID,
		"image_base64": "",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportStatement(t *testing.T) {
	_, ts := newTestServer(t)
	createCard(t, ts.URL)

	resp, body := doJSON(t, http.MethodGet,
		ts.URL+"/api/export/statement?as_of=2024-02-20", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "statement_2024-02-20.xlsx")
	assert.NotEmpty(t, body)
}

func TestExportStatementForSingleCard(t *testing.T) {
	_, ts := newTestServer(t)
	goldID := createCard(t, ts.URL)
	catID := createCategory(t, ts.URL)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/cards", map[string]any{
		"name":        "Platinum",
		"bank":        "HSBC",
		"type":        "credit",
		"cutoff_day":  1,
		"payment_day": 15,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var platinum cardResponse
	require.NoError(t, json.Unmarshal(body, &platinum))

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
		"card_id":     goldID,
		"category_id": catID,
		"type":        "expense",
		"kind":        "ordinary",
		"amount":      "120.00",
		"date":        "2024-02-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodGet,
		ts.URL+"/api/export/statement?card_id="+goldID+"&as_of=2024-02-20", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	wb, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Upcoming Payments")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header, the requested card, grand total")
	assert.Equal(t, "Gold", rows[1][0])
	assert.Equal(t, "120", rows[1][len(rows[1])-1])

	resp, _ = doJSON(t, http.MethodGet,
		ts.URL+"/api/export/statement?card_id=ghost&as_of=2024-02-20", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCacheStampNeverZero(t *testing.T) {
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, today, cacheStamp(time.Time{}),
		"an unset reference date must key on today, not the zero date")

	fixed := time.Date(2024, 2, 20, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-20", cacheStamp(fixed))
}

func TestUnknownFieldRejected(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/cards", map[string]any{
		"name":     "Gold",
		"type":     "credit",
		"cutofday": 1, // typo must not be silently dropped
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "decode request body")
}

func TestSecurityHeaders(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/cards", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestRateLimitOnWrites(t *testing.T) {
	_, ts := newTestServer(t)

	var lastStatus int
	for i := 0; i < 70; i++ {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
			"name": fmt.Sprintf("cat-%d", i),
			"type": "expense",
		})
		lastStatus = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, lastStatus)
}
