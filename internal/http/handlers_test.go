package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maicon-romano/previzi/internal/cache"
	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/services"
	"github.com/maicon-romano/previzi/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	series := services.NewMaterializer(store, nil)
	results := cache.NewLRUCache[*services.ProjectionResult](16, time.Minute)
	projector := services.NewProjector(store, series, results)
	return NewServer(":0", store, series, projector), store
}

func doJSON(t *testing.T, s *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(userIDHeader, user)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateTransactionRequiresUser(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", "", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateSingleTransaction(t *testing.T) {
	s, store := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", map[string]any{
		"type":        "expense",
		"amount":      "123.45",
		"category":    "food",
		"description": "Groceries",
		"date":        "2024-03-10",
		"status":      "paid",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var tx core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if tx.Amount == nil || tx.Amount.Cents != 12345 {
		t.Errorf("amount = %v, want 12345 cents", tx.Amount)
	}
	if tx.MonthRef != "2024-03" {
		t.Errorf("monthRef = %q, want 2024-03", tx.MonthRef)
	}

	stored, err := store.GetTransaction(context.Background(), "u1", tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if stored.Description != "Groceries" {
		t.Errorf("stored description = %q", stored.Description)
	}
}

func TestCreateRecurringMaterializesSeries(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", map[string]any{
		"type":            "expense",
		"amount":          "1200.00",
		"category":        "housing",
		"description":     "Rent",
		"date":            "2024-01-15",
		"recurring":       true,
		"recurringType":   "fixed",
		"recurringMonths": 2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var batch []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("batch size = %d, want 3", len(batch))
	}
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	s, _ := newTestServer(t)

	// Missing amount on a non-variable transaction is a validation error.
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", map[string]any{
		"type":        "expense",
		"category":    "food",
		"description": "Groceries",
		"date":        "2024-03-10",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}

	// Garbage date is a validation error too.
	rec = doJSON(t, s, http.MethodPost, "/api/transactions", "u1", map[string]any{
		"type":        "expense",
		"amount":      "10.00",
		"category":    "food",
		"description": "Groceries",
		"date":        "not-a-date",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
}

func TestListMonthFillsInfiniteSeries(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", map[string]any{
		"type":          "income",
		"amount":        "5000.00",
		"category":      "salary",
		"description":   "Salary",
		"date":          "2024-01-05",
		"recurring":     true,
		"recurringType": "infinite",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions?year=2024&month=4", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}
	var txs []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("april transactions = %d, want 1 generated instance", len(txs))
	}
	if !txs[0].IsGenerated || txs[0].MonthRef != "2024-04" {
		t.Errorf("instance = generated %v, monthRef %q", txs[0].IsGenerated, txs[0].MonthRef)
	}
}

func TestUpdateTransactionMarksManualEdit(t *testing.T) {
	s, store := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", map[string]any{
		"type":        "expense",
		"amount":      "100.00",
		"category":    "food",
		"description": "Groceries",
		"date":        "2024-03-10",
	})
	var created core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rec = doJSON(t, s, http.MethodPatch, "/api/transactions/"+created.ID, "u1", map[string]any{
		"amount": "150.00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}

	stored, err := store.GetTransaction(context.Background(), "u1", created.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if stored.Amount.Cents != 15000 {
		t.Errorf("amount = %d, want 15000", stored.Amount.Cents)
	}
	if !stored.ManuallyEdited {
		t.Error("amount edit must set manuallyEdited")
	}
}

func TestUpdateUnknownTransaction(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPatch, "/api/transactions/missing", "u1", map[string]any{
		"status": "paid",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404, body %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteScopedAllFuture(t *testing.T) {
	s, _ := newTestServer(t)

	start := core.AddMonthsClamped(time.Now(), -2).Format("2006-01-02")
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", map[string]any{
		"type":            "expense",
		"amount":          "50.00",
		"category":        "subscriptions",
		"description":     "Streaming",
		"date":            start,
		"recurring":       true,
		"recurringType":   "fixed",
		"recurringMonths": 5,
	})
	var batch []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode batch: %v", err)
	}

	rec = doJSON(t, s, http.MethodDelete,
		fmt.Sprintf("/api/transactions/%s?scope=all_future", batch[0].ID), "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// 6 instances from 2 months ago: the 2 past ones survive.
	if out["deleted"] != 4 {
		t.Errorf("deleted = %d, want 4", out["deleted"])
	}
}

func TestSeriesBaseValueUpdate(t *testing.T) {
	s, _ := newTestServer(t)

	start := time.Now().Format("2006-01-02")
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", map[string]any{
		"type":            "expense",
		"amount":          "80.00",
		"category":        "utilities",
		"description":     "Internet",
		"date":            start,
		"recurring":       true,
		"recurringType":   "fixed",
		"recurringMonths": 3,
	})
	var batch []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode batch: %v", err)
	}

	rec = doJSON(t, s, http.MethodPost,
		"/api/series/"+batch[0].RecurrenceGroupID+"/amount", "u1",
		map[string]any{"newAmount": "95.00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("series update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["updated"] != 4 {
		t.Errorf("updated = %d, want 4", out["updated"])
	}
}

func TestProjectionEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	start := time.Now().Format("2006-01-02")
	doJSON(t, s, http.MethodPost, "/api/transactions", "u1", map[string]any{
		"type":          "income",
		"amount":        "3000.00",
		"category":      "salary",
		"description":   "Salary",
		"date":          start,
		"recurring":     true,
		"recurringType": "infinite",
	})

	rec := doJSON(t, s, http.MethodPost, "/api/projection", "u1", map[string]any{
		"periodMonths":    3,
		"startingBalance": "1000.00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("projection status = %d, body %s", rec.Code, rec.Body.String())
	}

	var res services.ProjectionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Projection) != 3 {
		t.Fatalf("projection rows = %d, want 3", len(res.Projection))
	}
	want := int64(100000 + 3*300000)
	if got := res.Projection[2].AccumulatedBalance.Cents; got != want {
		t.Errorf("final balance = %d, want %d", got, want)
	}
	if len(res.Recommendations) == 0 {
		t.Error("recommendations must not be empty")
	}
}

func TestProjectionEndpointRejectsNegativePeriod(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/projection", "u1", map[string]any{
		"periodMonths": -4,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
}

func TestProjectionExportEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/projection/export?months=2", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("workbook body is empty")
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
