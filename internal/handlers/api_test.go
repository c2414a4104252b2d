package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(config.DashboardConfig{DefaultPeriod: 7, Periods: []int{7, 28}}, testLogger())
	a.SetData([]models.Record{
		{OrderID: "A", CustomerID: "C1", OrderDate: day(2014, 12, 21), Sales: 100, Profit: 20, Category: "Furniture", Region: "West", ProductName: "Chair"},
		{OrderID: "B", CustomerID: "C2", OrderDate: day(2014, 12, 28), Sales: 50, Profit: -10, Category: "Technology", Region: "East", ProductName: "Phone"},
		{OrderID: "B", CustomerID: "C2", OrderDate: day(2014, 12, 28), Sales: 30, Profit: 5, Category: "Furniture", Region: "East", ProductName: "Desk"},
		{OrderID: "C", CustomerID: "C3", OrderDate: day(2014, 12, 31), Sales: 10, Profit: 1, Category: "Technology", Region: "West", ProductName: "Cable"},
	})
	return a
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()
	handlers := NewAPIHandlers(analytics, logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleKPIs(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/kpis?end_date=2014-12-31&period=7", nil)
	w := httptest.NewRecorder()
	handlers.HandleKPIs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != CacheMaxAge {
		t.Errorf("expected Cache-Control %q, got %q", CacheMaxAge, cc)
	}

	env := decode(t, w)
	if !env.Success {
		t.Fatal("expected success=true")
	}
	var result models.ComparisonResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if result.PeriodDays != 7 || result.Current.TotalSales != 90 || result.Previous.TotalSales != 100 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Current.OrderCount != 2 || result.Current.CustomerCount != 2 {
		t.Errorf("unexpected counts %+v", result.Current)
	}
}

func TestAPIHandlers_HandleKPIs_Errors(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name     string
		url      string
		wantCode string
	}{
		{"zero period", "/api/kpis?period=0", "VALIDATION_ERROR"},
		{"negative period", "/api/kpis?period=-7", "VALIDATION_ERROR"},
		{"non-numeric period", "/api/kpis?period=month", "BAD_REQUEST"},
		{"malformed date", "/api/kpis?end_date=12/31/2014", "BAD_REQUEST"},
		{"period above maximum", "/api/kpis?period=1000000000", "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleKPIs(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
			env := decode(t, w)
			if env.Success || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("expected error code %s, got %+v", tt.wantCode, env.Error)
			}
		})
	}
}

func TestAPIHandlers_HandleBreakdown(t *testing.T) {
	analytics := createTestAnalytics()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/breakdown/{dimension}", NewAPIHandlers(analytics, testLogger()).HandleBreakdown)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/breakdown/region?end_date=2014-12-31&period=7", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var rows []models.BreakdownRow
	if err := json.Unmarshal(decode(t, w).Data, &rows); err != nil {
		t.Fatalf("failed to decode rows: %v", err)
	}
	if len(rows) != 2 || rows[0].Key != "East" || rows[0].TotalSales != 80 {
		t.Errorf("unexpected rows %+v", rows)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/breakdown/planet", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown dimension: expected 404, got %d", w.Code)
	}
}

func TestAPIHandlers_HandleDailySeries(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleDailySeries(w, httptest.NewRequest(http.MethodGet, "/api/daily-series?period=7", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var points []models.SeriesPoint
	if err := json.Unmarshal(decode(t, w).Data, &points); err != nil {
		t.Fatalf("failed to decode points: %v", err)
	}
	if len(points) != 8 || points[7].Date != "2014-12-31" {
		t.Errorf("unexpected series %+v", points)
	}
}

func TestAPIHandlers_HandleDailySeries_PeriodTooLarge(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleDailySeries(w, httptest.NewRequest(http.MethodGet, "/api/daily-series?period=1000000000", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Success || env.Error == nil || env.Error.Code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %+v", env.Error)
	}
}

func TestAPIHandlers_HandleDateRange(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleDateRange(w, httptest.NewRequest(http.MethodGet, "/api/date-range", nil))

	var r models.DatasetRange
	if err := json.Unmarshal(decode(t, w).Data, &r); err != nil {
		t.Fatalf("failed to decode range: %v", err)
	}
	if r.MinDate != "2014-12-21" || r.MaxDate != "2014-12-31" || r.Records != 4 || r.Default != 7 {
		t.Errorf("unexpected range %+v", r)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var health map[string]string
	if err := json.Unmarshal(decode(t, w).Data, &health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health["status"] != "healthy" {
		t.Errorf("expected healthy, got %q", health["status"])
	}
	if _, err := time.Parse(time.RFC3339, health["timestamp"]); err != nil {
		t.Errorf("invalid timestamp %q", health["timestamp"])
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var stats map[string]any
	if err := json.Unmarshal(decode(t, w).Data, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats["record_count"] != float64(4) {
		t.Errorf("expected record_count 4, got %v", stats["record_count"])
	}
	if stats["source"] != "memory" {
		t.Errorf("expected source memory, got %v", stats["source"])
	}
}
