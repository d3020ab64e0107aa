package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"retail-insights/internal/analysis"
	"retail-insights/internal/models"
	"retail-insights/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()

	handlers := NewSSEHandlers(analytics, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_renderCountryTable(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	testData := []models.CountryAggregate{
		{
			Country:           "United Kingdom",
			Revenue:           decimal.RequireFromString("8187806.36"),
			Orders:            16646,
			Quantity:          4263829,
			AverageOrderValue: decimal.RequireFromString("491.87"),
		},
		{
			Country:           "Côte <d'Ivoire>",
			Revenue:           decimal.RequireFromString("59.98"),
			Orders:            2,
			Quantity:          2,
			AverageOrderValue: decimal.RequireFromString("29.99"),
		},
	}

	html, err := handlers.renderCountryTable(testData)
	if err != nil {
		t.Fatalf("renderCountryTable() failed: %v", err)
	}

	expectedContent := []string{
		`<div id="country-content">`,
		`<table class="modern-table">`,
		"<th>Country</th>",
		"<th>Revenue</th>",
		"<th>Orders</th>",
		"United Kingdom",
		"£8.187.806",
		"16.646",
		"£491,87",
		"£60",
		"Côte &lt;d&#39;Ivoire&gt;",
	}
	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_renderCountryTable_LargeDataset(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	testData := make([]models.CountryAggregate, 75)
	for i := range testData {
		testData[i] = models.CountryAggregate{
			Country: "Country" + string(rune('A'+i%26)),
			Revenue: decimal.NewFromInt(int64(i * 10)),
			Orders:  i,
		}
	}

	html, err := handlers.renderCountryTable(testData)
	if err != nil {
		t.Fatalf("renderCountryTable() failed: %v", err)
	}

	rowCount := strings.Count(html, "<tr>") - 1 // header row
	if rowCount != maxTableRows {
		t.Errorf("expected %d rows, got %d", maxTableRows, rowCount)
	}
}

func TestSSEHandlers_HandleKPIs(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/kpis", nil)
	w := httptest.NewRecorder()
	handlers.HandleKPIs(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`id="kpi-cards"`, "£1.170", "£292,49"} {
		if !strings.Contains(body, want) {
			t.Errorf("response should contain %q", want)
		}
	}
}

func TestSSEHandlers_HandleCountryRevenue(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/country-revenue", nil)
	w := httptest.NewRecorder()
	handlers.HandleCountryRevenue(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	// Check SSE headers (DataStar sets these)
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected cache-control 'no-cache', got %q", cc)
	}

	body := w.Body.String()
	if !strings.Contains(body, "<table") {
		t.Error("response should contain HTML table")
	}
	if !strings.Contains(body, "Canada") {
		t.Error("response should list every country")
	}
}

func TestSSEHandlers_SignalEndpoints(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		signal  string
	}{
		{"monthly", handlers.HandleMonthlyRevenue, "monthlyData"},
		{"weekday", handlers.HandleWeekdayRevenue, "weekdayData"},
		{"abc", handlers.HandleABC, "tierData"},
		{"clusters", handlers.HandleClusters, "clusterData"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse/"+tt.name, nil)
			w := httptest.NewRecorder()
			tt.handler(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.signal) {
				t.Errorf("response should contain %s signal", tt.signal)
			}
		})
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()
	handlers.HandleRefreshAll(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := w.Body.String()
	for _, signal := range []string{"monthlyData", "weekdayData", "tierData", "clusterData"} {
		if !strings.Contains(body, signal) {
			t.Errorf("response should contain %q signal", signal)
		}
	}
	for _, element := range []string{`id="kpi-cards"`, "<table", `id="warnings"`} {
		if !strings.Contains(body, element) {
			t.Errorf("response should contain %q", element)
		}
	}
}

func TestSSEHandlers_FilterSignals(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	q := url.Values{"datastar": {`{"countries":["Canada"],"k":3}`}}
	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	handlers.HandleRefreshAll(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "<td>USA</td>") {
		t.Error("filtered table should not list USA")
	}
	if !strings.Contains(body, "<td>Canada</td>") {
		t.Error("filtered table should list Canada")
	}
	// one country cannot carry three segments
	if !strings.Contains(body, "clusters_reduced") {
		t.Error("expected a clusters_reduced warning")
	}
}

func TestSSEHandlers_Errors(t *testing.T) {
	t.Run("invalid signals", func(t *testing.T) {
		handlers := NewSSEHandlers(createTestAnalytics(), testLogger())
		q := url.Values{"datastar": {`{"from":"yesterday"}`}}
		req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all?"+q.Encode(), nil)
		w := httptest.NewRecorder()
		handlers.HandleRefreshAll(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); strings.Contains(ct, "text/event-stream") {
			t.Error("errors should not open an event stream")
		}
	})

	t.Run("not loaded", func(t *testing.T) {
		a := services.NewAnalytics(analysis.Options{}, testLogger(), nil)
		handlers := NewSSEHandlers(a, testLogger())
		req := httptest.NewRequest(http.MethodGet, "/sse/kpis", nil)
		w := httptest.NewRecorder()
		handlers.HandleKPIs(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
	})
}

func TestSSEHandlers_HeaderConsistency(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	sseEndpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"KPIs", handlers.HandleKPIs},
		{"CountryRevenue", handlers.HandleCountryRevenue},
		{"MonthlyRevenue", handlers.HandleMonthlyRevenue},
		{"WeekdayRevenue", handlers.HandleWeekdayRevenue},
		{"ABC", handlers.HandleABC},
		{"Clusters", handlers.HandleClusters},
		{"RefreshAll", handlers.HandleRefreshAll},
	}

	for _, endpoint := range sseEndpoints {
		t.Run(endpoint.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse/test", nil)
			w := httptest.NewRecorder()
			endpoint.handler(w, req)

			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("%s: expected content-type to contain 'text/event-stream', got %q", endpoint.name, ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("%s: expected cache-control 'no-cache', got %q", endpoint.name, cc)
			}
		})
	}
}
