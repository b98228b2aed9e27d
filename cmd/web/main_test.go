package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"ltv-dashboard/internal/config"
	"ltv-dashboard/internal/models"
	"ltv-dashboard/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{
		Data: config.DataConfig{SpendAverage: "per_buyer"},
		Security: config.SecurityConfig{
			EnableRateLimit: false,
			RateLimitRPS:    100,
			RateLimitBurst:  100,
			AllowedOrigins:  []string{"http://localhost:8084"},
		},
	}
}

// Test helper to create analytics with test data
func newTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()

	a, err := newAnalytics(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newAnalytics: %v", err)
	}
	a.SetData([]models.Transaction{
		{SaleID: "V1", BuyerID: "111", BuyerName: "Ana", ProductName: "Curso", Revenue: decimal.NewFromInt(100), Month: "Janeiro", MonthNumber: 1, Year: 2025, SalesPlatform: "Hotmart", Salesperson: "Bia"},
		{SaleID: "V2", BuyerID: "111", BuyerName: "Ana", ProductName: "Mentoria", Revenue: decimal.NewFromInt(50), Month: "Fevereiro", MonthNumber: 2, Year: 2025, SalesPlatform: "Eduzz", Salesperson: "Bia"},
		{SaleID: "V3", BuyerID: "222", BuyerName: "Caio", ProductName: "Curso", Revenue: decimal.NewFromInt(200), Month: "Janeiro", MonthNumber: 1, Year: 2024, SalesPlatform: "Hotmart", Salesperson: "Duda"},
	})
	return a
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newHandler(newTestAnalytics(t), testConfig(), logger)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/api/ltv", http.StatusOK, "application/json"},
		{"/api/sales-by-month", http.StatusOK, "application/json"},
		{"/api/revenue-by-month", http.StatusOK, "application/json"},
		{"/api/sales-by-product", http.StatusOK, "application/json"},
		{"/api/filters", http.StatusOK, "application/json"},
		{"/api/export", http.StatusOK, "spreadsheetml"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/missing", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)

			h.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}

			if w.Header().Get("X-Request-ID") == "" {
				t.Error("response should carry a request id")
			}
		})
	}
}

func TestServer_LTVFilteredByYear(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ltv?year=2025", nil))

	var resp struct {
		Data struct {
			Buyers []models.BuyerSummary `json:"buyers"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if !resp.Success || len(resp.Data.Buyers) != 1 || resp.Data.Buyers[0].BuyerName != "Ana" {
		t.Errorf("unexpected buyers for 2025: %+v", resp.Data.Buyers)
	}
}

// Test Server-Sent Events routes
func TestServer_SSERoutes(t *testing.T) {
	h := newTestHandler(t)

	sseRoutes := []string{
		"/sse/buyers",
		"/sse/metrics",
		"/sse/charts",
		"/sse/dashboard",
	}

	for _, route := range sseRoutes {
		t.Run(route, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, route, nil)

			h.ServeHTTP(w, r)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("content-type = %q, should contain 'text/event-stream'", ct)
			}
			if !strings.Contains(w.Body.String(), "datastar-patch-elements") {
				t.Error("stream should contain an element patch")
			}
		})
	}
}

// Test error handling for invalid methods
func TestServer_ErrorHandling(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/api/ltv", http.StatusMethodNotAllowed},
		{http.MethodPut, "/", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/health", http.StatusMethodNotAllowed},
		{http.MethodPatch, "/api/export", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/ltv?year=dois", http.StatusBadRequest},
		{http.MethodGet, "/api/ltv?month=Jan", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			h.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestNewAnalytics_RejectsUnknownSpendAverage(t *testing.T) {
	cfg := testConfig()
	cfg.Data.SpendAverage = "median"

	if _, err := newAnalytics(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected an error for an unknown spend average")
	}
}
