package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ltv-dashboard/internal/errors"
	"ltv-dashboard/internal/models"
	"ltv-dashboard/internal/observability"
	"ltv-dashboard/internal/services"
	"ltv-dashboard/internal/spreadsheet"
)

const (
	cacheMaxAge  = "public, max-age=300"
	xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportName   = "LTV-compradores.xlsx"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, r, h.logger, err, observability.GetRequestID(r.Context()))
}

type ltvResponse struct {
	models.LTVReport
	MetricRows []models.MetricRow `json:"metric_rows"`
}

func (h *APIHandlers) HandleLTV(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	report := h.analytics.LTV(f)

	errors.WriteSuccessWithHeaders(w, ltvResponse{
		LTVReport:  report,
		MetricRows: services.MetricRows(report.Metrics),
	}, map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleSalesByMonth(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.SalesByMonth(f), map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleRevenueByMonth(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.RevenueByMonth(f), map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleSalesByProduct(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.SalesByProduct(f), map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.FilterOptions(), map[string]string{"Cache-Control": cacheMaxAge})
}

// HandleExport streams the filtered LTV report as an xlsx workbook. The
// workbook is built in memory first so a failure still yields a JSON error.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	report := h.analytics.LTV(f)

	var buf bytes.Buffer
	if err := spreadsheet.WriteReport(&buf, report, services.MetricRows(report.Metrics)); err != nil {
		h.writeError(w, r, errors.InternalWrap(err, "failed to build report"))
		return
	}

	w.Header().Set("Content-Type", xlsxMimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export write failed", "error", err, "buyers", len(report.Buyers))
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.analytics.Loaded() {
		h.writeError(w, r, errors.ServiceUnavailable("sales data not loaded"))
		return
	}

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
