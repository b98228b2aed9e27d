package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"ltv-dashboard/internal/errors"
	"ltv-dashboard/internal/models"
	"ltv-dashboard/internal/observability"
	"ltv-dashboard/internal/services"
	"ltv-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard renders the full page with every filter value selected.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		errors.WriteError(w, r, h.logger, errors.NotFound("page not found"), observability.GetRequestID(r.Context()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	d := h.analytics.Dashboard(models.Filter{})
	page, err := templates.NewPage(h.analytics.FilterOptions(), d, services.MetricRows(d.LTV.Metrics), maxTableRows)
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "failed to build page"), observability.GetRequestID(r.Context()))
		return
	}

	html, err := templates.RenderString(ctx, templates.Dashboard(page))
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "failed to render page"), observability.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
