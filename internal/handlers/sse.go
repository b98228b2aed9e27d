package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"ltv-dashboard/internal/errors"
	"ltv-dashboard/internal/models"
	"ltv-dashboard/internal/observability"
	"ltv-dashboard/internal/services"
	"ltv-dashboard/internal/ui/templates"
)

// maxTableRows caps the rendered buyers table; the export carries every row.
const maxTableRows = 500

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// readFilter decodes the sidebar selections sent by datastar. Requests
// without signals see the whole dataset.
func (h *SSEHandlers) readFilter(w http.ResponseWriter, r *http.Request) (models.Filter, bool) {
	var signals templates.FilterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, r, h.logger, errors.BadRequestWrap(err, "invalid signals"), observability.GetRequestID(r.Context()))
		return models.Filter{}, false
	}

	f, err := signals.Filter()
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.BadRequestWrap(err, "invalid filter"), observability.GetRequestID(r.Context()))
		return models.Filter{}, false
	}
	return f, true
}

type summarySignals struct {
	Buyers       int `json:"buyers"`
	Transactions int `json:"transactions"`
}

func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, fragments ...templ.Component) error {
	for _, c := range fragments {
		html, err := templates.RenderString(ctx, c)
		if err != nil {
			return fmt.Errorf("render fragment: %w", err)
		}
		if err := sse.PatchElements(html); err != nil {
			return fmt.Errorf("patch elements: %w", err)
		}
	}
	return nil
}

func (h *SSEHandlers) patchSummary(sse *datastar.ServerSentEventGenerator, m models.PopulationMetrics) error {
	raw, err := json.Marshal(map[string]summarySignals{
		"summary": {Buyers: m.BuyerCount, Transactions: m.TransactionCount},
	})
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return sse.PatchSignals(raw)
}

func (h *SSEHandlers) HandleBuyers(w http.ResponseWriter, r *http.Request) {
	f, ok := h.readFilter(w, r)
	if !ok {
		return
	}

	report := h.analytics.LTV(f)
	sse := datastar.NewSSE(w, r)

	if err := h.patch(r.Context(), sse, templates.BuyersTable(templates.NewBuyersView(report.Buyers, maxTableRows))); err != nil {
		h.logger.Error("patch buyers table", "error", err)
		return
	}
	if err := h.patchSummary(sse, report.Metrics); err != nil {
		h.logger.Error("patch summary", "error", err)
	}
}

func (h *SSEHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	f, ok := h.readFilter(w, r)
	if !ok {
		return
	}

	report := h.analytics.LTV(f)
	view := templates.NewMetricsView(services.MetricRows(report.Metrics))
	sse := datastar.NewSSE(w, r)

	if err := h.patch(r.Context(), sse, templates.MetricsPanel(view)); err != nil {
		h.logger.Error("patch metrics", "error", err)
	}
}

func (h *SSEHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	f, ok := h.readFilter(w, r)
	if !ok {
		return
	}

	d := h.analytics.Dashboard(f)
	sse := datastar.NewSSE(w, r)

	if err := h.patch(r.Context(), sse, templates.ChartsPanel(templates.Charts(d))); err != nil {
		h.logger.Error("patch charts", "error", err)
	}
}

// HandleDashboard recomputes every panel for the current selection in one
// stream. The sidebar triggers it on each change.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	f, ok := h.readFilter(w, r)
	if !ok {
		return
	}

	d := h.analytics.Dashboard(f)
	view := templates.NewMetricsView(services.MetricRows(d.LTV.Metrics))
	if view.Err != "" {
		h.logger.Warn("metrics unavailable", "buyers", len(d.LTV.Buyers))
	}

	sse := datastar.NewSSE(w, r)
	err := h.patch(r.Context(), sse,
		templates.MetricsPanel(view),
		templates.ChartsPanel(templates.Charts(d)),
		templates.BuyersTable(templates.NewBuyersView(d.LTV.Buyers, maxTableRows)),
	)
	if err != nil {
		h.logger.Error("patch dashboard", "error", err)
		return
	}
	if err := h.patchSummary(sse, d.LTV.Metrics); err != nil {
		h.logger.Error("patch summary", "error", err)
	}
}
