package templates

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"ltv-dashboard/internal/currency"
	"ltv-dashboard/internal/models"
)

const (
	BrandColor      = "#CAA55F"
	MetricsErrorMsg = "Erro ao calcular as métricas de LTV. Verifique os dados."
)

// MetricsView is what the sidebar shows. Err replaces both values when the
// metric rows cannot be read back.
type MetricsView struct {
	AveragePurchases string
	AverageSpend     string
	Err              string
}

// NewMetricsView reads the formatted "Métricas Gerais" rows back for display.
func NewMetricsView(rows []models.MetricRow) MetricsView {
	if len(rows) < 2 {
		return MetricsView{Err: MetricsErrorMsg}
	}

	purchases, err := currency.ParseBRL(rows[0].Value)
	if err != nil {
		return MetricsView{Err: MetricsErrorMsg}
	}

	return MetricsView{
		AveragePurchases: purchases.Round(3).StringFixed(3),
		AverageSpend:     rows[1].Value,
	}
}

type Bar struct {
	Label   string
	Value   string
	Percent string
}

type BarChart struct {
	ID     string
	Title  string
	XLabel string
	YLabel string
	Bars   []Bar
}

func newBars[T any](rows []T, label func(T) string, value func(T) decimal.Decimal, format func(decimal.Decimal) string) []Bar {
	peak := decimal.Zero
	for _, r := range rows {
		peak = decimal.Max(peak, value(r))
	}

	bars := make([]Bar, 0, len(rows))
	for _, r := range rows {
		pct := decimal.Zero
		if peak.IsPositive() {
			pct = value(r).Div(peak).Mul(decimal.NewFromInt(100))
		}
		bars = append(bars, Bar{
			Label:   label(r),
			Value:   format(value(r)),
			Percent: pct.StringFixed(1),
		})
	}
	return bars
}

func formatCount(d decimal.Decimal) string {
	return d.String()
}

func SalesByMonthChart(rows []models.MonthlySales) BarChart {
	return BarChart{
		ID:     "chart-sales",
		Title:  "Vendas por mês",
		XLabel: "Mês",
		YLabel: "Quantidade de Vendas",
		Bars: newBars(rows,
			func(r models.MonthlySales) string { return r.Month },
			func(r models.MonthlySales) decimal.Decimal { return decimal.NewFromInt(int64(r.Sales)) },
			formatCount),
	}
}

func RevenueByMonthChart(rows []models.MonthlyRevenue) BarChart {
	return BarChart{
		ID:     "chart-revenue",
		Title:  "Faturamento por mês",
		XLabel: "Mês",
		YLabel: "Faturamento (R$)",
		Bars: newBars(rows,
			func(r models.MonthlyRevenue) string { return r.Month },
			func(r models.MonthlyRevenue) decimal.Decimal { return r.Revenue },
			currency.FormatBRL),
	}
}

func SalesByProductChart(rows []models.ProductSales) BarChart {
	return BarChart{
		ID:     "chart-products",
		Title:  "Vendas por Produto",
		XLabel: "Produto",
		YLabel: "Total de Vendas",
		Bars: newBars(rows,
			func(r models.ProductSales) string { return r.ProductName },
			func(r models.ProductSales) decimal.Decimal { return decimal.NewFromInt(int64(r.Sales)) },
			formatCount),
	}
}

func Charts(d models.Dashboard) []BarChart {
	return []BarChart{
		SalesByMonthChart(d.SalesByMonth),
		RevenueByMonthChart(d.RevenueByMonth),
		SalesByProductChart(d.SalesByProduct),
	}
}

// FilterSignals mirrors the sidebar selections. Years travel as strings
// because checkbox values are strings.
type FilterSignals struct {
	Months      []string `json:"months"`
	Years       []string `json:"years"`
	Platforms   []string `json:"platforms"`
	Salespeople []string `json:"salespeople"`
}

func SignalsFromOptions(opts models.FilterOptions) FilterSignals {
	years := make([]string, 0, len(opts.Years))
	for _, y := range opts.Years {
		years = append(years, strconv.Itoa(y))
	}
	return FilterSignals{
		Months:      opts.Months,
		Years:       years,
		Platforms:   opts.Platforms,
		Salespeople: opts.Salespeople,
	}
}

// Filter converts the signals into a dataset filter. Absent signals place no
// constraint.
func (s FilterSignals) Filter() (models.Filter, error) {
	f := models.Filter{
		Months:      s.Months,
		Platforms:   s.Platforms,
		Salespeople: s.Salespeople,
	}
	if s.Years != nil {
		f.Years = make([]int, 0, len(s.Years))
		for _, raw := range s.Years {
			y, err := strconv.Atoi(raw)
			if err != nil {
				return models.Filter{}, fmt.Errorf("invalid year %q", raw)
			}
			f.Years = append(f.Years, y)
		}
	}
	return f, nil
}

// OptionGroup is one sidebar fieldset of checkboxes bound to a signal.
type OptionGroup struct {
	Signal string
	Legend string
	Values []string
}

// Groups lists the sidebar fieldsets in display order.
func (s FilterSignals) Groups() []OptionGroup {
	return []OptionGroup{
		{Signal: "months", Legend: "Mês", Values: s.Months},
		{Signal: "years", Legend: "Ano", Values: s.Years},
		{Signal: "platforms", Legend: "Plataforma de venda", Values: s.Platforms},
		{Signal: "salespeople", Legend: "Comercial", Values: s.Salespeople},
	}
}

type BuyerRow struct {
	BuyerID      string
	BuyerName    string
	Purchases    string
	TotalSpent   string
	AverageSpent string
	Product      string
}

// BuyersView is the buyers table as shown. Caption counts every buyer and
// notes the cap when rows were dropped.
type BuyersView struct {
	Caption string
	Rows    []BuyerRow
}

// NewBuyersView keeps at most maxRows buyers; zero or less keeps all.
func NewBuyersView(buyers []models.BuyerSummary, maxRows int) BuyersView {
	shown := limitRows(buyers, maxRows)

	caption := fmt.Sprintf("%d compradores", len(buyers))
	if len(shown) < len(buyers) {
		caption += fmt.Sprintf(", exibindo %d", len(shown))
	}

	rows := make([]BuyerRow, 0, len(shown))
	for _, b := range shown {
		rows = append(rows, BuyerRow{
			BuyerID:      b.BuyerID,
			BuyerName:    b.BuyerName,
			Purchases:    strconv.Itoa(b.PurchaseCount),
			TotalSpent:   currency.FormatBRL(b.TotalSpent),
			AverageSpent: currency.FormatBRL(b.AverageSpent),
			Product:      b.MostFrequentProduct,
		})
	}
	return BuyersView{Caption: caption, Rows: rows}
}

type Page struct {
	Title   string
	Signals string
	Filters []OptionGroup
	Metrics MetricsView
	Buyers  BuyersView
	Charts  []BarChart
}

func NewPage(opts models.FilterOptions, d models.Dashboard, metrics []models.MetricRow, maxRows int) (Page, error) {
	signals := SignalsFromOptions(opts)
	raw, err := json.Marshal(signals)
	if err != nil {
		return Page{}, fmt.Errorf("marshal signals: %w", err)
	}

	return Page{
		Title:   "Dashboard KPIs",
		Signals: string(raw),
		Filters: signals.Groups(),
		Metrics: NewMetricsView(metrics),
		Buyers:  NewBuyersView(d.LTV.Buyers, maxRows),
		Charts:  Charts(d),
	}, nil
}

func limitRows(buyers []models.BuyerSummary, maxRows int) []models.BuyerSummary {
	if maxRows > 0 && len(buyers) > maxRows {
		return buyers[:maxRows]
	}
	return buyers
}
