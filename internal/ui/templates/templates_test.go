package templates

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"ltv-dashboard/internal/models"
)

func TestNewMetricsView(t *testing.T) {
	tests := []struct {
		name string
		rows []models.MetricRow
		want MetricsView
	}{
		{
			name: "formatted rows",
			rows: []models.MetricRow{
				{Name: "Compras médias por pessoa", Value: "1,500"},
				{Name: "Valor médio gasto por pessoa", Value: "R$ 1.234,56"},
			},
			want: MetricsView{AveragePurchases: "1.500", AverageSpend: "R$ 1.234,56"},
		},
		{
			name: "unparsable purchases",
			rows: []models.MetricRow{
				{Name: "Compras médias por pessoa", Value: "n/a"},
				{Name: "Valor médio gasto por pessoa", Value: "R$ 0,00"},
			},
			want: MetricsView{Err: MetricsErrorMsg},
		},
		{
			name: "missing rows",
			rows: nil,
			want: MetricsView{Err: MetricsErrorMsg},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, NewMetricsView(tt.rows)); diff != "" {
				t.Errorf("NewMetricsView() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRevenueByMonthChart(t *testing.T) {
	chart := RevenueByMonthChart([]models.MonthlyRevenue{
		{Month: "Janeiro", MonthNumber: 1, Revenue: decimal.NewFromInt(200)},
		{Month: "Fevereiro", MonthNumber: 2, Revenue: decimal.NewFromInt(50)},
	})

	want := []Bar{
		{Label: "Janeiro", Value: "R$ 200,00", Percent: "100.0"},
		{Label: "Fevereiro", Value: "R$ 50,00", Percent: "25.0"},
	}
	if diff := cmp.Diff(want, chart.Bars); diff != "" {
		t.Errorf("bars mismatch (-want +got):\n%s", diff)
	}
}

func TestSalesByMonthChart_Empty(t *testing.T) {
	chart := SalesByMonthChart(nil)
	if len(chart.Bars) != 0 {
		t.Errorf("got %d bars, want none", len(chart.Bars))
	}

	html, err := RenderString(context.Background(), ChartsPanel([]BarChart{chart}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "Sem dados.") {
		t.Error("empty chart should say there is no data")
	}
}

func TestFilterSignals_Filter(t *testing.T) {
	tests := []struct {
		name    string
		signals FilterSignals
		want    models.Filter
		wantErr bool
	}{
		{name: "absent", signals: FilterSignals{}, want: models.Filter{}},
		{
			name:    "years parsed",
			signals: FilterSignals{Years: []string{"2024", "2025"}, Months: []string{"Março"}},
			want:    models.Filter{Years: []int{2024, 2025}, Months: []string{"Março"}},
		},
		{name: "empty years", signals: FilterSignals{Years: []string{}}, want: models.Filter{Years: []int{}}},
		{name: "bad year", signals: FilterSignals{Years: []string{"20x5"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.signals.Filter()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Filter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func testDashboard() models.Dashboard {
	return models.Dashboard{
		LTV: models.LTVReport{
			Buyers: []models.BuyerSummary{
				{BuyerID: "111", BuyerName: "Ana <Admin>", PurchaseCount: 2, TotalSpent: decimal.NewFromInt(1500), AverageSpent: decimal.NewFromInt(750), MostFrequentProduct: "Curso"},
				{BuyerID: "222", BuyerName: "Caio", PurchaseCount: 1, TotalSpent: decimal.NewFromInt(200), AverageSpent: decimal.NewFromInt(200), MostFrequentProduct: "Mentoria"},
			},
		},
		SalesByMonth:   []models.MonthlySales{{Month: "Janeiro", MonthNumber: 1, Sales: 3}},
		RevenueByMonth: []models.MonthlyRevenue{{Month: "Janeiro", MonthNumber: 1, Revenue: decimal.NewFromInt(1700)}},
		SalesByProduct: []models.ProductSales{{ProductName: "Curso", Sales: 2}, {ProductName: "Mentoria", Sales: 1}},
	}
}

func TestDashboard_Render(t *testing.T) {
	opts := models.FilterOptions{
		Months:      []string{"Janeiro"},
		Years:       []int{2025},
		Platforms:   []string{"Hotmart"},
		Salespeople: []string{"Bia"},
	}
	metrics := []models.MetricRow{
		{Name: "Compras médias por pessoa", Value: "1,500"},
		{Name: "Valor médio gasto por pessoa", Value: "R$ 850,00"},
	}

	page, err := NewPage(opts, testDashboard(), metrics, 1)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}

	var signals FilterSignals
	if err := json.Unmarshal([]byte(page.Signals), &signals); err != nil {
		t.Fatalf("page signals are not json: %v", err)
	}
	if diff := cmp.Diff([]string{"2025"}, signals.Years); diff != "" {
		t.Errorf("year signals mismatch (-want +got):\n%s", diff)
	}

	html, err := RenderString(context.Background(), Dashboard(page))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	expected := []string{
		"<title>Dashboard KPIs</title>",
		BuyersID, MetricsID, ChartsID,
		"Compradores Recorrentes",
		"Compras médias por cliente",
		"Valor médio gasto por cliente",
		"R$ 850,00",
		"R$ 1.500,00",
		"Ana &lt;Admin&gt;",
		"2 compradores, exibindo 1",
		`data-bind="years"`,
		"/sse/dashboard",
		BrandColor,
	}
	for _, want := range expected {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "Caio") {
		t.Error("rows beyond the limit should not render")
	}
}

func TestMetricsPanel_Error(t *testing.T) {
	html, err := RenderString(context.Background(), MetricsPanel(MetricsView{Err: MetricsErrorMsg}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, MetricsErrorMsg) {
		t.Error("error message should be shown")
	}
	if strings.Contains(html, "Compras médias por cliente") {
		t.Error("metric values should be hidden on error")
	}
}

func TestNewBuyersView(t *testing.T) {
	buyers := testDashboard().LTV.Buyers

	want := BuyersView{
		Caption: "2 compradores, exibindo 1",
		Rows: []BuyerRow{{
			BuyerID: "111", BuyerName: "Ana <Admin>", Purchases: "2",
			TotalSpent: "R$ 1.500,00", AverageSpent: "R$ 750,00", Product: "Curso",
		}},
	}
	if diff := cmp.Diff(want, NewBuyersView(buyers, 1)); diff != "" {
		t.Errorf("NewBuyersView() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuyersTable_Empty(t *testing.T) {
	html, err := RenderString(context.Background(), BuyersTable(NewBuyersView(nil, 10)))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "0 compradores") || !strings.Contains(html, "Nenhuma venda") {
		t.Errorf("empty table markup = %s", html)
	}
}

func TestDashboard_FilterCheckboxes(t *testing.T) {
	opts := models.FilterOptions{
		Months:      []string{"Janeiro", "Fevereiro"},
		Years:       []int{2024, 2025},
		Platforms:   []string{"Hotmart"},
		Salespeople: []string{"Bia"},
	}
	page, err := NewPage(opts, models.Dashboard{}, nil, 10)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}

	html, err := RenderString(context.Background(), Dashboard(page))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		`data-bind="months" value="Fevereiro" checked`,
		`data-bind="years" value="2024" checked`,
		`data-bind="platforms" value="Hotmart" checked`,
		`data-bind="salespeople" value="Bia" checked`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "<meter") {
		t.Error("an empty dashboard should draw no bars")
	}
}

func TestChartsPanel_Bars(t *testing.T) {
	chart := SalesByProductChart([]models.ProductSales{{ProductName: "Curso", Sales: 4}, {ProductName: "Ebook", Sales: 1}})

	html, err := RenderString(context.Background(), ChartsPanel([]BarChart{chart}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`id="chart-products"`,
		`aria-label="Total de Vendas por Produto"`,
		`value="100.0"`,
		`value="25.0"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("chart missing %q", want)
		}
	}
}

func TestBuyersTable_Limit(t *testing.T) {
	buyers := testDashboard().LTV.Buyers

	html, err := RenderString(context.Background(), BuyersTable(NewBuyersView(buyers, 0)))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "Caio") || !strings.Contains(html, "2 compradores") {
		t.Error("a zero limit should render every row")
	}
	if strings.Contains(html, "exibindo") {
		t.Error("no truncation notice expected")
	}
}
