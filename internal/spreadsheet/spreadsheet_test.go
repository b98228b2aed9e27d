package spreadsheet

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ltv-dashboard/internal/models"
)

var header = []string{
	"ID da venda", "CPF", "Comprador", "Nome do Produto", "Receita total",
	"Mês", "Ano", "Plataforma de venda", "Comercial",
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func writeTempXLSX(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "vendas.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func headerRow() []any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}

func TestReadFile_XLSX(t *testing.T) {
	path := writeTempXLSX(t, [][]any{
		headerRow(),
		{1001, 12345678900, "Ana Souza", "Curso Online", 100.5, "Janeiro", 2025, "Hotmart", "Carla"},
		{1002, "987.654.321-00", "Bruno Lima", "Mentoria", "R$ 1.200,00", "Fevereiro", 2025, "Eduzz", "Diego"},
	})

	got, err := ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	want := []models.Transaction{
		{
			SaleID: "1001", BuyerID: "12345678900", BuyerName: "Ana Souza", ProductName: "Curso Online",
			Revenue: decimal.RequireFromString("100.5"), Month: "Janeiro", MonthNumber: 1, Year: 2025,
			SalesPlatform: "Hotmart", Salesperson: "Carla",
		},
		{
			SaleID: "1002", BuyerID: "987.654.321-00", BuyerName: "Bruno Lima", ProductName: "Mentoria",
			Revenue: decimal.RequireFromString("1200"), Month: "Fevereiro", MonthNumber: 2, Year: 2025,
			SalesPlatform: "Eduzz", Salesperson: "Diego",
		},
	}
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Errorf("ReadFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFile_CSV(t *testing.T) {
	content := strings.Join(header, ",") + "\n" +
		"1,111,Ana,Curso,\"49,90\",Março,2025,Hotmart,Carla\n" +
		"\n" +
		"2,222,Bruno,Ebook,19.9,abril,2024,Eduzz,Diego\n"

	path := filepath.Join(t.TempDir(), "vendas.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if !got[0].Revenue.Equal(decimal.RequireFromString("49.90")) {
		t.Errorf("revenue = %s, want 49.90", got[0].Revenue)
	}
	if got[0].MonthNumber != 3 || got[1].MonthNumber != 4 {
		t.Errorf("month numbers = %d, %d, want 3, 4", got[0].MonthNumber, got[1].MonthNumber)
	}
	if got[1].Year != 2024 {
		t.Errorf("year = %d, want 2024", got[1].Year)
	}
}

func TestParseRows_Errors(t *testing.T) {
	valid := []string{"1", "111", "Ana", "Curso", "10", "Janeiro", "2025", "Hotmart", "Carla"}
	withCell := func(col int, v string) []string {
		row := append([]string(nil), valid...)
		row[col] = v
		return row
	}

	tests := []struct {
		name    string
		rows    [][]string
		wantErr error
		wantRow int
	}{
		{name: "empty", rows: nil, wantErr: ErrEmptySheet},
		{name: "missing column", rows: [][]string{header[:8], valid[:8]}, wantErr: ErrMissingColumn},
		{name: "bad revenue", rows: [][]string{header, valid, withCell(4, "dez reais")}, wantRow: 3},
		{name: "bad month", rows: [][]string{header, withCell(5, "Jan")}, wantRow: 2},
		{name: "bad year", rows: [][]string{header, withCell(6, "2025.5")}, wantRow: 2},
		{name: "empty buyer", rows: [][]string{header, withCell(1, " ")}, wantRow: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRows(context.Background(), tt.rows)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantRow > 0 {
				var rowErr *RowError
				if !errors.As(err, &rowErr) {
					t.Fatalf("error = %v, want *RowError", err)
				}
				if rowErr.Row != tt.wantRow {
					t.Errorf("row = %d, want %d", rowErr.Row, tt.wantRow)
				}
			}
		})
	}
}

func TestReadFile_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vazio.csv")
	if err := os.WriteFile(path, []byte(strings.Join(header, ",")+"\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ReadFile() = %v, want an empty non-nil slice", got)
	}
}

func TestParseRows_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := [][]string{header, {"1", "111", "Ana", "Curso", "10", "Janeiro", "2025", "Hotmart", "Carla"}}
	if _, err := ParseRows(ctx, rows); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestReadFile_Unsupported(t *testing.T) {
	_, err := ReadFile(context.Background(), "vendas.ods")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteReport(t *testing.T) {
	report := models.LTVReport{
		Buyers: []models.BuyerSummary{
			{
				BuyerID: "1", BuyerName: "Ana", PurchaseCount: 2,
				TotalSpent:   decimal.RequireFromString("150"),
				AverageSpent: decimal.RequireFromString("75"), MostFrequentProduct: "Curso",
			},
			{
				BuyerID: "2", BuyerName: "Bruno", PurchaseCount: 1,
				TotalSpent:   decimal.RequireFromString("200"),
				AverageSpent: decimal.RequireFromString("200"), MostFrequentProduct: "Mentoria",
			},
		},
	}
	metrics := []models.MetricRow{
		{Name: "Compras médias por pessoa", Value: "1,500", Amount: decimal.RequireFromString("1.5"), Unit: models.UnitCount},
		{Name: "Valor médio gasto por pessoa", Value: "R$ 175,00", Amount: decimal.RequireFromString("175"), Unit: models.UnitBRL},
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, report, metrics); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open written workbook: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{SheetBuyers, SheetMetrics}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}

	buyers, err := f.GetRows(SheetBuyers, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(buyers) != 3 {
		t.Fatalf("expected header + 2 buyer rows, got %d", len(buyers))
	}
	if buyers[0][2] != "Total de Compras" {
		t.Errorf("header[2] = %q", buyers[0][2])
	}
	if diff := cmp.Diff([]string{"1", "Ana", "2", "150", "75", "Curso"}, buyers[1]); diff != "" {
		t.Errorf("first buyer row mismatch (-want +got):\n%s", diff)
	}

	rows, err := f.GetRows(SheetMetrics, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"Métrica", "Valor"},
		{"Compras médias por pessoa", "1.5"},
		{"Valor médio gasto por pessoa", "175"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("metrics sheet mismatch (-want +got):\n%s", diff)
	}

	formats := map[string]string{"B2": numFmtCount, "B3": numFmtBRL, "D2": numFmtBRL}
	for cell, wantFmt := range formats {
		sheet := SheetMetrics
		if cell == "D2" {
			sheet = SheetBuyers
		}
		id, err := f.GetCellStyle(sheet, cell)
		if err != nil {
			t.Fatalf("GetCellStyle(%s) error = %v", cell, err)
		}
		style, err := f.GetStyle(id)
		if err != nil {
			t.Fatalf("GetStyle(%d) error = %v", id, err)
		}
		if style.CustomNumFmt == nil || *style.CustomNumFmt != wantFmt {
			t.Errorf("%s!%s number format = %v, want %q", sheet, cell, style.CustomNumFmt, wantFmt)
		}
	}
}

func TestSaveReport_EmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LTV.xlsx")
	if err := SaveReport(path, models.LTVReport{}, nil); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetBuyers)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("expected only the header row, got %d rows", len(rows))
	}
}
