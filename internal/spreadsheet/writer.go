package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ltv-dashboard/internal/models"
)

const (
	SheetBuyers  = "Compradores Recorrentes"
	SheetMetrics = "Métricas Gerais"
)

var (
	buyerHeader = []any{
		ColBuyerID, ColBuyerName, "Total de Compras", "Valor total gasto",
		"Valor médio por compra", "Produtos mais comprados",
	}
	metricHeader = []any{"Métrica", "Valor"}
)

// Excel number formats for numeric cells.
const (
	numFmtBRL   = `"R$" #,##0.00`
	numFmtCount = "0.000"
)

type styles struct {
	brl   int
	count int
}

func newStyles(f *excelize.File) (styles, error) {
	brl, count := numFmtBRL, numFmtCount

	var s styles
	var err error
	if s.brl, err = f.NewStyle(&excelize.Style{CustomNumFmt: &brl}); err != nil {
		return styles{}, fmt.Errorf("create currency style: %w", err)
	}
	if s.count, err = f.NewStyle(&excelize.Style{CustomNumFmt: &count}); err != nil {
		return styles{}, fmt.Errorf("create count style: %w", err)
	}
	return s, nil
}

func (s styles) forUnit(u models.MetricUnit) int {
	if u == models.UnitBRL {
		return s.brl
	}
	return s.count
}

// BuildReport lays the LTV report out on two sheets. Money and metric cells
// are numeric with a display format so the workbook stays usable for
// further calculation.
func BuildReport(report models.LTVReport, metrics []models.MetricRow) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetBuyers); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetMetrics); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeBuyers(f, st, report.Buyers); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeMetrics(f, st, metrics); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeBuyers(f *excelize.File, st styles, buyers []models.BuyerSummary) error {
	if err := f.SetSheetRow(SheetBuyers, "A1", &buyerHeader); err != nil {
		return fmt.Errorf("write buyer header: %w", err)
	}

	for i, b := range buyers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			b.BuyerID,
			b.BuyerName,
			b.PurchaseCount,
			b.TotalSpent.Round(2).InexactFloat64(),
			b.AverageSpent.Round(2).InexactFloat64(),
			b.MostFrequentProduct,
		}
		if err := f.SetSheetRow(SheetBuyers, cell, &row); err != nil {
			return fmt.Errorf("write buyer row %d: %w", i+2, err)
		}
	}

	if len(buyers) > 0 {
		last, err := excelize.CoordinatesToCellName(5, len(buyers)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetBuyers, "D2", last, st.brl); err != nil {
			return fmt.Errorf("style money columns: %w", err)
		}
	}
	return nil
}

func writeMetrics(f *excelize.File, st styles, metrics []models.MetricRow) error {
	if err := f.SetSheetRow(SheetMetrics, "A1", &metricHeader); err != nil {
		return fmt.Errorf("write metric header: %w", err)
	}

	for i, m := range metrics {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{m.Name, m.Amount.InexactFloat64()}
		if err := f.SetSheetRow(SheetMetrics, cell, &row); err != nil {
			return fmt.Errorf("write metric row %d: %w", i+2, err)
		}

		value, err := excelize.CoordinatesToCellName(2, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetMetrics, value, value, st.forUnit(m.Unit)); err != nil {
			return fmt.Errorf("style metric row %d: %w", i+2, err)
		}
	}
	return nil
}

func WriteReport(w io.Writer, report models.LTVReport, metrics []models.MetricRow) error {
	f, err := BuildReport(report, metrics)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func SaveReport(path string, report models.LTVReport, metrics []models.MetricRow) error {
	f, err := BuildReport(report, metrics)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
