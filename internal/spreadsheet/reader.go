// Package spreadsheet reads sales workbooks and writes LTV reports.
package spreadsheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ltv-dashboard/internal/currency"
	"ltv-dashboard/internal/models"
)

// Column headers of the sales workbook.
const (
	ColSaleID      = "ID da venda"
	ColBuyerID     = "CPF"
	ColBuyerName   = "Comprador"
	ColProduct     = "Nome do Produto"
	ColRevenue     = "Receita total"
	ColMonth       = "Mês"
	ColYear        = "Ano"
	ColPlatform    = "Plataforma de venda"
	ColSalesperson = "Comercial"
)

var RequiredColumns = []string{
	ColSaleID, ColBuyerID, ColBuyerName, ColProduct, ColRevenue,
	ColMonth, ColYear, ColPlatform, ColSalesperson,
}

var (
	ErrEmptySheet    = errors.New("empty sheet")
	ErrMissingColumn = errors.New("missing column")
	ErrUnsupported   = errors.New("unsupported file type")
)

// RowError reports a malformed value; Row is 1-based and counts the header.
type RowError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: invalid value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadFile loads transactions from an .xlsx or .csv file.
func ReadFile(ctx context.Context, path string) ([]models.Transaction, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		return readWorkbook(ctx, f)
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer file.Close()
		return ReadCSV(ctx, file)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

// ReadXLSX loads transactions from the first sheet of a workbook stream.
func ReadXLSX(ctx context.Context, r io.Reader) ([]models.Transaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readWorkbook(ctx, f)
}

func readWorkbook(ctx context.Context, f *excelize.File) ([]models.Transaction, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return ParseRows(ctx, rows)
}

func ReadCSV(ctx context.Context, r io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return ParseRows(ctx, rows)
}

// ParseRows maps a header row plus data rows to transactions. Fully blank
// rows are skipped; a valid header with no data yields an empty slice.
func ParseRows(ctx context.Context, rows [][]string) ([]models.Transaction, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	idx, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlank(row) {
			continue
		}

		tx, err := parseRow(row, idx, i+2)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int, rowNum int) (models.Transaction, error) {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	revenueRaw := cell(ColRevenue)
	revenue, err := parseRevenue(revenueRaw)
	if err != nil {
		return models.Transaction{}, &RowError{Row: rowNum, Column: ColRevenue, Value: revenueRaw, Err: err}
	}

	month := cell(ColMonth)
	monthNum, ok := models.MonthNumber(month)
	if !ok {
		return models.Transaction{}, &RowError{Row: rowNum, Column: ColMonth, Value: month, Err: errors.New("unknown month name")}
	}

	yearRaw := cell(ColYear)
	year, err := parseYear(yearRaw)
	if err != nil {
		return models.Transaction{}, &RowError{Row: rowNum, Column: ColYear, Value: yearRaw, Err: err}
	}

	buyerID := normalizeNumeric(cell(ColBuyerID))
	if buyerID == "" {
		return models.Transaction{}, &RowError{Row: rowNum, Column: ColBuyerID, Err: errors.New("empty buyer id")}
	}

	return models.Transaction{
		SaleID:        normalizeNumeric(cell(ColSaleID)),
		BuyerID:       buyerID,
		BuyerName:     cell(ColBuyerName),
		ProductName:   cell(ColProduct),
		Revenue:       revenue,
		Month:         month,
		MonthNumber:   monthNum,
		Year:          year,
		SalesPlatform: cell(ColPlatform),
		Salesperson:   cell(ColSalesperson),
	}, nil
}

// parseRevenue accepts raw numeric cells ("1234.5") and formatted
// currency strings ("R$ 1.234,50").
func parseRevenue(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, errors.New("empty revenue")
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, nil
	}
	return currency.ParseBRL(s)
}

func parseYear(s string) (int, error) {
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, errors.New("not a whole year")
	}
	return int(d.IntPart()), nil
}

// normalizeNumeric drops the ".0" excel adds to whole numbers stored as floats.
func normalizeNumeric(s string) string {
	if whole, ok := strings.CutSuffix(s, ".0"); ok {
		if _, err := strconv.ParseInt(whole, 10, 64); err == nil {
			return whole
		}
	}
	return s
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
