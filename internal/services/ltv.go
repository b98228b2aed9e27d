package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"ltv-dashboard/internal/currency"
	"ltv-dashboard/internal/models"
)

// SpendAverage selects how the population spend average is derived.
type SpendAverage string

const (
	// SpendPerBuyer averages the per-buyer totals.
	SpendPerBuyer SpendAverage = "per_buyer"
	// SpendPerTaxID divides total revenue by the number of distinct tax ids.
	SpendPerTaxID SpendAverage = "per_tax_id"
)

func ParseSpendAverage(s string) (SpendAverage, error) {
	switch mode := SpendAverage(strings.ToLower(strings.TrimSpace(s))); mode {
	case SpendPerBuyer, SpendPerTaxID:
		return mode, nil
	case "":
		return SpendPerBuyer, nil
	default:
		return "", fmt.Errorf("unknown spend average %q, must be %q or %q", s, SpendPerBuyer, SpendPerTaxID)
	}
}

const (
	MetricAveragePurchases = "Compras médias por pessoa"
	MetricAverageSpend     = "Valor médio gasto por pessoa"
)

type buyerGroup struct {
	summary       models.BuyerSummary
	productCounts map[string]int
	productOrder  []string
}

// ComputeLTV groups transactions by buyer and derives population averages.
// Buyers keep first-appearance order among equal purchase counts.
func ComputeLTV(txs []models.Transaction, mode SpendAverage) models.LTVReport {
	report := models.LTVReport{
		Buyers: []models.BuyerSummary{},
		Metrics: models.PopulationMetrics{
			AverageSpendPerBuyer: decimal.Zero,
			TotalRevenue:         decimal.Zero,
		},
	}
	if len(txs) == 0 {
		return report
	}

	groups := make(map[models.BuyerKey]*buyerGroup)
	order := make([]models.BuyerKey, 0)
	taxIDs := make(map[string]struct{})
	total := decimal.Zero

	for _, tx := range txs {
		key := tx.Buyer()
		g, ok := groups[key]
		if !ok {
			g = &buyerGroup{
				summary: models.BuyerSummary{
					BuyerID:    tx.BuyerID,
					BuyerName:  tx.BuyerName,
					TotalSpent: decimal.Zero,
				},
				productCounts: make(map[string]int),
			}
			groups[key] = g
			order = append(order, key)
		}

		g.summary.PurchaseCount++
		g.summary.TotalSpent = g.summary.TotalSpent.Add(tx.Revenue)
		if g.productCounts[tx.ProductName] == 0 {
			g.productOrder = append(g.productOrder, tx.ProductName)
		}
		g.productCounts[tx.ProductName]++

		taxIDs[tx.BuyerID] = struct{}{}
		total = total.Add(tx.Revenue)
	}

	purchases := 0
	spentSum := decimal.Zero
	for _, key := range order {
		g := groups[key]
		g.summary.AverageSpent = g.summary.TotalSpent.Div(decimal.NewFromInt(int64(g.summary.PurchaseCount)))
		g.summary.MostFrequentProduct = firstMode(g.productOrder, g.productCounts)

		purchases += g.summary.PurchaseCount
		spentSum = spentSum.Add(g.summary.TotalSpent)
		report.Buyers = append(report.Buyers, g.summary)
	}

	slices.SortStableFunc(report.Buyers, func(a, b models.BuyerSummary) int {
		return b.PurchaseCount - a.PurchaseCount
	})

	buyers := len(report.Buyers)
	report.Metrics.BuyerCount = buyers
	report.Metrics.TransactionCount = len(txs)
	report.Metrics.TotalRevenue = total
	report.Metrics.AveragePurchasesPerBuyer = float64(purchases) / float64(buyers)

	switch mode {
	case SpendPerTaxID:
		report.Metrics.AverageSpendPerBuyer = total.Div(decimal.NewFromInt(int64(len(taxIDs))))
	default:
		report.Metrics.AverageSpendPerBuyer = spentSum.Div(decimal.NewFromInt(int64(buyers)))
	}

	return report
}

// firstMode returns the most frequent value; ties go to the value seen first.
func firstMode(order []string, counts map[string]int) string {
	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// MetricRows renders population metrics the way the "Métricas Gerais" sheet
// and the dashboard sidebar show them.
func MetricRows(m models.PopulationMetrics) []models.MetricRow {
	purchases := decimal.NewFromFloat(m.AveragePurchasesPerBuyer).Round(3)
	spend := m.AverageSpendPerBuyer.Round(2)

	return []models.MetricRow{
		{
			Name:   MetricAveragePurchases,
			Value:  strings.Replace(purchases.StringFixed(3), ".", ",", 1),
			Amount: purchases,
			Unit:   models.UnitCount,
		},
		{
			Name:   MetricAverageSpend,
			Value:  currency.FormatBRL(spend),
			Amount: spend,
			Unit:   models.UnitBRL,
		},
	}
}
