package services

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"ltv-dashboard/internal/models"
)

// SalesByMonth counts sales per month name, ordered by calendar month.
// Months of different years fall in the same bucket.
func SalesByMonth(txs []models.Transaction) []models.MonthlySales {
	groups := make(map[string]*models.MonthlySales)
	for _, tx := range txs {
		g, ok := groups[tx.Month]
		if !ok {
			g = &models.MonthlySales{Month: tx.Month, MonthNumber: tx.MonthNumber}
			groups[tx.Month] = g
		}
		g.Sales++
	}

	result := make([]models.MonthlySales, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	slices.SortFunc(result, func(a, b models.MonthlySales) int {
		return cmp.Or(cmp.Compare(a.MonthNumber, b.MonthNumber), cmp.Compare(a.Month, b.Month))
	})
	return result
}

func RevenueByMonth(txs []models.Transaction) []models.MonthlyRevenue {
	groups := make(map[string]*models.MonthlyRevenue)
	for _, tx := range txs {
		g, ok := groups[tx.Month]
		if !ok {
			g = &models.MonthlyRevenue{Month: tx.Month, MonthNumber: tx.MonthNumber, Revenue: decimal.Zero}
			groups[tx.Month] = g
		}
		g.Revenue = g.Revenue.Add(tx.Revenue)
	}

	result := make([]models.MonthlyRevenue, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	slices.SortFunc(result, func(a, b models.MonthlyRevenue) int {
		return cmp.Or(cmp.Compare(a.MonthNumber, b.MonthNumber), cmp.Compare(a.Month, b.Month))
	})
	return result
}

// SalesByProduct counts sales per product, ordered by product name.
func SalesByProduct(txs []models.Transaction) []models.ProductSales {
	groups := make(map[string]int)
	for _, tx := range txs {
		groups[tx.ProductName]++
	}

	result := make([]models.ProductSales, 0, len(groups))
	for name, sales := range groups {
		result = append(result, models.ProductSales{ProductName: name, Sales: sales})
	}
	slices.SortFunc(result, func(a, b models.ProductSales) int {
		return cmp.Compare(a.ProductName, b.ProductName)
	})
	return result
}
