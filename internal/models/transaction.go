package models

import "github.com/shopspring/decimal"

type Transaction struct {
	SaleID        string
	BuyerID       string
	BuyerName     string
	ProductName   string
	Revenue       decimal.Decimal
	Month         string
	MonthNumber   int
	Year          int
	SalesPlatform string
	Salesperson   string
}

// BuyerKey identifies a buyer. The same tax id under two names counts as two buyers.
type BuyerKey struct {
	BuyerID   string
	BuyerName string
}

func (t Transaction) Buyer() BuyerKey {
	return BuyerKey{BuyerID: t.BuyerID, BuyerName: t.BuyerName}
}

type BuyerSummary struct {
	BuyerID             string          `json:"buyer_id"`
	BuyerName           string          `json:"buyer_name"`
	PurchaseCount       int             `json:"purchase_count"`
	TotalSpent          decimal.Decimal `json:"total_spent"`
	AverageSpent        decimal.Decimal `json:"average_spent"`
	MostFrequentProduct string          `json:"most_frequent_product"`
}

type PopulationMetrics struct {
	AveragePurchasesPerBuyer float64         `json:"average_purchases_per_buyer"`
	AverageSpendPerBuyer     decimal.Decimal `json:"average_spend_per_buyer"`
	BuyerCount               int             `json:"buyer_count"`
	TransactionCount         int             `json:"transaction_count"`
	TotalRevenue             decimal.Decimal `json:"total_revenue"`
}

type LTVReport struct {
	Buyers  []BuyerSummary    `json:"buyers"`
	Metrics PopulationMetrics `json:"metrics"`
}

type MetricUnit string

const (
	UnitCount MetricUnit = "count"
	UnitBRL   MetricUnit = "brl"
)

// MetricRow is one line of the "Métricas Gerais" sheet. Value is the display
// form of Amount.
type MetricRow struct {
	Name   string          `json:"name"`
	Value  string          `json:"value"`
	Amount decimal.Decimal `json:"amount"`
	Unit   MetricUnit      `json:"unit"`
}

type MonthlySales struct {
	Month       string `json:"month"`
	MonthNumber int    `json:"month_number"`
	Sales       int    `json:"sales"`
}

type MonthlyRevenue struct {
	Month       string          `json:"month"`
	MonthNumber int             `json:"month_number"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type ProductSales struct {
	ProductName string `json:"product_name"`
	Sales       int    `json:"sales"`
}

type Dashboard struct {
	LTV            LTVReport        `json:"ltv"`
	SalesByMonth   []MonthlySales   `json:"sales_by_month"`
	RevenueByMonth []MonthlyRevenue `json:"revenue_by_month"`
	SalesByProduct []ProductSales   `json:"sales_by_product"`
}
