package models

import (
	"slices"
	"strings"
)

var monthNumbers = map[string]int{
	"janeiro":   1,
	"fevereiro": 2,
	"março":     3,
	"abril":     4,
	"maio":      5,
	"junho":     6,
	"julho":     7,
	"agosto":    8,
	"setembro":  9,
	"outubro":   10,
	"novembro":  11,
	"dezembro":  12,
}

// MonthNumber maps a Portuguese month name to 1..12.
func MonthNumber(name string) (int, bool) {
	n, ok := monthNumbers[strings.ToLower(strings.TrimSpace(name))]
	return n, ok
}

// Filter restricts the dataset by categorical values. A nil slice places no
// constraint on its dimension; an empty non-nil slice matches nothing.
type Filter struct {
	Months      []string `json:"months,omitempty"`
	Years       []int    `json:"years,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
	Salespeople []string `json:"salespeople,omitempty"`
}

func (f Filter) Match(tx Transaction) bool {
	return matches(f.Months, tx.Month) &&
		matches(f.Years, tx.Year) &&
		matches(f.Platforms, tx.SalesPlatform) &&
		matches(f.Salespeople, tx.Salesperson)
}

func matches[T comparable](allowed []T, v T) bool {
	if allowed == nil {
		return true
	}
	return slices.Contains(allowed, v)
}

type FilterOptions struct {
	Months      []string `json:"months"`
	Years       []int    `json:"years"`
	Platforms   []string `json:"platforms"`
	Salespeople []string `json:"salespeople"`
}

// OptionsFrom collects distinct filter values in first-appearance order.
func OptionsFrom(txs []Transaction) FilterOptions {
	opts := FilterOptions{
		Months:      []string{},
		Years:       []int{},
		Platforms:   []string{},
		Salespeople: []string{},
	}
	for _, tx := range txs {
		opts.Months = appendUnique(opts.Months, tx.Month)
		opts.Years = appendUnique(opts.Years, tx.Year)
		opts.Platforms = appendUnique(opts.Platforms, tx.SalesPlatform)
		opts.Salespeople = appendUnique(opts.Salespeople, tx.Salesperson)
	}
	return opts
}

func appendUnique[T comparable](s []T, v T) []T {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
