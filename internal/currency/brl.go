// Package currency formats and parses Brazilian real amounts as shown on the
// dashboard, e.g. "R$ 1.234,56".
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const symbol = "R$"

var ErrInvalidAmount = errors.New("invalid amount")

// FormatBRL renders d with two decimal places, dot thousands separators and a
// decimal comma.
func FormatBRL(d decimal.Decimal) string {
	fixed := d.Round(2)
	sign := ""
	if fixed.IsNegative() {
		sign = "-"
		fixed = fixed.Neg()
	}

	intPart, fracPart, _ := strings.Cut(fixed.StringFixed(2), ".")
	return fmt.Sprintf("%s %s%s,%s", symbol, sign, groupThousands(intPart), fracPart)
}

// ParseBRL is the inverse of FormatBRL. The currency symbol is optional.
func ParseBRL(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, symbol))
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	raw = strings.ReplaceAll(raw, ".", "")
	raw = strings.Replace(raw, ",", ".", 1)

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
