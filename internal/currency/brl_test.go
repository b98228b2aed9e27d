package currency

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"zero", "0", "R$ 0,00"},
		{"cents", "0.5", "R$ 0,50"},
		{"hundreds", "150", "R$ 150,00"},
		{"thousands", "1234.56", "R$ 1.234,56"},
		{"millions", "1234567.891", "R$ 1.234.567,89"},
		{"exact group", "100000", "R$ 100.000,00"},
		{"rounds half up", "10.005", "R$ 10,01"},
		{"negative", "-2500.5", "R$ -2.500,50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBRL(decimal.RequireFromString(tt.in))
			if got != tt.want {
				t.Errorf("FormatBRL(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBRL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"formatted", "R$ 1.234,56", "1234.56", false},
		{"no symbol", "75,00", "75", false},
		{"plain integer", "200", "200", false},
		{"padded", "  R$ 10,5  ", "10.5", false},
		{"negative", "R$ -2.500,50", "-2500.5", false},
		{"empty", "", "", true},
		{"symbol only", "R$ ", "", true},
		{"garbage", "R$ abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBRL(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseBRL(%q) error = %v, want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBRL(%q) unexpected error: %v", tt.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseBRL(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, in := range []string{"0", "1", "999.99", "1000", "98765.43"} {
		d := decimal.RequireFromString(in)
		got, err := ParseBRL(FormatBRL(d))
		if err != nil {
			t.Fatalf("round trip %s: %v", in, err)
		}
		if !got.Equal(d) {
			t.Errorf("round trip %s = %s", in, got)
		}
	}
}
