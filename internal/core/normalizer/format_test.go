package normalizer

import (
	"encoding/json"
	"math"
	"testing"
)

func TestFormatCurrency_Placeholders(t *testing.T) {
	var nilFloat *float64
	inputs := []any{nil, "", "abc", math.NaN(), math.Inf(1), nilFloat, true}
	for _, in := range inputs {
		if got := FormatCurrency(in); got != CurrencyPlaceholder {
			t.Fatalf("FormatCurrency(%#v) = %q, want placeholder", in, got)
		}
	}
}

func TestFormatCurrency_Values(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{1234.5, "R$ 1.234,50"},
		{"1234.5", "R$ 1.234,50"},
		{json.Number("1000000"), "R$ 1.000.000,00"},
		{0, "R$ 0,00"},
		{-12.3, "-R$ 12,30"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Fatalf("FormatCurrency(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(nil); got != CurrencyPlaceholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
	v := 10.0
	if got := FormatAmount(&v); got != "R$ 10,00" {
		t.Fatalf("unexpected amount: %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-01", "01/03/2024"},
		{"2024-03-01T09:30:00", "01/03/2024"},
		{"2024-12-31T23:59:59-03:00", "31/12/2024"},
		{"not a date", DatePlaceholder},
		{"", DatePlaceholder},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Fatalf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if DatePlaceholder == CurrencyPlaceholder {
		t.Fatalf("date and currency placeholders must differ")
	}
}

func TestFormatDateTime(t *testing.T) {
	if got := FormatDateTime("2024-03-01T09:05:00"); got != "01/03/2024 09:05" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := FormatDateTime("garbage"); got != DatePlaceholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestFormatCNPJ(t *testing.T) {
	if got := FormatCNPJ("12345678000199"); got != "12.345.678/0001-99" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := FormatCNPJ("123"); got != "123" {
		t.Fatalf("short input should pass through, got %q", got)
	}
	if got := FormatCNPJ(""); got != TextPlaceholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
}
