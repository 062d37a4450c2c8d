package normalizer

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// CurrencyPlaceholder is rendered for absent or non-numeric amounts.
	CurrencyPlaceholder = "-"
	// DatePlaceholder is rendered for absent or unparseable dates.
	DatePlaceholder = "—"
	// TextPlaceholder is rendered for absent text cells.
	TextPlaceholder = "—"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// dateLayouts are tried in order; the backend emits ISO dates with and
// without time and zone.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatCurrency renders v as Brazilian reais with two fraction digits,
// e.g. "R$ 1.234,50".
func FormatCurrency(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return CurrencyPlaceholder
	}
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	return sign + "R$ " + brl.Sprintf("%.2f", f)
}

// FormatAmount is FormatCurrency for an optional normalized amount.
func FormatAmount(v *float64) string {
	if v == nil {
		return CurrencyPlaceholder
	}
	return FormatCurrency(*v)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders s as DD/MM/YYYY.
func FormatDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return DatePlaceholder
	}
	return t.Format("02/01/2006")
}

// FormatDateTime renders s as DD/MM/YYYY HH:MM.
func FormatDateTime(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return DatePlaceholder
	}
	return t.Format("02/01/2006 15:04")
}

// FormatCNPJ renders a 14-digit tax id as XX.XXX.XXX/XXXX-XX. Other inputs are
// returned unchanged.
func FormatCNPJ(cnpj string) string {
	if cnpj == "" {
		return TextPlaceholder
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cnpj)
	if len(digits) != 14 {
		return cnpj
	}
	return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
}

// OrPlaceholder returns s, or TextPlaceholder when s is empty.
func OrPlaceholder(s string) string {
	if s == "" {
		return TextPlaceholder
	}
	return s
}
