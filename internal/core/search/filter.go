// Package search narrows a normalized notice collection in memory.
package search

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/normalizer"
)

// Option customises Filter.
type Option func(*options)

type options struct {
	foldAccents bool
}

// WithAccentFolding makes matching ignore diacritics, so "licitacao" matches
// "Licitação".
func WithAccentFolding() Option {
	return func(o *options) {
		o.foldAccents = true
	}
}

// Filter returns the notices whose process number, tax id, legal name, object
// description or estimated total contains term, case-insensitively. A blank
// term returns records unchanged.
func Filter(records []domain.Notice, term string, opts ...Option) []domain.Notice {
	if strings.TrimSpace(term) == "" {
		return records
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	needle := prepare(term, o)
	out := make([]domain.Notice, 0, len(records))
	for _, n := range records {
		if matches(n, needle, o) {
			out = append(out, n)
		}
	}
	return out
}

// matches reports whether any candidate field of n contains the prepared needle.
func matches(n domain.Notice, needle string, o options) bool {
	for _, candidate := range candidates(n) {
		if candidate == "" {
			continue
		}
		if strings.Contains(prepare(candidate, o), needle) {
			return true
		}
	}
	return false
}

// candidates lists the searchable text of n. The estimated total appears both
// as sent ("1500.50") and as parsed ("1500.5").
func candidates(n domain.Notice) []string {
	total := ""
	if n.EstimatedTotal != nil {
		total = strconv.FormatFloat(*n.EstimatedTotal, 'f', -1, 64)
	}
	return []string{
		n.Process,
		n.TaxID,
		n.LegalName,
		n.ObjectDescription,
		total,
		normalizer.EstimatedTotalText.String(n.Raw),
	}
}

func prepare(s string, o options) string {
	s = strings.ToLower(s)
	if o.foldAccents {
		s = fold(s)
	}
	return s
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
