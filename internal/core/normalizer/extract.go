package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/editais-pncp/portal-client/internal/core/domain"
)

// Transform converts a raw value into a field's canonical form. Returning false
// means the value does not count as present and the next extractor is tried.
type Transform func(v any) (any, bool)

// Extractor reads one dotted path from a record and applies a transform.
type Extractor struct {
	Path      []string
	Transform Transform
}

// At builds an Extractor for a dotted path such as "orgaoEntidade.cnpj".
func At(path string, t Transform) Extractor {
	return Extractor{Path: strings.Split(path, "."), Transform: t}
}

// Field is a prioritized list of extractors; the first one that yields a
// present value wins.
type Field []Extractor

// Extract runs the extractors in order against record.
func (f Field) Extract(record map[string]any) (any, bool) {
	for _, ex := range f {
		v, ok := lookup(record, ex.Path)
		if !ok {
			continue
		}
		if ex.Transform != nil {
			v, ok = ex.Transform(v)
			if !ok {
				continue
			}
		}
		return v, true
	}
	return nil, false
}

// String returns the extracted value as a string, or "" when absent.
func (f Field) String(record map[string]any) string {
	v, ok := f.Extract(record)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Float returns the extracted value as a float, or nil when absent.
func (f Field) Float(record map[string]any) *float64 {
	v, ok := f.Extract(record)
	if !ok {
		return nil
	}
	n, ok := v.(float64)
	if !ok {
		return nil
	}
	return &n
}

func lookup(record map[string]any, path []string) (any, bool) {
	var cur any = record
	for _, part := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case domain.RawNotice:
		return m, true
	case domain.RawItem:
		return m, true
	default:
		return nil, false
	}
}

// Text accepts non-empty strings and numbers, rendering numbers without a
// fractional part when they have none. Zero is present.
func Text(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil, false
		}
		return t, true
	case json.Number:
		if t == "" {
			return nil, false
		}
		return t.String(), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return nil, false
	}
}

// Number accepts finite numbers and numeric strings.
func Number(v any) (any, bool) {
	f, ok := toFloat(v)
	if !ok {
		return nil, false
	}
	return f, true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case *float64:
		if t == nil {
			return 0, false
		}
		f = *t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
