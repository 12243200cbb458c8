package analytics

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Number converts a loosely typed upstream value to a finite float. Strings
// are parsed, objects of the form {"raw": n} are unwrapped, and anything else
// (including NaN, Inf, booleans and blank strings) is absent.
func Number(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return finite(float64(n))
	case int64:
		return finite(float64(n))
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return finite(f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return finite(f)
	case map[string]any:
		return Number(n["raw"])
	default:
		return nil
	}
}

// Extractor is one named source of an optional number.
type Extractor struct {
	Name    string
	Extract func() *float64
}

// FirstOf tries extractors in order and returns the first present value with
// the name of the extractor that produced it. The order is the contract:
// callers list sources from most to least trusted.
func FirstOf(chain ...Extractor) (*float64, string) {
	for _, e := range chain {
		if e.Extract == nil {
			continue
		}
		if v := e.Extract(); v != nil {
			return v, e.Name
		}
	}
	return nil, ""
}

// Value is FirstOf without the source name.
func Value(chain ...Extractor) *float64 {
	v, _ := FirstOf(chain...)
	return v
}

// Modules is a decoded upstream document grouped by module name, e.g. the
// "price" and "summaryDetail" objects of a quote summary.
type Modules map[string]map[string]any

// Field extracts module.name as a number.
func (m Modules) Field(module, name string) Extractor {
	return Extractor{
		Name: module + "." + name,
		Extract: func() *float64 {
			return Number(m[module][name])
		},
	}
}

// Text returns module.name when it is a non-empty string.
func (m Modules) Text(module, name string) string {
	s, _ := m[module][name].(string)
	return s
}

// Derived wraps a computed fallback as an extractor.
func Derived(name string, fn func() *float64) Extractor {
	return Extractor{Name: name, Extract: fn}
}

// Const is an extractor for an already-resolved value.
func Const(name string, v *float64) Extractor {
	return Extractor{Name: name, Extract: func() *float64 { return v }}
}
