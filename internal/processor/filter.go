package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// ErrConflictingFilters is returned when both a JSON and a regexp filter are supplied.
var ErrConflictingFilters = errors.New("json and regexp filters are mutually exclusive")

// Match is a JSON filter: object messages pass when their Key field equals Value.
type Match struct {
	Key   string
	Value any
}

// FilterKind is the active filter variant.
type FilterKind int

const (
	// FilterNone passes every message.
	FilterNone FilterKind = iota
	// FilterJSON passes object messages with a matching key/value pair.
	FilterJSON
	// FilterRegexp passes text messages matching a pattern.
	FilterRegexp
)

// String returns the variant name.
func (k FilterKind) String() string {
	switch k {
	case FilterJSON:
		return "json"
	case FilterRegexp:
		return "regexp"
	default:
		return "none"
	}
}

// Filter decides which raw messages survive into the batch.
// A nil *Filter passes everything.
type Filter struct {
	kind  FilterKind
	match Match
	re    *regexp.Regexp
}

// NewFilter builds a filter from an optional JSON match and an optional pattern.
// An empty pattern means no regexp filter. Supplying both is an error.
func NewFilter(match *Match, pattern string) (*Filter, error) {
	switch {
	case match != nil && pattern != "":
		return nil, ErrConflictingFilters
	case match != nil:
		if match.Key == "" {
			return nil, errors.New("json filter: key is required")
		}
		return &Filter{kind: FilterJSON, match: *match}, nil
	case pattern != "":
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("regexp filter: %w", err)
		}
		return &Filter{kind: FilterRegexp, re: re}, nil
	default:
		return &Filter{kind: FilterNone}, nil
	}
}

// Kind returns the active variant.
func (f *Filter) Kind() FilterKind {
	if f == nil {
		return FilterNone
	}
	return f.kind
}

// Name returns the filter identifier.
func (f *Filter) Name() string {
	return "filter/" + f.Kind().String()
}

// Match reports whether raw passes the filter.
func (f *Filter) Match(raw model.RawMessage) bool {
	switch f.Kind() {
	case FilterJSON:
		if !raw.IsObject() {
			return false
		}
		v, ok := raw.Get(f.match.Key)
		return ok && scalarEqual(v, f.match.Value)
	case FilterRegexp:
		return raw.IsText() && f.re.MatchString(raw.Text())
	default:
		return true
	}
}

// scalarEqual compares two scalars. Numbers compare by value across
// integer and float kinds; non-scalars never match.
func scalarEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
