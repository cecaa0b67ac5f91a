// Package filters provides the stock formatters: currency, number, list,
// pluralize, startCase and date.
package filters

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	vitel "github.com/pumped-fn/vitel-go"
)

// Defaults seed the options every stock filter falls back to
type Defaults struct {
	Locale   string
	Currency string
	// Timezone names the location absolute dates are rendered in; empty means local time
	Timezone string
	// Now is the clock relative dates are measured against
	Now func() time.Time
}

// DefaultDefaults returns en-AU / AUD on the local clock
func DefaultDefaults() Defaults {
	return Defaults{Locale: "en-AU", Currency: "AUD", Now: time.Now}
}

func (d Defaults) withFallbacks() Defaults {
	base := DefaultDefaults()
	if d.Locale == "" {
		d.Locale = base.Locale
	}
	if d.Currency == "" {
		d.Currency = base.Currency
	}
	if d.Now == nil {
		d.Now = base.Now
	}
	return d
}

// New returns the stock filters keyed by name
func New(d Defaults) map[string]vitel.Filter {
	d = d.withFallbacks()
	return map[string]vitel.Filter{
		"currency":  Currency(d),
		"number":    Number(d),
		"list":      List(),
		"pluralize": Pluralize(),
		"startCase": StartCase(),
		"date":      Date(d),
	}
}

// Register adds every stock filter to app
func Register(app *vitel.App, d Defaults) error {
	set := New(d)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := app.Registry().RegisterFilter(name, set[name]); err != nil {
			return fmt.Errorf("registering %s filter: %w", name, err)
		}
	}
	return nil
}

// WithOptions binds fixed options to fn. Per-call options override them.
func WithOptions(fn vitel.Filter, fixed map[string]any) vitel.Filter {
	return func(value any, opts map[string]any) (any, error) {
		merged := make(map[string]any, len(fixed)+len(opts))
		for k, v := range fixed {
			merged[k] = v
		}
		for k, v := range opts {
			merged[k] = v
		}
		return fn(value, merged)
	}
}

func optString(opts map[string]any, key, def string) string {
	if s, ok := opts[key].(string); ok && s != "" {
		return s
	}
	return def
}

func optInt(opts map[string]any, key string, def int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func optDuration(opts map[string]any, key string, def time.Duration) time.Duration {
	switch v := opts[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v * float64(time.Millisecond))
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseLocale(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("locale %q: %w", s, err)
	}
	return tag, nil
}

var embeddedNumber = regexp.MustCompile(`[-+]?(?:\d[\d,]*)?\.?\d+(?:[eE][-+]?\d+)?`)

// toFloat reads numbers and numeric strings. A string that does not parse as is
// falls back to the first number found in it, with grouping commas dropped, so
// already formatted values like "$1,234.50" or "-1,200 items" parse.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, nil
		}
		m := embeddedNumber.FindString(n)
		f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			return math.NaN(), fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	case fmt.Stringer:
		return toFloat(n.String())
	}
	return math.NaN(), fmt.Errorf("not a number: %T", v)
}
