package filters

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vitel "github.com/pumped-fn/vitel-go"
	"github.com/pumped-fn/vitel-go/internal/ctxlog"
)

var fixedNow = time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

func testDefaults() Defaults {
	return Defaults{
		Locale:   "en-AU",
		Currency: "AUD",
		Timezone: "UTC",
		Now:      func() time.Time { return fixedNow },
	}
}

func apply(t *testing.T, fn vitel.Filter, value any, opts map[string]any) any {
	t.Helper()
	out, err := fn(value, opts)
	require.NoError(t, err)
	return out
}

func TestRegister(t *testing.T) {
	app := vitel.NewApp(vitel.WithLogger(ctxlog.Discard()))
	require.NoError(t, vitel.Install(app))
	require.NoError(t, Register(app, testDefaults()))

	assert.Equal(t, []string{"currency", "date", "list", "number", "pluralize", "startCase"}, app.Registry().FilterNames())

	svc, ok := app.Registry().Lookup(vitel.FiltersName)
	require.True(t, ok)
	out, err := svc.Call("apply", "startCase", "hello_world")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)
}

func TestNumber(t *testing.T) {
	fn := Number(testDefaults())

	assert.Equal(t, "1,234.568", apply(t, fn, 1234.5678, nil))
	assert.Equal(t, "42", apply(t, fn, 42, nil))
	assert.Equal(t, "1,000", apply(t, fn, "1,000", nil))
	assert.Equal(t, "-1,234.5", apply(t, fn, "-1234.5", nil))
	assert.Equal(t, "-1,234.5", apply(t, fn, "-1,234.5", nil))
	assert.Equal(t, "1,000", apply(t, fn, "1e3", nil))
	assert.Equal(t, "0.025", apply(t, fn, "2.5E-2", nil))
	assert.Equal(t, "1,200", apply(t, fn, "1,200 items", nil))
	assert.Contains(t, apply(t, fn, 1234.5, map[string]any{"currency": true}), "1,234.50")

	_, err := fn("abc", nil)
	assert.Error(t, err)
}

func TestCurrency(t *testing.T) {
	fn := Currency(testDefaults())

	out := apply(t, fn, 1234.5, nil).(string)
	assert.Contains(t, out, "$")
	assert.Contains(t, out, "1,234.50")

	neg := apply(t, fn, -3, map[string]any{"currency": "USD"}).(string)
	assert.True(t, len(neg) > 0 && neg[0] == '-', neg)
	assert.Contains(t, neg, "3.00")

	fromString := apply(t, fn, "-20", nil).(string)
	assert.True(t, len(fromString) > 0 && fromString[0] == '-', fromString)
	assert.Contains(t, fromString, "20.00")

	formatted := apply(t, fn, "$1,234.50", nil).(string)
	assert.Contains(t, formatted, "1,234.50")
	assert.NotContains(t, formatted, "-")

	jpy := apply(t, fn, 1500, map[string]any{"currency": "JPY"}).(string)
	assert.Contains(t, jpy, "1,500")
	assert.NotContains(t, jpy, ".")

	_, err := fn(1, map[string]any{"currency": "NOPE"})
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	fn := List()

	tests := []struct {
		name  string
		value any
		opts  map[string]any
		want  string
	}{
		{"empty", []string{}, nil, ""},
		{"single", []string{"a"}, nil, "a"},
		{"pair", []string{"a", "b"}, nil, "a and b"},
		{"many", []string{"a", "b", "c"}, nil, "a, b, and c"},
		{"disjunction", []string{"a", "b", "c"}, map[string]any{"conjoin": "or"}, "a, b, or c"},
		{"over max", []string{"a", "b", "c"}, map[string]any{"max": 2}, "3 items"},
		{"custom max text", []int{1, 2, 3}, map[string]any{"max": 1, "maxText": "lots (:X)"}, "lots (3)"},
		{
			"pick",
			[]any{map[string]any{"title": "Foo"}, map[string]any{"title": "Bar"}},
			map[string]any{"pick": "title"},
			"Foo and Bar",
		},
		{
			"pick skipped when a field is missing",
			[]any{"plain", map[string]any{"title": "Bar"}},
			map[string]any{"pick": "title"},
			"plain and map[title:Bar]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apply(t, fn, tt.value, tt.opts))
		})
	}

	_, err := fn(42, nil)
	assert.Error(t, err)
}

func TestPluralize(t *testing.T) {
	fn := Pluralize()

	tests := []struct {
		name  string
		value any
		opts  map[string]any
		want  string
	}{
		{"template one", 1, map[string]any{"suffix": "[item|items]"}, "1 item"},
		{"template many", 3, map[string]any{"suffix": "[item|items]"}, "3 items"},
		{"map forms", 2, map[string]any{"suffix": map[string]any{"singular": "box", "plural": "boxes"}}, "2 boxes"},
		{"literal", 5, map[string]any{"prefix": "about", "suffix": "widgets"}, "about 5 widgets"},
		{"prefix template", 1, map[string]any{"prefix": "[is|are]"}, "is 1"},
		{"zero text", 0, map[string]any{"suffix": "[item|items]", "valueIfZero": "nothing"}, "nothing"},
		{"zero plural", 0, map[string]any{"suffix": "[item|items]"}, "0 items"},
		{"formatted string", "1,200", map[string]any{"suffix": "[row|rows]"}, "1,200 rows"},
		{"inflect", 4, map[string]any{"suffix": "person", "inflect": true}, "4 people"},
		{"inflect one", 1, map[string]any{"suffix": "person", "inflect": true}, "1 person"},
		{"bare", 7, nil, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apply(t, fn, tt.value, tt.opts))
		})
	}
}

func TestStartCase(t *testing.T) {
	fn := StartCase()

	tests := map[string]string{
		"thisCamelCasedString": "This Camel Cased String",
		"foo_bar-baz":          "Foo Bar Baz",
		"--foo--bar--":         "Foo Bar",
		"XMLHttpRequest":       "XML Http Request",
		"version2beta":         "Version 2 Beta",
		"already Title":        "Already Title",
	}
	for in, want := range tests {
		assert.Equal(t, want, apply(t, fn, in, nil), in)
	}
}

func TestDate_Formatted(t *testing.T) {
	fn := Date(testDefaults())
	value := time.Date(2024, time.January, 7, 9, 5, 30, 0, time.UTC)

	tests := []struct {
		name string
		opts map[string]any
		want string
	}{
		{"default", nil, "7 Jan 2024, 9:05 am"},
		{"long", map[string]any{"localeDateStyle": "long", "localeTimeStyle": "medium"}, "7 January 2024, 9:05:30 am"},
		{"full", map[string]any{"localeDateStyle": "full", "localeTimeStyle": "none"}, "Sunday, 7 January 2024"},
		{"short", map[string]any{"localeDateStyle": "short", "localeTimeStyle": "none"}, "7/1/24"},
		{"us", map[string]any{"locale": "en-US", "localeDateStyle": "short", "localeTimeStyle": "none"}, "1/7/24"},
		{"timezone", map[string]any{"timezone": "Australia/Sydney", "localeDateStyle": "none", "localeTimeStyle": "long"}, "8:05:30 pm AEDT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apply(t, fn, value, tt.opts))
		})
	}

	_, err := fn(value, map[string]any{"timezone": "Nowhere/Special"})
	assert.Error(t, err)
}

func TestDate_Relative(t *testing.T) {
	fn := Date(testDefaults())
	relative := map[string]any{"display": "relative"}

	tests := []struct {
		name   string
		offset time.Duration
		want   string
	}{
		{"now", -5 * time.Second, "just now"},
		{"seconds", -30 * time.Second, "30 seconds ago"},
		{"one minute", -time.Minute, "a minute ago"},
		{"minutes", -90 * time.Second, "2 minutes ago"},
		{"future hours", 2 * time.Hour, "2 hours from now"},
		{"future seconds", 5 * time.Second, "5 seconds from now"},
		{"days", -3 * 24 * time.Hour, "3 days ago"},
		{"years", -800 * 24 * time.Hour, "2 years ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apply(t, fn, fixedNow.Add(tt.offset), relative))
		})
	}

	custom := map[string]any{"display": "relative", "relativeUnitPast": "earlier"}
	assert.Equal(t, "an hour earlier", apply(t, fn, fixedNow.Add(-time.Hour), custom))
}

func TestDate_Auto(t *testing.T) {
	fn := Date(testDefaults())
	auto := map[string]any{"display": "auto"}

	assert.Equal(t, "3 hours ago", apply(t, fn, fixedNow.Add(-3*time.Hour), auto))
	assert.Equal(t, "2 Mar 2024, 2:30 pm", apply(t, fn, fixedNow.Add(-3*24*time.Hour), auto))

	short := map[string]any{"display": "auto", "relativeCutoff": 60000}
	assert.Equal(t, "5 Mar 2024, 1:30 pm", apply(t, fn, fixedNow.Add(-time.Hour), short))
}

func TestDate_Inputs(t *testing.T) {
	fn := Date(testDefaults())
	opts := map[string]any{"localeTimeStyle": "none"}

	assert.Equal(t, "7 Jan 2024", apply(t, fn, "2024-01-07", opts))
	assert.Equal(t, "7 Jan 2024", apply(t, fn, "2024-01-07T09:05:30Z", opts))
	assert.Equal(t, "7 Jan 2024", apply(t, fn, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC).UnixMilli(), opts))

	_, err := fn("not a date", nil)
	assert.Error(t, err)
}

func TestWithOptions(t *testing.T) {
	fn := WithOptions(Pluralize(), map[string]any{"suffix": "[file|files]"})

	assert.Equal(t, "2 files", apply(t, fn, 2, nil))
	assert.Equal(t, "2 dirs", apply(t, fn, 2, map[string]any{"suffix": "[dir|dirs]"}))
}
