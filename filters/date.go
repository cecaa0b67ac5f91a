package filters

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	vitel "github.com/pumped-fn/vitel-go"
)

// RelativeUnit is one step of the relative date table. A difference up to
// Max*Value is rendered in this unit.
type RelativeUnit struct {
	Name   string
	Value  time.Duration
	Max    float64
	Single string
}

// DefaultRelativeUnits runs from seconds to years
var DefaultRelativeUnits = []RelativeUnit{
	{Name: " second", Value: time.Second, Max: 50, Single: "a second"},
	{Name: " minute", Value: time.Minute, Max: 50, Single: "a minute"},
	{Name: " hour", Value: time.Hour, Max: 22, Single: "an hour"},
	{Name: " day", Value: 24 * time.Hour, Max: 6, Single: "a day"},
	{Name: " week", Value: 7 * 24 * time.Hour, Max: 3.5, Single: "a week"},
	{Name: " month", Value: 30 * 24 * time.Hour, Max: 11, Single: "a month"},
	{Name: " year", Value: 365 * 24 * time.Hour, Max: math.Inf(1), Single: "a year"},
}

const defaultRelativeCutoff = 24 * time.Hour

// Date renders a time.Time, a date string or an epoch in milliseconds.
//
// Options: display ("date", "relative" or "auto"), locale, localeDateStyle
// and localeTimeStyle ("full", "long", "medium", "short" or "none"),
// timezone, relativeCutoff (milliseconds or a duration string, used by auto),
// relativeUnitNow, relativeUnitPast and relativeUnitFuture.
func Date(d Defaults) vitel.Filter {
	d = d.withFallbacks()
	return func(value any, opts map[string]any) (any, error) {
		t, err := toTime(value)
		if err != nil {
			return nil, err
		}
		now := d.Now()

		switch optString(opts, "display", "date") {
		case "relative":
			return relativeDate(t, now, opts), nil
		case "auto":
			if absDuration(now.Sub(t)) <= optDuration(opts, "relativeCutoff", defaultRelativeCutoff) {
				return relativeDate(t, now, opts), nil
			}
		}
		return formatDate(t, d, opts)
	}
}

func relativeDate(t, now time.Time, opts map[string]any) string {
	diff := now.Sub(t)
	future := diff < 0
	diff = absDuration(diff)

	if !future && diff < 10*time.Second {
		return optString(opts, "relativeUnitNow", "just now")
	}

	suffix := " " + optString(opts, "relativeUnitPast", "ago")
	if future {
		suffix = " " + optString(opts, "relativeUnitFuture", "from now")
	}

	for _, unit := range DefaultRelativeUnits {
		if float64(diff) <= unit.Max*float64(unit.Value) {
			n := math.Round(float64(diff) / float64(unit.Value))
			if n == 1 {
				return unit.Single + suffix
			}
			return strconv.Itoa(int(n)) + unit.Name + "s" + suffix
		}
	}
	return ""
}

func formatDate(t time.Time, d Defaults, opts map[string]any) (string, error) {
	tz := optString(opts, "timezone", d.Timezone)
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return "", fmt.Errorf("timezone %q: %w", tz, err)
		}
		t = t.In(loc)
	}

	tag, err := parseLocale(optString(opts, "locale", d.Locale))
	if err != nil {
		return "", err
	}
	region, _ := tag.Region()
	monthFirst := region.String() == "US"

	parts := make([]string, 0, 2)
	if layout := dateLayout(optString(opts, "localeDateStyle", "medium"), monthFirst); layout != "" {
		parts = append(parts, t.Format(layout))
	}
	if layout := timeLayout(optString(opts, "localeTimeStyle", "short")); layout != "" {
		parts = append(parts, t.Format(layout))
	}
	return strings.Join(parts, ", "), nil
}

func dateLayout(style string, monthFirst bool) string {
	switch style {
	case "none":
		return ""
	case "full":
		if monthFirst {
			return "Monday, January 2, 2006"
		}
		return "Monday, 2 January 2006"
	case "long":
		if monthFirst {
			return "January 2, 2006"
		}
		return "2 January 2006"
	case "short":
		if monthFirst {
			return "1/2/06"
		}
		return "2/1/06"
	}
	if monthFirst {
		return "Jan 2, 2006"
	}
	return "2 Jan 2006"
}

func timeLayout(style string) string {
	switch style {
	case "none":
		return ""
	case "medium":
		return "3:04:05 pm"
	case "long", "full":
		return "3:04:05 pm MST"
	}
	return "3:04 pm"
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.UnixMilli(ms), nil
		}
		return time.Time{}, fmt.Errorf("not a date: %q", t)
	default:
		if f, err := toFloat(v); err == nil {
			return time.UnixMilli(int64(f)), nil
		}
	}
	return time.Time{}, fmt.Errorf("not a date: %T", v)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
