package filters

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	vitel "github.com/pumped-fn/vitel-go"
)

// Currency formats a value as money.
//
// Options: locale (default Defaults.Locale), currency (three letter ISO code,
// default Defaults.Currency).
func Currency(d Defaults) vitel.Filter {
	return func(value any, opts map[string]any) (any, error) {
		return formatCurrency(value, optString(opts, "locale", d.Locale), optString(opts, "currency", d.Currency))
	}
}

// Number formats a value with locale grouping and at most three fraction
// digits. The currency option switches to Currency: true uses
// Defaults.Currency, a string names the ISO code.
func Number(d Defaults) vitel.Filter {
	return func(value any, opts map[string]any) (any, error) {
		locale := optString(opts, "locale", d.Locale)

		switch cur := opts["currency"].(type) {
		case bool:
			if cur {
				return formatCurrency(value, locale, d.Currency)
			}
		case string:
			if cur != "" {
				return formatCurrency(value, locale, cur)
			}
		}

		f, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		tag, err := parseLocale(locale)
		if err != nil {
			return nil, err
		}
		return message.NewPrinter(tag).Sprint(number.Decimal(f, number.MaxFractionDigits(3))), nil
	}
}

func formatCurrency(value any, locale, code string) (string, error) {
	f, err := toFloat(value)
	if err != nil {
		return "", err
	}
	tag, err := parseLocale(locale)
	if err != nil {
		return "", err
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("currency %q: %w", code, err)
	}

	scale, _ := currency.Standard.Rounding(unit)
	p := message.NewPrinter(tag)

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	return sign + p.Sprint(currency.Symbol(unit)) + p.Sprint(number.Decimal(f, number.Scale(scale))), nil
}
