package filters

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gertd/go-pluralize"

	vitel "github.com/pumped-fn/vitel-go"
)

var formsPattern = regexp.MustCompile(`\[(.*?)\|(.*?)\]`)

// Pluralize surrounds a count with a prefix and suffix chosen by the count.
//
// prefix and suffix each accept a literal string, the "[singular|plural]"
// template, or a map with "singular" and "plural" keys. With inflect set a
// literal word is inflected by count. valueIfZero replaces the whole output
// when the count is zero.
func Pluralize() vitel.Filter {
	client := pluralize.NewClient()

	return func(value any, opts map[string]any) (any, error) {
		n, err := toFloat(value)
		if err != nil {
			return nil, err
		}

		if zero := optString(opts, "valueIfZero", ""); zero != "" && n == 0 {
			return zero, nil
		}

		inflect, _ := opts["inflect"].(bool)
		parts := make([]string, 0, 3)
		if p := pluralForm(client, opts["prefix"], n, inflect); p != "" {
			parts = append(parts, p)
		}
		parts = append(parts, fmt.Sprint(value))
		if s := pluralForm(client, opts["suffix"], n, inflect); s != "" {
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	}
}

func pluralForm(client *pluralize.Client, spec any, n float64, inflect bool) string {
	one := n == 1
	switch v := spec.(type) {
	case nil:
		return ""
	case map[string]any:
		return pick(one, fmt.Sprint(v["singular"]), fmt.Sprint(v["plural"]))
	case map[string]string:
		return pick(one, v["singular"], v["plural"])
	case string:
		if m := formsPattern.FindStringSubmatch(v); m != nil {
			return pick(one, m[1], m[2])
		}
		if inflect && v != "" {
			return client.Pluralize(v, int(n), false)
		}
		return v
	}
	return fmt.Sprint(spec)
}

func pick(one bool, singular, plural string) string {
	if one {
		return singular
	}
	return plural
}
