package filters

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	vitel "github.com/pumped-fn/vitel-go"
)

// List joins a slice into an English list: "A, B, and C".
//
// Options: pick (field to read from each element of a collection), max (item
// count beyond which maxText is returned instead), maxText (default ":X items",
// ":X" is replaced by the length), conjoin ("and" or "or").
func List() vitel.Filter {
	return func(value any, opts map[string]any) (any, error) {
		items, err := toSlice(value)
		if err != nil {
			return nil, err
		}

		if limit := optInt(opts, "max", 0); limit > 0 && len(items) > limit {
			text := optString(opts, "maxText", ":X items")
			return strings.ReplaceAll(text, ":X", strconv.Itoa(len(items))), nil
		}

		if pick := optString(opts, "pick", ""); pick != "" {
			if picked, ok := pickAll(items, pick); ok {
				items = picked
			}
		}

		words := make([]string, len(items))
		for i, it := range items {
			words[i] = fmt.Sprint(it)
		}
		conj := "and"
		if optString(opts, "conjoin", "and") != "and" {
			conj = "or"
		}
		return joinList(words, conj), nil
	}
}

func joinList(words []string, conj string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	case 2:
		return words[0] + " " + conj + " " + words[1]
	}
	return strings.Join(words[:len(words)-1], ", ") + ", " + conj + " " + words[len(words)-1]
}

func toSlice(value any) ([]any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("list: want a slice, got %T", value)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// pickAll reads field from every element. It reports false unless every
// element is a map holding a non-empty value under field.
func pickAll(items []any, field string) ([]any, bool) {
	out := make([]any, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[field]
		if !ok || v == nil || v == "" {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
