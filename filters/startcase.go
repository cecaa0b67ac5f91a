package filters

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	vitel "github.com/pumped-fn/vitel-go"
)

// StartCase splits a value into words and capitalizes each one:
// "thisCamelCasedString" becomes "This Camel Cased String"
func StartCase() vitel.Filter {
	caser := cases.Title(language.Und, cases.NoLower)
	return func(value any, _ map[string]any) (any, error) {
		return caser.String(strings.Join(splitWords(fmt.Sprint(value)), " ")), nil
	}
}

// splitWords breaks s at separators, lower to upper transitions, acronym
// ends ("XMLHttp" -> "XML", "Http") and letter/digit boundaries
func splitWords(s string) []string {
	runes := []rune(s)
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			switch {
			case unicode.IsLower(prev) && unicode.IsUpper(r):
				flush()
			case unicode.IsUpper(prev) && unicode.IsUpper(r) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				flush()
			case unicode.IsDigit(prev) != unicode.IsDigit(r):
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
