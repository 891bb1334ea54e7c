package catalog

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s for matching. Catalog fields, queries and genre labels
// all pass through here so composed and decomposed accents compare equal.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	// cases.Caser keeps state, so one is created per call
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}
