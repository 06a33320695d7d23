package metadata

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery canonicalizes search text: NFC composition, collapsed
// whitespace and language-neutral lower-casing. "  The  MATRIX " and
// "the matrix" share a key; "Straße" and "Strasse" do not. The result is both
// the cache key and the text sent upstream.
func NormalizeQuery(q string) string {
	q = strings.Join(strings.Fields(norm.NFC.String(q)), " ")
	if q == "" {
		return ""
	}
	// Casers keep state, so one per call.
	return cases.Lower(language.Und).String(q)
}
