// Package naming folds caller-supplied natural keys into their comparable form.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, strips combining marks (diacritics), trims it and
// collapses internal whitespace runs to a single space.
//
//	Normalize("  Café   Société ") == "cafe societe"
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Clean trims s and collapses whitespace without folding case or accents.
// Used for the display form of a natural key.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
