// Package names canonicalizes account holder names so that a claimed name
// typed by a payer can be compared with the name a bank reports.
//
// Banks report owner names inconsistently: some strip Vietnamese diacritics,
// some drop spaces between syllables, most uppercase. Normalize removes those
// differences; Equal additionally tolerates missing spaces.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ and Đ are distinct letters, not d plus a combining mark, so NFD leaves them intact.
var strokeD = runes.Map(func(r rune) rune {
	switch r {
	case 'đ':
		return 'd'
	case 'Đ':
		return 'D'
	}
	return r
})

func newFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), strokeD, norm.NFC)
}

// Normalize strips diacritics, uppercases, trims and collapses internal whitespace.
func Normalize(s string) string {
	folded, _, err := transform.String(newFolder(), s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

// Compact is Normalize with every space removed.
func Compact(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}

// Equal reports whether two names refer to the same holder, ignoring accents,
// case, surrounding whitespace and internal spacing.
func Equal(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return true
	}
	return strings.ReplaceAll(na, " ", "") == strings.ReplaceAll(nb, " ", "")
}
