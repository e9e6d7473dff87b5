// Package normalizer turns raw statement cells and lines into canonical
// dates, signed decimal amounts and cleaned labels.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer("œ", "oe", "Œ", "OE", "æ", "ae", "Æ", "AE", "ß", "ss")

// Fold removes diacritics so that "Libellé" and "Libelle" compare equal.
func Fold(s string) string {
	s = ligatures.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Words folds and upper-cases s, replaces every run of non-alphanumeric
// characters with one space and pads the result with a space on each side.
// Phrase lookups on the result are whole-word by construction:
//
//	strings.Contains(Words("Ancien solde au 01/02"), " ANCIEN SOLDE ")
func Words(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToUpper(Fold(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// ContainsPhrase reports whether phrase occurs as whole words in s.
func ContainsPhrase(s, phrase string) bool {
	p := strings.TrimSpace(Words(phrase))
	if p == "" {
		return false
	}
	return strings.Contains(Words(s), " "+p+" ")
}

// Compact folds and upper-cases s and keeps letters and digits only.
func Compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, strings.ToUpper(Fold(s)))
}

// CollapseSpaces trims s and squeezes internal whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
