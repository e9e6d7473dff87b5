package normalizer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// X1234, XXXX1234, ****1234 and 497012XXXXXX1234.
	maskedCardPattern = regexp.MustCompile(`\bX+\d{4}\b|\*{2,}\d{4}\b|\b\d{4,6}[X*]{4,}\d{2,4}\b`)
	// M.DUPONT, MME.MARTIN, E.LECLERC
	initialPattern = regexp.MustCompile(`\b([A-Z]|MR|MME|MLLE|DR|ME)\.([A-Z]{2,})`)
)

// StripMaskedCards removes masked card numbers from s.
func StripMaskedCards(s string) string {
	return maskedCardPattern.ReplaceAllString(s, " ")
}

// LabelCleaner normalizes transaction labels. The zero value only collapses
// whitespace; use NewLabelCleaner to get merchant re-segmentation.
type LabelCleaner struct {
	merchants *MerchantDictionary
}

// NewLabelCleaner returns a cleaner that knows the default merchants plus
// the given bank specific ones.
func NewLabelCleaner(merchants ...string) *LabelCleaner {
	return &LabelCleaner{merchants: NewMerchantDictionary(merchants...)}
}

// Clean returns the display form of a raw label.
func (c *LabelCleaner) Clean(raw string) string {
	s := CollapseSpaces(StripMaskedCards(raw))
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '*' || r == ':' || r == '|'
	})
	if s == "" {
		return ""
	}
	if c != nil {
		s = c.isolatePrefix(s)
		s = c.merchants.Split(s)
	}
	s = initialPattern.ReplaceAllString(s, "$1. $2")
	return CollapseSpaces(s)
}

// isolatePrefix separates an operation prefix printed glued to the merchant:
// "CBCARREFOUR" becomes "CB CARREFOUR" and "PRLVSEPA EDF" becomes
// "PRLV SEPA EDF". The remainder must be a known merchant or at least four
// letters long so that words like "CBD" are left alone.
func (c *LabelCleaner) isolatePrefix(s string) string {
	first, rest, _ := strings.Cut(s, " ")
	up := strings.ToUpper(first)
	if len(up) != len(first) {
		return s
	}
	for _, p := range typePrefixes {
		if !p.glued {
			continue
		}
		compact := strings.ReplaceAll(p.phrase, " ", "")
		if !strings.HasPrefix(up, compact) {
			continue
		}
		tail := first[len(compact):]
		if tail == "" {
			if compact == p.phrase {
				return s
			}
			return joinNonEmpty(p.phrase, rest)
		}
		if !unicode.IsLetter(rune(tail[0])) {
			continue
		}
		if len(tail) < 4 && !c.knownMerchant(tail) {
			continue
		}
		return joinNonEmpty(p.phrase, tail, rest)
	}
	return s
}

func (c *LabelCleaner) knownMerchant(s string) bool {
	if c.merchants == nil {
		return false
	}
	_, ok := c.merchants.byCompact[Compact(s)]
	return ok
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
