package normalizer

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// defaultMerchants are names statements often print without their spaces,
// or glued to a neighbouring merchant (PAYPALNETFLIX).
var defaultMerchants = []string{
	// France
	"CARREFOUR MARKET", "CARREFOUR CITY", "CARREFOUR EXPRESS", "CARREFOUR",
	"LEROY MERLIN", "BRICO DEPOT", "DECATHLON", "MONOPRIX", "FRANPRIX",
	"INTERMARCHE", "AUCHAN", "LECLERC", "PICARD", "BOULANGER", "FNAC DARTY",
	"SNCF CONNECT", "SNCF", "RATP", "TOTAL ACCESS", "TOTALENERGIES",
	"FREE MOBILE", "BOUYGUES TELECOM", "ORANGE", "SFR",
	"LA POSTE", "EDF", "ENGIE",
	// Portugal and Spain
	"PINGO DOCE", "CONTINENTE", "MERCADONA", "MINI PRECO", "EL CORTE INGLES",
	// Online and international
	"AMAZON PRIME", "AMAZON", "PAYPAL", "NETFLIX", "SPOTIFY", "APPLE COM",
	"GOOGLE PAYMENT", "UBER EATS", "UBER", "DELIVEROO", "BOLT FOOD",
	"BURGER KING", "MC DONALDS", "STARBUCKS", "LIDL", "ALDI", "IKEA",
}

const minMerchantLen = 4

// MerchantDictionary re-segments merchant names that were printed without
// their word breaks.
type MerchantDictionary struct {
	spaced    []string
	compact   []string
	byCompact map[string]int
	maxLen    int
	matcher   *ahocorasick.Matcher
}

// NewMerchantDictionary builds a dictionary from the default merchants and
// the given extra names.
func NewMerchantDictionary(extra ...string) *MerchantDictionary {
	d := &MerchantDictionary{byCompact: make(map[string]int)}
	for _, name := range append(append([]string{}, defaultMerchants...), extra...) {
		spaced := strings.TrimSpace(Words(name))
		compact := strings.ReplaceAll(spaced, " ", "")
		if len(compact) < minMerchantLen {
			continue
		}
		if _, ok := d.byCompact[compact]; ok {
			continue
		}
		d.byCompact[compact] = len(d.compact)
		d.spaced = append(d.spaced, spaced)
		d.compact = append(d.compact, compact)
		if len(compact) > d.maxLen {
			d.maxLen = len(compact)
		}
	}
	d.matcher = ahocorasick.NewStringMatcher(d.compact)
	return d
}

// Split rewrites every word of label that glues known merchants together.
// A word fully covered by known names becomes those names ("PAYPALNETFLIX"
// to "PAYPAL NETFLIX"); a glued multi-word name inside a longer word is
// re-spaced in place ("CARREFOURMARKETPARIS" to "CARREFOUR MARKET PARIS").
func (d *MerchantDictionary) Split(label string) string {
	if d == nil || len(d.compact) == 0 {
		return label
	}
	words := strings.Fields(label)
	for i, w := range words {
		up := strings.ToUpper(w)
		if len(up) != len(w) || len(d.matcher.MatchThreadSafe([]byte(up))) == 0 {
			continue
		}
		if covered, ok := d.cover(w, up); ok {
			words[i] = covered
			continue
		}
		words[i] = d.respaceInside(w, up)
	}
	return strings.Join(words, " ")
}

func (d *MerchantDictionary) cover(w, up string) (string, bool) {
	var parts []string
	multiWord := false
	for p := 0; p < len(up); {
		idx := d.longestAt(up, p)
		if idx < 0 {
			return "", false
		}
		n := len(d.compact[idx])
		parts = append(parts, respace(w[p:p+n], d.spaced[idx]))
		multiWord = multiWord || strings.Contains(d.spaced[idx], " ")
		p += n
	}
	if len(parts) < 2 && !multiWord {
		return "", false
	}
	return strings.Join(parts, " "), true
}

func (d *MerchantDictionary) longestAt(up string, p int) int {
	for n := min(d.maxLen, len(up)-p); n >= minMerchantLen; n-- {
		if idx, ok := d.byCompact[up[p:p+n]]; ok {
			return idx
		}
	}
	return -1
}

func (d *MerchantDictionary) respaceInside(w, up string) string {
	hits := d.matcher.MatchThreadSafe([]byte(up))
	sort.Slice(hits, func(a, b int) bool {
		return len(d.compact[hits[a]]) > len(d.compact[hits[b]])
	})
	for _, h := range hits {
		if !strings.Contains(d.spaced[h], " ") {
			continue
		}
		c := d.compact[h]
		at := strings.Index(up, c)
		if at < 0 {
			continue
		}
		out := respace(w[at:at+len(c)], d.spaced[h])
		if at > 0 {
			out = w[:at] + " " + out
		}
		if end := at + len(c); end < len(w) {
			out += " " + w[end:]
		}
		return out
	}
	return w
}

// respace cuts seg at the word lengths of spaced, keeping seg's casing.
func respace(seg, spaced string) string {
	var b strings.Builder
	p := 0
	for i, part := range strings.Fields(spaced) {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := min(p+len(part), len(seg))
		b.WriteString(seg[p:end])
		p = end
	}
	return b.String()
}
