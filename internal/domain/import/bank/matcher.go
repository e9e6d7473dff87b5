package bank

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// Match is the outcome of bank detection.
type Match struct {
	Source Source
	// Signature is the token or bank code that identified Source.
	Signature string
}

type bankCode struct {
	country string
	digits  string
	owner   int
}

// Matcher finds bank signatures in statement text with a single
// Aho-Corasick pass over whole-word tokens, plus a scan of IBAN and RIB
// bank codes. A bank code outranks a name in the filename or the heading
// lines, which outranks a name further down, where transfer labels
// routinely name other banks. Within a rank the bank listed first wins.
type Matcher struct {
	sources []Source
	tokens  []string
	owners  []int
	codes   []bankCode
	ac      *ahocorasick.Matcher
}

// headingLines is how many leading lines of a text count as its heading.
const headingLines = 6

const (
	rankCode = iota
	rankHeading
	rankBody
)

var (
	// Country, check digits, then the first five digits of the BBAN.
	ibanPattern = regexp.MustCompile(` ([A-Z]{2})\d{2} ?((?:\d ?){5})`)
	ribPattern  = regexp.MustCompile(` CODE BANQUE (\d{5}) `)
)

func newMatcher(profiles []Profile) *Matcher {
	m := &Matcher{}
	for i, p := range profiles {
		m.sources = append(m.sources, p.Source)
		for _, tok := range p.Tokens {
			w := strings.TrimSpace(normalizer.Words(tok))
			if w == "" {
				continue
			}
			m.tokens = append(m.tokens, " "+w+" ")
			m.owners = append(m.owners, i)
		}
		for _, code := range p.BankCodes {
			country, digits, _ := strings.Cut(code, ":")
			m.codes = append(m.codes, bankCode{country: strings.ToUpper(country), digits: digits, owner: i})
		}
	}
	m.ac = ahocorasick.NewStringMatcher(m.tokens)
	return m
}

// Match returns the bank named in text or filename, or Generic.
func (m *Matcher) Match(text, filename string) Match {
	heading, body := splitHeading(text)
	headingWords := normalizer.Words(filename + " " + heading)
	bodyWords := normalizer.Words(body)

	best, bestRank, signature := -1, 0, ""
	consider := func(owner, rank int, sig string) {
		if best < 0 || rank < bestRank || rank == bestRank && owner < best {
			best, bestRank, signature = owner, rank, sig
		}
	}

	for _, found := range m.bankCodesIn(headingWords + bodyWords) {
		for _, c := range m.codes {
			if c.country == found.country && strings.HasPrefix(found.digits, c.digits) {
				consider(c.owner, rankCode, c.country+":"+c.digits)
			}
		}
	}
	for _, part := range []struct {
		rank  int
		words string
	}{{rankHeading, headingWords}, {rankBody, bodyWords}} {
		for _, hit := range m.ac.MatchThreadSafe([]byte(part.words)) {
			consider(m.owners[hit], part.rank, strings.TrimSpace(m.tokens[hit]))
		}
	}

	if best < 0 {
		return Match{Source: Generic}
	}
	return Match{Source: m.sources[best], Signature: signature}
}

func splitHeading(text string) (string, string) {
	idx := 0
	for range headingLines {
		i := strings.IndexByte(text[idx:], '\n')
		if i < 0 {
			return text, ""
		}
		idx += i + 1
	}
	return text[:idx], text[idx:]
}

func (m *Matcher) bankCodesIn(w string) []bankCode {
	var out []bankCode
	for _, sub := range ibanPattern.FindAllStringSubmatch(w, -1) {
		out = append(out, bankCode{country: sub[1], digits: strings.ReplaceAll(sub[2], " ", "")})
	}
	for _, sub := range ribPattern.FindAllStringSubmatch(w, -1) {
		out = append(out, bankCode{country: "FR", digits: sub[1]})
	}
	return out
}
