package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// amountPattern matches money with exactly two fraction digits, optionally
// signed, grouped, followed by a currency marker or a CR/DR flag.
var amountPattern = regexp.MustCompile(
	`[+\-\x{2212}]?(?:\d{1,3}(?:[ \x{00a0}\x{202f}.,']\d{3})+|\d+)[.,]\d{2}` +
		`(?:\s?(?:€|EUR|\$|USD|£|GBP|CHF))?(?:\s?(?:CR|DR)\b)?`)

// findAmounts returns the positions of standalone amount tokens in s. A
// match glued to a preceding number, such as the tail of "2024 125,00",
// is retried one rune further so the real amount is still found.
func findAmounts(s string) [][]int {
	var out [][]int
	for start := 0; start < len(s); {
		loc := amountPattern.FindStringIndex(s[start:])
		if loc == nil {
			break
		}
		loc[0] += start
		loc[1] += start
		if !standalone(s, loc) {
			_, size := utf8.DecodeRuneInString(s[loc[0]:])
			start = loc[0] + size
			continue
		}
		out = append(out, loc)
		start = loc[1]
	}
	return out
}

func standalone(s string, loc []int) bool {
	if loc[0] > 0 {
		prev, _ := utf8.DecodeLastRuneInString(s[:loc[0]])
		if unicode.IsDigit(prev) || prev == '.' || prev == ',' {
			return false
		}
	}
	if loc[1] < len(s) {
		next, _ := utf8.DecodeRuneInString(s[loc[1]:])
		if unicode.IsDigit(next) {
			return false
		}
	}
	return true
}

func hasExplicitSign(token string) bool {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "+") || strings.HasPrefix(token, "-") || strings.HasPrefix(token, "\u2212") {
		return true
	}
	return strings.HasSuffix(token, "CR") || strings.HasSuffix(token, "DR")
}

// mapLine applies the line heuristics to one line of page text. Lines
// without a date or without an amount are not transactions and are
// ignored without a warning.
func (x *DocumentExtractor) mapLine(line string, lineNo, page int, profile bank.Profile, cleaner *normalizer.LabelCleaner) RowResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ignored()
	}
	dates := normalizer.FindDates(line)
	if len(dates) == 0 || startsWithMarker(line, profile.Markers) {
		return ignored()
	}

	first := dates[0]
	before := strings.TrimSpace(line[:first.Start])
	rest := normalizer.StripMaskedCards(normalizer.StripDates(line[first.End:]))

	locs := findAmounts(rest)
	if len(locs) == 0 {
		// Amount ahead of the date.
		before, rest = "", normalizer.StripMaskedCards(normalizer.StripDates(line))
		if locs = findAmounts(rest); len(locs) == 0 {
			return ignored()
		}
	}

	defect := func(format string, args ...any) RowResult {
		return skipped(&ParseError{
			Row:     lineNo,
			Page:    page,
			Column:  "amount",
			Message: fmt.Sprintf(format, args...),
			RawData: line,
			Kind:    ErrRowDefect,
		})
	}

	// The last non-zero token wins; a zero cell in the other column of a
	// debit/credit pair is passed over.
	pick := len(locs) - 1
	for j := len(locs) - 1; j >= 0; j-- {
		a, err := normalizer.ParseAmount(rest[locs[j][0]:locs[j][1]], normalizer.HintEuropean)
		if err == nil && !a.IsZero() {
			pick = j
			break
		}
	}
	token := rest[locs[pick][0]:locs[pick][1]]

	amount, err := normalizer.ParseAmount(token, normalizer.HintEuropean)
	if err != nil {
		return defect("%v", err)
	}
	if amount.IsZero() {
		return defect("zero amount")
	}
	if amount.Abs().GreaterThanOrEqual(x.opts.MaxAmount) {
		return skipped(implausible(lineNo, page, line, amount))
	}
	if !hasExplicitSign(token) {
		amount = amount.Abs()
		if !normalizer.IsCredit(before+" "+rest, profile.CreditKeywords) {
			amount = amount.Neg()
		}
	}

	remainder := removeAmounts(rest, locs)
	label := cleaner.Clean(joinNonBlank(before, remainder))
	if label == "" {
		pe := &ParseError{Row: lineNo, Page: page, Column: "label", Message: "missing label", RawData: line, Kind: ErrRowDefect}
		return skipped(pe)
	}

	tx := ParsedTransaction{
		DateOp: first.Date,
		Label:  label,
		Amount: amount,
		Source: map[string]string{
			SourceOrigin: OriginLine,
			SourcePage:   strconv.Itoa(page),
			SourceRow:    strconv.Itoa(lineNo),
			SourceRaw:    line,
		},
	}
	if len(dates) > 1 {
		vd := dates[1].Date
		tx.DateValue = &vd
	}
	kind, _ := normalizer.ClassifyType(before)
	if kind == normalizer.TxUnknown {
		kind, _ = normalizer.ClassifyType(remainder)
	}
	if kind != normalizer.TxUnknown {
		tx.Source[SourceTxType] = string(kind)
	}
	return accepted(tx)
}

func removeAmounts(s string, locs [][]int) string {
	var b strings.Builder
	prev := 0
	for _, loc := range locs {
		b.WriteString(s[prev:loc[0]])
		b.WriteByte(' ')
		prev = loc[1]
	}
	b.WriteString(s[prev:])
	return normalizer.CollapseSpaces(b.String())
}

func joinNonBlank(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
