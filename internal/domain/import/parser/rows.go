package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// Tried before the day-first layouts when the sampled dates show the
// month first.
var monthFirstLayouts = []string{"1/2/2006", "1/2/06", "1-2-2006"}

// rowMapper turns one tabular record into a RowResult using a resolved
// column mapping.
type rowMapper struct {
	mapping     ColumnMapping
	hint        normalizer.NumberHint
	cleaner     *normalizer.LabelCleaner
	markers     []string
	headerKeys  []string
	origin      string
	page        int
	spreadsheet bool
	monthFirst  bool
	// maxAmount, when set, rejects amounts at or above it.
	maxAmount decimal.Decimal
}

func (m *rowMapper) cell(cells []string, f Field) string {
	idx := m.mapping.Index(f)
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func (m *rowMapper) parseDate(raw string) (time.Time, error) {
	if m.monthFirst {
		for _, layout := range monthFirstLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
	}
	if m.spreadsheet {
		return normalizer.ParseSpreadsheetDate(raw)
	}
	return normalizer.ParseDate(raw)
}

// Map converts cells found at rowNum (1-based) into a transaction.
func (m *rowMapper) Map(cells []string, rowNum int) RowResult {
	if isBlank(cells) || m.isHeaderRepeat(cells) {
		return ignored()
	}
	raw := strings.Join(cells, " | ")
	defect := func(column, format string, args ...any) RowResult {
		return skipped(&ParseError{
			Row:     rowNum,
			Page:    m.page,
			Column:  column,
			Message: fmt.Sprintf(format, args...),
			RawData: raw,
			Kind:    ErrRowDefect,
		})
	}

	rawLabel := m.cell(cells, FieldLabel)
	if startsWithMarker(rawLabel, m.markers) {
		return ignored()
	}

	dateStr := m.cell(cells, FieldDate)
	date, err := m.parseDate(dateStr)
	if err != nil {
		if startsWithMarker(strings.Join(cells, " "), m.markers) {
			return ignored()
		}
		return defect("date", "unparsable date %q", dateStr)
	}

	amount, err := m.amount(cells)
	if err != nil {
		return defect("amount", "%v", err)
	}
	if amount.IsZero() {
		return defect("amount", "zero amount")
	}
	if m.maxAmount.IsPositive() && amount.Abs().GreaterThanOrEqual(m.maxAmount) {
		return skipped(implausible(rowNum, m.page, raw, amount))
	}

	label := m.cleaner.Clean(rawLabel)
	if label == "" && m.mapping.has(FieldLabel) {
		return defect("label", "missing label")
	}

	tx := ParsedTransaction{
		DateOp:   date,
		Label:    label,
		Amount:   amount,
		Category: m.cell(cells, FieldCategory),
		Source: map[string]string{
			SourceOrigin: m.origin,
			SourceRow:    strconv.Itoa(rowNum),
			SourceRaw:    raw,
		},
	}
	if m.page > 0 {
		tx.Source[SourcePage] = strconv.Itoa(m.page)
	}
	if vd, err := m.parseDate(m.cell(cells, FieldValueDate)); err == nil {
		tx.DateValue = &vd
	}
	if kind, _ := normalizer.ClassifyType(label); kind != normalizer.TxUnknown {
		tx.Source[SourceTxType] = string(kind)
	}
	return accepted(tx)
}

func (m *rowMapper) amount(cells []string) (decimal.Decimal, error) {
	if s := m.cell(cells, FieldAmount); s != "" {
		return normalizer.ParseAmount(s, m.hint)
	}
	debit, credit := m.cell(cells, FieldDebit), m.cell(cells, FieldCredit)
	if debit == "" && credit == "" {
		return decimal.Zero, errNoAmount
	}
	return normalizer.NormalizeDebitCredit(debit, credit, m.hint)
}

var errNoAmount = errors.New("no amount found")

func (m *rowMapper) hasAmount(cells []string) bool {
	return m.cell(cells, FieldAmount) != "" || m.cell(cells, FieldDebit) != "" || m.cell(cells, FieldCredit) != ""
}

func implausible(row, page int, raw string, amount decimal.Decimal) *ParseError {
	return &ParseError{
		Row:     row,
		Page:    page,
		Column:  "amount",
		Message: fmt.Sprintf("implausible amount %s", amount.StringFixed(2)),
		RawData: raw,
		Kind:    ErrImplausibleValue,
	}
}

// isHeaderRepeat spots the header row printed again inside the body, as
// paginated exports and PDF tables do.
func (m *rowMapper) isHeaderRepeat(cells []string) bool {
	if len(m.headerKeys) == 0 {
		return false
	}
	same := 0
	for i, c := range cells {
		if i < len(m.headerKeys) && m.headerKeys[i] != "" && headerKey(c) == m.headerKeys[i] {
			same++
		}
	}
	return same >= 2
}

func headerKeys(headers []string) []string {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = headerKey(h)
	}
	return keys
}

// startsWithMarker reports whether text opens with one of the
// non-transaction markers (balances, totals, page footers).
func startsWithMarker(text string, markers []string) bool {
	if text == "" {
		return false
	}
	w := normalizer.Words(normalizer.StripDates(text))
	for _, mk := range markers {
		if p := strings.TrimSpace(normalizer.Words(mk)); p != "" && strings.HasPrefix(w, " "+p+" ") {
			return true
		}
	}
	return false
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
