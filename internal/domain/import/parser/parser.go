// Package parser turns bank statements (delimited text, spreadsheets and PDF
// documents) into normalized transactions. Every row either becomes a
// transaction or is skipped with a warning; only unreadable input and
// unmappable layouts fail a parse.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
)

var (
	ErrUnreadableInput   = errors.New("unreadable input")
	ErrUnmappableColumns = errors.New("unmappable columns")
	ErrRowDefect         = errors.New("row defect")
	ErrImplausibleValue  = errors.New("implausible value")
	ErrNoTransactions    = errors.New("no transactions recovered")

	// errRowIgnored marks rows that are not transactions at all (blank
	// rows, balances, repeated headers). They are skipped without a warning.
	errRowIgnored = errors.New("row ignored")
)

// Metadata keys.
const (
	MetaEncoding          = "encoding"
	MetaDelimiter         = "delimiter"
	MetaHeaderRow         = "header_row"
	MetaHeaderless        = "headerless"
	MetaHeaderFingerprint = "header_fingerprint"
	MetaSheet             = "sheet"
	MetaPageCount         = "page_count"
	MetaTablesFound       = "tables_found"
	MetaDuplicatesRemoved = "duplicates_removed"
	MetaBankDetected      = "bank_detected"
	MetaBankSignature     = "bank_signature"
	MetaCurrency          = "currency"
	MetaRowsTotal         = "rows_total"
	MetaRowsSkipped       = "rows_skipped"
)

// Provenance keys of ParsedTransaction.Source.
const (
	SourceOrigin = "origin"
	SourcePage   = "page"
	SourceRow    = "row"
	SourceRaw    = "raw"
	SourceTxType = "tx_type"

	OriginRow   = "row"
	OriginTable = "table"
	OriginLine  = "line"
)

// Field is a transaction attribute a column can be bound to.
type Field string

const (
	FieldDate      Field = "date"
	FieldValueDate Field = "value_date"
	FieldLabel     Field = "label"
	FieldAmount    Field = "amount"
	FieldDebit     Field = "debit"
	FieldCredit    Field = "credit"
	FieldCategory  Field = "category"
)

// Fields lists every bindable field in resolution order.
var Fields = []Field{FieldValueDate, FieldDate, FieldDebit, FieldCredit, FieldAmount, FieldLabel, FieldCategory}

// Column binds a field to a header name, a position, or both.
// Index is -1 while only the name is known.
type Column struct {
	Name  string `json:"name,omitempty"`
	Index int    `json:"index"`
}

func ByName(name string) *Column { return &Column{Name: name, Index: -1} }
func ByIndex(idx int) *Column    { return &Column{Index: idx} }

// ColumnMapping holds the optional column binding of each field.
type ColumnMapping struct {
	Date      *Column `json:"date,omitempty"`
	ValueDate *Column `json:"value_date,omitempty"`
	Label     *Column `json:"label,omitempty"`
	Amount    *Column `json:"amount,omitempty"`
	Debit     *Column `json:"debit,omitempty"`
	Credit    *Column `json:"credit,omitempty"`
	Category  *Column `json:"category,omitempty"`
}

func (m *ColumnMapping) slot(f Field) **Column {
	switch f {
	case FieldDate:
		return &m.Date
	case FieldValueDate:
		return &m.ValueDate
	case FieldLabel:
		return &m.Label
	case FieldAmount:
		return &m.Amount
	case FieldDebit:
		return &m.Debit
	case FieldCredit:
		return &m.Credit
	case FieldCategory:
		return &m.Category
	}
	return nil
}

// Get returns the binding of f, or nil.
func (m ColumnMapping) Get(f Field) *Column {
	if s := m.slot(f); s != nil {
		return *s
	}
	return nil
}

// Set binds f to c. Unknown fields are ignored.
func (m *ColumnMapping) Set(f Field, c *Column) {
	if s := m.slot(f); s != nil {
		*s = c
	}
}

// Index returns the resolved position of f, or -1.
func (m ColumnMapping) Index(f Field) int {
	if c := m.Get(f); c != nil {
		return c.Index
	}
	return -1
}

func (m ColumnMapping) has(f Field) bool { return m.Index(f) >= 0 }

// Usable reports whether the mapping resolves a date and at least one of
// amount, debit or credit.
func (m ColumnMapping) Usable() bool {
	return m.has(FieldDate) && (m.has(FieldAmount) || m.has(FieldDebit) || m.has(FieldCredit))
}

// IsZero reports whether no field is bound.
func (m ColumnMapping) IsZero() bool {
	for _, f := range Fields {
		if m.Get(f) != nil {
			return false
		}
	}
	return true
}

func (m ColumnMapping) String() string {
	var parts []string
	for _, f := range Fields {
		if c := m.Get(f); c != nil {
			parts = append(parts, fmt.Sprintf("%s=%d", f, c.Index))
		}
	}
	return strings.Join(parts, " ")
}

// MappingFromStrings builds an explicit mapping from field name to column.
// Numeric values are 0-based positions, anything else is a header name.
func MappingFromStrings(raw map[string]string) (*ColumnMapping, error) {
	m := &ColumnMapping{}
	for key, val := range raw {
		f := Field(strings.ToLower(strings.TrimSpace(key)))
		if m.slot(f) == nil {
			return nil, fmt.Errorf("%w: unknown field %q", ErrUnmappableColumns, key)
		}
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		if idx, err := strconv.Atoi(val); err == nil {
			if idx < 0 {
				return nil, fmt.Errorf("%w: negative index for %s", ErrUnmappableColumns, f)
			}
			m.Set(f, ByIndex(idx))
			continue
		}
		m.Set(f, ByName(val))
	}
	return m, nil
}

// resolve pins every binding of an explicit mapping to a position within
// headers. width is the row width when no header row exists.
func (m ColumnMapping) resolve(headers []string, width int) (ColumnMapping, error) {
	if width < len(headers) {
		width = len(headers)
	}
	var out ColumnMapping
	for _, f := range Fields {
		c := m.Get(f)
		if c == nil {
			continue
		}
		resolved := *c
		switch {
		case c.Index >= 0:
			if width > 0 && c.Index >= width {
				return out, fmt.Errorf("%w: %s index %d outside %d columns", ErrUnmappableColumns, f, c.Index, width)
			}
			if resolved.Name == "" && c.Index < len(headers) {
				resolved.Name = headers[c.Index]
			}
		case c.Name != "":
			idx := headerIndex(headers, c.Name)
			if idx < 0 {
				return out, fmt.Errorf("%w: no column named %q for %s", ErrUnmappableColumns, c.Name, f)
			}
			resolved.Index = idx
		default:
			continue
		}
		out.Set(f, &resolved)
	}
	return out, nil
}

func headerIndex(headers []string, name string) int {
	want := headerKey(name)
	for i, h := range headers {
		if headerKey(h) == want {
			return i
		}
	}
	return -1
}

func headerKey(h string) string {
	return strings.TrimSpace(strings.ToLower(normalizer.Words(h)))
}

// ParsedTransaction is one normalized statement line. Amount is signed:
// negative for money leaving the account.
type ParsedTransaction struct {
	DateOp    time.Time         `json:"date_op"`
	DateValue *time.Time        `json:"date_value,omitempty"`
	Label     string            `json:"label"`
	Amount    decimal.Decimal   `json:"amount"`
	Category  string            `json:"category,omitempty"`
	Source    map[string]string `json:"source,omitempty"`
}

// ParseError describes a skipped row or line.
type ParseError struct {
	Row     int
	Page    int
	Column  string
	Message string
	RawData string
	Kind    error // ErrRowDefect or ErrImplausibleValue
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("row %d", e.Row)
	if e.Page > 0 {
		loc = fmt.Sprintf("page %d, line %d", e.Page, e.Row)
	}
	if e.Column != "" {
		loc += ", column " + e.Column
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

func (e *ParseError) Unwrap() []error {
	if e.Kind != nil && e.Kind != ErrRowDefect {
		return []error{e.Kind, ErrRowDefect}
	}
	return []error{ErrRowDefect}
}

// RowResult is the outcome of one candidate row: a transaction, or the
// reason it was skipped.
type RowResult struct {
	Transaction ParsedTransaction
	Err         error
}

func (r RowResult) OK() bool      { return r.Err == nil }
func (r RowResult) Ignored() bool { return errors.Is(r.Err, errRowIgnored) }

func accepted(tx ParsedTransaction) RowResult { return RowResult{Transaction: tx} }
func skipped(err error) RowResult            { return RowResult{Err: err} }
func ignored() RowResult                     { return RowResult{Err: errRowIgnored} }

// ParseResult is everything one parse recovered from a file.
type ParseResult struct {
	Success       bool                `json:"success"`
	FileFormat    sniffer.FileFormat  `json:"file_format"`
	BankSource    bank.Source         `json:"bank_source"`
	ColumnMapping *ColumnMapping      `json:"column_mapping,omitempty"`
	Transactions  []ParsedTransaction `json:"transactions"`
	RawColumns    []string            `json:"raw_columns,omitempty"`
	SampleData    [][]string          `json:"sample_data,omitempty"`
	Errors        []string            `json:"errors"`
	Warnings      []string            `json:"warnings"`
	Metadata      map[string]any      `json:"metadata"`

	err error
}

func newResult(format sniffer.FileFormat) *ParseResult {
	return &ParseResult{
		FileFormat:   format,
		BankSource:   bank.Unknown,
		Transactions: []ParsedTransaction{},
		Errors:       []string{},
		Warnings:     []string{},
		Metadata:     map[string]any{},
	}
}

// Err returns the fatal errors of the parse joined together, or nil.
func (r *ParseResult) Err() error { return r.err }

func (r *ParseResult) fail(err error) {
	r.err = errors.Join(r.err, err)
	r.Errors = append(r.Errors, err.Error())
}

func (r *ParseResult) warn(err error) {
	r.Warnings = append(r.Warnings, err.Error())
}
