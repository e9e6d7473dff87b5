package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
)

const (
	bankSampleRecords = 30
	dialectSampleRows = 50
	// Spreadsheet serials below this (1927) are more likely counters than
	// dates when deciding whether the first cell opens a data row.
	minHeaderlessSerial = 10000
)

// record is one row of a tabular source with its 1-based line number.
type record struct {
	cells []string
	line  int
	err   error
}

// extraction is what an extractor hands back to the Engine.
type extraction struct {
	match      bank.Match
	rows       []RowResult
	mapping    *ColumnMapping
	rawColumns []string
	sample     [][]string
	text       string
	metadata   map[string]any
}

// TabularExtractor reads delimited text and spreadsheets.
type TabularExtractor struct {
	opts Options
}

func NewTabularExtractor(opts Options) *TabularExtractor {
	return &TabularExtractor{opts: opts}
}

// Extract reads every record of content and maps it to row results. On an
// unmappable layout the partial extraction is returned with the error so
// the caller can still report the raw columns.
func (x *TabularExtractor) Extract(content []byte, filename string, format sniffer.FileFormat, explicit *ColumnMapping) (*extraction, error) {
	meta := map[string]any{}
	spreadsheet := format == sniffer.FormatSpreadsheet

	var (
		records []record
		err     error
	)
	if spreadsheet {
		records, err = readWorkbook(content, meta)
	} else {
		records, err = readDelimited(content, meta)
	}
	if err != nil {
		return nil, err
	}

	records = dropBlank(records)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableInput, sniffer.ErrEmptyFile)
	}
	return x.fromRecords(records, filename, explicit, spreadsheet, meta)
}

func (x *TabularExtractor) fromRecords(records []record, filename string, explicit *ColumnMapping, spreadsheet bool, meta map[string]any) (*extraction, error) {
	reg := x.opts.Registry
	text := sampleText(records, bankSampleRecords)
	match := reg.Detect(text, filename)
	profile := reg.Profile(match.Source)

	ext := &extraction{match: match, text: text, metadata: meta}
	width := maxWidth(records)

	var (
		headers   []string
		mapping   ColumnMapping
		dataStart int
		err       error
	)
	if x.headerless(records[0].cells, spreadsheet) {
		meta[MetaHeaderless] = true
		if explicit != nil {
			mapping, err = explicit.resolve(nil, width)
		} else {
			mapping = positionalMapping(profile.Layout, width)
		}
	} else {
		meta[MetaHeaderless] = false
		cells := make([][]string, len(records))
		for i, r := range records {
			cells[i] = r.cells
		}
		hdr, findErr := sniffer.FindHeaderRow(cells)
		if findErr != nil {
			ext.sample = x.preview(records)
			return ext, fmt.Errorf("%w: %w", ErrUnmappableColumns, findErr)
		}
		headers = trimCells(records[hdr].cells)
		dataStart = hdr + 1
		meta[MetaHeaderRow] = records[hdr].line
		meta[MetaHeaderFingerprint] = sniffer.Fingerprint(headers)
		ext.rawColumns = headers
		mapping, err = MapColumns(headers, explicit)
	}
	body := records[dataStart:]
	ext.sample = x.preview(body)
	if err != nil {
		return ext, err
	}
	ext.mapping = &mapping
	if !mapping.Usable() {
		return ext, fmt.Errorf("%w: no date and amount among columns %q", ErrUnmappableColumns, headers)
	}

	dialect := sniffer.ProbeDialect(sampleCells(body, dialectSampleRows), amountIndex(mapping), mapping.Index(FieldDate))
	mapper := &rowMapper{
		mapping:     mapping,
		hint:        numberHint(dialect),
		cleaner:     normalizer.NewLabelCleaner(profile.Merchants...),
		markers:     profile.Markers,
		headerKeys:  headerKeys(headers),
		origin:      OriginRow,
		spreadsheet: spreadsheet,
		monthFirst:  !dialect.DayFirst,
	}

	for _, rec := range body {
		if rec.err != nil {
			ext.rows = append(ext.rows, skipped(&ParseError{Row: rec.line, Message: rec.err.Error(), Kind: ErrRowDefect}))
			continue
		}
		ext.rows = append(ext.rows, mapper.Map(rec.cells, rec.line))
	}
	return ext, nil
}

// preview copies the first PreviewRows records, kept even when the
// columns cannot be mapped.
func (x *TabularExtractor) preview(records []record) [][]string {
	var out [][]string
	for _, rec := range records[:min(x.opts.PreviewRows, len(records))] {
		out = append(out, append([]string(nil), rec.cells...))
	}
	return out
}

// headerless reports whether one of the first HeaderProbeCells cells of
// the first record is a date, meaning the file starts with data.
func (x *TabularExtractor) headerless(first []string, spreadsheet bool) bool {
	n := min(max(x.opts.HeaderProbeCells, 1), len(first))
	for _, cell := range first[:n] {
		cell = strings.TrimSpace(cell)
		if normalizer.LooksLikeDate(cell) {
			return true
		}
		if spreadsheet {
			if serial, err := strconv.ParseFloat(cell, 64); err == nil && serial >= minHeaderlessSerial {
				if _, err := normalizer.ParseSpreadsheetDate(cell); err == nil {
					return true
				}
			}
		}
	}
	return false
}

// positionalMapping binds columns by position. A bank layout is used when
// it matches the row width; otherwise the width decides.
func positionalMapping(layout []string, width int) ColumnMapping {
	if len(layout) == 0 || len(layout) != width {
		layout = widthLayout(width)
	}
	var m ColumnMapping
	for i, role := range layout {
		if role == bank.RoleIgnore {
			continue
		}
		m.Set(Field(role), ByIndex(i))
	}
	return m
}

func widthLayout(width int) []string {
	switch {
	case width <= 2:
		return []string{bank.RoleDate, bank.RoleAmount}
	case width == 3:
		return []string{bank.RoleDate, bank.RoleLabel, bank.RoleAmount}
	case width == 4:
		return []string{bank.RoleDate, bank.RoleLabel, bank.RoleDebit, bank.RoleCredit}
	default:
		return []string{bank.RoleDate, bank.RoleValueDate, bank.RoleLabel, bank.RoleDebit, bank.RoleCredit}
	}
}

func readDelimited(content []byte, meta map[string]any) ([]record, error) {
	text, enc, err := sniffer.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableInput, err)
	}
	meta[MetaEncoding] = enc

	delim := sniffer.DetectDelimiter(strings.Split(text, "\n"))
	if delim == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableInput, sniffer.ErrInvalidDelimiter)
	}
	meta[MetaDelimiter] = string(delim)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = delim != '\t' // would swallow empty tab separated cells
	r.FieldsPerRecord = -1

	var out []record
	for {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				out = append(out, record{cells: []string{pe.Error()}, line: pe.Line, err: pe.Err})
				continue
			}
			return nil, fmt.Errorf("%w: %w", ErrUnreadableInput, err)
		}
		line, _ := r.FieldPos(0)
		out = append(out, record{cells: cells, line: line})
	}
	return out, nil
}

func dropBlank(records []record) []record {
	out := records[:0]
	for _, r := range records {
		if r.err != nil || !isBlank(r.cells) {
			out = append(out, r)
		}
	}
	return out
}

func sampleText(records []record, n int) string {
	var b strings.Builder
	for i, r := range records {
		if i >= n {
			break
		}
		b.WriteString(strings.Join(r.cells, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func sampleCells(records []record, n int) [][]string {
	out := make([][]string, 0, min(n, len(records)))
	for i, r := range records {
		if i >= n {
			break
		}
		out = append(out, r.cells)
	}
	return out
}

func maxWidth(records []record) int {
	w := 0
	for _, r := range records {
		if r.err == nil {
			w = max(w, len(r.cells))
		}
	}
	return w
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func amountIndex(m ColumnMapping) int {
	for _, f := range []Field{FieldAmount, FieldDebit, FieldCredit} {
		if idx := m.Index(f); idx >= 0 {
			return idx
		}
	}
	return -1
}

func numberHint(d *sniffer.RegionalDialect) normalizer.NumberHint {
	if d.IsEuropeanFormat {
		return normalizer.HintEuropean
	}
	return normalizer.HintUS
}
