package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// Glyph is a positioned run of text on a PDF page. Y grows upwards.
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// Page is the text content of one PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
	Glyphs []Glyph
}

// readPages opens a PDF and returns its pages in document order. The PDF
// reader panics on a range of malformed inputs; those become
// ErrUnreadableInput like any other open failure.
func readPages(content []byte) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("%w: corrupt pdf: %v", ErrUnreadableInput, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open pdf: %w", ErrUnreadableInput, err)
	}
	n := r.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", ErrUnreadableInput)
	}

	for i := 1; i <= n; i++ {
		p := r.Page(i)
		page := Page{Number: i}
		if p.V.IsNull() {
			pages = append(pages, page)
			continue
		}
		for _, t := range p.Content().Text {
			page.Glyphs = append(page.Glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
		}
		if len(page.Glyphs) > 0 {
			page.Text = pageText(groupRows(page.Glyphs))
		} else if text, err := p.GetPlainText(nil); err == nil {
			page.Text = text
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// DocumentExtractor recovers transactions from PDF statements with two
// producers per page: positioned table extraction and line-level
// heuristics. Line candidates matching a table row are aligned to it and
// the overlap is left for Dedupe.
type DocumentExtractor struct {
	opts Options
}

func NewDocumentExtractor(opts Options) *DocumentExtractor {
	return &DocumentExtractor{opts: opts}
}

// Extract opens content as a PDF and extracts every page.
func (x *DocumentExtractor) Extract(ctx context.Context, content []byte, filename string, explicit *ColumnMapping) (*extraction, error) {
	pages, err := readPages(content)
	if err != nil {
		return nil, err
	}
	return x.ExtractPages(ctx, pages, filename, explicit)
}

// pageResult is what one page contributes.
type pageResult struct {
	rows    []RowResult
	tables  int
	mapping *ColumnMapping
	header  []string
	sample  [][]string
}

// ExtractPages runs both producers over already decoded pages.
func (x *DocumentExtractor) ExtractPages(ctx context.Context, pages []Page, filename string, explicit *ColumnMapping) (*extraction, error) {
	var all strings.Builder
	for _, p := range pages {
		all.WriteString(p.Text)
		all.WriteByte('\n')
	}

	reg := x.opts.Registry
	match := reg.Detect(all.String(), filename)
	profile := reg.Profile(match.Source)
	cleaner := normalizer.NewLabelCleaner(profile.Merchants...)

	results, err := extractPagesOrdered(ctx, pages, x.opts.PageWorkers, func(p Page) pageResult {
		return x.extractPage(p, profile, cleaner, explicit)
	})
	if err != nil {
		return nil, err
	}

	ext := &extraction{
		match:    match,
		text:     all.String(),
		metadata: map[string]any{MetaPageCount: len(pages)},
	}
	tables := 0
	for _, res := range results {
		tables += res.tables
		ext.rows = append(ext.rows, res.rows...)
		if ext.mapping == nil && res.mapping != nil {
			ext.mapping, ext.rawColumns = res.mapping, res.header
		}
		for _, s := range res.sample {
			if len(ext.sample) < x.opts.PreviewRows {
				ext.sample = append(ext.sample, s)
			}
		}
	}
	ext.metadata[MetaTablesFound] = tables
	return ext, nil
}

func (x *DocumentExtractor) extractPage(p Page, profile bank.Profile, cleaner *normalizer.LabelCleaner, explicit *ColumnMapping) pageResult {
	res := x.extractTables(p.Number, groupRows(p.Glyphs), profile, cleaner, explicit)
	table := len(res.rows)
	for i, line := range strings.Split(p.Text, "\n") {
		r := x.mapLine(line, i+1, p.Number, profile, cleaner)
		if r.Ignored() {
			continue
		}
		res.rows = append(res.rows, r)
		if len(res.sample) < x.opts.PreviewRows {
			res.sample = append(res.sample, []string{strings.TrimSpace(line)})
		}
	}
	alignLines(res.rows[:table], res.rows[table:], x.opts.DedupeLabelPrefix)
	return res
}

// alignLines gives a line candidate that restates a table row of the same
// page (same day, same absolute amount, overlapping label prefix) the
// table's label and signed amount, so that Dedupe folds the two.
func alignLines(table, lines []RowResult, prefix int) {
	for i := range lines {
		if !lines[i].OK() {
			continue
		}
		lt := &lines[i].Transaction
		for _, t := range table {
			if !t.OK() {
				continue
			}
			tt := t.Transaction
			if tt.DateOp.Equal(lt.DateOp) && tt.Amount.Abs().Equal(lt.Amount.Abs()) && labelsOverlap(tt.Label, lt.Label, prefix) {
				lt.Label, lt.Amount = tt.Label, tt.Amount
				break
			}
		}
	}
}

// labelsOverlap reports whether the shorter compacted label, cut to prefix
// runes, starts the longer one. A table label grown by continuation rows
// still overlaps the single line the text reading saw.
func labelsOverlap(a, b string, prefix int) bool {
	ra, rb := []rune(normalizer.Compact(a)), []rune(normalizer.Compact(b))
	if prefix > 0 {
		ra, rb = ra[:min(len(ra), prefix)], rb[:min(len(rb), prefix)]
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	return len(ra) > 0 && string(rb[:len(ra)]) == string(ra)
}
