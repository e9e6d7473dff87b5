package parser

import (
	"math"
	"sort"
	"strings"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

const (
	rowTolerance    = 3.0
	defaultFontSize = 10.0
	// Gaps are measured in multiples of the font size.
	cellGapFactor     = 1.5
	wordGapFactor     = 0.2
	continuationGap   = 2.5
	minHeaderCells    = 3
	minPositionalRows = 2
)

type textCell struct {
	X0, X1 float64
	Text   string
}

func (c textCell) centre() float64 { return (c.X0 + c.X1) / 2 }

type textRow struct {
	Y        float64
	FontSize float64
	Cells    []textCell
}

func (r textRow) texts() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Text
	}
	return out
}

// groupRows buckets glyphs into visual rows, top of the page first, and
// splits each row into cells at wide horizontal gaps.
func groupRows(glyphs []Glyph) []textRow {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := append([]Glyph(nil), glyphs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var (
		rows   []textRow
		bucket []Glyph
		anchor float64
	)
	flush := func() {
		if len(bucket) == 0 {
			return
		}
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].X < bucket[j].X })
		if row := buildRow(anchor, bucket); len(row.Cells) > 0 {
			rows = append(rows, row)
		}
		bucket = nil
	}
	for _, g := range sorted {
		if len(bucket) > 0 && math.Abs(g.Y-anchor) > rowTolerance {
			flush()
		}
		if len(bucket) == 0 {
			anchor = g.Y
		}
		bucket = append(bucket, g)
	}
	flush()
	return rows
}

func buildRow(y float64, glyphs []Glyph) textRow {
	row := textRow{Y: y}
	var (
		b       strings.Builder
		cell    textCell
		lastEnd float64
		open    bool
	)
	closeCell := func() {
		if text := normalizer.CollapseSpaces(b.String()); text != "" {
			cell.Text = text
			row.Cells = append(row.Cells, cell)
		}
		b.Reset()
		open = false
	}
	for _, g := range glyphs {
		fs := g.FontSize
		if fs <= 0 {
			fs = defaultFontSize
		}
		row.FontSize = max(row.FontSize, fs)
		if open {
			gap := g.X - lastEnd
			switch {
			case gap > cellGapFactor*fs:
				closeCell()
			case gap > wordGapFactor*fs:
				b.WriteByte(' ')
			}
		}
		if !open {
			cell = textCell{X0: g.X}
			open = true
		}
		b.WriteString(g.S)
		lastEnd = g.X + g.W
		cell.X1 = lastEnd
	}
	closeCell()
	if row.FontSize == 0 {
		row.FontSize = defaultFontSize
	}
	return row
}

// pageText renders rows as lines. Cells are separated by two spaces so
// that amounts in adjacent columns never read as one grouped number.
func pageText(rows []textRow) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r.texts(), "  ")
	}
	return strings.Join(lines, "\n")
}

// tableHeader reports whether cells read as a transaction table header and
// returns the mapping it implies.
func tableHeader(cells []string, explicit *ColumnMapping) (ColumnMapping, bool) {
	if len(cells) < minHeaderCells || anyDate(cells) {
		return ColumnMapping{}, false
	}
	inferred := inferColumns(cells)
	isHeader := inferred.Usable() && inferred.has(FieldLabel)
	if explicit == nil {
		return inferred, isHeader
	}
	m, err := explicit.resolve(cells, len(cells))
	if err != nil || !m.Usable() || !(isHeader || explicit.namesColumns()) {
		return ColumnMapping{}, false
	}
	return m, true
}

func (m ColumnMapping) namesColumns() bool {
	for _, f := range Fields {
		if c := m.Get(f); c != nil && c.Name != "" {
			return true
		}
	}
	return false
}

func anyDate(cells []string) bool {
	for _, c := range cells {
		if normalizer.LooksLikeDate(c) {
			return true
		}
	}
	return false
}

// assignCells places each cell under the header column whose centre is
// nearest to its own.
func assignCells(row textRow, centres []float64) []string {
	out := make([]string, len(centres))
	for _, c := range row.Cells {
		best := 0
		for j := range centres {
			if math.Abs(c.centre()-centres[j]) < math.Abs(c.centre()-centres[best]) {
				best = j
			}
		}
		out[best] = strings.TrimSpace(out[best] + " " + c.Text)
	}
	return out
}

func (x *DocumentExtractor) tableMapper(page int, m ColumnMapping, header []string, profile bank.Profile, cleaner *normalizer.LabelCleaner) *rowMapper {
	return &rowMapper{
		mapping:    m,
		hint:       normalizer.HintEuropean,
		cleaner:    cleaner,
		markers:    profile.Markers,
		headerKeys: headerKeys(header),
		origin:     OriginTable,
		page:       page,
		maxAmount:  x.opts.MaxAmount,
	}
}

// extractTables walks the rows of a page looking for table headers and
// maps the rows below each one. Pages without a recognizable header fall
// back to the bank's positional table layout.
func (x *DocumentExtractor) extractTables(page int, rows []textRow, profile bank.Profile, cleaner *normalizer.LabelCleaner, explicit *ColumnMapping) pageResult {
	var (
		res      pageResult
		mapper   *rowMapper
		centres  []float64
		dataRows int
		lastOK   = -1
		lastY    float64
	)
	endTable := func() {
		if mapper != nil && dataRows > 0 {
			res.tables++
		}
		dataRows = 0
	}

	for i, row := range rows {
		texts := row.texts()
		if m, ok := tableHeader(texts, explicit); ok {
			endTable()
			mapper = x.tableMapper(page, m, texts, profile, cleaner)
			centres = make([]float64, len(row.Cells))
			for j, c := range row.Cells {
				centres[j] = c.centre()
			}
			if res.mapping == nil {
				res.mapping, res.header = &m, texts
			}
			lastOK = -1
			continue
		}
		if mapper == nil {
			continue
		}

		cells := assignCells(row, centres)
		if mapper.cell(cells, FieldDate) == "" && !mapper.hasAmount(cells) {
			label := mapper.cell(cells, FieldLabel)
			if lastOK >= 0 && label != "" && lastY-row.Y <= continuationGap*row.FontSize && !startsWithMarker(label, mapper.markers) {
				extendLabel(&res.rows[lastOK], label, cleaner)
				lastY = row.Y
			}
			continue
		}

		r := mapper.Map(cells, i+1)
		if r.Ignored() {
			lastOK = -1
			continue
		}
		dataRows++
		res.rows = append(res.rows, r)
		if len(res.sample) < x.opts.PreviewRows {
			res.sample = append(res.sample, cells)
		}
		lastOK, lastY = -1, row.Y
		if r.OK() {
			lastOK = len(res.rows) - 1
		}
	}
	endTable()

	if res.tables == 0 && res.mapping == nil {
		x.positionalTable(page, rows, profile, cleaner, &res)
	}
	return res
}

// positionalTable applies the bank's table layout to rows of exactly its
// width that start with a date.
func (x *DocumentExtractor) positionalTable(page int, rows []textRow, profile bank.Profile, cleaner *normalizer.LabelCleaner, res *pageResult) {
	layout := profile.TableLayout
	if len(layout) == 0 {
		return
	}
	m := positionalMapping(layout, len(layout))
	dateIdx := m.Index(FieldDate)

	type candidate struct {
		n     int
		cells []string
	}
	var found []candidate
	for i, row := range rows {
		if len(row.Cells) != len(layout) {
			continue
		}
		texts := row.texts()
		if dateIdx >= 0 && normalizer.LooksLikeDate(texts[dateIdx]) {
			found = append(found, candidate{n: i + 1, cells: texts})
		}
	}
	if len(found) < minPositionalRows {
		return
	}

	mapper := x.tableMapper(page, m, nil, profile, cleaner)
	for _, c := range found {
		r := mapper.Map(c.cells, c.n)
		if r.Ignored() {
			continue
		}
		res.rows = append(res.rows, r)
		if len(res.sample) < x.opts.PreviewRows {
			res.sample = append(res.sample, c.cells)
		}
	}
	res.tables++
}

func extendLabel(r *RowResult, more string, cleaner *normalizer.LabelCleaner) {
	tx := &r.Transaction
	tx.Label = cleaner.Clean(tx.Label + " " + more)
	tx.Source[SourceRaw] += " | " + more
}
