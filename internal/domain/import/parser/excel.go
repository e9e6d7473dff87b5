package parser

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
)

// Sheet names that usually hold the transaction list, in preference order.
var preferredSheets = []string{
	"transactions", "operations", "mouvements", "releve",
	"extrato", "movimentos", "statement",
}

// readWorkbook returns the rows of the transaction sheet of an OOXML or
// legacy BIFF workbook. Cells are raw values, so dates come back as
// serial numbers.
func readWorkbook(content []byte, meta map[string]any) ([]record, error) {
	if sniffer.IsLegacySpreadsheet(content) {
		return readLegacyWorkbook(content, meta)
	}

	f, err := excelize.OpenReader(bytes.NewReader(content), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %w", ErrUnreadableInput, err)
	}
	defer f.Close()

	sheet := findTransactionSheet(f.GetSheetList())
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableInput)
	}
	meta[MetaSheet] = sheet

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %s: %w", ErrUnreadableInput, sheet, err)
	}
	defer rows.Close()

	var out []record
	line := 0
	for rows.Next() {
		line++
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			out = append(out, record{cells: []string{err.Error()}, line: line, err: err})
			continue
		}
		out = append(out, record{cells: cells, line: line})
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableInput, err)
	}
	return out, nil
}

func readLegacyWorkbook(content []byte, meta map[string]any) (out []record, err error) {
	// The BIFF reader panics on truncated streams.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: corrupt xls workbook: %v", ErrUnreadableInput, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open xls workbook: %w", ErrUnreadableInput, err)
	}

	names := make([]string, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		if s := wb.GetSheet(i); s != nil {
			names = append(names, s.Name)
		}
	}
	name := findTransactionSheet(names)
	if name == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableInput)
	}
	meta[MetaSheet] = name

	var sheet *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		if s := wb.GetSheet(i); s != nil && s.Name == name {
			sheet = s
			break
		}
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := legacyRow(sheet, i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		out = append(out, record{cells: cells, line: i + 1})
	}
	return out, nil
}

// legacyRow returns nil for rows the sheet never stored; the BIFF reader
// dereferences them without checking.
func legacyRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// findTransactionSheet picks the sheet whose name fuzzily matches a
// preferred name best, falling back to the first sheet.
func findTransactionSheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}

	best, bestDistance := "", -1
	for _, preferred := range preferredSheets {
		for _, rank := range fuzzy.RankFindNormalizedFold(preferred, sheets) {
			if bestDistance < 0 || rank.Distance < bestDistance {
				best, bestDistance = rank.Target, rank.Distance
			}
		}
		if bestDistance == 0 {
			break
		}
	}
	if best != "" {
		return best
	}
	return sheets[0]
}
