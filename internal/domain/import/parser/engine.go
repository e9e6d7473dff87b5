package parser

import (
	"context"
	"fmt"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-ingest/pkg/money"
)

// Engine parses statements. It holds only immutable configuration and is
// safe for concurrent use; every call works on its own state.
type Engine struct {
	opts      Options
	tabular   *TabularExtractor
	documents *DocumentExtractor
}

// New builds an Engine from DefaultOptions and the given options.
func New(opts ...Option) *Engine {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		opts:      o,
		tabular:   NewTabularExtractor(o),
		documents: NewDocumentExtractor(o),
	}
}

var defaultEngine = New()

// Parse parses content with the default engine.
func Parse(content []byte, filename string, explicit *ColumnMapping) *ParseResult {
	return defaultEngine.Parse(content, filename, explicit)
}

// Options returns a copy of the engine configuration.
func (e *Engine) Options() Options { return e.opts }

// Parse turns content into transactions. explicit, when non-nil, replaces
// column inference. The result is never nil; check Success or Err.
func (e *Engine) Parse(content []byte, filename string, explicit *ColumnMapping) *ParseResult {
	return e.ParseContext(context.Background(), content, filename, explicit)
}

// ParseContext is Parse with a context that bounds PDF page extraction.
func (e *Engine) ParseContext(ctx context.Context, content []byte, filename string, explicit *ColumnMapping) *ParseResult {
	format := sniffer.DetectFormat(filename, content)
	result := newResult(format)

	var (
		ext *extraction
		err error
	)
	switch format {
	case sniffer.FormatDelimited, sniffer.FormatSpreadsheet:
		ext, err = e.tabular.Extract(content, filename, format, explicit)
	case sniffer.FormatDocument:
		ext, err = e.documents.Extract(ctx, content, filename, explicit)
	default:
		err = fmt.Errorf("%w: unrecognized file format", ErrUnreadableInput)
	}

	return e.finish(result, ext, err)
}

// ParsePages parses PDF pages that were decoded elsewhere, for instance by
// an OCR step that produced page text without glyph positions.
func (e *Engine) ParsePages(ctx context.Context, pages []Page, filename string, explicit *ColumnMapping) *ParseResult {
	result := newResult(sniffer.FormatDocument)
	ext, err := e.documents.ExtractPages(ctx, pages, filename, explicit)
	return e.finish(result, ext, err)
}

func (e *Engine) finish(result *ParseResult, ext *extraction, err error) *ParseResult {
	if ext != nil {
		e.assemble(result, ext)
	}
	if err != nil {
		result.fail(err)
		return result
	}
	if len(result.Transactions) == 0 {
		result.fail(fmt.Errorf("%w from %d candidate rows", ErrNoTransactions, result.Metadata[MetaRowsTotal]))
		return result
	}
	result.Success = true
	return result
}

func (e *Engine) assemble(result *ParseResult, ext *extraction) {
	for k, v := range ext.metadata {
		result.Metadata[k] = v
	}
	result.BankSource = ext.match.Source
	result.Metadata[MetaBankDetected] = ext.match.Source.Specific()
	if ext.match.Signature != "" {
		result.Metadata[MetaBankSignature] = ext.match.Signature
	}
	result.Metadata[MetaCurrency] = money.DetectCurrency(ext.text)
	result.ColumnMapping = ext.mapping
	result.RawColumns = ext.rawColumns
	result.SampleData = ext.sample

	var candidates []ParsedTransaction
	total, skippedRows := 0, 0
	for _, r := range ext.rows {
		if r.Ignored() {
			continue
		}
		total++
		if !r.OK() {
			skippedRows++
			result.warn(r.Err)
			continue
		}
		candidates = append(candidates, r.Transaction)
	}

	kept, removed := Dedupe(candidates, e.opts.DedupeLabelPrefix)
	result.Transactions = kept
	result.Metadata[MetaDuplicatesRemoved] = removed
	result.Metadata[MetaRowsTotal] = total
	result.Metadata[MetaRowsSkipped] = skippedRows
}
