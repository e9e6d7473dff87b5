package parser

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/bank"
)

// Options tunes an Engine. The zero value is not valid; start from
// DefaultOptions.
type Options struct {
	// MaxAmount rejects document amounts at or above it.
	MaxAmount decimal.Decimal
	// DedupeLabelPrefix is the number of label runes that take part in the
	// duplicate key.
	DedupeLabelPrefix int
	// PreviewRows is the number of raw data rows echoed as SampleData.
	PreviewRows int
	// HeaderProbeCells is how many leading cells of the first record are
	// checked for a date to decide that a file has no header.
	HeaderProbeCells int
	// PageWorkers is the number of PDF pages extracted concurrently.
	PageWorkers int
	Registry    *bank.Registry
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		MaxAmount:         decimal.NewFromInt(1_000_000),
		DedupeLabelPrefix: 12,
		PreviewRows:       5,
		HeaderProbeCells:  1,
		PageWorkers:       1,
		Registry:          bank.DefaultRegistry(),
	}
}

func WithMaxAmount(d decimal.Decimal) Option {
	return func(o *Options) {
		if d.IsPositive() {
			o.MaxAmount = d
		}
	}
}

func WithDedupeLabelPrefix(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.DedupeLabelPrefix = n
		}
	}
}

func WithPreviewRows(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.PreviewRows = n
		}
	}
}

func WithHeaderProbeCells(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.HeaderProbeCells = n
		}
	}
}

func WithPageWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.PageWorkers = n
		}
	}
}

func WithRegistry(r *bank.Registry) Option {
	return func(o *Options) {
		if r != nil {
			o.Registry = r
		}
	}
}
