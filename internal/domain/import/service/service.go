// Package service provides the import orchestration logic around the
// statement parser.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-ingest/pkg/config"
	"github.com/FACorreiaa/statement-ingest/pkg/money"
)

const tracerName = "github.com/FACorreiaa/statement-ingest/internal/domain/import/service"

// ErrFileTooLarge is returned for content above the configured size limit.
var ErrFileTooLarge = errors.New("file too large")

// ImportResult is a parse result tagged with its parse id.
type ImportResult struct {
	ParseID  uuid.UUID
	Result   *parser.ParseResult
	Totals   money.Totals
	Duration time.Duration
}

// ImportService runs statement parses with size limits, tracing, metrics
// and structured logs.
type ImportService struct {
	engine       *parser.Engine
	maxFileBytes int64
	metrics      *Metrics
	tracer       trace.Tracer
	logger       *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(cfg config.ParserConfig, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		engine:       parser.New(cfg.Options()...),
		maxFileBytes: cfg.MaxFileBytes,
		tracer:       otel.Tracer(tracerName),
		logger:       logger,
	}
}

// NewFromConfig wires a service from loaded configuration. Metrics are
// registered on reg only when enabled. A nil logger is replaced by a JSON
// logger on stdout at the configured level.
func NewFromConfig(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	}
	svc := NewImportService(cfg.Parser, logger)
	if cfg.Observability.MetricsEnabled && reg != nil {
		svc.WithMetrics(NewMetrics(reg))
	}
	return svc
}

// WithMetrics adds Prometheus metrics to the import service
func (s *ImportService) WithMetrics(m *Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithTracer replaces the global OpenTelemetry tracer
func (s *ImportService) WithTracer(t trace.Tracer) *ImportService {
	if t != nil {
		s.tracer = t
	}
	return s
}

// Parse parses one uploaded statement. The returned error is non-nil only
// when the content is rejected before parsing; parse failures are reported
// through the result.
func (s *ImportService) Parse(ctx context.Context, content []byte, filename string, mapping *parser.ColumnMapping) (*ImportResult, error) {
	parseID := uuid.New()
	logger := s.logger.With("parse_id", parseID, "filename", filename)

	ctx, span := s.tracer.Start(ctx, "import.parse", trace.WithAttributes(
		attribute.String("import.parse_id", parseID.String()),
		attribute.Int("import.size_bytes", len(content)),
	))
	defer span.End()

	if s.maxFileBytes > 0 && int64(len(content)) > s.maxFileBytes {
		err := fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(content), s.maxFileBytes)
		format := sniffer.DetectFormat(filename, content[:min(len(content), 8192)])
		s.metrics.observe(string(format), string(bank.Unknown), OutcomeRejected, 0, 0, 0, 0)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("statement rejected", "size", len(content), "error", err)
		return nil, err
	}

	start := time.Now()
	result := s.engine.ParseContext(ctx, content, filename, mapping)
	elapsed := time.Since(start)

	currency, _ := result.Metadata[parser.MetaCurrency].(string)
	if currency == "" {
		currency = money.DefaultCurrency
	}
	out := &ImportResult{
		ParseID:  parseID,
		Result:   result,
		Totals:   money.Summarize(amountsOf(result.Transactions), currency),
		Duration: elapsed,
	}

	outcome := OutcomeSuccess
	if !result.Success {
		outcome = OutcomeFailed
	}
	duplicates, _ := result.Metadata[parser.MetaDuplicatesRemoved].(int)
	skipped, _ := result.Metadata[parser.MetaRowsSkipped].(int)
	s.metrics.observe(string(result.FileFormat), string(result.BankSource), outcome,
		len(result.Transactions), duplicates, skipped, elapsed.Seconds())

	span.SetAttributes(
		attribute.String("import.format", string(result.FileFormat)),
		attribute.String("import.bank", string(result.BankSource)),
		attribute.Int("import.transactions", len(result.Transactions)),
		attribute.Int("import.warnings", len(result.Warnings)),
	)

	attrs := []any{
		"format", result.FileFormat,
		"bank", result.BankSource,
		"transactions", len(result.Transactions),
		"warnings", len(result.Warnings),
		"duration", elapsed,
	}
	if err := result.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("statement parse failed", append(attrs, "error", err)...)
		return out, nil
	}

	logger.Info("statement parsed", append(attrs,
		"currency", currency,
		"totals", out.Totals)...)
	for _, w := range result.Warnings {
		logger.Debug("row skipped", "warning", w)
	}
	return out, nil
}

func amountsOf(txs []parser.ParsedTransaction) []decimal.Decimal {
	out := make([]decimal.Decimal, len(txs))
	for i, tx := range txs {
		out[i] = tx.Amount
	}
	return out
}
