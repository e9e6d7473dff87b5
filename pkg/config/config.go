package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
)

// Config holds all application configuration
type Config struct {
	Parser        ParserConfig
	Observability ObservabilityConfig
	LogLevel      string
}

// ParserConfig tunes statement parsing.
type ParserConfig struct {
	MaxAmount         decimal.Decimal
	DedupeLabelPrefix int
	PreviewRows       int
	PageWorkers       int
	HeaderProbeCells  int
	// MaxFileBytes is the largest upload the service will parse.
	MaxFileBytes int64
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	opts := parser.DefaultOptions()
	return &Config{
		Parser: ParserConfig{
			MaxAmount:         opts.MaxAmount,
			DedupeLabelPrefix: opts.DedupeLabelPrefix,
			PreviewRows:       opts.PreviewRows,
			PageWorkers:       opts.PageWorkers,
			HeaderProbeCells:  opts.HeaderProbeCells,
			MaxFileBytes:      20 << 20,
		},
		Observability: ObservabilityConfig{MetricsEnabled: true},
		LogLevel:      "info",
	}
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	def := Default()
	cfg := &Config{
		Parser: ParserConfig{
			MaxAmount:         getEnvAsDecimal("PARSER_MAX_AMOUNT", def.Parser.MaxAmount),
			DedupeLabelPrefix: getEnvAsInt("PARSER_DEDUPE_LABEL_PREFIX", def.Parser.DedupeLabelPrefix),
			PreviewRows:       getEnvAsInt("PARSER_PREVIEW_ROWS", def.Parser.PreviewRows),
			PageWorkers:       getEnvAsInt("PARSER_PAGE_WORKERS", def.Parser.PageWorkers),
			HeaderProbeCells:  getEnvAsInt("PARSER_HEADER_PROBE_CELLS", def.Parser.HeaderProbeCells),
			MaxFileBytes:      getEnvAsInt64("PARSER_MAX_FILE_BYTES", def.Parser.MaxFileBytes),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", def.Observability.MetricsEnabled),
		},
		LogLevel: getEnv("LOG_LEVEL", def.LogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the parser cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if !c.Parser.MaxAmount.IsPositive() {
		errs = append(errs, errors.New("PARSER_MAX_AMOUNT must be positive"))
	}
	if c.Parser.DedupeLabelPrefix <= 0 {
		errs = append(errs, errors.New("PARSER_DEDUPE_LABEL_PREFIX must be positive"))
	}
	if c.Parser.PreviewRows < 0 {
		errs = append(errs, errors.New("PARSER_PREVIEW_ROWS must not be negative"))
	}
	if c.Parser.PageWorkers <= 0 {
		errs = append(errs, errors.New("PARSER_PAGE_WORKERS must be positive"))
	}
	if c.Parser.HeaderProbeCells <= 0 {
		errs = append(errs, errors.New("PARSER_HEADER_PROBE_CELLS must be positive"))
	}
	if c.Parser.MaxFileBytes <= 0 {
		errs = append(errs, errors.New("PARSER_MAX_FILE_BYTES must be positive"))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns LogLevel as a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Options converts the parser settings to engine options.
func (p ParserConfig) Options() []parser.Option {
	return []parser.Option{
		parser.WithMaxAmount(p.MaxAmount),
		parser.WithDedupeLabelPrefix(p.DedupeLabelPrefix),
		parser.WithPreviewRows(p.PreviewRows),
		parser.WithPageWorkers(p.PageWorkers),
		parser.WithHeaderProbeCells(p.HeaderProbeCells),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if value, err := decimal.NewFromString(valueStr); err == nil {
		return value
	}
	return defaultValue
}
