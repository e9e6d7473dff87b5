package config

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, slog.LevelInfo, cfg.Level())
	})

	t.Run("reads the environment", func(t *testing.T) {
		t.Setenv("PARSER_MAX_AMOUNT", "50000")
		t.Setenv("PARSER_DEDUPE_LABEL_PREFIX", "20")
		t.Setenv("PARSER_PREVIEW_ROWS", "0")
		t.Setenv("PARSER_PAGE_WORKERS", "4")
		t.Setenv("PARSER_HEADER_PROBE_CELLS", "2")
		t.Setenv("PARSER_MAX_FILE_BYTES", "1048576")
		t.Setenv("METRICS_ENABLED", "false")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(50000).Equal(cfg.Parser.MaxAmount))
		assert.Equal(t, 20, cfg.Parser.DedupeLabelPrefix)
		assert.Equal(t, 0, cfg.Parser.PreviewRows)
		assert.Equal(t, 4, cfg.Parser.PageWorkers)
		assert.Equal(t, 2, cfg.Parser.HeaderProbeCells)
		assert.Equal(t, int64(1048576), cfg.Parser.MaxFileBytes)
		assert.False(t, cfg.Observability.MetricsEnabled)
		assert.Equal(t, slog.LevelDebug, cfg.Level())
	})

	t.Run("malformed numbers fall back", func(t *testing.T) {
		t.Setenv("PARSER_PAGE_WORKERS", "many")
		t.Setenv("PARSER_MAX_AMOUNT", "lots")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, Default().Parser, cfg.Parser)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		tests := []struct {
			key, value string
		}{
			{"PARSER_MAX_AMOUNT", "-1"},
			{"PARSER_DEDUPE_LABEL_PREFIX", "0"},
			{"PARSER_PAGE_WORKERS", "-2"},
			{"PARSER_MAX_FILE_BYTES", "0"},
			{"LOG_LEVEL", "chatty"},
		}
		for _, tt := range tests {
			t.Run(tt.key, func(t *testing.T) {
				t.Setenv(tt.key, tt.value)
				_, err := Load()
				assert.ErrorContains(t, err, tt.key)
			})
		}
	})
}

func TestParserConfigOptions(t *testing.T) {
	cfg := Default().Parser
	cfg.PreviewRows = 2
	cfg.DedupeLabelPrefix = 8

	o := parser.New(cfg.Options()...).Options()

	assert.Equal(t, 2, o.PreviewRows)
	assert.Equal(t, 8, o.DedupeLabelPrefix)
	assert.True(t, cfg.MaxAmount.Equal(o.MaxAmount))
}
