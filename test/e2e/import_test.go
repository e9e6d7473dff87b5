// Package e2etest provides end-to-end integration tests for import flows.
package e2etest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-ingest/pkg/config"
	"github.com/FACorreiaa/statement-ingest/pkg/money"
)

const testDataDir = "testdata"

func newService(t *testing.T) *service.ImportService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewImportService(config.Default().Parser, logger).
		WithMetrics(service.NewMetrics(prometheus.NewRegistry())).
		WithTracer(noop.NewTracerProvider().Tracer("e2e"))
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testDataDir, name))
	require.NoError(t, err, "Failed to read %s", name)
	require.NotEmpty(t, data, "%s is empty", name)
	return data
}

func amounts(txs []parser.ParsedTransaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Amount.StringFixed(2)
	}
	return out
}

// TestBNP_CSVImport imports a BNP Paribas export whose bank is only named
// through the IBAN of its preamble line.
func TestBNP_CSVImport(t *testing.T) {
	data := readFixture(t, "bnp_releve_janvier.csv")

	t.Run("DetectFormat", func(t *testing.T) {
		assert.Equal(t, sniffer.FormatDelimited, sniffer.DetectFormat("bnp_releve_janvier.csv", data))
	})

	t.Run("Parse", func(t *testing.T) {
		out, err := newService(t).Parse(context.Background(), data, "releve_janvier.csv", nil)
		require.NoError(t, err)
		require.NoError(t, out.Result.Err())

		assert.Equal(t, bank.BNPParibas, out.Result.BankSource)
		assert.Equal(t, "FR:30004", out.Result.Metadata[parser.MetaBankSignature])
		assert.Equal(t, ";", out.Result.Metadata[parser.MetaDelimiter])
		assert.Equal(t, 2, out.Result.Metadata[parser.MetaHeaderRow])
		assert.Equal(t, []string{"-25.30", "1500.00", "-64.12", "-40.00"}, amounts(out.Result.Transactions))
		assert.Empty(t, out.Result.Warnings)

		assert.Equal(t, "-129.42", out.Totals.Debits.String())
		assert.Equal(t, "1500.00", out.Totals.Credits.String())
		assert.Equal(t, money.EUR, out.Totals.Net.Currency())
	})
}

// TestBoursorama_CSVImport imports the native Boursorama CSV export, which
// uses ISO dates and carries a category column.
func TestBoursorama_CSVImport(t *testing.T) {
	data := readFixture(t, "boursorama_export.csv")

	out, err := newService(t).Parse(context.Background(), data, "export.csv", nil)
	require.NoError(t, err)
	require.NoError(t, out.Result.Err())

	assert.Equal(t, bank.Boursorama, out.Result.BankSource)
	require.Len(t, out.Result.Transactions, 3)

	first := out.Result.Transactions[0]
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), first.DateOp)
	require.NotNil(t, first.DateValue)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), *first.DateValue)
	assert.Equal(t, "Alimentation", first.Category)
	assert.Equal(t, []string{"-25.30", "1500.00", "-19.99"}, amounts(out.Result.Transactions))

	require.NotNil(t, out.Result.ColumnMapping)
	assert.Equal(t, 0, out.Result.ColumnMapping.Index(parser.FieldDate))
	assert.Equal(t, 1, out.Result.ColumnMapping.Index(parser.FieldValueDate))
	assert.Equal(t, 6, out.Result.ColumnMapping.Index(parser.FieldAmount))
}

// TestCGD_CSVImport imports a Caixa Geral de Depósitos statement. CGD uses
// Portuguese headers, separate debit and credit columns and dotted
// thousands.
func TestCGD_CSVImport(t *testing.T) {
	data := readFixture(t, "cgd_comprovativo.csv")

	tests := []struct {
		name    string
		content []byte
		enc     string
	}{
		{"utf-8", data, "utf-8"},
		{"windows-1252", encodeWindows1252(t, data), "windows-1252"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newService(t).Parse(context.Background(), tt.content, "comprovativo.csv", nil)
			require.NoError(t, err)
			require.NoError(t, out.Result.Err())

			assert.Equal(t, bank.CGD, out.Result.BankSource)
			assert.Equal(t, tt.enc, out.Result.Metadata[parser.MetaEncoding])
			assert.Equal(t, []string{"-25.30", "1500.00", "-12.00"}, amounts(out.Result.Transactions))
			assert.Equal(t, "COMPRA PINGO DOCE LISBOA", out.Result.Transactions[0].Label)
			assert.Equal(t, "Alimentação", out.Result.Transactions[0].Category)
		})
	}
}

func encodeWindows1252(t *testing.T, data []byte) []byte {
	t.Helper()
	out, err := charmap.Windows1252.NewEncoder().Bytes(data)
	require.NoError(t, err)
	return out
}

type exportRow struct {
	Date   string `csv:"Date"`
	Label  string `csv:"Description"`
	Amount string `csv:"Amount"`
}

// TestGenerated_CSVImport round-trips generated transactions through an
// English comma-separated export.
func TestGenerated_CSVImport(t *testing.T) {
	gen := money.NewTestDataGeneratorWithSeed(7)
	txs := gen.Transactions(money.EUR, 40)

	rows := make([]exportRow, len(txs))
	for i, tx := range txs {
		rows[i] = exportRow{
			Date:   tx.Date.Format("2006-01-02"),
			Label:  tx.Label,
			Amount: tx.Amount.String(),
		}
	}
	csvData, err := gocsv.MarshalBytes(&rows)
	require.NoError(t, err)

	out, err := newService(t).Parse(context.Background(), csvData, "statement.csv", nil)
	require.NoError(t, err)
	require.NoError(t, out.Result.Err())

	assert.Equal(t, ",", out.Result.Metadata[parser.MetaDelimiter])
	assert.Equal(t, 40, len(out.Result.Transactions)+out.Result.Metadata[parser.MetaDuplicatesRemoved].(int))
	assert.Empty(t, out.Result.Warnings)

	if out.Result.Metadata[parser.MetaDuplicatesRemoved].(int) == 0 {
		net := decimal.Zero
		for _, tx := range txs {
			net = net.Add(tx.Amount.ToDecimal())
		}
		assert.Equal(t, net.StringFixed(2), out.Totals.Net.String())
	}
}

// TestSocieteGenerale_ExcelImport builds a workbook the way the bank's web
// export lays it out: a title row, a summary sheet and the operations.
func TestSocieteGenerale_ExcelImport(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Synthèse"))
	const sheet = "Opérations"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)

	rows := [][]any{
		{"SOCIETE GENERALE - Compte courant"},
		{},
		{"Date", "Libellé", "Débit", "Crédit"},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "CARTE X1234 CARREFOUR", 25.3, nil},
		{time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), "VIR RECU ACME", nil, 1500},
		{"Total des opérations", nil, 25.3, 1500},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	out, err := newService(t).Parse(context.Background(), buf.Bytes(), "Export_SG.xlsx", nil)
	require.NoError(t, err)
	require.NoError(t, out.Result.Err())

	assert.Equal(t, sniffer.FormatSpreadsheet, out.Result.FileFormat)
	assert.Equal(t, sheet, out.Result.Metadata[parser.MetaSheet])
	assert.Equal(t, bank.SocieteGenerale, out.Result.BankSource)
	assert.Equal(t, []string{"-25.30", "1500.00"}, amounts(out.Result.Transactions))
	assert.Empty(t, out.Result.Warnings)
}

// TestIntegration_Rejections covers inputs that never produce transactions.
func TestIntegration_Rejections(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newService(t)
	ctx := context.Background()

	t.Run("pdf renamed to csv", func(t *testing.T) {
		content := []byte("%PDF-1.4\n%garbage that is not a document")
		out, err := svc.Parse(ctx, content, "releve.csv", nil)
		require.NoError(t, err)

		assert.Equal(t, sniffer.FormatDocument, out.Result.FileFormat)
		assert.ErrorIs(t, out.Result.Err(), parser.ErrUnreadableInput)
	})

	t.Run("unmappable columns expose raw headers", func(t *testing.T) {
		content := []byte("Quand;Quoi;Combien\n15/01/2024;CB CARREFOUR;-25,30\n")
		out, err := svc.Parse(ctx, content, "export.csv", nil)
		require.NoError(t, err)

		assert.ErrorIs(t, out.Result.Err(), parser.ErrUnmappableColumns)
		assert.Equal(t, []string{"Quand", "Quoi", "Combien"}, out.Result.RawColumns)
	})

	t.Run("oversized upload", func(t *testing.T) {
		cfg := config.Default().Parser
		cfg.MaxFileBytes = 64
		small := service.NewImportService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

		_, err := small.Parse(ctx, bytes.Repeat([]byte("x"), 65), "big.csv", nil)
		assert.ErrorIs(t, err, service.ErrFileTooLarge)
	})

	t.Run("binary noise", func(t *testing.T) {
		out, err := svc.Parse(ctx, []byte(strings.Repeat("\x00\x13\xfe", 10)), "blob", nil)
		require.NoError(t, err)
		assert.False(t, out.Result.Success)
		assert.NotEmpty(t, out.Result.Errors)
	})
}
