package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/bank"
	"github.com/FACorreiaa/statement-ingest/pkg/money"
)

type statementRow struct {
	Date      string `csv:"Date opération"`
	ValueDate string `csv:"Date valeur"`
	Label     string `csv:"Libellé"`
	Amount    string `csv:"Montant"`
	Category  string `csv:"Catégorie"`
}

// generateStatement renders rows generated transactions as a
// semicolon-separated export with French number formatting.
func generateStatement(rows int) []byte {
	gen := money.NewTestDataGeneratorWithSeed(int64(rows))
	out := make([]statementRow, rows)
	for i, tx := range gen.Transactions(money.EUR, rows) {
		out[i] = statementRow{
			Date:      tx.Date.Format("02/01/2006"),
			ValueDate: tx.Date.AddDate(0, 0, 1).Format("02/01/2006"),
			Label:     tx.Label,
			Amount:    strings.Replace(tx.Amount.String(), ".", ",", 1),
			Category:  tx.Category,
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	if err := gocsv.MarshalCSV(&out, gocsv.NewSafeCSVWriter(w)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func TestGeneratedStatementParses(t *testing.T) {
	data := generateStatement(50)

	result := Parse(data, "releve.csv", nil)

	require.NoError(t, result.Err())
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 50, len(result.Transactions)+result.Metadata[MetaDuplicatesRemoved].(int))
	assert.Equal(t, 50, result.Metadata[MetaRowsTotal])
}

// BenchmarkParse compares the engine against a bare csv.Reader pass.
func BenchmarkParse(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		data := generateStatement(size)

		b.Run(fmt.Sprintf("Reader_%d_rows", size), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				r := csv.NewReader(bytes.NewReader(data))
				r.Comma = ';'
				r.FieldsPerRecord = -1
				if _, err := r.ReadAll(); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(fmt.Sprintf("Engine_%d_rows", size), func(b *testing.B) {
			e := New()
			b.SetBytes(int64(len(data)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if r := e.Parse(data, "releve.csv", nil); !r.Success {
					b.Fatal(r.Err())
				}
			}
		})
	}
}

func BenchmarkParseMemory(b *testing.B) {
	data := generateStatement(10000)
	e := New()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := e.Parse(data, "releve.csv", nil)
		_ = len(result.Transactions)
	}
}

// BenchmarkDateFormats measures parsing with each supported date shape.
func BenchmarkDateFormats(b *testing.B) {
	formats := []struct {
		name   string
		sample string
	}{
		{"ISO8601", "2024-01-15"},
		{"European", "15/01/2024"},
		{"EuropeanDots", "15.01.2024"},
		{"ShortYear", "15/01/24"},
	}

	for _, f := range formats {
		b.Run(f.name, func(b *testing.B) {
			var buf bytes.Buffer
			w := csv.NewWriter(&buf)
			w.Comma = ';'
			_ = w.Write([]string{"Date", "Libellé", "Montant"})
			for i := 0; i < 1000; i++ {
				_ = w.Write([]string{f.sample, fmt.Sprintf("CB MAGASIN %d", i), "-10,00"})
			}
			w.Flush()
			data := buf.Bytes()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = Parse(data, "releve.csv", nil)
			}
		})
	}
}

func BenchmarkPDFLines(b *testing.B) {
	x := NewDocumentExtractor(DefaultOptions())
	profile := bank.DefaultRegistry().Profile(bank.Generic)
	lines := []string{
		"15/01/2024 CB CARREFOUR 4974XXXXXXXX1234 25,30",
		"16/01/2024 16/01/2024 VIR SEPA RECU SALAIRE 1 500,00",
		"NOUVEAU SOLDE AU 31/01/2024 1 474,70",
		"Page 1/2",
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for n, l := range lines {
			_ = x.mapLine(l, n+1, 1, profile, nil)
		}
	}
}
