package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		currency  string
		wantCents int64
		wantCode  string
	}{
		{"euro", "12.50", EUR, 1250, EUR},
		{"negative", "-1234.56", EUR, -123456, EUR},
		{"rounds to the cent", "0.005", EUR, 1, EUR},
		{"yen has no minor unit", "1500", "JPY", 1500, "JPY"},
		{"unknown currency falls back", "3.00", "XXX1", 300, DefaultCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFromDecimal(decimal.RequireFromString(tt.amount), tt.currency)
			assert.Equal(t, tt.wantCents, m.Amount())
			assert.Equal(t, tt.wantCode, m.Currency())
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := New(1000, EUR)
	b := New(-250, EUR)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(750), sum.Amount())
	assert.True(t, b.IsNegative())
	assert.True(t, b.Negate().IsPositive())

	_, err = a.Add(New(100, USD))
	assert.Error(t, err)
}

func TestToDecimalAndString(t *testing.T) {
	m := New(-123456, EUR)
	assert.True(t, decimal.RequireFromString("-1234.56").Equal(m.ToDecimal()))
	assert.Equal(t, "-1234.56", m.String())
	assert.Contains(t, m.Display(), "€")
}

func TestNilSafety(t *testing.T) {
	var m *Money
	assert.True(t, m.IsZero())
	assert.Equal(t, int64(0), m.Amount())
	assert.Equal(t, "", m.Currency())
	assert.Equal(t, "0.00", m.String())
	assert.True(t, m.ToDecimal().IsZero())

	sum, err := m.Add(New(5, EUR))
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum.Amount())
}

func TestJSONMarshal(t *testing.T) {
	data, err := json.Marshal(New(1250, EUR))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, float64(1250), out["amount"])
	assert.Equal(t, EUR, out["currency"])
	assert.NotEmpty(t, out["display"])
}

func TestSummarize(t *testing.T) {
	amounts := []decimal.Decimal{
		decimal.RequireFromString("-25.30"),
		decimal.RequireFromString("-4.70"),
		decimal.RequireFromString("1500.00"),
	}

	totals := Summarize(amounts, EUR)
	assert.Equal(t, int64(-3000), totals.Debits.Amount())
	assert.Equal(t, int64(150000), totals.Credits.Amount())
	assert.Equal(t, int64(147000), totals.Net.Amount())
	assert.Equal(t, 3, totals.Count)

	empty := Summarize(nil, EUR)
	assert.True(t, empty.Net.IsZero())
	assert.Equal(t, EUR, empty.Net.Currency())
	assert.Equal(t, 0, empty.Count)

	unknown := Summarize(amounts[:1], "XXX1")
	assert.Equal(t, DefaultCurrency, unknown.Debits.Currency())
	assert.Equal(t, "-25.30", unknown.Net.String())
}

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"euro symbol", "Solde 1 234,56 €", EUR},
		{"euro code", "Montant (EUR)", EUR},
		{"pound", "Balance £120.00 £5.00", GBP},
		{"dollar", "Amount $4.50", USD},
		{"real is not dollar", "Valor R$ 10,00 R$ 5,00", BRL},
		{"three letter words ignored", "CB FNAC SNCF", DefaultCurrency},
		{"nothing", "", DefaultCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCurrency(tt.text))
		})
	}
}

func TestTestDataGenerator(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(42)

	t.Run("expense is negative", func(t *testing.T) {
		tx := gen.ExpenseTransaction(EUR)
		assert.True(t, tx.IsExpense)
		assert.True(t, tx.Amount.IsNegative())
		assert.NotEmpty(t, tx.Label)
	})

	t.Run("income is positive", func(t *testing.T) {
		tx := gen.IncomeTransaction(EUR)
		assert.False(t, tx.IsExpense)
		assert.True(t, tx.Amount.IsPositive())
	})

	t.Run("dates are calendar days", func(t *testing.T) {
		for _, tx := range gen.Transactions(EUR, 20) {
			assert.Zero(t, tx.Date.Hour())
			assert.Equal(t, EUR, tx.Amount.Currency())
		}
	})

	t.Run("same seed same data", func(t *testing.T) {
		a := NewTestDataGeneratorWithSeed(7).Transactions(EUR, 5)
		b := NewTestDataGeneratorWithSeed(7).Transactions(EUR, 5)
		for i := range a {
			assert.Equal(t, a[i].Label, b[i].Label)
			assert.Equal(t, a[i].Amount.Amount(), b[i].Amount.Amount())
		}
	})
}

func BenchmarkDetectCurrency(b *testing.B) {
	text := "15/01/2024 CB CARREFOUR 25,30 € 16/01/2024 PRLV SEPA EDF 64,12 €"
	for i := 0; i < b.N; i++ {
		_ = DetectCurrency(text)
	}
}

func BenchmarkSummarize(b *testing.B) {
	gen := NewTestDataGeneratorWithSeed(1)
	txs := gen.Transactions(EUR, 500)
	amounts := make([]decimal.Decimal, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount.ToDecimal()
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Summarize(amounts, EUR)
	}
}
