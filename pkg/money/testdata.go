package money

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic statement lines using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(0)}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// TestTransaction is one generated statement line.
type TestTransaction struct {
	Date      time.Time
	Label     string
	Amount    *Money
	Category  string
	IsExpense bool
}

// Transaction generates a single statement line dated within the last year.
func (g *TestDataGenerator) Transaction(currency string) TestTransaction {
	if g.faker.Number(0, 4) == 0 {
		return g.IncomeTransaction(currency)
	}
	return g.ExpenseTransaction(currency)
}

// Transactions generates count statement lines.
func (g *TestDataGenerator) Transactions(currency string, count int) []TestTransaction {
	txs := make([]TestTransaction, count)
	for i := range txs {
		txs[i] = g.Transaction(currency)
	}
	return txs
}

// ExpenseTransaction generates a card payment, direct debit or withdrawal.
func (g *TestDataGenerator) ExpenseTransaction(currency string) TestTransaction {
	return TestTransaction{
		Date:      g.date(),
		Label:     g.faker.RandomString(expensePrefixes) + " " + g.Merchant(),
		Amount:    g.RandomAmount(currency, 100, 50000).Negate(),
		Category:  g.faker.RandomString(expenseCategories),
		IsExpense: true,
	}
}

// IncomeTransaction generates an incoming transfer.
func (g *TestDataGenerator) IncomeTransaction(currency string) TestTransaction {
	return TestTransaction{
		Date:     g.date(),
		Label:    g.faker.RandomString(incomeLabels) + " " + g.faker.LastName(),
		Amount:   g.RandomAmount(currency, 50000, 500000),
		Category: "Revenus",
	}
}

// RandomAmount generates a random Money value within a cent range.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	return NewFromDecimal(decimal.New(int64(g.faker.Number(int(minCents), int(maxCents))), -2), currency)
}

// Merchant returns a random merchant name.
func (g *TestDataGenerator) Merchant() string {
	return g.faker.RandomString(merchants)
}

func (g *TestDataGenerator) date() time.Time {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	d := g.faker.DateRange(end.AddDate(-1, 0, 0), end)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

var expensePrefixes = []string{"CB", "PAIEMENT CB", "PRLV SEPA", "RETRAIT DAB"}

var incomeLabels = []string{"VIR SEPA RECU", "VIREMENT RECU", "REMBOURSEMENT"}

var expenseCategories = []string{
	"Alimentation", "Transport", "Logement", "Loisirs", "Santé", "Abonnements",
}

var merchants = []string{
	"CARREFOUR", "CARREFOUR MARKET", "AUCHAN", "LECLERC", "MONOPRIX", "FNAC",
	"SNCF", "TOTALENERGIES", "AMAZON", "NETFLIX", "DECATHLON", "LIDL",
}
