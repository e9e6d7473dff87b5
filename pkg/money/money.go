// Package money provides currency-safe amounts using integer minor units
// and ISO-4217 currency codes, plus helpers to summarize and label the
// amounts recovered from a statement.
package money

import (
	"encoding/json"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	BRL = "BRL"
	CHF = "CHF"
)

// DefaultCurrency is assumed when a statement does not name one.
const DefaultCurrency = EUR

// Money represents a monetary value with currency.
// It wraps go-money for safe arithmetic and shopspring/decimal for precision calculations.
type Money struct {
	m *money.Money
}

// New creates a new Money value from minor units and a currency code.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, currencyCode)}
}

// NewFromDecimal creates Money from a decimal value, rounding to the
// currency's minor unit. Unknown currencies fall back to DefaultCurrency.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currencyCode = DefaultCurrency
		currency = money.GetCurrency(currencyCode)
	}
	multiplier := decimal.New(1, int32(currency.Fraction))
	return New(amount.Mul(multiplier).Round(0).IntPart(), currencyCode)
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the amount in minor units (cents)
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

func (m *Money) IsPositive() bool {
	return m != nil && m.m != nil && m.m.IsPositive()
}

func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Negate returns the negated value
func (m *Money) Negate() *Money {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency)
	}
	return &Money{m: m.m.Negative()}
}

// Add adds two Money values. Returns error if currencies don't match.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	result, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: result}, nil
}

// Display returns a formatted string for display (e.g., "€1,234.56")
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency).Display()
	}
	return m.m.Display()
}

// String returns the amount as a decimal string (e.g., "1234.56")
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().StringFixed(int32(m.m.Currency().Fraction))
}

// ToDecimal converts to decimal.Decimal for precise calculations
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	divisor := decimal.New(1, int32(m.m.Currency().Fraction))
	return decimal.NewFromInt(m.m.Amount()).Div(divisor)
}

func (m *Money) MarshalJSON() ([]byte, error) {
	if m == nil || m.m == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(map[string]any{
		"amount":   m.Amount(),
		"currency": m.Currency(),
		"display":  m.Display(),
	})
}

// Totals summarizes a set of signed amounts in one currency.
type Totals struct {
	Debits  *Money `json:"debits"`
	Credits *Money `json:"credits"`
	Net     *Money `json:"net"`
	Count   int    `json:"count"`
}

// Summarize adds up signed amounts: negatives are debits, positives
// credits. Unknown currencies fall back to DefaultCurrency.
func Summarize(amounts []decimal.Decimal, currencyCode string) Totals {
	if money.GetCurrency(currencyCode) == nil {
		currencyCode = DefaultCurrency
	}
	debits, credits := Zero(currencyCode), Zero(currencyCode)
	for _, a := range amounts {
		v := NewFromDecimal(a, currencyCode)
		// Operands share one currency, so Add cannot fail.
		if v.IsNegative() {
			debits, _ = debits.Add(v)
		} else {
			credits, _ = credits.Add(v)
		}
	}
	net, _ := debits.Add(credits)
	return Totals{
		Debits:  debits,
		Credits: credits,
		Net:     net,
		Count:   len(amounts),
	}
}

// Currency markers in the order they are tried. Multi-rune symbols that
// contain "$" come before it.
var currencyMarkers = []struct {
	marker string
	code   string
}{
	{"R$", BRL},
	{"US$", USD},
	{"€", EUR},
	{"£", GBP},
	{"$", USD},
}

// DetectCurrency returns the ISO code of the currency most mentioned in
// text, by symbol or by code, or DefaultCurrency when none is found.
func DetectCurrency(text string) string {
	counts := make(map[string]int)
	rest := text
	for _, cm := range currencyMarkers {
		counts[cm.code] += strings.Count(rest, cm.marker)
		rest = strings.ReplaceAll(rest, cm.marker, " ")
	}
	for _, field := range strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return r < 'A' || r > 'Z'
	}) {
		if len(field) == 3 && isKnownCode(field) {
			counts[field]++
		}
	}

	best, bestCount := DefaultCurrency, 0
	for _, code := range []string{EUR, USD, GBP, BRL, CHF} {
		if counts[code] > bestCount {
			best, bestCount = code, counts[code]
		}
	}
	return best
}

// isKnownCode limits code detection to currencies a statement is likely
// to carry, so that three-letter words in labels do not count.
func isKnownCode(code string) bool {
	switch code {
	case EUR, USD, GBP, BRL, CHF:
		return money.GetCurrency(code) != nil
	}
	return false
}
