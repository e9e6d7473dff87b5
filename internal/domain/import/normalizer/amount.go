package normalizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NumberHint tells ParseAmount how to read a separator it cannot
// disambiguate on its own, such as the comma in "1,234".
type NumberHint int

const (
	HintAuto NumberHint = iota
	HintEuropean
	HintUS
)

var currencyMarkers = []string{"R$", "US$", "EUR", "USD", "GBP", "CHF", "BRL", "€", "$", "£"}

var thousandsReplacer = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "", "\u2019", "")

// ParseAmount converts a raw amount cell into a signed decimal.
// It accepts currency symbols and codes, leading or trailing minus signs,
// accounting parentheses, CR/DR suffixes and either decimal separator.
func ParseAmount(raw string, hint NumberHint) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	negative := false
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "DR"):
		negative = true
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(upper, "CR"):
		s = strings.TrimSpace(s[:len(s)-2])
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "-"), strings.HasPrefix(s, "\u2212"):
		negative = true
		s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "\u2212")
	case strings.HasSuffix(s, "-"):
		negative = true
		s = strings.TrimSuffix(s, "-")
	case strings.HasPrefix(s, "+"):
		s = strings.TrimPrefix(s, "+")
	}

	s = thousandsReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' && r != '.' {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
	}

	d, err := decimal.NewFromString(canonicalNumber(s, hint))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// canonicalNumber rewrites digits with ',' and '.' separators into a plain
// "1234.56" form.
func canonicalNumber(s string, hint NumberHint) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")

	case commas == 1:
		frac := len(s) - strings.LastIndex(s, ",") - 1
		if frac == 3 && hint != HintEuropean {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.ReplaceAll(s, ",", ".")

	case commas > 1:
		return strings.ReplaceAll(s, ",", "")

	case dots == 1:
		frac := len(s) - strings.LastIndex(s, ".") - 1
		if frac == 3 && hint == HintEuropean {
			return strings.ReplaceAll(s, ".", "")
		}
		return s

	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// NormalizeDebitCredit merges separate debit and credit cells into one
// signed amount: a debit is always negative, a credit always positive.
// A zero debit next to a filled credit cell falls through to the credit.
func NormalizeDebitCredit(debit, credit string, hint NumberHint) (decimal.Decimal, error) {
	debit = strings.TrimSpace(debit)
	credit = strings.TrimSpace(credit)

	if debit == "" && credit == "" {
		return decimal.Zero, fmt.Errorf("%w: no debit or credit value", ErrInvalidAmount)
	}

	if debit != "" {
		amount, err := ParseAmount(debit, hint)
		if err != nil {
			return decimal.Zero, err
		}
		if !amount.IsZero() || credit == "" {
			return amount.Abs().Neg(), nil
		}
	}

	amount, err := ParseAmount(credit, hint)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Abs(), nil
}
