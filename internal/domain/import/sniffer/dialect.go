package sniffer

import (
	"strings"
)

// RegionalDialect is the inferred regional formatting of amounts and dates.
type RegionalDialect struct {
	DayFirst         bool
	IsEuropeanFormat bool
}

// ProbeDialect looks at sample rows to infer whether amounts use a decimal
// comma and whether dates put the day first. amountIdx and dateIdx may be -1.
// Statements this package targets are European by default, so ties resolve
// to the comma-decimal, day-first dialect.
func ProbeDialect(sampleRows [][]string, amountIdx, dateIdx int) *RegionalDialect {
	dialect := &RegionalDialect{DayFirst: true, IsEuropeanFormat: true}

	european, us := 0, 0
	sawDayFirst, sawMonthFirst := false, false
	for _, row := range sampleRows {
		if amountIdx >= 0 && amountIdx < len(row) {
			switch hint := amountFormatHint(row[amountIdx]); {
			case hint > 0:
				european++
			case hint < 0:
				us++
			}
		}
		if dateIdx >= 0 && dateIdx < len(row) {
			switch dateOrderHint(row[dateIdx]) {
			case 1:
				sawDayFirst = true
			case -1:
				sawMonthFirst = true
			}
		}
		for _, cell := range row {
			switch {
			case strings.Contains(cell, "€") || strings.Contains(cell, "EUR"),
				strings.Contains(cell, "R$") || strings.Contains(cell, "BRL"):
				european++
			case strings.Contains(cell, "$"):
				us++
			}
		}
	}

	if us > european {
		dialect.IsEuropeanFormat = false
	}
	if sawMonthFirst && !sawDayFirst {
		dialect.DayFirst = false
	}
	return dialect
}

// amountFormatHint returns >0 for a decimal comma, <0 for a decimal point
// and 0 when the value does not tell.
func amountFormatHint(val string) int {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' {
			return r
		}
		return -1
	}, val)
	if cleaned == "" {
		return 0
	}

	comma := strings.LastIndex(cleaned, ",")
	dot := strings.LastIndex(cleaned, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return 1
		}
		return -1
	case comma >= 0:
		if len(cleaned)-comma-1 <= 2 {
			return 1
		}
	case dot >= 0:
		if len(cleaned)-dot-1 <= 2 {
			return -1
		}
	}
	return 0
}

// dateOrderHint returns 1 when the first component can only be a day,
// -1 when the second can only be a day and 0 otherwise.
func dateOrderHint(val string) int {
	parts := strings.FieldsFunc(strings.TrimSpace(val), func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) < 3 || len(parts[0]) == 4 {
		return 0
	}
	first, second := atoi(parts[0]), atoi(parts[1])
	switch {
	case first > 12 && first <= 31:
		return 1
	case second > 12 && second <= 31:
		return -1
	}
	return 0
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
