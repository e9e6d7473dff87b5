package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	ErrInvalidAmount = errors.New("invalid amount format")
	ErrInvalidDate   = errors.New("invalid date format")
)

// Day-first layouts come before month-first ones: French and Iberian
// statements never write the month first, so the US forms only catch
// values such as 01/13/2024 that cannot be read day-first.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
	"02.01.2006",
	"02.01.06",
	"02-01-2006",
	"02-01-06",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"20060102",

	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,

	"01/02/2006",
	"01-02-2006",
}

// ParseDate parses a statement date. It never panics; any value that does
// not resolve to a real calendar day is reported as ErrInvalidDate.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		if t.Year() < 1900 || t.Year() > 2200 {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseSpreadsheetDate accepts everything ParseDate does plus the raw serial
// numbers spreadsheets store for date cells (45292 is 2024-01-01).
func ParseSpreadsheetDate(raw string) (time.Time, error) {
	t, err := ParseDate(raw)
	if err == nil {
		return t, nil
	}
	serial, convErr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if convErr != nil || serial < 1 || serial > 109574 {
		return time.Time{}, err
	}
	t, convErr = excelize.ExcelDateToTime(serial, false)
	if convErr != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// LooksLikeDate reports whether raw parses as a date.
func LooksLikeDate(raw string) bool {
	_, err := ParseDate(raw)
	return err == nil
}

// DateMatch is a date found inside free text.
type DateMatch struct {
	Text  string
	Start int
	End   int
	Date  time.Time
}

var (
	fullDatePattern  = regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2}))\b`)
	shortDatePattern = regexp.MustCompile(`\b\d{2}/\d{2}\b`)
)

// FindDates returns the valid dates in line, in order of appearance.
// Shapes that look like dates but name an impossible day are ignored.
func FindDates(line string) []DateMatch {
	var out []DateMatch
	for _, loc := range fullDatePattern.FindAllStringIndex(line, -1) {
		text := line[loc[0]:loc[1]]
		t, err := ParseDate(text)
		if err != nil {
			continue
		}
		out = append(out, DateMatch{Text: text, Start: loc[0], End: loc[1], Date: t})
	}
	return out
}

// StripDates blanks out full dates and short day/month references such as
// the "11/01" card networks append to a merchant name.
func StripDates(s string) string {
	s = fullDatePattern.ReplaceAllString(s, " ")
	return shortDatePattern.ReplaceAllString(s, " ")
}
