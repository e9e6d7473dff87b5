// Package sniffer works out what an uploaded statement is: its container
// format, its text encoding and, for delimited text, the delimiter, the
// header row and the regional number dialect.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// Header keywords, folded and lower-cased (multi-language).
var headerKeywords = []string{
	// French
	"date", "libelle", "intitule", "debit", "credit", "montant", "valeur",
	"operation", "solde", "categorie", "nature", "devise", "reference",
	// Portuguese
	"data mov", "descricao", "data valor", "saldo", "moeda",
	// English
	"description", "amount", "balance", "category", "merchant", "details", "memo",
	// Spanish
	"fecha", "descripcion", "importe", "cargo", "abono",
}

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

const (
	headerSearchDepth = 20
	delimiterSample   = 10
)

var delimiters = []rune{';', '\t', ',', '|'}

// DetectDelimiter picks the delimiter whose per-line count is the most
// consistent across the first non-empty lines. Ties go to the earlier
// entry of ; TAB , | since commas are also decimal separators in Europe.
// It returns 0 when none of them appears at all.
func DetectDelimiter(lines []string) rune {
	var sample []string
	for i, line := range lines {
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) == delimiterSample {
			break
		}
	}
	if len(sample) == 0 {
		return 0
	}

	best, bestScore := rune(0), 0
	for _, d := range delimiters {
		counts := make(map[int]int)
		present := 0
		for _, line := range sample {
			if n := strings.Count(line, string(d)); n > 0 {
				counts[n]++
				present++
			}
		}
		if present == 0 {
			continue
		}
		mode := 0
		for _, c := range counts {
			mode = max(mode, c)
		}
		// Lines carrying the delimiter with the modal count, minus the ones
		// without it at all. Preamble lines cost a little, not everything.
		score := mode*2 - (len(sample) - present)
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

// FindHeaderRow returns the index of the header among the first records.
// Rows are scored by how many cells carry a header keyword and how many
// cells are filled; rows containing a date are data, never headers.
func FindHeaderRow(records [][]string) (int, error) {
	if len(records) == 0 {
		return 0, ErrEmptyFile
	}

	bestIdx, bestScore := -1, 0
	fallbackIdx, fallbackCols := -1, 0
	for i, record := range records {
		if i >= headerSearchDepth {
			break
		}
		filled, keywords, dated := 0, 0, false
		for _, cell := range record {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			filled++
			if normalizer.LooksLikeDate(cell) {
				dated = true
				break
			}
			if hasHeaderKeyword(cell) {
				keywords++
			}
		}
		if dated || filled < 2 {
			continue
		}
		if keywords > 0 {
			if score := keywords*10 + filled; score > bestScore {
				bestIdx, bestScore = i, score
			}
		} else if filled > fallbackCols {
			fallbackIdx, fallbackCols = i, filled
		}
	}

	if bestIdx >= 0 {
		return bestIdx, nil
	}
	if fallbackIdx >= 0 {
		return fallbackIdx, nil
	}
	return 0, ErrNoHeadersFound
}

func hasHeaderKeyword(cell string) bool {
	folded := strings.ToLower(normalizer.Fold(cell))
	for _, kw := range headerKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// Fingerprint hashes the normalized header names so that two exports of
// the same bank layout share a fingerprint.
func Fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		if clean := strings.ToLower(normalizer.Compact(h)); clean != "" {
			normalized = append(normalized, clean)
		}
	}
	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}
