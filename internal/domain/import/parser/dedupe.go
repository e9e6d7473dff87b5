package parser

import (
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// DedupeKey identifies a transaction for duplicate detection: its calendar
// date, the first prefix runes of its compacted label and its amount to
// the cent.
func DedupeKey(tx ParsedTransaction, prefix int) string {
	label := []rune(normalizer.Compact(tx.Label))
	if prefix > 0 && len(label) > prefix {
		label = label[:prefix]
	}
	return tx.DateOp.Format("2006-01-02") + "|" + string(label) + "|" + tx.Amount.Round(2).StringFixed(2)
}

// Dedupe keeps the first transaction of each key and reports how many were
// dropped. The surviving key set does not depend on input order.
func Dedupe(txs []ParsedTransaction, prefix int) ([]ParsedTransaction, int) {
	seen := make(map[string]struct{}, len(txs))
	out := make([]ParsedTransaction, 0, len(txs))
	for _, tx := range txs {
		key := DedupeKey(tx, prefix)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tx)
	}
	return out, len(txs) - len(out)
}
