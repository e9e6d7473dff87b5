package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// matchRule reports whether a normalized header (folded, lower-cased,
// punctuation reduced to single spaces) names a field.
type matchRule func(h string) bool

type columnRule struct {
	field Field
	rules []matchRule
}

// columnRules is evaluated field by field, rule by rule. A header claimed
// by an earlier field is not offered to later ones, which is why value
// dates come before dates and debit/credit before amount.
var columnRules = []columnRule{
	{FieldValueDate, []matchRule{
		containsAny("date valeur", "date de valeur", "value date", "data valor", "data de valor", "fecha valor", "date val", "dateval"),
		equals("valeur", "val"),
	}},
	{FieldDate, []matchRule{
		containsAll("date", "op"),
		equals("date", "data", "fecha", "datum", "jour", "dt"),
		containsAny("data mov", "data lanc", "booking date", "transaction date", "posting date", "date comptable", "fecha operacion"),
		except(containsAny("date", "data", "fecha", "datum"), "valeur", "valor", "naissance"),
	}},
	{FieldDebit, []matchRule{
		containsAny("debit", "cargo", "money out", "withdrawal", "sortie", "depense", "paid out"),
		nearMiss("debit", "debito"),
	}},
	{FieldCredit, []matchRule{
		containsAny("credit", "abono", "money in", "deposit", "entree", "recette", "paid in"),
		nearMiss("credit", "credito"),
	}},
	{FieldAmount, []matchRule{
		except(containsAny("montant", "amount", "valor", "importe", "somme", "montante", "value", "sum"), "date", "data"),
		equals("eur", "euros", "mouvement", "movimento"),
		nearMiss("montant", "amount", "importe"),
	}},
	{FieldLabel, []matchRule{
		containsAny("libelle", "intitule", "description", "descri", "merchant", "payee", "details", "detail", "memo", "wording", "beneficiaire", "concepto"),
		equals("operation", "operations", "nature", "label", "narrative", "reference"),
		containsAny("nature"),
		nearMiss("libelle", "description", "descricao"),
	}},
	{FieldCategory, []matchRule{
		containsAny("categ", "tipo", "type", "rubrique"),
	}},
}

// MapColumns infers a column mapping from header names. When explicit is
// non-nil it replaces inference entirely and only has its names resolved.
func MapColumns(headers []string, explicit *ColumnMapping) (ColumnMapping, error) {
	if explicit != nil {
		return explicit.resolve(headers, len(headers))
	}
	return inferColumns(headers), nil
}

func inferColumns(headers []string) ColumnMapping {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = headerKey(h)
	}

	var m ColumnMapping
	claimed := make([]bool, len(headers))
	for _, cr := range columnRules {
	rules:
		for _, rule := range cr.rules {
			for i, key := range keys {
				if claimed[i] || key == "" || !rule(key) {
					continue
				}
				claimed[i] = true
				m.Set(cr.field, &Column{Name: strings.TrimSpace(headers[i]), Index: i})
				break rules
			}
		}
	}
	return m
}

func containsAny(parts ...string) matchRule {
	return func(h string) bool {
		for _, p := range parts {
			if strings.Contains(h, p) {
				return true
			}
		}
		return false
	}
}

func containsAll(parts ...string) matchRule {
	return func(h string) bool {
		for _, p := range parts {
			if !strings.Contains(h, p) {
				return false
			}
		}
		return true
	}
}

func equals(vals ...string) matchRule {
	return func(h string) bool {
		for _, v := range vals {
			if h == v {
				return true
			}
		}
		return false
	}
}

func except(rule matchRule, excluded ...string) matchRule {
	return func(h string) bool {
		if !rule(h) {
			return false
		}
		for _, e := range excluded {
			if strings.Contains(h, e) {
				return false
			}
		}
		return true
	}
}

// nearMiss catches single-word headers one edit away from a known name
// ("libele", "descripton"). Short words are left alone.
func nearMiss(words ...string) matchRule {
	return func(h string) bool {
		if strings.Contains(h, " ") || utf8.RuneCountInString(h) < 5 {
			return false
		}
		for _, w := range words {
			if utf8.RuneCountInString(w) >= 5 && levenshtein.ComputeDistance(h, w) <= 1 {
				return true
			}
		}
		return false
	}
}
