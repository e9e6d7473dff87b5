// Package bank identifies which bank produced a statement and carries the
// per-bank layout knowledge the extractors need.
package bank

// Source identifies a bank. The set is closed: adding a bank means adding a
// constant here and a profile to profiles.yaml.
type Source string

const (
	Unknown         Source = "unknown"
	Generic         Source = "generic"
	BNPParibas      Source = "bnp_paribas"
	SocieteGenerale Source = "societe_generale"
	CreditAgricole  Source = "credit_agricole"
	LCL             Source = "lcl"
	LaBanquePostale Source = "la_banque_postale"
	CaisseEpargne   Source = "caisse_epargne"
	BanquePopulaire Source = "banque_populaire"
	CreditMutuel    Source = "credit_mutuel"
	CIC             Source = "cic"
	Boursorama      Source = "boursorama"
	CGD             Source = "cgd"
)

var sources = []Source{
	Unknown, Generic,
	BNPParibas, SocieteGenerale, CreditAgricole, LCL, LaBanquePostale,
	CaisseEpargne, BanquePopulaire, CreditMutuel, CIC, Boursorama, CGD,
}

// Sources lists every known source.
func Sources() []Source {
	return append([]Source(nil), sources...)
}

// Valid reports whether s is part of the closed set.
func (s Source) Valid() bool {
	for _, known := range sources {
		if s == known {
			return true
		}
	}
	return false
}

func (s Source) String() string {
	return string(s)
}

// Specific reports whether s names an actual bank.
func (s Source) Specific() bool {
	return s != Unknown && s != Generic && s.Valid()
}
