package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	t.Run("every specific source has a profile", func(t *testing.T) {
		for _, s := range Sources() {
			if !s.Specific() {
				continue
			}
			assert.Equal(t, s, r.Profile(s).Source, s)
		}
	})

	t.Run("generic markers are inherited", func(t *testing.T) {
		p := r.Profile(BNPParibas)
		assert.Contains(t, p.Markers, "NOUVEAU SOLDE")
		assert.Contains(t, p.Markers, "BNP PARIBAS SA AU CAPITAL")
	})

	t.Run("unknown falls back to generic layout", func(t *testing.T) {
		p := r.Profile(Unknown)
		assert.Equal(t, Unknown, p.Source)
		assert.Empty(t, p.Layout)
		assert.NotEmpty(t, p.Markers)
	})

	t.Run("layouts only use known roles", func(t *testing.T) {
		for _, p := range r.Profiles() {
			assert.Contains(t, p.Layout, RoleDate, p.Source)
			assert.Contains(t, p.TableLayout, RoleDate, p.Source)
		}
	})
}

func TestLoadRegistry_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{
			name: "unknown id",
			yaml: "- id: generic\n- id: revolut\n",
			err:  ErrUnknownSource,
		},
		{
			name: "duplicate id",
			yaml: "- id: generic\n- id: lcl\n- id: lcl\n",
			err:  ErrDuplicateProfile,
		},
		{
			name: "bad role",
			yaml: "- id: generic\n- id: lcl\n  layout: [date, balance]\n",
			err:  ErrInvalidLayout,
		},
		{
			name: "missing generic",
			yaml: "- id: lcl\n",
			err:  ErrNoGenericProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadRegistry([]byte("- id: [unterminated"))
		assert.Error(t, err)
	})
}

func TestRegistry_Detect(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name      string
		text      string
		filename  string
		expected  Source
		signature string
	}{
		{
			name:      "name with accents",
			text:      "Relevé de compte\nSociété Générale - Agence Paris Opéra",
			expected:  SocieteGenerale,
			signature: "SOCIETE GENERALE",
		},
		{
			name:      "iban bank code",
			text:      "IBAN : FR76 3000 4008 2800 0101 2345 678",
			expected:  BNPParibas,
			signature: "FR:30004",
		},
		{
			name:      "compact iban",
			text:      "IBAN FR7620041010050500013M02606",
			expected:  LaBanquePostale,
			signature: "FR:20041",
		},
		{
			name:      "rib code banque",
			text:      "Code banque : 40618 Code guichet : 80001",
			expected:  Boursorama,
			signature: "FR:40618",
		},
		{
			name:      "bic",
			text:      "BIC CMCIFR2A",
			expected:  CreditMutuel,
			signature: "CMCIFR2A",
		},
		{
			name:     "filename only",
			filename: "releve_lcl_janvier.csv",
			expected: LCL,
		},
		{
			name:     "first listed bank wins",
			text:     "CREDIT AGRICOLE ... VIR SEPA BNP PARIBAS",
			expected: BNPParibas,
		},
		{
			name:      "heading outranks a transfer label",
			text:      "LCL\nRELEVE DE COMPTE COURANT\nM DUPONT\n\n\nDate;Libellé;Montant\n15/01/2024;VIR SEPA BNP;-20,00",
			expected:  LCL,
			signature: "LCL",
		},
		{
			name:      "bank code outranks a name",
			text:      "RELEVE\nIBAN FR76 3000 2005 5000 0015 7845 Z02\n\n\n\n\n15/01/2024 VIR SEPA BNP PARIBAS 20,00",
			expected:  LCL,
			signature: "FR:30002",
		},
		{
			name:     "portuguese bank",
			text:     "Caixa Geral de Depósitos\nPT50 0035 0000 1234 5678 9012 3",
			expected: CGD,
		},
		{
			name:     "token must be a whole word",
			text:     "CBCIC LIBRAIRIE SGX",
			expected: Generic,
		},
		{
			name:     "nothing recognizable",
			text:     "Date;Description;Amount",
			expected: Generic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.Detect(tt.text, tt.filename)
			assert.Equal(t, tt.expected, m.Source)
			if tt.signature != "" {
				assert.Equal(t, tt.signature, m.Signature)
			}
		})
	}
}

func TestSource(t *testing.T) {
	require.True(t, LCL.Valid())
	assert.False(t, Source("revolut").Valid())
	assert.True(t, CGD.Specific())
	assert.False(t, Generic.Specific())
	assert.False(t, Unknown.Specific())
	assert.Equal(t, "bnp_paribas", BNPParibas.String())
}
