package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerchantDictionary_Split(t *testing.T) {
	dict := NewMerchantDictionary("BOULANGERIE PAUL")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "glued multi-word merchant",
			input:    "CB CARREFOURMARKET PARIS",
			expected: "CB CARREFOUR MARKET PARIS",
		},
		{
			name:     "two merchants glued together",
			input:    "PAYPALNETFLIX",
			expected: "PAYPAL NETFLIX",
		},
		{
			name:     "multi-word merchant inside a longer word",
			input:    "CARREFOURMARKETLYON",
			expected: "CARREFOUR MARKET LYON",
		},
		{
			name:     "bank specific merchant",
			input:    "BOULANGERIEPAUL",
			expected: "BOULANGERIE PAUL",
		},
		{
			name:     "already spaced label is untouched",
			input:    "UBER EATS PARIS",
			expected: "UBER EATS PARIS",
		},
		{
			name:     "merchant prefix of an ordinary word",
			input:    "ORANGERIE DU PARC",
			expected: "ORANGERIE DU PARC",
		},
		{
			name:     "casing is preserved",
			input:    "LeroyMerlin",
			expected: "Leroy Merlin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dict.Split(tt.input))
		})
	}
}

func TestMerchantDictionary_NilIsNoop(t *testing.T) {
	var dict *MerchantDictionary
	assert.Equal(t, "CARREFOURMARKET", dict.Split("CARREFOURMARKET"))
}
