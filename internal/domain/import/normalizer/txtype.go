package normalizer

import "strings"

// TxType is the kind of operation a statement line announces before or
// after its date ("CB", "PRLV SEPA", "VIR", ...).
type TxType string

const (
	TxUnknown     TxType = ""
	TxCard        TxType = "card"
	TxTransfer    TxType = "transfer"
	TxDirectDebit TxType = "direct_debit"
	TxWithdrawal  TxType = "withdrawal"
	TxCheque      TxType = "cheque"
	TxRefund      TxType = "refund"
	TxFee         TxType = "fee"
)

type typePrefix struct {
	phrase string
	kind   TxType
	// glued prefixes are often printed without a space before the merchant
	// ("CBCARREFOUR"), so LabelCleaner may split them back apart.
	glued bool
}

// A phrase always precedes its own shorter prefixes so "PRLV SEPA" wins
// over "PRLV".
var typePrefixes = []typePrefix{
	{"PAIEMENT PAR CARTE", TxCard, false},
	{"VIREMENT SEPA RECU", TxTransfer, false},
	{"VIREMENT SEPA EMIS", TxTransfer, false},
	{"VIR SEPA RECU", TxTransfer, false},
	{"VIR INST RECU", TxTransfer, false},
	{"PRELEVEMENT SEPA", TxDirectDebit, false},
	{"RETRAIT DAB", TxWithdrawal, false},
	{"REMISE CHEQUE", TxCheque, false},
	{"REMBOURSEMENT", TxRefund, false},
	{"TRANSFERENCIA", TxTransfer, false},
	{"PRELEVEMENT", TxDirectDebit, false},
	{"PAIEMENT CB", TxCard, true},
	{"COMMISSION", TxFee, false},
	{"PRLV SEPA", TxDirectDebit, true},
	{"VIR SEPA", TxTransfer, true},
	{"VIREMENT", TxTransfer, false},
	{"RETRAIT", TxWithdrawal, false},
	{"PAGAMENTO", TxCard, false},
	{"COMPRA", TxCard, false},
	{"CHEQUE", TxCheque, false},
	{"MB WAY", TxTransfer, true},
	{"CARTE", TxCard, false},
	{"AVOIR", TxRefund, false},
	{"FRAIS", TxFee, false},
	{"PRLV", TxDirectDebit, true},
	{"REFUND", TxRefund, false},
	{"DAB", TxWithdrawal, false},
	{"CHQ", TxCheque, false},
	{"TRF", TxTransfer, false},
	{"VIR", TxTransfer, false},
	{"POS", TxCard, false},
	{"CB", TxCard, true},
}

// ClassifyType reports the operation kind announced at the start of text
// and the phrase that announced it.
func ClassifyType(text string) (TxType, string) {
	w := Words(text)
	for _, p := range typePrefixes {
		if strings.HasPrefix(w, " "+p.phrase+" ") {
			return p.kind, p.phrase
		}
	}
	return TxUnknown, ""
}

// Wording that marks money coming in. Matching is whole-word on folded,
// upper-cased text.
var creditKeywords = []string{
	"REMBOURSEMENT",
	"REMB",
	"AVOIR",
	"ANNULATION",
	"VIR RECU",
	"VIR SEPA RECU",
	"VIR INST RECU",
	"VIREMENT RECU",
	"VIREMENT SEPA RECU",
	"VIREMENT DE",
	"VIR DE",
	"REMISE CHEQUE",
	"REMISE CHQ",
	"REM CHQ",
	"SALAIRE",
	"INTERETS CREDITEURS",
	"REFUND",
	"TRANSFER RECEIVED",
	"TRANSFER FROM",
	"DEPOSIT",
	"TRANSFERENCIA RECEBIDA",
}

// IsCredit reports whether text carries refund or transfer-received
// wording. extra holds bank specific keywords.
func IsCredit(text string, extra []string) bool {
	w := Words(text)
	for _, list := range [][]string{creditKeywords, extra} {
		for _, kw := range list {
			if strings.Contains(w, " "+strings.TrimSpace(Words(kw))+" ") {
				return true
			}
		}
	}
	return false
}
