package finance

import "strings"

// PaymentMethod is how a customer settled (part of) a credit sale
type PaymentMethod string

const (
	PaymentMethodCash             PaymentMethod = "Cash"
	PaymentMethodBankTransfer     PaymentMethod = "Bank Transfer"
	PaymentMethodPOS              PaymentMethod = "POS"
	PaymentMethodCheque           PaymentMethod = "Cheque"
	PaymentMethodInternalTransfer PaymentMethod = "Internal Transfer"
)

// proofRequired is the method -> requires-proof table.
// Adding a payment method means adding a row here.
var proofRequired = map[PaymentMethod]bool{
	PaymentMethodCash:             false,
	PaymentMethodBankTransfer:     true,
	PaymentMethodPOS:              true,
	PaymentMethodCheque:           true,
	PaymentMethodInternalTransfer: true,
}

// PaymentMethods returns all supported methods in display order
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodBankTransfer,
		PaymentMethodPOS,
		PaymentMethodCheque,
		PaymentMethodInternalTransfer,
	}
}

// IsValid reports whether the method is supported
func (m PaymentMethod) IsValid() bool {
	_, ok := proofRequired[m]
	return ok
}

// RequiresProof reports whether payments with this method need a reference or receipt
func (m PaymentMethod) RequiresProof() bool {
	return proofRequired[m]
}

func (m PaymentMethod) String() string {
	return string(m)
}

// ParsePaymentMethod accepts the display name or a snake/kebab-case form,
// case-insensitively ("bank_transfer", "BANK TRANSFER", "pos").
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	key := normalizeMethodKey(s)
	for m := range proofRequired {
		if normalizeMethodKey(string(m)) == key {
			return m, true
		}
	}
	return "", false
}

func normalizeMethodKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}
