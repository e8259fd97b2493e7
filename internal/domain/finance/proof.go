package finance

import (
	"strings"

	"github.com/bakery/ledger/internal/domain/shared"
)

// ProofKind tells how a payment's proof value should be read
type ProofKind string

const (
	ProofKindNone      ProofKind = "none"
	ProofKindReference ProofKind = "reference" // free-text reference such as a bank or POS slip number
	ProofKindReceipt   ProofKind = "receipt"   // URL of an uploaded receipt image or PDF
)

// IsValid reports whether the kind is known
func (k ProofKind) IsValid() bool {
	switch k {
	case ProofKindNone, ProofKindReference, ProofKindReceipt:
		return true
	}
	return false
}

// Proof is the evidence attached to a payment
type Proof struct {
	Kind  ProofKind
	Value string
}

// NoProof is the proof of a cash payment recorded without evidence
func NoProof() Proof {
	return Proof{Kind: ProofKindNone}
}

// ReferenceProof wraps a free-text reference
func ReferenceProof(ref string) Proof {
	return Proof{Kind: ProofKindReference, Value: strings.TrimSpace(ref)}
}

// ReceiptProof wraps the URL returned by the receipt store
func ReceiptProof(url string) Proof {
	return Proof{Kind: ProofKindReceipt, Value: url}
}

// IsEmpty reports whether no evidence is attached
func (p Proof) IsEmpty() bool {
	return p.Kind == ProofKindNone || p.Value == ""
}

// ProofSubmission is what the caller supplied before any receipt is stored
type ProofSubmission struct {
	Reference string
	HasFile   bool
}

// CheckProof applies the method-dependent proof rule to a submission.
// Cash is always accepted. Other methods need exactly one of a non-blank
// reference or an uploaded file.
func CheckProof(method PaymentMethod, sub ProofSubmission) error {
	if !method.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Unsupported payment method: "+string(method))
	}
	if !method.RequiresProof() {
		return nil
	}
	hasRef := strings.TrimSpace(sub.Reference) != ""
	switch {
	case hasRef && sub.HasFile:
		return shared.ErrProofConflict
	case !hasRef && !sub.HasFile:
		return shared.ErrProofRequired
	}
	return nil
}
