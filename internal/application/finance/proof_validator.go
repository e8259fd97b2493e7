package finance

import (
	"context"
	"net/url"
	"strings"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/shared"
)

// ProofSubmission is the proof a caller sent with a payment
type ProofSubmission struct {
	// Value is a free-text reference, or a receipt URL when Kind is ProofKindReceipt
	Value string
	// Kind optionally tags Value. Empty means a reference.
	Kind finance.ProofKind
	// Receipt is a file to upload as the proof
	Receipt *ReceiptFile
}

// ProofValidator gates payments on the method-dependent proof rule and
// turns an accepted submission into the proof stored on the payment
type ProofValidator struct {
	receipts *ReceiptUploader
}

// NewProofValidator creates a validator. receipts may be nil when uploads are not offered.
func NewProofValidator(receipts *ReceiptUploader) *ProofValidator {
	return &ProofValidator{receipts: receipts}
}

// Validate checks the submission against the method without storing anything.
// Cash always passes whatever proof fields it carries; other methods need
// exactly one of a value or a receipt file.
func (v *ProofValidator) Validate(method finance.PaymentMethod, sub ProofSubmission) error {
	if err := finance.CheckProof(method, finance.ProofSubmission{
		Reference: sub.Value,
		HasFile:   sub.Receipt != nil,
	}); err != nil {
		return err
	}
	if !method.RequiresProof() {
		return nil
	}
	if sub.Kind != "" && !sub.Kind.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Unknown proof kind: "+string(sub.Kind))
	}
	if sub.Kind == finance.ProofKindReceipt && sub.Receipt == nil && !isHTTPURL(sub.Value) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Receipt proof must be an http(s) URL")
	}
	return nil
}

// Resolve uploads the receipt file, if any, and returns the proof to record.
// The stored receipt is returned so the caller can delete it if the payment is not committed.
// A failed upload is terminal: the payment is never recorded without its proof.
func (v *ProofValidator) Resolve(ctx context.Context, sub ProofSubmission) (finance.Proof, *StoredReceipt, error) {
	if sub.Receipt != nil {
		if v.receipts == nil {
			return finance.Proof{}, nil, shared.ErrUploadFailed
		}
		stored, err := v.receipts.save(ctx, *sub.Receipt)
		if err != nil {
			return finance.Proof{}, nil, err
		}
		return finance.ReceiptProof(stored.URL), stored, nil
	}

	value := strings.TrimSpace(sub.Value)
	switch {
	case value == "":
		return finance.NoProof(), nil, nil
	case sub.Kind == finance.ProofKindReceipt && isHTTPURL(value):
		return finance.ReceiptProof(value), nil, nil
	default:
		return finance.ReferenceProof(value), nil, nil
	}
}

// Discard deletes a receipt stored by Resolve
func (v *ProofValidator) Discard(ctx context.Context, stored *StoredReceipt) error {
	if stored == nil || v.receipts == nil {
		return nil
	}
	return v.receipts.Remove(ctx, stored.Key)
}

func isHTTPURL(s string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(s))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
