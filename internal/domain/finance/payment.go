package finance

import (
	"time"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an amount received against exactly one credit sale.
// Payments are immutable once recorded.
type Payment struct {
	shared.BaseEntity
	TransactionID uuid.UUID // the credit sale this payment settles
	CustomerID    uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	Proof         Proof
	PaymentDate   time.Time
	RecordedBy    uuid.UUID
}

// NewPayment builds the payment record for an allocation already applied to sale
func NewPayment(sale *CreditSale, amount decimal.Decimal, method PaymentMethod, proof Proof, recordedBy uuid.UUID, paidAt time.Time) (*Payment, error) {
	if sale == nil {
		return nil, shared.ErrInvalidReference
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unsupported payment method: "+string(method))
	}
	if method.RequiresProof() && proof.IsEmpty() {
		return nil, shared.ErrProofRequired
	}
	if proof.Value == "" {
		proof = NoProof()
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		TransactionID: sale.ID,
		CustomerID:    sale.CustomerID,
		Amount:        amount,
		Method:        method,
		Proof:         proof,
		PaymentDate:   paidAt,
		RecordedBy:    recordedBy,
	}, nil
}

// ProofValue returns the stored proof or nil when none was given
func (p *Payment) ProofValue() *string {
	if p.Proof.IsEmpty() {
		return nil
	}
	v := p.Proof.Value
	return &v
}
