package finance

import (
	"context"
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/bakery/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AllocatePaymentInput is a request to apply one payment to one credit sale
type AllocatePaymentInput struct {
	CustomerID    uuid.UUID
	TransactionID uuid.UUID
	Amount        decimal.Decimal
	Method        finance.PaymentMethod
	Proof         ProofSubmission
	PaymentDate   *time.Time // defaults to now
}

// PaymentAllocator validates and applies a single payment against a single sale
type PaymentAllocator struct {
	sales   finance.CreditSaleRepository
	txScope TransactionScope
	proofs  *ProofValidator
	metrics PaymentMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaymentAllocator creates a new PaymentAllocator
func NewPaymentAllocator(
	sales finance.CreditSaleRepository,
	txScope TransactionScope,
	proofs *ProofValidator,
	logger *zap.Logger,
) *PaymentAllocator {
	return &PaymentAllocator{
		sales:   sales,
		txScope: txScope,
		proofs:  proofs,
		metrics: noopPaymentMetrics{},
		logger:  logger,
		now:     time.Now,
	}
}

// WithMetrics records accepted and rejected payments on m
func (a *PaymentAllocator) WithMetrics(m PaymentMetrics) *PaymentAllocator {
	if m != nil {
		a.metrics = m
	}
	return a
}

// Allocate records the payment, updates the sale and recomputes the customer's ledger.
//
// Preconditions are checked in order and the first failure is returned:
// invalid_reference, invalid_amount, overpayment, then the proof rule.
// A receipt file is uploaded only after all of them pass. The balance check is
// repeated under a row lock in the same transaction that writes the payment,
// so concurrent allocations can never overpay a sale. If that transaction fails
// the uploaded receipt is deleted again.
func (a *PaymentAllocator) Allocate(ctx context.Context, caller shared.CallerContext, in AllocatePaymentInput) (*AllocationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "allocate",
		telemetry.SpanAttrCustomerID, in.CustomerID.String(),
		telemetry.SpanAttrTransactionID, in.TransactionID.String(),
		telemetry.SpanAttrAmount, in.Amount.String(),
		telemetry.SpanAttrPaymentMethod, string(in.Method),
		telemetry.SpanAttrActorID, caller.ActorID.String(),
	)
	defer span.End()

	log := a.logger.With(
		zap.String("customer_id", in.CustomerID.String()),
		zap.String("transaction_id", in.TransactionID.String()),
		zap.String("amount", in.Amount.String()),
		zap.String("payment_method", string(in.Method)),
		zap.String("actor_id", caller.ActorID.String()),
	)
	reject := func(err error) (*AllocationResult, error) {
		telemetry.RecordError(span, err)
		a.metrics.RecordPaymentRejected(ctx, string(in.Method), shared.ErrorCode(err))
		if code := shared.ErrorCode(err); code != "" {
			telemetry.SetAttributes(span, telemetry.SpanAttrErrorCode, code)
			log.Warn("payment rejected", zap.String("code", code), zap.Error(err))
		} else {
			log.Error("payment allocation failed", zap.Error(err))
		}
		return nil, err
	}

	if err := caller.RequireWrite(); err != nil {
		return reject(err)
	}
	if err := a.precheck(ctx, in); err != nil {
		return reject(err)
	}

	proof, stored, err := a.proofs.Resolve(ctx, in.Proof)
	if err != nil {
		return reject(err)
	}

	paidAt := a.now()
	if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
		paidAt = *in.PaymentDate
	}

	var result AllocationResult
	err = a.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, in.TransactionID)
		if err != nil {
			return asInvalidReference(err)
		}
		if !sale.BelongsTo(in.CustomerID) {
			return shared.ErrInvalidReference
		}
		if err := sale.ApplyPayment(in.Amount); err != nil {
			return err
		}

		payment, err := finance.NewPayment(sale, in.Amount, in.Method, proof, caller.ActorID, paidAt)
		if err != nil {
			return err
		}
		if err := repos.SaleRepo().SaveWithLock(ctx, sale); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return err
		}

		customer, sales, err := syncCustomerLedger(ctx, repos, sale.CustomerID)
		if err != nil {
			return err
		}

		events := []shared.DomainEvent{finance.NewPaymentRecordedEvent(sale, payment)}
		events = append(events, customer.GetDomainEvents()...)
		if err := repos.SaveEvents(ctx, events...); err != nil {
			return err
		}
		customer.ClearDomainEvents()

		result = AllocationResult{
			Payment: ToPaymentDTO(payment),
			Sale:    ToSaleDTO(sale),
			Ledger:  ToLedgerDTO(finance.BuildCustomerLedger(customer, sales, a.now())),
		}
		return nil
	})
	if err != nil {
		if stored != nil {
			if derr := a.proofs.Discard(ctx, stored); derr != nil {
				log.Error("failed to delete receipt of rejected payment",
					zap.String("key", stored.Key), zap.Error(derr))
			}
		}
		return reject(err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, result.Payment.ID.String())
	a.metrics.RecordPaymentAccepted(ctx, string(in.Method), in.Amount)
	log.Info("payment recorded",
		zap.String("payment_id", result.Payment.ID.String()),
		zap.String("sale_status", string(result.Sale.Status)),
		zap.String("balance_due", result.Sale.BalanceDue.String()),
		zap.String("customer_balance", result.Ledger.Balance.String()),
	)
	return &result, nil
}

// precheck runs the ordered preconditions against the current sale state
// without locking. Passing it does not guarantee the locked re-check passes.
func (a *PaymentAllocator) precheck(ctx context.Context, in AllocatePaymentInput) error {
	if in.CustomerID == uuid.Nil || in.TransactionID == uuid.Nil {
		return shared.ErrInvalidReference
	}
	sale, err := a.sales.FindByID(ctx, in.TransactionID)
	if err != nil {
		return asInvalidReference(err)
	}
	if !sale.BelongsTo(in.CustomerID) || sale.Status == finance.SaleStatusCancelled {
		return shared.ErrInvalidReference
	}
	if err := finance.ValidatePaymentAmount(in.Amount); err != nil {
		return err
	}
	if err := sale.CheckPayment(in.Amount); err != nil {
		return err
	}
	return a.proofs.Validate(in.Method, in.Proof)
}
