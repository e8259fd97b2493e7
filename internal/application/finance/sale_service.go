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

// RecordSaleInput describes a sale made on credit
type RecordSaleInput struct {
	CustomerID  uuid.UUID
	TotalAmount decimal.Decimal
	SaleDate    *time.Time
	DueDate     *time.Time
}

// SaleDetailDTO is a sale with the totals of the payments recorded against it
type SaleDetailDTO struct {
	SaleDTO
	PaymentCount int64           `json:"payment_count"`
	PaymentTotal decimal.Decimal `json:"payment_total"`
}

// SaleService records and cancels credit sales on behalf of the checkout
// collaborator and keeps the customer ledger in step with them
type SaleService struct {
	sales    finance.CreditSaleRepository
	payments finance.PaymentRepository
	txScope  TransactionScope
	logger   *zap.Logger
	now      func() time.Time
}

// NewSaleService creates a new SaleService
func NewSaleService(
	sales finance.CreditSaleRepository,
	payments finance.PaymentRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		sales:    sales,
		payments: payments,
		txScope:  txScope,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordCreditSale creates an unpaid sale and recomputes the customer's balance and due date.
// The credit limit is advisory: exceeding it is logged, not rejected.
func (s *SaleService) RecordCreditSale(ctx context.Context, caller shared.CallerContext, in RecordSaleInput) (*SaleDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "record",
		telemetry.SpanAttrCustomerID, in.CustomerID.String(),
		telemetry.SpanAttrAmount, in.TotalAmount.String(),
	)
	defer span.End()

	if err := caller.RequireWrite(); err != nil {
		return nil, err
	}

	saleDate := s.now()
	if in.SaleDate != nil && !in.SaleDate.IsZero() {
		saleDate = *in.SaleDate
	}

	var out SaleDTO
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.CustomerRepo().FindByIDForUpdate(ctx, in.CustomerID); err != nil {
			return asInvalidReference(err)
		}
		number, err := repos.SaleRepo().NextNumber(ctx)
		if err != nil {
			return err
		}
		sale, err := finance.NewCreditSale(in.CustomerID, number, in.TotalAmount, saleDate, in.DueDate)
		if err != nil {
			return err
		}
		if err := repos.SaleRepo().Create(ctx, sale); err != nil {
			return err
		}

		customer, _, err := syncCustomerLedger(ctx, repos, in.CustomerID)
		if err != nil {
			return err
		}
		events := append(sale.GetDomainEvents(), customer.GetDomainEvents()...)
		if err := repos.SaveEvents(ctx, events...); err != nil {
			return err
		}
		sale.ClearDomainEvents()
		customer.ClearDomainEvents()

		if customer.IsOverLimit() {
			s.logger.Warn("customer balance exceeds credit limit",
				zap.String("customer_id", customer.ID.String()),
				zap.String("balance", customer.Balance.String()),
				zap.String("credit_limit", customer.CreditLimit.String()),
			)
		}
		out = ToSaleDTO(sale)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrSaleNumber, out.Number)
	s.logger.Info("credit sale recorded",
		zap.String("sale_id", out.ID.String()),
		zap.Int64("number", out.Number),
		zap.String("customer_id", out.CustomerID.String()),
		zap.String("total", out.TotalAmount.String()),
		zap.String("actor_id", caller.ActorID.String()),
	)
	return &out, nil
}

// CancelSale voids a sale that has no payments and recomputes the customer's ledger
func (s *SaleService) CancelSale(ctx context.Context, caller shared.CallerContext, saleID uuid.UUID) (*SaleDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "cancel",
		telemetry.SpanAttrTransactionID, saleID.String(),
	)
	defer span.End()

	if err := caller.RequireWrite(); err != nil {
		return nil, err
	}

	var out SaleDTO
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return asInvalidReference(err)
		}
		if err := sale.Cancel(); err != nil {
			return err
		}
		if err := repos.SaleRepo().SaveWithLock(ctx, sale); err != nil {
			return err
		}

		customer, _, err := syncCustomerLedger(ctx, repos, sale.CustomerID)
		if err != nil {
			return err
		}
		events := append(sale.GetDomainEvents(), customer.GetDomainEvents()...)
		if err := repos.SaveEvents(ctx, events...); err != nil {
			return err
		}
		sale.ClearDomainEvents()
		customer.ClearDomainEvents()

		out = ToSaleDTO(sale)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("credit sale cancelled",
		zap.String("sale_id", out.ID.String()),
		zap.Int64("number", out.Number),
		zap.String("actor_id", caller.ActorID.String()),
	)
	return &out, nil
}

// GetSale returns a sale with its payment totals
func (s *SaleService) GetSale(ctx context.Context, caller shared.CallerContext, saleID uuid.UUID) (*SaleDetailDTO, error) {
	if err := caller.RequireRead(); err != nil {
		return nil, err
	}
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	totals, err := s.payments.SumByTransaction(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleDetailDTO{
		SaleDTO:      ToSaleDTO(sale),
		PaymentCount: totals.Count,
		PaymentTotal: totals.Amount,
	}, nil
}

// ListByCustomer returns every sale of the customer, oldest first, cancelled ones included
func (s *SaleService) ListByCustomer(ctx context.Context, caller shared.CallerContext, customerID uuid.UUID) ([]SaleDTO, error) {
	if err := caller.RequireRead(); err != nil {
		return nil, err
	}
	sales, err := s.sales.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToSaleDTOs(sales), nil
}
