package finance

import (
	"context"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/bakery/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// OutstandingSaleSelector lists the sales a payment can be allocated to
type OutstandingSaleSelector struct {
	customers partner.CustomerRepository
	sales     finance.CreditSaleRepository
}

// NewOutstandingSaleSelector creates a new OutstandingSaleSelector
func NewOutstandingSaleSelector(customers partner.CustomerRepository, sales finance.CreditSaleRepository) *OutstandingSaleSelector {
	return &OutstandingSaleSelector{customers: customers, sales: sales}
}

// ListOutstanding returns the customer's Unpaid and Partially Paid sales with
// a positive balance, oldest sale first. No outstanding sales is an empty list.
func (s *OutstandingSaleSelector) ListOutstanding(ctx context.Context, caller shared.CallerContext, customerID uuid.UUID) ([]SaleDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "list_outstanding",
		telemetry.SpanAttrCustomerID, customerID.String(),
	)
	defer span.End()

	if err := caller.RequireRead(); err != nil {
		return nil, err
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, asInvalidReference(err)
	}

	sales, err := s.sales.FindOutstandingByCustomer(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// settled or cancelled sales are never selectable
	selectable := make([]finance.CreditSale, 0, len(sales))
	for i := range sales {
		if sales[i].IsOutstanding() {
			selectable = append(selectable, sales[i])
		}
	}
	return ToSaleDTOs(selectable), nil
}
