package finance

import (
	"context"
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/bakery/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// PaymentHistoryInput selects payments across customers. Zero values are not applied.
type PaymentHistoryInput struct {
	CustomerID    *uuid.UUID
	TransactionID *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	PaymentMethod string
	SortBy        string
	SortOrder     string
	Page          int
	PageSize      int
}

// PaymentHistoryService is the read model over recorded payments
type PaymentHistoryService struct {
	customers partner.CustomerRepository
	payments  finance.PaymentRepository
	history   finance.PaymentHistoryQuery
}

// NewPaymentHistoryService creates a new PaymentHistoryService
func NewPaymentHistoryService(
	customers partner.CustomerRepository,
	payments finance.PaymentRepository,
	history finance.PaymentHistoryQuery,
) *PaymentHistoryService {
	return &PaymentHistoryService{customers: customers, payments: payments, history: history}
}

// List returns one page of payments joined with customer names and sale numbers.
// Unknown sort keys fall back to payment_date descending; ties break on id ascending.
func (s *PaymentHistoryService) List(ctx context.Context, caller shared.CallerContext, in PaymentHistoryInput) (*shared.Paginated[PaymentViewDTO], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "list_history")
	defer span.End()

	if err := caller.RequireRead(); err != nil {
		return nil, err
	}

	filter := finance.PaymentHistoryFilter{
		CustomerID:    in.CustomerID,
		TransactionID: in.TransactionID,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Sort:          finance.ResolvePaymentSort(in.SortBy, in.SortOrder),
		PageRequest:   shared.PageRequest{Page: in.Page, PageSize: in.PageSize}.Normalize(),
	}
	if in.PaymentMethod != "" {
		method, ok := finance.ParsePaymentMethod(in.PaymentMethod)
		if !ok {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unsupported payment method: "+in.PaymentMethod)
		}
		filter.PaymentMethod = &method
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	views, total, err := s.history.List(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	items := make([]PaymentViewDTO, len(views))
	for i := range views {
		items[i] = ToPaymentViewDTO(&views[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListByCustomer returns every payment of one customer, newest first
func (s *PaymentHistoryService) ListByCustomer(ctx context.Context, caller shared.CallerContext, customerID uuid.UUID) ([]PaymentDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "list_by_customer",
		telemetry.SpanAttrCustomerID, customerID.String(),
	)
	defer span.End()

	if err := caller.RequireRead(); err != nil {
		return nil, err
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, asInvalidReference(err)
	}

	payments, err := s.payments.FindByCustomer(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToPaymentDTOs(payments), nil
}
