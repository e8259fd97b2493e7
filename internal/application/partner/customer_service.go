package partner

import (
	"context"
	"time"

	financeapp "github.com/bakery/ledger/internal/application/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/bakery/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService serves the customer list and profile maintenance.
// Balance and due date are never written here; they follow the customer's sales.
type CustomerService struct {
	customers partner.CustomerRepository
	txScope   financeapp.TransactionScope
	logger    *zap.Logger
	now       func() time.Time
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customers partner.CustomerRepository, txScope financeapp.TransactionScope, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customers: customers,
		txScope:   txScope,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns a page of customers ordered by name
func (s *CustomerService) List(ctx context.Context, caller shared.CallerContext, in ListCustomersInput) (*shared.Paginated[CustomerDTO], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "list")
	defer span.End()

	if err := caller.RequireRead(); err != nil {
		return nil, err
	}

	page := shared.PageRequest{Page: in.Page, PageSize: in.PageSize}.Normalize()
	customers, total, err := s.customers.FindAll(ctx, partner.CustomerFilter{
		Search:      in.Search,
		WithBalance: in.WithBalance,
		PageRequest: page,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := s.now()
	items := make([]CustomerDTO, len(customers))
	for i := range customers {
		items[i] = ToCustomerDTO(&customers[i], now)
	}
	result := shared.NewPaginated(items, total, page.Page, page.PageSize)
	return &result, nil
}

// Get returns one customer
func (s *CustomerService) Get(ctx context.Context, caller shared.CallerContext, id uuid.UUID) (*CustomerDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "get",
		telemetry.SpanAttrCustomerID, id.String(),
	)
	defer span.End()

	if err := caller.RequireRead(); err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToCustomerDTO(customer, s.now())
	return &dto, nil
}

// Create registers a credit customer with a zero balance
func (s *CustomerService) Create(ctx context.Context, caller shared.CallerContext, in CustomerInput) (*CustomerDTO, error) {
	if err := caller.RequireWrite(); err != nil {
		return nil, err
	}
	customer, err := partner.NewCustomer(in.FullName, in.Phone, in.Email, in.Address, in.CreditLimit)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos financeapp.TransactionalRepositories) error {
		if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
			return err
		}
		return repos.SaveEvents(ctx, customer.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	customer.ClearDomainEvents()

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("actor_id", caller.ActorID.String()),
	)
	dto := ToCustomerDTO(customer, s.now())
	return &dto, nil
}

// Update replaces a customer's profile and credit limit
func (s *CustomerService) Update(ctx context.Context, caller shared.CallerContext, id uuid.UUID, in CustomerInput) (*CustomerDTO, error) {
	if err := caller.RequireWrite(); err != nil {
		return nil, err
	}

	var customer *partner.Customer
	err := s.txScope.Execute(ctx, func(repos financeapp.TransactionalRepositories) error {
		var err error
		customer, err = repos.CustomerRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := customer.Revise(in.FullName, in.Phone, in.Email, in.Address, in.CreditLimit); err != nil {
			return err
		}
		return repos.CustomerRepo().SaveWithLock(ctx, customer)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer updated",
		zap.String("customer_id", customer.ID.String()),
		zap.String("actor_id", caller.ActorID.String()),
	)
	dto := ToCustomerDTO(customer, s.now())
	return &dto, nil
}
