package finance

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryLedger is an in-memory store behind the ledger repositories.
// Execute runs one transaction at a time and restores a snapshot when fn fails,
// which gives the same isolation the row locks give in Postgres.
type memoryLedger struct {
	tx sync.Mutex

	mu         sync.Mutex
	customers  map[uuid.UUID]partner.Customer
	sales      map[uuid.UUID]finance.CreditSale
	payments   []finance.Payment
	events     []shared.DomainEvent
	nextNumber int64

	saveEventsErr error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		customers:  make(map[uuid.UUID]partner.Customer),
		sales:      make(map[uuid.UUID]finance.CreditSale),
		nextNumber: 100,
	}
}

func (l *memoryLedger) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	l.tx.Lock()
	defer l.tx.Unlock()

	l.mu.Lock()
	customers := make(map[uuid.UUID]partner.Customer, len(l.customers))
	for k, v := range l.customers {
		customers[k] = v
	}
	sales := make(map[uuid.UUID]finance.CreditSale, len(l.sales))
	for k, v := range l.sales {
		sales[k] = v
	}
	payments := len(l.payments)
	number := l.nextNumber
	l.mu.Unlock()

	repos := &memoryRepos{l: l}
	if err := fn(repos); err != nil {
		l.mu.Lock()
		l.customers = customers
		l.sales = sales
		l.payments = l.payments[:payments]
		l.nextNumber = number
		l.mu.Unlock()
		return err
	}

	l.mu.Lock()
	l.events = append(l.events, repos.events...)
	l.mu.Unlock()
	return nil
}

func (l *memoryLedger) customerRepo() *memoryCustomerRepo { return &memoryCustomerRepo{l: l} }
func (l *memoryLedger) saleRepo() *memorySaleRepo         { return &memorySaleRepo{l: l} }
func (l *memoryLedger) paymentRepo() *memoryPaymentRepo   { return &memoryPaymentRepo{l: l} }

func (l *memoryLedger) customer(t *testing.T, id uuid.UUID) partner.Customer {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.customers[id]
	require.True(t, ok, "customer %s not stored", id)
	return c
}

func (l *memoryLedger) sale(t *testing.T, id uuid.UUID) finance.CreditSale {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sales[id]
	require.True(t, ok, "sale %s not stored", id)
	return s
}

func (l *memoryLedger) paymentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.payments)
}

func (l *memoryLedger) eventsOfType(eventType string) []shared.DomainEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range l.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// seedCustomer stores a customer with the given credit limit
func (l *memoryLedger) seedCustomer(t *testing.T, name string, limit int64) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(name, "", "", "", decimal.NewFromInt(limit))
	require.NoError(t, err)
	c.ClearDomainEvents()
	l.mu.Lock()
	l.customers[c.ID] = *c
	l.mu.Unlock()
	return c
}

// seedSale stores an unpaid sale and brings the customer's balance in line
func (l *memoryLedger) seedSale(t *testing.T, customerID uuid.UUID, number, total int64, due *time.Time) *finance.CreditSale {
	t.Helper()
	saleDate := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(number) * time.Minute)
	s, err := finance.NewCreditSale(customerID, number, decimal.NewFromInt(total), saleDate, due)
	require.NoError(t, err)
	s.ClearDomainEvents()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sales[s.ID] = *s
	c := l.customers[customerID]
	require.NoError(t, finance.RecomputeCustomerLedger(&c, l.salesOfLocked(customerID)))
	c.ClearDomainEvents()
	l.customers[customerID] = c
	return s
}

func (l *memoryLedger) salesOfLocked(customerID uuid.UUID) []finance.CreditSale {
	var out []finance.CreditSale
	for _, s := range l.sales {
		if s.CustomerID == customerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDate.Before(out[j].SaleDate) })
	return out
}

type memoryRepos struct {
	l      *memoryLedger
	events []shared.DomainEvent
}

func (r *memoryRepos) CustomerRepo() partner.CustomerRepository { return r.l.customerRepo() }
func (r *memoryRepos) SaleRepo() finance.CreditSaleRepository   { return r.l.saleRepo() }
func (r *memoryRepos) PaymentRepo() finance.PaymentRepository   { return r.l.paymentRepo() }

func (r *memoryRepos) SaveEvents(_ context.Context, events ...shared.DomainEvent) error {
	if r.l.saveEventsErr != nil {
		return r.l.saveEventsErr
	}
	r.events = append(r.events, events...)
	return nil
}

type memoryCustomerRepo struct{ l *memoryLedger }

func (r *memoryCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	c, ok := r.l.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memoryCustomerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.FindByID(ctx, id)
}

func (r *memoryCustomerRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]partner.Customer, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	var out []partner.Customer
	for _, id := range ids {
		if c, ok := r.l.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryCustomerRepo) FindAll(_ context.Context, filter partner.CustomerFilter) ([]partner.Customer, int64, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	var out []partner.Customer
	for _, c := range r.l.customers {
		if filter.WithBalance && !c.Balance.IsPositive() {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, int64(len(out)), nil
}

func (r *memoryCustomerRepo) Save(_ context.Context, c *partner.Customer) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	stored := *c
	stored.ClearDomainEvents()
	r.l.customers[c.ID] = stored
	return nil
}

func (r *memoryCustomerRepo) SaveWithLock(_ context.Context, c *partner.Customer) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	current, ok := r.l.customers[c.ID]
	if !ok || current.Version != c.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	stored := *c
	stored.ClearDomainEvents()
	r.l.customers[c.ID] = stored
	return nil
}

type memorySaleRepo struct{ l *memoryLedger }

func (r *memorySaleRepo) FindByID(_ context.Context, id uuid.UUID) (*finance.CreditSale, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	s, ok := r.l.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (r *memorySaleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.CreditSale, error) {
	return r.FindByID(ctx, id)
}

func (r *memorySaleRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]finance.CreditSale, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	return r.l.salesOfLocked(customerID), nil
}

func (r *memorySaleRepo) FindOutstandingByCustomer(_ context.Context, customerID uuid.UUID) ([]finance.CreditSale, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	var out []finance.CreditSale
	for _, s := range r.l.salesOfLocked(customerID) {
		if s.IsOutstanding() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memorySaleRepo) NextNumber(_ context.Context) (int64, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	r.l.nextNumber++
	return r.l.nextNumber, nil
}

func (r *memorySaleRepo) Create(_ context.Context, s *finance.CreditSale) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	stored := *s
	stored.ClearDomainEvents()
	r.l.sales[s.ID] = stored
	return nil
}

func (r *memorySaleRepo) SaveWithLock(_ context.Context, s *finance.CreditSale) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	current, ok := r.l.sales[s.ID]
	if !ok || current.Version != s.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	stored := *s
	stored.ClearDomainEvents()
	r.l.sales[s.ID] = stored
	return nil
}

type memoryPaymentRepo struct{ l *memoryLedger }

func (r *memoryPaymentRepo) Create(_ context.Context, p *finance.Payment) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	r.l.payments = append(r.l.payments, *p)
	return nil
}

func (r *memoryPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*finance.Payment, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, p := range r.l.payments {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryPaymentRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]finance.Payment, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	var out []finance.Payment
	for _, p := range r.l.payments {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out, nil
}

func (r *memoryPaymentRepo) SumByTransaction(_ context.Context, transactionID uuid.UUID) (finance.PaymentTotals, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	totals := finance.PaymentTotals{Amount: decimal.Zero}
	for _, p := range r.l.payments {
		if p.TransactionID == transactionID {
			totals.Count++
			totals.Amount = totals.Amount.Add(p.Amount)
		}
	}
	return totals, nil
}

// memoryHistory joins stored payments with customers and sales
type memoryHistory struct{ l *memoryLedger }

func (h *memoryHistory) List(_ context.Context, filter finance.PaymentHistoryFilter) ([]finance.PaymentView, int64, error) {
	h.l.mu.Lock()
	defer h.l.mu.Unlock()
	var views []finance.PaymentView
	for _, p := range h.l.payments {
		v := finance.PaymentView{
			PaymentID:     p.ID,
			PaymentDate:   p.PaymentDate,
			CustomerID:    p.CustomerID,
			CustomerName:  h.l.customers[p.CustomerID].FullName,
			TransactionID: p.TransactionID,
			SaleNumber:    h.l.sales[p.TransactionID].Number,
			Amount:        p.Amount,
			Method:        p.Method,
			Proof:         p.Proof,
			RecordedBy:    p.RecordedBy,
		}
		if filter.Matches(&v) {
			views = append(views, v)
		}
	}
	sort.Slice(views, func(i, j int) bool { return filter.Sort.Less(&views[i], &views[j]) })

	total := int64(len(views))
	start := filter.Offset()
	if start > len(views) {
		start = len(views)
	}
	end := start + filter.PageSize
	if end > len(views) {
		end = len(views)
	}
	return views[start:end], total, nil
}

// MockReceiptStore is a mock implementation of ReceiptStore
type MockReceiptStore struct {
	mock.Mock
}

func (m *MockReceiptStore) Put(ctx context.Context, obj ReceiptObject) (string, error) {
	args := m.Called(ctx, obj)
	return args.String(0), args.Error(1)
}

func (m *MockReceiptStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockLedgerNotifier is a mock implementation of LedgerNotifier
type MockLedgerNotifier struct {
	mock.Mock
}

func (m *MockLedgerNotifier) NotifyLedgerChanged(ctx context.Context, customerID uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, customerID, balance)
	return args.Error(0)
}

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdfHeader = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
)

func cashier() shared.CallerContext {
	return shared.NewCallerContext(uuid.New(), shared.RoleCashier)
}

func viewer() shared.CallerContext {
	return shared.NewCallerContext(uuid.New(), shared.RoleViewer)
}

func dateAt(days int) *time.Time {
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return &d
}
