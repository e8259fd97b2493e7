package finance

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var allocatorNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type allocatorFixture struct {
	ledger    *memoryLedger
	store     *MockReceiptStore
	allocator *PaymentAllocator
	logs      *observer.ObservedLogs
	customer  *partner.Customer
}

func newAllocatorFixture(t *testing.T) *allocatorFixture {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ledger := newMemoryLedger()
	store := &MockReceiptStore{}
	uploader := NewReceiptUploader(store, 0, logger)
	uploader.now = func() time.Time { return allocatorNow }

	allocator := NewPaymentAllocator(ledger.saleRepo(), ledger, NewProofValidator(uploader), logger)
	allocator.now = func() time.Time { return allocatorNow }

	return &allocatorFixture{
		ledger:    ledger,
		store:     store,
		allocator: allocator,
		logs:      logs,
		customer:  ledger.seedCustomer(t, "Ama Mensah", 10000),
	}
}

func (f *allocatorFixture) cash(sale *finance.CreditSale, amount int64) AllocatePaymentInput {
	return AllocatePaymentInput{
		CustomerID:    sale.CustomerID,
		TransactionID: sale.ID,
		Amount:        decimal.NewFromInt(amount),
		Method:        finance.PaymentMethodCash,
	}
}

func pngReceipt() *ReceiptFile {
	return &ReceiptFile{Filename: "receipt.png", Size: int64(len(pngHeader)), Content: bytes.NewReader(pngHeader)}
}

func TestPaymentAllocator_PartialThenFullCashPayment(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 5000, dateAt(30))

	first, err := f.allocator.Allocate(context.Background(), cashier(), f.cash(sale, 2000))
	require.NoError(t, err)
	assert.True(t, first.Sale.BalanceDue.Equal(decimal.NewFromInt(3000)))
	assert.True(t, first.Sale.AmountPaid.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, finance.SaleStatusPartiallyPaid, first.Sale.Status)
	assert.Nil(t, first.Payment.Proof)
	assert.Equal(t, finance.ProofKindNone, first.Payment.ProofKind)
	assert.True(t, first.Ledger.Balance.Equal(decimal.NewFromInt(3000)))

	second, err := f.allocator.Allocate(context.Background(), cashier(), f.cash(sale, 3000))
	require.NoError(t, err)
	assert.True(t, second.Sale.BalanceDue.IsZero())
	assert.Equal(t, finance.SaleStatusPaid, second.Sale.Status)
	assert.True(t, second.Ledger.Balance.IsZero())
	assert.Nil(t, second.Ledger.DueDate)
	assert.False(t, second.Ledger.Overdue)

	stored := f.ledger.sale(t, sale.ID)
	require.NoError(t, stored.CheckInvariants())
	assert.Equal(t, 2, f.ledger.paymentCount())
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestPaymentAllocator_OverpaymentLeavesBalancesUnchanged(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 101, 1000, dateAt(30))

	_, err := f.allocator.Allocate(context.Background(), cashier(), f.cash(sale, 1500))
	require.Error(t, err)
	assert.Equal(t, shared.CodeOverpayment, shared.ErrorCode(err))

	stored := f.ledger.sale(t, sale.ID)
	assert.True(t, stored.BalanceDue.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, finance.SaleStatusUnpaid, stored.Status)
	assert.True(t, f.ledger.customer(t, f.customer.ID).Balance.Equal(decimal.NewFromInt(1000)))
	assert.Zero(t, f.ledger.paymentCount())

	warnings := f.logs.FilterMessage("payment rejected").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
	assert.Equal(t, shared.CodeOverpayment, warnings[0].ContextMap()["code"])
}

func TestPaymentAllocator_ProofRequiredForPOS(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	in := f.cash(sale, 500)
	in.Method = finance.PaymentMethodPOS
	_, err := f.allocator.Allocate(context.Background(), cashier(), in)
	assert.ErrorIs(t, err, shared.ErrProofRequired)
	assert.Zero(t, f.ledger.paymentCount())
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestPaymentAllocator_CustomerBalanceFollowsSales(t *testing.T) {
	f := newAllocatorFixture(t)
	first := f.ledger.seedSale(t, f.customer.ID, 100, 1000, dateAt(10))
	f.ledger.seedSale(t, f.customer.ID, 101, 500, dateAt(20))

	before := f.ledger.customer(t, f.customer.ID)
	assert.True(t, before.Balance.Equal(decimal.NewFromInt(1500)))
	require.NotNil(t, before.DueDate)
	assert.True(t, before.DueDate.Equal(*dateAt(10)))

	result, err := f.allocator.Allocate(context.Background(), cashier(), f.cash(first, 1000))
	require.NoError(t, err)

	after := f.ledger.customer(t, f.customer.ID)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(500)))
	require.NotNil(t, after.DueDate)
	assert.True(t, after.DueDate.Equal(*dateAt(20)), "due date moves to the next sale still owing")
	assert.True(t, result.Ledger.Balance.Equal(after.Balance))
	assert.Equal(t, 1, result.Ledger.OutstandingSales)

	// recomputing without an intervening mutation changes nothing
	sales, err := f.ledger.saleRepo().FindByCustomer(context.Background(), f.customer.ID)
	require.NoError(t, err)
	version := after.Version
	require.NoError(t, finance.RecomputeCustomerLedger(&after, sales))
	assert.Equal(t, version, after.Version)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(500)))
}

func TestPaymentAllocator_SavesEvents(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)
	caller := cashier()

	result, err := f.allocator.Allocate(context.Background(), caller, f.cash(sale, 400))
	require.NoError(t, err)

	recorded := f.ledger.eventsOfType(finance.EventTypePaymentRecorded)
	require.Len(t, recorded, 1)
	e := recorded[0].(*finance.PaymentRecordedEvent)
	assert.Equal(t, result.Payment.ID, e.PaymentID)
	assert.Equal(t, sale.ID, e.TransactionID)
	assert.Equal(t, caller.ActorID, e.RecordedBy)
	assert.True(t, e.BalanceDue.Equal(decimal.NewFromInt(600)))

	changed := f.ledger.eventsOfType(partner.EventTypeCustomerBalanceChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, f.customer.ID, changed[0].AggregateID())
}

func TestPaymentAllocator_PreconditionOrder(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)
	other := f.ledger.seedCustomer(t, "Kofi Boateng", 0)

	cancelled := f.ledger.seedSale(t, f.customer.ID, 102, 300, nil)
	c := f.ledger.sale(t, cancelled.ID)
	require.NoError(t, c.Cancel())
	require.NoError(t, f.ledger.saleRepo().SaveWithLock(context.Background(), &c))

	tests := []struct {
		name string
		in   AllocatePaymentInput
		want error
	}{
		{
			name: "unknown sale wins over bad amount",
			in:   AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: uuid.New(), Amount: decimal.Zero, Method: finance.PaymentMethodPOS},
			want: shared.ErrInvalidReference,
		},
		{
			name: "nil customer",
			in:   AllocatePaymentInput{TransactionID: sale.ID, Amount: decimal.NewFromInt(10), Method: finance.PaymentMethodCash},
			want: shared.ErrInvalidReference,
		},
		{
			name: "sale of another customer",
			in:   AllocatePaymentInput{CustomerID: other.ID, TransactionID: sale.ID, Amount: decimal.NewFromInt(10), Method: finance.PaymentMethodCash},
			want: shared.ErrInvalidReference,
		},
		{
			name: "cancelled sale",
			in:   AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: cancelled.ID, Amount: decimal.NewFromInt(10), Method: finance.PaymentMethodCash},
			want: shared.ErrInvalidReference,
		},
		{
			name: "zero amount wins over missing proof",
			in:   AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: sale.ID, Amount: decimal.Zero, Method: finance.PaymentMethodBankTransfer},
			want: shared.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			in:   AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: sale.ID, Amount: decimal.NewFromInt(-5), Method: finance.PaymentMethodCash},
			want: shared.ErrInvalidAmount,
		},
		{
			name: "fraction of a cent",
			in:   AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: sale.ID, Amount: decimal.RequireFromString("0.001"), Method: finance.PaymentMethodCash},
			want: shared.ErrInvalidAmount,
		},
		{
			name: "sub-cent amount wins over overpayment",
			in:   AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: sale.ID, Amount: decimal.RequireFromString("1000.005"), Method: finance.PaymentMethodPOS},
			want: shared.ErrInvalidAmount,
		},
		{
			name: "overpayment wins over missing proof",
			in:   AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: sale.ID, Amount: decimal.NewFromInt(1001), Method: finance.PaymentMethodCheque},
			want: shared.ErrOverpayment,
		},
		{
			name: "reference and file together",
			in: AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: sale.ID, Amount: decimal.NewFromInt(10), Method: finance.PaymentMethodBankTransfer,
				Proof: ProofSubmission{Value: "TRX-1", Receipt: pngReceipt()}},
			want: shared.ErrProofConflict,
		},
		{
			name: "blank reference",
			in: AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: sale.ID, Amount: decimal.NewFromInt(10), Method: finance.PaymentMethodInternalTransfer,
				Proof: ProofSubmission{Value: "   "}},
			want: shared.ErrProofRequired,
		},
		{
			name: "receipt kind that is not a URL",
			in: AllocatePaymentInput{CustomerID: f.customer.ID, TransactionID: sale.ID, Amount: decimal.NewFromInt(10), Method: finance.PaymentMethodPOS,
				Proof: ProofSubmission{Value: "not a url", Kind: finance.ProofKindReceipt}},
			want: shared.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.allocator.Allocate(context.Background(), cashier(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Zero(t, f.ledger.paymentCount())
	assert.True(t, f.ledger.sale(t, sale.ID).BalanceDue.Equal(decimal.NewFromInt(1000)))
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestPaymentAllocator_CallerChecks(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	_, err := f.allocator.Allocate(context.Background(), viewer(), f.cash(sale, 100))
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = f.allocator.Allocate(context.Background(), shared.CallerContext{Role: shared.RoleAdmin}, f.cash(sale, 100))
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	assert.Zero(t, f.ledger.paymentCount())
}

func TestPaymentAllocator_ReferenceProof(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	in := f.cash(sale, 250)
	in.Method = finance.PaymentMethodBankTransfer
	in.Proof = ProofSubmission{Value: "  GCB-778812  "}
	paidAt := time.Date(2026, 3, 9, 15, 30, 0, 0, time.UTC)
	in.PaymentDate = &paidAt

	result, err := f.allocator.Allocate(context.Background(), cashier(), in)
	require.NoError(t, err)
	require.NotNil(t, result.Payment.Proof)
	assert.Equal(t, "GCB-778812", *result.Payment.Proof)
	assert.Equal(t, finance.ProofKindReference, result.Payment.ProofKind)
	assert.True(t, result.Payment.PaymentDate.Equal(paidAt))
}

func TestPaymentAllocator_ReceiptURLProof(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	in := f.cash(sale, 250)
	in.Method = finance.PaymentMethodPOS
	in.Proof = ProofSubmission{Value: "https://cdn.example.com/receipts/a.png", Kind: finance.ProofKindReceipt}

	result, err := f.allocator.Allocate(context.Background(), cashier(), in)
	require.NoError(t, err)
	assert.Equal(t, finance.ProofKindReceipt, result.Payment.ProofKind)
	assert.Equal(t, "https://cdn.example.com/receipts/a.png", *result.Payment.Proof)
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestPaymentAllocator_UploadsReceiptFile(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	f.store.On("Put", mock.Anything, mock.MatchedBy(func(obj ReceiptObject) bool {
		return strings.HasPrefix(obj.Key, "receipts/2026/03/10/") &&
			strings.HasSuffix(obj.Key, ".png") &&
			obj.ContentType == "image/png" &&
			obj.Size == int64(len(pngHeader))
	})).Return("https://cdn.example.com/r.png", nil).Once()

	in := f.cash(sale, 1000)
	in.Method = finance.PaymentMethodCheque
	in.Proof = ProofSubmission{Receipt: pngReceipt()}

	result, err := f.allocator.Allocate(context.Background(), cashier(), in)
	require.NoError(t, err)
	assert.Equal(t, finance.ProofKindReceipt, result.Payment.ProofKind)
	assert.Equal(t, "https://cdn.example.com/r.png", *result.Payment.Proof)
	assert.Equal(t, finance.SaleStatusPaid, result.Sale.Status)
	f.store.AssertExpectations(t)
}

func TestPaymentAllocator_CashIgnoresProofKind(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	in := f.cash(sale, 100)
	in.Proof = ProofSubmission{Value: "slip 42", Kind: finance.ProofKindReceipt}

	result, err := f.allocator.Allocate(context.Background(), cashier(), in)
	require.NoError(t, err)
	require.NotNil(t, result.Payment.Proof)
	assert.Equal(t, "slip 42", *result.Payment.Proof)
	assert.Equal(t, finance.ProofKindReference, result.Payment.ProofKind)
	assert.True(t, result.Sale.BalanceDue.Equal(decimal.NewFromInt(900)))
}

func TestPaymentAllocator_TrailingZerosAreWholeCents(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	in := f.cash(sale, 0)
	in.Amount = decimal.RequireFromString("12.500")

	result, err := f.allocator.Allocate(context.Background(), cashier(), in)
	require.NoError(t, err)
	assert.True(t, result.Sale.BalanceDue.Equal(decimal.RequireFromString("987.50")))
}

func TestPaymentAllocator_CashFileWinsOverReference(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)
	f.store.On("Put", mock.Anything, mock.Anything).Return("https://cdn.example.com/c.png", nil).Once()

	in := f.cash(sale, 100)
	in.Proof = ProofSubmission{Value: "till slip 4", Receipt: pngReceipt()}

	result, err := f.allocator.Allocate(context.Background(), cashier(), in)
	require.NoError(t, err)
	assert.Equal(t, finance.ProofKindReceipt, result.Payment.ProofKind)
	assert.Equal(t, "https://cdn.example.com/c.png", *result.Payment.Proof)
}

func TestPaymentAllocator_UploadFailureAbortsPayment(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)
	f.store.On("Put", mock.Anything, mock.Anything).Return("", errors.New("connection reset")).Once()

	in := f.cash(sale, 500)
	in.Method = finance.PaymentMethodBankTransfer
	in.Proof = ProofSubmission{Receipt: pngReceipt()}

	_, err := f.allocator.Allocate(context.Background(), cashier(), in)
	assert.ErrorIs(t, err, shared.ErrUploadFailed)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Zero(t, f.ledger.paymentCount())
	assert.True(t, f.ledger.sale(t, sale.ID).BalanceDue.Equal(decimal.NewFromInt(1000)))
	f.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPaymentAllocator_DeletesReceiptWhenCommitFails(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	var key string
	f.store.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		key = args.Get(1).(ReceiptObject).Key
	}).Return("https://cdn.example.com/x.png", nil).Once()
	f.store.On("Delete", mock.Anything, mock.Anything).Return(nil).Once()
	f.ledger.saveEventsErr = errors.New("outbox unavailable")

	in := f.cash(sale, 500)
	in.Method = finance.PaymentMethodPOS
	in.Proof = ProofSubmission{Receipt: pngReceipt()}

	_, err := f.allocator.Allocate(context.Background(), cashier(), in)
	require.Error(t, err)
	assert.Equal(t, "", shared.ErrorCode(err))

	f.store.AssertCalled(t, "Delete", mock.Anything, key)
	assert.Zero(t, f.ledger.paymentCount())
	stored := f.ledger.sale(t, sale.ID)
	assert.True(t, stored.BalanceDue.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 1, stored.Version)
	assert.True(t, f.ledger.customer(t, f.customer.ID).Balance.Equal(decimal.NewFromInt(1000)))

	failures := f.logs.FilterMessage("payment allocation failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zapcore.ErrorLevel, failures[0].Level)
}

func TestPaymentAllocator_FailedReceiptDeleteIsLogged(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)
	f.store.On("Put", mock.Anything, mock.Anything).Return("https://cdn.example.com/x.png", nil).Once()
	f.store.On("Delete", mock.Anything, mock.Anything).Return(errors.New("bucket gone")).Once()
	f.ledger.saveEventsErr = errors.New("outbox unavailable")

	in := f.cash(sale, 500)
	in.Method = finance.PaymentMethodPOS
	in.Proof = ProofSubmission{Receipt: pngReceipt()}

	_, err := f.allocator.Allocate(context.Background(), cashier(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outbox unavailable")
	assert.Equal(t, 1, f.logs.FilterMessage("failed to delete receipt of rejected payment").Len())
}

func TestPaymentAllocator_ConcurrentAllocationsNeverOverpay(t *testing.T) {
	f := newAllocatorFixture(t)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	const workers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		overpaid  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.allocator.Allocate(context.Background(), cashier(), f.cash(sale, 200))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrOverpayment):
				overpaid++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, workers-5, overpaid)

	stored := f.ledger.sale(t, sale.ID)
	require.NoError(t, stored.CheckInvariants())
	assert.True(t, stored.BalanceDue.IsZero())
	assert.Equal(t, finance.SaleStatusPaid, stored.Status)
	assert.Equal(t, 5, f.ledger.paymentCount())
	assert.True(t, f.ledger.customer(t, f.customer.ID).Balance.IsZero())
}

type recordingPaymentMetrics struct {
	mu       sync.Mutex
	accepted []string
	rejected []string
	amounts  []decimal.Decimal
}

func (m *recordingPaymentMetrics) RecordPaymentAccepted(_ context.Context, method string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted = append(m.accepted, method)
	m.amounts = append(m.amounts, amount)
}

func (m *recordingPaymentMetrics) RecordPaymentRejected(_ context.Context, method, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, method+":"+code)
}

func TestPaymentAllocator_RecordsMetrics(t *testing.T) {
	f := newAllocatorFixture(t)
	metrics := &recordingPaymentMetrics{}
	f.allocator.WithMetrics(metrics)
	sale := f.ledger.seedSale(t, f.customer.ID, 100, 1000, nil)

	_, err := f.allocator.Allocate(context.Background(), cashier(), f.cash(sale, 400))
	require.NoError(t, err)

	_, err = f.allocator.Allocate(context.Background(), cashier(), f.cash(sale, 700))
	assert.ErrorIs(t, err, shared.ErrOverpayment)

	pos := f.cash(sale, 100)
	pos.Method = finance.PaymentMethodPOS
	_, err = f.allocator.Allocate(context.Background(), cashier(), pos)
	assert.ErrorIs(t, err, shared.ErrProofRequired)

	assert.Equal(t, []string{string(finance.PaymentMethodCash)}, metrics.accepted)
	require.Len(t, metrics.amounts, 1)
	assert.True(t, metrics.amounts[0].Equal(decimal.NewFromInt(400)))
	assert.Equal(t, []string{
		string(finance.PaymentMethodCash) + ":" + shared.CodeOverpayment,
		string(finance.PaymentMethodPOS) + ":" + shared.CodeProofRequired,
	}, metrics.rejected)
}
