package finance

import (
	"context"
	"testing"
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCreditLedgerService_GetLedger(t *testing.T) {
	ledger := newMemoryLedger()
	svc := NewCreditLedgerService(ledger.customerRepo(), ledger.saleRepo())
	svc.now = func() time.Time { return *dateAt(15) }

	customer := ledger.seedCustomer(t, "Yaw Asante", 2000)
	ledger.seedSale(t, customer.ID, 100, 1200, dateAt(10))
	ledger.seedSale(t, customer.ID, 101, 1300, dateAt(40))

	t.Run("derives balance and overdue", func(t *testing.T) {
		got, err := svc.GetLedger(context.Background(), viewer(), customer.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.NewFromInt(2500)))
		require.NotNil(t, got.DueDate)
		assert.True(t, got.DueDate.Equal(*dateAt(10)))
		assert.True(t, got.Overdue)
		assert.True(t, got.OverLimit)
		assert.True(t, got.AvailableCredit.IsZero())
		assert.Equal(t, 2, got.OutstandingSales)
	})

	t.Run("zero balance is never overdue", func(t *testing.T) {
		settled := ledger.seedCustomer(t, "Efua Owusu", 0)
		got, err := svc.GetLedger(context.Background(), viewer(), settled.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.IsZero())
		assert.False(t, got.Overdue)
		assert.Nil(t, got.DueDate)
	})

	t.Run("sale without due date falls due after the credit term", func(t *testing.T) {
		late := ledger.seedCustomer(t, "Kojo Mensah", 0)
		sale := ledger.seedSale(t, late.ID, 200, 100, nil)
		require.NotNil(t, sale.DueDate)
		assert.True(t, sale.DueDate.Equal(sale.SaleDate.AddDate(0, 0, finance.DefaultCreditTermDays)))

		got, err := svc.GetLedger(context.Background(), viewer(), late.ID)
		require.NoError(t, err)
		require.NotNil(t, got.DueDate)
		assert.True(t, got.DueDate.Equal(*sale.DueDate))
		assert.True(t, got.Overdue)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := svc.GetLedger(context.Background(), viewer(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrInvalidReference)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		_, err := svc.GetLedger(context.Background(), shared.CallerContext{}, customer.ID)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestOutstandingSaleSelector_ListOutstanding(t *testing.T) {
	ledger := newMemoryLedger()
	selector := NewOutstandingSaleSelector(ledger.customerRepo(), ledger.saleRepo())

	customer := ledger.seedCustomer(t, "Kwame Addo", 0)
	oldest := ledger.seedSale(t, customer.ID, 100, 400, nil)
	paid := ledger.seedSale(t, customer.ID, 101, 250, nil)
	newest := ledger.seedSale(t, customer.ID, 102, 900, nil)
	cancelled := ledger.seedSale(t, customer.ID, 103, 50, nil)

	p := ledger.sale(t, paid.ID)
	require.NoError(t, p.ApplyPayment(decimal.NewFromInt(250)))
	require.NoError(t, ledger.saleRepo().SaveWithLock(context.Background(), &p))
	c := ledger.sale(t, cancelled.ID)
	require.NoError(t, c.Cancel())
	require.NoError(t, ledger.saleRepo().SaveWithLock(context.Background(), &c))

	sales, err := selector.ListOutstanding(context.Background(), viewer(), customer.ID)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, oldest.ID, sales[0].ID)
	assert.Equal(t, newest.ID, sales[1].ID)

	t.Run("customer without sales gets an empty list", func(t *testing.T) {
		empty := ledger.seedCustomer(t, "Abena Darko", 0)
		sales, err := selector.ListOutstanding(context.Background(), viewer(), empty.ID)
		require.NoError(t, err)
		assert.NotNil(t, sales)
		assert.Empty(t, sales)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := selector.ListOutstanding(context.Background(), viewer(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrInvalidReference)
	})
}

func TestSaleService(t *testing.T) {
	ledger := newMemoryLedger()
	svc := NewSaleService(ledger.saleRepo(), ledger.paymentRepo(), ledger, zaptest.NewLogger(t))
	customer := ledger.seedCustomer(t, "Akua Sarpong", 1000)
	ctx := context.Background()

	var saleID uuid.UUID
	t.Run("record credit sale numbers it and raises the balance", func(t *testing.T) {
		sale, err := svc.RecordCreditSale(ctx, cashier(), RecordSaleInput{
			CustomerID:  customer.ID,
			TotalAmount: decimal.NewFromInt(1500),
			SaleDate:    dateAt(0),
			DueDate:     dateAt(14),
		})
		require.NoError(t, err)
		saleID = sale.ID
		assert.Equal(t, int64(101), sale.Number)
		assert.Equal(t, finance.SaleStatusUnpaid, sale.Status)
		assert.True(t, sale.BalanceDue.Equal(decimal.NewFromInt(1500)))

		stored := ledger.customer(t, customer.ID)
		assert.True(t, stored.Balance.Equal(decimal.NewFromInt(1500)))
		assert.True(t, stored.DueDate.Equal(*dateAt(14)))
		assert.True(t, stored.IsOverLimit())
		assert.Len(t, ledger.eventsOfType(finance.EventTypeCreditSaleRecorded), 1)
	})

	t.Run("record for unknown customer", func(t *testing.T) {
		_, err := svc.RecordCreditSale(ctx, cashier(), RecordSaleInput{CustomerID: uuid.New(), TotalAmount: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, shared.ErrInvalidReference)
	})

	t.Run("record with non-positive total", func(t *testing.T) {
		_, err := svc.RecordCreditSale(ctx, cashier(), RecordSaleInput{CustomerID: customer.ID, TotalAmount: decimal.Zero})
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("get sale with payment totals", func(t *testing.T) {
		sale := ledger.sale(t, saleID)
		payment, err := finance.NewPayment(&sale, decimal.NewFromInt(100), finance.PaymentMethodCash, finance.NoProof(), uuid.New(), *dateAt(1))
		require.NoError(t, err)
		require.NoError(t, ledger.paymentRepo().Create(ctx, payment))

		detail, err := svc.GetSale(ctx, viewer(), saleID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), detail.PaymentCount)
		assert.True(t, detail.PaymentTotal.Equal(decimal.NewFromInt(100)))
	})

	t.Run("cancel is refused once paid into", func(t *testing.T) {
		s := ledger.sale(t, saleID)
		require.NoError(t, s.ApplyPayment(decimal.NewFromInt(100)))
		require.NoError(t, ledger.saleRepo().SaveWithLock(ctx, &s))

		_, err := svc.CancelSale(ctx, cashier(), saleID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("cancel clears the balance it carried", func(t *testing.T) {
		sale, err := svc.RecordCreditSale(ctx, cashier(), RecordSaleInput{CustomerID: customer.ID, TotalAmount: decimal.NewFromInt(200)})
		require.NoError(t, err)
		before := ledger.customer(t, customer.ID).Balance

		cancelled, err := svc.CancelSale(ctx, cashier(), sale.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.SaleStatusCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.CancelledAt)
		assert.True(t, ledger.customer(t, customer.ID).Balance.Equal(before.Sub(decimal.NewFromInt(200))))
		assert.Len(t, ledger.eventsOfType(finance.EventTypeCreditSaleCancelled), 1)
	})

	t.Run("list includes cancelled sales", func(t *testing.T) {
		sales, err := svc.ListByCustomer(ctx, viewer(), customer.ID)
		require.NoError(t, err)
		assert.Len(t, sales, 2)
	})

	t.Run("viewer cannot record or cancel", func(t *testing.T) {
		_, err := svc.RecordCreditSale(ctx, viewer(), RecordSaleInput{CustomerID: customer.ID, TotalAmount: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		_, err = svc.CancelSale(ctx, viewer(), saleID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}
