package persistence

import (
	"context"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCustomer returns the customer's payments, newest first
func (r *GormPaymentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]finance.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("payment_date DESC").Order("id ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]finance.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// SumByTransaction totals the payments recorded against a sale
func (r *GormPaymentRepository) SumByTransaction(ctx context.Context, transactionID uuid.UUID) (finance.PaymentTotals, error) {
	var row struct {
		Count  int64
		Amount decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("COUNT(*) AS count, SUM(amount) AS amount").
		Where("transaction_id = ?", transactionID).
		Scan(&row).Error; err != nil {
		return finance.PaymentTotals{}, err
	}

	totals := finance.PaymentTotals{Count: row.Count, Amount: decimal.Zero}
	if row.Amount.Valid {
		totals.Amount = row.Amount.Decimal
	}
	return totals, nil
}

var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)
