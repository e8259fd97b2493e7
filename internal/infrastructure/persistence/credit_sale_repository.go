package persistence

import (
	"context"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// saleNumberSequence backs NextNumber on PostgreSQL (see migrations)
const saleNumberSequence = "credit_sale_number_seq"

// GormCreditSaleRepository implements CreditSaleRepository using GORM
type GormCreditSaleRepository struct {
	db *gorm.DB
}

// NewGormCreditSaleRepository creates a new GormCreditSaleRepository
func NewGormCreditSaleRepository(db *gorm.DB) *GormCreditSaleRepository {
	return &GormCreditSaleRepository{db: db}
}

// FindByID finds a credit sale by its ID
func (r *GormCreditSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.CreditSale, error) {
	var model models.CreditSaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a credit sale and takes a row lock for the rest of the transaction
func (r *GormCreditSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.CreditSale, error) {
	var model models.CreditSaleModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCustomer returns every sale of the customer, oldest first
func (r *GormCreditSaleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]finance.CreditSale, error) {
	var saleModels []models.CreditSaleModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("sale_date ASC").Order("number ASC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// FindOutstandingByCustomer returns payable sales with a positive balance, oldest first
func (r *GormCreditSaleRepository) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]finance.CreditSale, error) {
	var saleModels []models.CreditSaleModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status IN ? AND balance_due > ?",
			customerID,
			[]finance.SaleStatus{finance.SaleStatusUnpaid, finance.SaleStatusPartiallyPaid},
			decimal.Zero).
		Order("sale_date ASC").Order("number ASC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// NextNumber returns the next sale number. PostgreSQL draws from a sequence;
// other dialects fall back to MAX+1 and rely on the unique index.
func (r *GormCreditSaleRepository) NextNumber(ctx context.Context) (int64, error) {
	var next int64
	db := r.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		err := db.Raw("SELECT nextval('" + saleNumberSequence + "')").Scan(&next).Error
		return next, err
	}
	err := db.Model(&models.CreditSaleModel{}).
		Select("COALESCE(MAX(number), 0) + 1").
		Scan(&next).Error
	return next, err
}

// Create inserts a new credit sale
func (r *GormCreditSaleRepository) Create(ctx context.Context, sale *finance.CreditSale) error {
	return r.db.WithContext(ctx).Create(models.CreditSaleModelFromDomain(sale)).Error
}

// SaveWithLock saves a credit sale with optimistic locking (version check).
// Returns CONCURRENCY_CONFLICT if the stored version is not sale.Version-1.
func (r *GormCreditSaleRepository) SaveWithLock(ctx context.Context, sale *finance.CreditSale) error {
	model := models.CreditSaleModelFromDomain(sale)
	result := r.db.WithContext(ctx).
		Model(&models.CreditSaleModel{}).
		Where("id = ? AND version = ?", sale.ID, sale.Version-1).
		Select("*").Omit("id", "created_at", "number", "customer_id").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return concurrencyConflict("credit sale")
	}
	return nil
}

func toDomainSales(saleModels []models.CreditSaleModel) []finance.CreditSale {
	sales := make([]finance.CreditSale, len(saleModels))
	for i, model := range saleModels {
		sales[i] = *model.ToDomain()
	}
	return sales
}

var _ finance.CreditSaleRepository = (*GormCreditSaleRepository)(nil)
