package persistence

import (
	"context"
	"strings"

	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a customer and takes a row lock for the rest of the transaction
func (r *GormCustomerRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple customers by their IDs
func (r *GormCustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Customer, error) {
	if len(ids) == 0 {
		return []partner.Customer{}, nil
	}

	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&customerModels).Error; err != nil {
		return nil, err
	}
	return toDomainCustomers(customerModels), nil
}

// FindAll finds customers matching the filter, ordered by name, with the total match count
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter partner.CustomerFilter) ([]partner.Customer, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.PageRequest.Normalize()
	var customerModels []models.CustomerModel
	if err := query.
		Order("full_name ASC").Order("id ASC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&customerModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainCustomers(customerModels), total, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a customer with optimistic locking (version check).
// Returns CONCURRENCY_CONFLICT if the stored version is not customer.Version-1.
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ? AND version = ?", customer.ID, customer.Version-1).
		Select("*").Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return concurrencyConflict("customer")
	}
	return nil
}

func (r *GormCustomerRepository) applyFilter(query *gorm.DB, filter partner.CustomerFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	if filter.WithBalance {
		query = query.Where("balance > ?", decimal.Zero)
	}
	return query
}

func toDomainCustomers(customerModels []models.CustomerModel) []partner.Customer {
	customers := make([]partner.Customer, len(customerModels))
	for i, model := range customerModels {
		customers[i] = *model.ToDomain()
	}
	return customers
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)

