package persistence

import (
	"context"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const paymentHistorySelect = `p.id, p.payment_date, p.customer_id, c.full_name AS customer_name,
p.transaction_id, s.number AS sale_number, p.amount, p.payment_method,
p.proof_kind, p.proof_value, p.recorded_by`

// GormPaymentHistoryQuery serves payment history from a join of payments,
// customers and credit sales
type GormPaymentHistoryQuery struct {
	db *gorm.DB
}

// NewGormPaymentHistoryQuery creates a new GormPaymentHistoryQuery
func NewGormPaymentHistoryQuery(db *gorm.DB) *GormPaymentHistoryQuery {
	return &GormPaymentHistoryQuery{db: db}
}

// List returns one page of matching payments and the total match count
func (q *GormPaymentHistoryQuery) List(ctx context.Context, filter finance.PaymentHistoryFilter) ([]finance.PaymentView, int64, error) {
	base := q.applyFilter(q.baseQuery(ctx), filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []finance.PaymentView{}, 0, nil
	}

	sort := filter.Sort
	if sort.Key == "" {
		sort = finance.DefaultPaymentSort
	}
	page := filter.PageRequest.Normalize()

	var rows []models.PaymentViewRow
	if err := q.applyFilter(q.baseQuery(ctx), filter).
		Select(paymentHistorySelect).
		Order(paymentOrderClause(sort)).
		Offset(page.Offset()).Limit(page.PageSize).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	views := make([]finance.PaymentView, len(rows))
	for i := range rows {
		views[i] = rows[i].ToDomain()
	}
	return views, total, nil
}

func (q *GormPaymentHistoryQuery) baseQuery(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx).
		Table("payments AS p").
		Joins("JOIN customers AS c ON c.id = p.customer_id").
		Joins("JOIN credit_sales AS s ON s.id = p.transaction_id")
}

func (q *GormPaymentHistoryQuery) applyFilter(query *gorm.DB, filter finance.PaymentHistoryFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("p.customer_id = ?", *filter.CustomerID)
	}
	if filter.TransactionID != nil {
		query = query.Where("p.transaction_id = ?", *filter.TransactionID)
	}
	if filter.StartDate != nil {
		query = query.Where("p.payment_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("p.payment_date <= ?", *filter.EndDate)
	}
	if filter.PaymentMethod != nil {
		query = query.Where("p.payment_method = ?", *filter.PaymentMethod)
	}
	return query
}

var _ finance.PaymentHistoryQuery = (*GormPaymentHistoryQuery)(nil)
