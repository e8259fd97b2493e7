package partner

import (
	"context"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerFilter narrows customer listings
type CustomerFilter struct {
	Search      string // matches full name, phone or email
	WithBalance bool   // only customers with balance > 0
	shared.PageRequest
}

// CustomerRepository defines customer persistence
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// FindByIDForUpdate loads the customer and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Customer, error)
	FindAll(ctx context.Context, filter CustomerFilter) ([]Customer, int64, error)
	Save(ctx context.Context, customer *Customer) error
	// SaveWithLock saves only if the stored version is one behind customer.Version
	SaveWithLock(ctx context.Context, customer *Customer) error
}
