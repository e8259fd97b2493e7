package persistence

import (
	"errors"

	"github.com/bakery/ledger/internal/domain/shared"
	"gorm.io/gorm"
)

// translateNotFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

func concurrencyConflict(what string) error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict,
		"The "+what+" record has been modified by another transaction")
}
