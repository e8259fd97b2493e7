// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - partner.go: customers
//   - finance.go: credit sales and payments
//   - outbox.go: outbox entries for event delivery
package models
