package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs so redelivered events are skipped
type IdempotencyStore interface {
	// MarkProcessed records eventID for ttl. It returns false if the ID was already recorded.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// Forget removes eventID so a failed delivery can be retried
	Forget(ctx context.Context, eventID string) error
	Close() error
}

// IdempotencyConfig controls duplicate suppression for event handlers
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps processed IDs for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
