package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DefaultLedgerChannel is the pub/sub channel carrying ledger change notices
const DefaultLedgerChannel = "ledger:changed"

// LedgerChangeMessage is published whenever a customer's balance changes
type LedgerChangeMessage struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	Balance    decimal.Decimal `json:"balance"`
	ChangedAt  time.Time       `json:"changed_at"`
}

// RedisLedgerNotifier tells other API instances, and the views they serve,
// that a customer's ledger must be re-read
type RedisLedgerNotifier struct {
	client  *redis.Client
	channel string
	now     func() time.Time
}

// NewRedisLedgerNotifier creates a notifier publishing on channel
func NewRedisLedgerNotifier(client *redis.Client, channel string) *RedisLedgerNotifier {
	if channel == "" {
		channel = DefaultLedgerChannel
	}
	return &RedisLedgerNotifier{client: client, channel: channel, now: time.Now}
}

// NotifyLedgerChanged publishes a LedgerChangeMessage
func (n *RedisLedgerNotifier) NotifyLedgerChanged(ctx context.Context, customerID uuid.UUID, balance decimal.Decimal) error {
	payload, err := json.Marshal(LedgerChangeMessage{
		CustomerID: customerID,
		Balance:    balance,
		ChangedAt:  n.now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish ledger change: %w", err)
	}
	return nil
}
