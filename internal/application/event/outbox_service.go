// Package event exposes administration of the ledger's event outbox.
package event

import (
	"context"
	"time"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxService lets administrators inspect and replay dead-lettered
// ledger events such as PaymentRecorded.
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxService{repo: repo, logger: logger}
}

// OutboxEntryDTO represents an outbox entry
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxStatsDTO counts outbox entries per status
type OutboxStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// requireAdmin restricts outbox administration to admins
func requireAdmin(caller shared.CallerContext) error {
	if err := caller.Validate(); err != nil {
		return err
	}
	if caller.Role != shared.RoleAdmin {
		return shared.ErrForbidden
	}
	return nil
}

// GetDeadLetterEntries returns a page of dead letter entries
func (s *OutboxService) GetDeadLetterEntries(ctx context.Context, caller shared.CallerContext, req shared.PageRequest) (*shared.Paginated[OutboxEntryDTO], error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	req = req.Normalize()

	entries, total, err := s.repo.FindDead(ctx, req.Page, req.PageSize)
	if err != nil {
		s.logger.Error("Failed to find dead letter entries", zap.Error(err))
		return nil, err
	}

	items := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		items[i] = toOutboxEntryDTO(entry)
	}
	page := shared.NewPaginated(items, total, req.Page, req.PageSize)
	return &page, nil
}

// GetEntry retrieves a single outbox entry
func (s *OutboxService) GetEntry(ctx context.Context, caller shared.CallerContext, id uuid.UUID) (*OutboxEntryDTO, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryDeadEntry puts a dead letter entry back in the delivery queue
func (s *OutboxService) RetryDeadEntry(ctx context.Context, caller shared.CallerContext, id uuid.UUID) (*OutboxEntryDTO, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Failed to update outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}

	s.logger.Info("Dead letter entry reset for retry",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
		zap.String("actor_id", caller.ActorID.String()),
	)

	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDeadEntries resets every dead letter entry and returns how many
// were requeued.
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context, caller shared.CallerContext) (int64, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}

	const batch = 100
	var count int64
	for {
		// Requeued entries leave the dead set, so the first page is always the next batch.
		entries, _, err := s.repo.FindDead(ctx, 1, batch)
		if err != nil {
			s.logger.Error("Failed to find dead letter entries", zap.Error(err))
			return count, err
		}
		if len(entries) == 0 {
			break
		}

		var requeued int
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("Failed to update outbox entry", zap.Error(err), zap.String("id", entry.ID.String()))
				continue
			}
			requeued++
		}
		count += int64(requeued)

		if requeued == 0 || len(entries) < batch {
			break
		}
	}

	s.logger.Info("Retried dead letter entries", zap.Int64("count", count))
	return count, nil
}

// GetStats returns outbox statistics
func (s *OutboxService) GetStats(ctx context.Context, caller shared.CallerContext) (*OutboxStatsDTO, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to get outbox stats", zap.Error(err))
		return nil, err
	}

	var total int64
	for _, count := range counts {
		total += count
	}
	return &OutboxStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
