package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeOutboxRepo struct {
	entries   map[uuid.UUID]*shared.OutboxEntry
	updateErr error
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *fakeOutboxRepo) add(status shared.OutboxStatus) *shared.OutboxEntry {
	now := time.Now()
	entry := &shared.OutboxEntry{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     "PaymentRecorded",
		AggregateID:   uuid.New(),
		AggregateType: "Sale",
		Status:        status,
		MaxRetries:    shared.DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == shared.OutboxStatusDead {
		entry.RetryCount = shared.DefaultMaxRetries
		entry.LastError = "customer balance refresh failed"
	}
	r.entries[entry.ID] = entry
	return entry
}

func (r *fakeOutboxRepo) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *fakeOutboxRepo) FindPending(context.Context, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) FindDead(_ context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			dead = append(dead, e)
		}
	}
	total := int64(len(dead))
	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, total, nil
	}
	end := min(start+pageSize, len(dead))
	return dead[start:end], total, nil
}

func (r *fakeOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOutboxRepo) MarkProcessing(context.Context, []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Update(_ context.Context, entry *shared.OutboxEntry) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeOutboxRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeOutboxRepo) CountByStatus(context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

var (
	admin   = shared.NewCallerContext(uuid.New(), shared.RoleAdmin)
	cashier = shared.NewCallerContext(uuid.New(), shared.RoleCashier)
)

func TestOutboxService_RequiresAdmin(t *testing.T) {
	repo := newFakeOutboxRepo()
	dead := repo.add(shared.OutboxStatusDead)
	service := NewOutboxService(repo, nil)
	ctx := context.Background()

	_, err := service.GetStats(ctx, cashier)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = service.RetryDeadEntry(ctx, cashier, dead.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, shared.OutboxStatusDead, dead.Status)

	_, err = service.GetDeadLetterEntries(ctx, shared.CallerContext{Role: shared.RoleAdmin}, shared.PageRequest{})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestOutboxService_GetDeadLetterEntries(t *testing.T) {
	repo := newFakeOutboxRepo()
	for range 5 {
		repo.add(shared.OutboxStatusDead)
	}
	repo.add(shared.OutboxStatusPending)
	service := NewOutboxService(repo, zap.NewNop())

	page, err := service.GetDeadLetterEntries(context.Background(), admin, shared.PageRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 2)
	for _, entry := range page.Items {
		assert.Equal(t, "DEAD", entry.Status)
		assert.Equal(t, "PaymentRecorded", entry.EventType)
	}
}

func TestOutboxService_GetEntry(t *testing.T) {
	repo := newFakeOutboxRepo()
	entry := repo.add(shared.OutboxStatusSent)
	service := NewOutboxService(repo, nil)

	got, err := service.GetEntry(context.Background(), admin, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.EventID, got.EventID)

	_, err = service.GetEntry(context.Background(), admin, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	repo := newFakeOutboxRepo()
	dead := repo.add(shared.OutboxStatusDead)
	service := NewOutboxService(repo, zap.New(core))

	result, err := service.RetryDeadEntry(context.Background(), admin, dead.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", result.Status)
	assert.Equal(t, 0, result.RetryCount)
	assert.Empty(t, result.LastError)

	entries := logs.FilterMessage("Dead letter entry reset for retry").All()
	require.Len(t, entries, 1)
	assert.Equal(t, admin.ActorID.String(), entries[0].ContextMap()["actor_id"])
}

func TestOutboxService_RetryDeadEntry_Failures(t *testing.T) {
	repo := newFakeOutboxRepo()
	pending := repo.add(shared.OutboxStatusPending)
	service := NewOutboxService(repo, nil)
	ctx := context.Background()

	_, err := service.RetryDeadEntry(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = service.RetryDeadEntry(ctx, admin, pending.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	dead := repo.add(shared.OutboxStatusDead)
	repo.updateErr = errors.New("connection reset")
	_, err = service.RetryDeadEntry(ctx, admin, dead.ID)
	assert.EqualError(t, err, "connection reset")
}

func TestOutboxService_RetryAllDeadEntries(t *testing.T) {
	repo := newFakeOutboxRepo()
	for range 3 {
		repo.add(shared.OutboxStatusDead)
	}
	pending := repo.add(shared.OutboxStatusPending)
	service := NewOutboxService(repo, nil)

	count, err := service.RetryAllDeadEntries(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	for _, entry := range repo.entries {
		assert.Equal(t, shared.OutboxStatusPending, entry.Status)
		if entry.ID != pending.ID {
			assert.Equal(t, 0, entry.RetryCount)
		}
	}
}

func TestOutboxService_RetryAllDeadEntries_StopsWhenUpdatesFail(t *testing.T) {
	repo := newFakeOutboxRepo()
	repo.add(shared.OutboxStatusDead)
	repo.updateErr = errors.New("read only")
	service := NewOutboxService(repo, nil)

	count, err := service.RetryAllDeadEntries(context.Background(), admin)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOutboxService_GetStats(t *testing.T) {
	repo := newFakeOutboxRepo()
	for _, status := range []shared.OutboxStatus{
		shared.OutboxStatusPending,
		shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	} {
		repo.add(status)
	}
	service := NewOutboxService(repo, nil)

	stats, err := service.GetStats(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Processing)
	assert.Equal(t, int64(3), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, int64(8), stats.Total)
}
