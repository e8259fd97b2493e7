package handler

import (
	"context"
	"net/http"
	"testing"

	outboxapp "github.com/bakery/ledger/internal/application/event"
	"github.com/bakery/ledger/internal/domain/shared"
	eventinfra "github.com/bakery/ledger/internal/infrastructure/event"
	"github.com/bakery/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// withOutboxRoutes mounts the outbox admin endpoints on the test app and
// returns the id of one entry moved to the dead letter state
func withOutboxRoutes(t *testing.T, app *testApp) uuid.UUID {
	t.Helper()
	repo := eventinfra.NewGormOutboxRepository(app.db)
	h := NewOutboxHandler(outboxapp.NewOutboxService(repo, zap.NewNop()))

	outbox := app.router.Group("/api/v1/system/outbox", testAuth())
	outbox.GET("/dead", h.GetDeadLetterEntries)
	outbox.POST("/dead/retry", h.RetryAllDeadEntries)
	outbox.GET("/stats", h.GetStats)
	outbox.GET("/entries/:id", h.GetEntry)
	outbox.POST("/entries/:id/retry", h.RetryDeadEntry)

	app.seedCustomer(t, "Outbox Customer", "15.00")
	pending, err := repo.FindPending(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, pending)

	dead := pending[0]
	for !dead.IsDead() {
		dead.MarkFailed("ledger refresh failed")
	}
	require.NoError(t, repo.Update(context.Background(), dead))
	return dead.ID
}

func TestOutboxHandler_DeadLetters(t *testing.T) {
	app := newTestApp(t)
	deadID := withOutboxRoutes(t, app)
	admin := shared.NewCallerContext(uuid.New(), shared.RoleAdmin)

	w := app.getJSON("/api/v1/system/outbox/dead", admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var entries []outboxapp.OutboxEntryDTO
	resp := decode(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, deadID, entries[0].ID)
	assert.Equal(t, "ledger refresh failed", entries[0].LastError)
	assert.Equal(t, int64(1), resp.Meta.Total)

	w = app.getJSON("/api/v1/system/outbox/entries/"+deadID.String(), admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.getJSON("/api/v1/system/outbox/stats", admin)
	require.Equal(t, http.StatusOK, w.Code)
	var stats outboxapp.OutboxStatsDTO
	decode(t, w, &stats)
	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, stats.Total, stats.Pending+stats.Dead)

	w = app.postJSON("/api/v1/system/outbox/entries/"+deadID.String()+"/retry", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var retried outboxapp.OutboxEntryDTO
	decode(t, w, &retried)
	assert.Equal(t, string(shared.OutboxStatusPending), retried.Status)
	assert.Zero(t, retried.RetryCount)

	w = app.postJSON("/api/v1/system/outbox/entries/"+deadID.String()+"/retry", nil, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, w))
}

func TestOutboxHandler_RetryAll(t *testing.T) {
	app := newTestApp(t)
	withOutboxRoutes(t, app)
	admin := shared.NewCallerContext(uuid.New(), shared.RoleAdmin)

	w := app.postJSON("/api/v1/system/outbox/dead/retry", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var count CountData
	decode(t, w, &count)
	assert.Equal(t, int64(1), count.Count)

	w = app.getJSON("/api/v1/system/outbox/dead", admin)
	var entries []outboxapp.OutboxEntryDTO
	decode(t, w, &entries)
	assert.Empty(t, entries)
}

func TestOutboxHandler_AdminOnly(t *testing.T) {
	app := newTestApp(t)
	withOutboxRoutes(t, app)
	manager := shared.NewCallerContext(uuid.New(), shared.RoleManager)

	w := app.getJSON("/api/v1/system/outbox/stats", manager)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.getJSON("/api/v1/system/outbox/entries/"+uuid.NewString(), shared.NewCallerContext(uuid.New(), shared.RoleAdmin))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOutboxHandler_Unauthenticated(t *testing.T) {
	h := NewOutboxHandler(nil)
	router := gin.New()
	router.GET("/stats", h.GetStats)

	w := serve(router, http.MethodGet, "/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
