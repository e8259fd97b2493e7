package handler

import (
	"net/http"

	"github.com/bakery/ledger/internal/application/event"
	"github.com/bakery/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// OutboxHandler handles outbox management HTTP requests
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{outboxService: outboxService}
}

// GetDeadLetterEntries godoc
// @ID           getOutboxDeadLetterEntries
// @Summary      List dead letter entries
// @Description  Ledger events whose handlers failed after every retry
// @Tags         outbox
// @Produce      json
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]event.OutboxEntryDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/dead [get]
func (h *OutboxHandler) GetDeadLetterEntries(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.outboxService.GetDeadLetterEntries(c.Request.Context(), caller, req.PageRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(result))
}

// GetEntry godoc
// @ID           getOutboxEntry
// @Summary      Get an outbox entry
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} APIResponse[event.OutboxEntryDTO]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/entries/{id} [get]
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.outboxService.GetEntry(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryDeadEntry godoc
// @ID           retryOutboxDeadEntry
// @Summary      Retry a dead letter entry
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} APIResponse[event.OutboxEntryDTO]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/entries/{id}/retry [post]
func (h *OutboxHandler) RetryDeadEntry(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAllDeadEntries godoc
// @ID           retryAllOutboxDeadEntries
// @Summary      Retry every dead letter entry
// @Tags         outbox
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/dead/retry [post]
func (h *OutboxHandler) RetryAllDeadEntries(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}

	count, err := h.outboxService.RetryAllDeadEntries(c.Request.Context(), caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: count})
}

// GetStats godoc
// @ID           getOutboxStats
// @Summary      Outbox statistics
// @Tags         outbox
// @Produce      json
// @Success      200 {object} APIResponse[event.OutboxStatsDTO]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/stats [get]
func (h *OutboxHandler) GetStats(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}

	stats, err := h.outboxService.GetStats(c.Request.Context(), caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
