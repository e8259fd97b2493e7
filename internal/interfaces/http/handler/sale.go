package handler

import (
	"time"

	financeapp "github.com/bakery/ledger/internal/application/finance"
	"github.com/bakery/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleHandler exposes credit sales to the checkout and to cashiers
type SaleHandler struct {
	BaseHandler
	saleService *financeapp.SaleService
	selector    *financeapp.OutstandingSaleSelector
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *financeapp.SaleService, selector *financeapp.OutstandingSaleSelector) *SaleHandler {
	return &SaleHandler{saleService: saleService, selector: selector}
}

// RecordSaleRequest is a sale made on credit
// @Description Credit sale recorded by the checkout
type RecordSaleRequest struct {
	CustomerID  string          `json:"customer_id" binding:"required,uuid" example:"6f1c2f8e-8a4b-4c1e-9d55-2a1f0e3b7c90"`
	TotalAmount decimal.Decimal `json:"total_amount" swaggertype:"string" example:"120.50"`
	SaleDate    *time.Time      `json:"sale_date" example:"2026-03-01T09:00:00Z"`
	DueDate     *time.Time      `json:"due_date" example:"2026-03-31T00:00:00Z"`
}

// Create godoc
// @ID           recordCreditSale
// @Summary      Record a credit sale
// @Description  Adds the sale total to the customer's balance. The due date defaults to the configured credit term.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body RecordSaleRequest true "Sale"
// @Success      201 {object} APIResponse[financeapp.SaleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sale, err := h.saleService.RecordCreditSale(c.Request.Context(), caller, financeapp.RecordSaleInput{
		CustomerID:  uuid.MustParse(req.CustomerID),
		TotalAmount: req.TotalAmount,
		SaleDate:    req.SaleDate,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// Get godoc
// @ID           getSale
// @Summary      Get a credit sale
// @Description  The sale with the count and total of payments recorded against it
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.SaleDetailDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Cancel godoc
// @ID           cancelSale
// @Summary      Cancel a credit sale
// @Description  Only sales without payments can be cancelled. The customer's balance is reduced by the sale total.
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.SaleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.CancelSale(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// ListByCustomer godoc
// @ID           listCustomerSales
// @Summary      List a customer's credit sales
// @Tags         sales
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[[]financeapp.SaleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/sales [get]
func (h *SaleHandler) ListByCustomer(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	sales, err := h.saleService.ListByCustomer(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sales)
}

// ListOutstanding godoc
// @ID           listOutstandingSales
// @Summary      List sales open for payment
// @Description  The customer's sales with a positive balance due, oldest first. These are the sales a payment may be allocated to.
// @Tags         sales
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[[]financeapp.SaleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/outstanding-sales [get]
func (h *SaleHandler) ListOutstanding(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	sales, err := h.selector.ListOutstanding(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sales)
}
