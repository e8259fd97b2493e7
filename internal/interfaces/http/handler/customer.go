package handler

import (
	"net/http"

	financeapp "github.com/bakery/ledger/internal/application/finance"
	partnerapp "github.com/bakery/ledger/internal/application/partner"
	"github.com/bakery/ledger/internal/interfaces/http/dto"
	"github.com/bakery/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
	ledgerService   *financeapp.CreditLedgerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService, ledgerService *financeapp.CreditLedgerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		ledgerService:   ledgerService,
	}
}

// CustomerRequest is the body of customer create and update requests
// @Description Customer fields owned by customer management
type CustomerRequest struct {
	FullName    string          `json:"fullname" binding:"required,min=1,max=200" example:"Ama Mensah"`
	Phone       string          `json:"phone" binding:"max=50" example:"+233201234567"`
	Email       string          `json:"email" binding:"omitempty,email,max=200" example:"ama@example.com"`
	Address     string          `json:"address" binding:"max=500" example:"12 Market Road"`
	CreditLimit decimal.Decimal `json:"credit_limit" swaggertype:"string" example:"500.00"`
}

func (r CustomerRequest) toInput() partnerapp.CustomerInput {
	return partnerapp.CustomerInput{
		FullName:    r.FullName,
		Phone:       r.Phone,
		Email:       r.Email,
		Address:     r.Address,
		CreditLimit: r.CreditLimit,
	}
}

// ListCustomersRequest holds the customer list query
type ListCustomersRequest struct {
	dto.ListRequest
	WithBalance bool `form:"with_balance"`
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Description  Customers ordered by name with their current balance and overdue flag
// @Tags         customers
// @Produce      json
// @Param        search       query string false "Name, phone or email contains"
// @Param        with_balance query bool   false "Only customers with an outstanding balance"
// @Param        page         query int    false "Page number" default(1)
// @Param        page_size    query int    false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]partnerapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req ListCustomersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page := req.PageRequest()
	result, err := h.customerService.List(c.Request.Context(), caller, partnerapp.ListCustomersInput{
		Search:      req.Search,
		WithBalance: req.WithBalance,
		Page:        page.Page,
		PageSize:    page.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(result))
}

// Get godoc
// @ID           getCustomer
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	customer, err := h.customerService.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body CustomerRequest true "Customer"
// @Success      201 {object} APIResponse[partnerapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), caller, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Description  Updates contact details and credit limit. The balance and due date are owned by the ledger.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id      path string          true "Customer ID" format(uuid)
// @Param        request body CustomerRequest true "Customer"
// @Success      200 {object} APIResponse[partnerapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), caller, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Ledger godoc
// @ID           getCustomerLedger
// @Summary      Get a customer's credit ledger
// @Description  Balance, earliest outstanding due date, overdue flag and available credit, derived from the customer's open sales
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.LedgerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/ledger [get]
func (h *CustomerHandler) Ledger(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	ledger, err := h.ledgerService.GetLedger(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledger)
}
