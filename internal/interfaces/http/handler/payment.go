package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	financeapp "github.com/bakery/ledger/internal/application/finance"
	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/interfaces/http/dto"
	"github.com/bakery/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler records payments against credit sales and lists them
type PaymentHandler struct {
	BaseHandler
	allocator *financeapp.PaymentAllocator
	history   *financeapp.PaymentHistoryService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(allocator *financeapp.PaymentAllocator, history *financeapp.PaymentHistoryService) *PaymentHandler {
	return &PaymentHandler{allocator: allocator, history: history}
}

// RecordPaymentRequest is a JSON payment submission. The ids are checked by
// the allocator so that an unknown sale reports invalid_reference.
// @Description Payment against one credit sale
type RecordPaymentRequest struct {
	CustomerID    string          `json:"customer_id" example:"6f1c2f8e-8a4b-4c1e-9d55-2a1f0e3b7c90"`
	TransactionID string          `json:"transaction_id" example:"0b7c8d4e-1111-4f2a-9a51-3b8e2f9c0d11"`
	Amount        json.RawMessage `json:"amount" swaggertype:"string" example:"40.00"`
	PaymentMethod string          `json:"payment_method" binding:"required" example:"Bank Transfer"`
	Proof         string          `json:"proof" example:"GCB-TRX-88121"`
	ProofKind     string          `json:"proof_kind" binding:"omitempty,proof_kind" example:"reference"`
	PaymentDate   *time.Time      `json:"payment_date" example:"2026-03-01T09:00:00Z"`
}

// RecordPaymentForm is the multipart variant that carries a receipt file
type RecordPaymentForm struct {
	CustomerID    string `form:"customer_id"`
	TransactionID string `form:"transaction_id"`
	Amount        string `form:"amount"`
	PaymentMethod string `form:"payment_method" binding:"required"`
	Proof         string `form:"proof"`
	ProofKind     string `form:"proof_kind" binding:"omitempty,proof_kind"`
	PaymentDate   string `form:"payment_date"`
}

// Create godoc
// @ID           recordPayment
// @Summary      Record a payment against a credit sale
// @Description  Applies one payment to one outstanding sale. Accepts JSON, or multipart/form-data with a "receipt" file as proof.
// @Description  Checks run in order: invalid_reference, invalid_amount, overpayment, then proof_required or proof_conflict.
// @Tags         payments
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        request body     RecordPaymentRequest true  "Payment"
// @Param        receipt formData file                 false "Receipt image or PDF"
// @Success      201 {object} APIResponse[financeapp.AllocationResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}

	var in financeapp.AllocatePaymentInput
	var method string
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var form RecordPaymentForm
		if err := c.ShouldBind(&form); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
		paymentDate, err := parseTimestamp(form.PaymentDate)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "payment_date must be RFC3339")
			return
		}
		in = financeapp.AllocatePaymentInput{
			CustomerID:    parseID(form.CustomerID),
			TransactionID: parseID(form.TransactionID),
			Amount:        parseAmount(form.Amount),
			Proof:         financeapp.ProofSubmission{Value: form.Proof, Kind: finance.ProofKind(form.ProofKind)},
			PaymentDate:   paymentDate,
		}
		method = form.PaymentMethod

		if header, err := c.FormFile("receipt"); err == nil {
			file, closeFile, err := openReceipt(header)
			if err != nil {
				h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Receipt file could not be read")
				return
			}
			defer closeFile()
			in.Proof.Receipt = &file
		}
	} else {
		var req RecordPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
		in = financeapp.AllocatePaymentInput{
			CustomerID:    parseID(req.CustomerID),
			TransactionID: parseID(req.TransactionID),
			Amount:        parseAmount(strings.Trim(string(req.Amount), `"`)),
			Proof:         financeapp.ProofSubmission{Value: req.Proof, Kind: finance.ProofKind(req.ProofKind)},
			PaymentDate:   req.PaymentDate,
		}
		method = req.PaymentMethod
	}

	parsed, ok := finance.ParsePaymentMethod(method)
	if !ok {
		h.ValidationError(c, dto.ValidationDetail{
			Field:   "payment_method",
			Message: "Must be one of: " + paymentMethodNames(),
			Tag:     "payment_method",
			Value:   method,
		})
		return
	}
	in.Method = parsed

	result, err := h.allocator.Allocate(c.Request.Context(), caller, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List godoc
// @ID           listPayments
// @Summary      Payment history
// @Description  Payments across customers with customer names and sale numbers. camelCase query names are accepted too.
// @Tags         payments
// @Produce      json
// @Param        customer_id    query string false "Customer ID" format(uuid)
// @Param        transaction_id query string false "Sale ID" format(uuid)
// @Param        start_date     query string false "From date, YYYY-MM-DD or RFC3339"
// @Param        end_date       query string false "To date inclusive, YYYY-MM-DD or RFC3339"
// @Param        payment_method query string false "Payment method"
// @Param        sort_by        query string false "id, payment_date, customer_name, transaction_id or amount. Unknown keys sort newest first."
// @Param        sort_order     query string false "asc or desc" default(asc)
// @Param        page           query int    false "Page number" default(1)
// @Param        page_size      query int    false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]financeapp.PaymentViewDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}

	in, err := parsePaymentQuery(c)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
		return
	}

	result, err := h.history.List(c.Request.Context(), caller, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(result))
}

// ListByCustomer godoc
// @ID           listCustomerPayments
// @Summary      List a customer's payments
// @Tags         payments
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[[]financeapp.PaymentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/payments [get]
func (h *PaymentHandler) ListByCustomer(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	payments, err := h.history.ListByCustomer(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// queryError is a malformed history query parameter
type queryError string

func (e queryError) Error() string { return string(e) }

// parsePaymentQuery reads the history filters from the query string
func parsePaymentQuery(c *gin.Context) (financeapp.PaymentHistoryInput, error) {
	in := financeapp.PaymentHistoryInput{
		PaymentMethod: query(c, "payment_method", "paymentMethod"),
		SortBy:        query(c, "sort_by", "sortBy"),
		SortOrder:     query(c, "sort_order", "sortOrder"),
	}

	for _, p := range []struct {
		dst   **uuid.UUID
		names [2]string
	}{
		{&in.CustomerID, [2]string{"customer_id", "customerId"}},
		{&in.TransactionID, [2]string{"transaction_id", "transactionId"}},
	} {
		raw := query(c, p.names[0], p.names[1])
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return in, queryError("Invalid " + p.names[0] + " format")
		}
		*p.dst = &id
	}

	var err error
	if in.StartDate, err = parseDate(query(c, "start_date", "startDate"), false); err != nil {
		return in, queryError("start_date must be YYYY-MM-DD or RFC3339")
	}
	if in.EndDate, err = parseDate(query(c, "end_date", "endDate"), true); err != nil {
		return in, queryError("end_date must be YYYY-MM-DD or RFC3339")
	}

	if in.Page, err = queryInt(query(c, "page", "page")); err != nil {
		return in, queryError("page must be a number")
	}
	if in.PageSize, err = queryInt(query(c, "page_size", "pageSize")); err != nil {
		return in, queryError("page_size must be a number")
	}
	return in, nil
}

// query returns the first non-empty value among the snake and camel case names
func query(c *gin.Context, snake, camel string) string {
	if v := strings.TrimSpace(c.Query(snake)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query(camel))
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// parseDate accepts a calendar date (UTC) or an RFC3339 timestamp. A bare
// date used as an upper bound covers the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		if endOfDay {
			d = d.Add(24*time.Hour - time.Nanosecond)
		}
		return &d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTimestamp(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseID maps a malformed or missing id to uuid.Nil, which the allocator
// reports as invalid_reference
func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// parseAmount maps an unreadable amount to zero, which the allocator reports
// as invalid_amount
func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func paymentMethodNames() string {
	methods := finance.PaymentMethods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
