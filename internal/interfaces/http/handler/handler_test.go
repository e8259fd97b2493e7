package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	financeapp "github.com/bakery/ledger/internal/application/finance"
	partnerapp "github.com/bakery/ledger/internal/application/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/bakery/ledger/internal/infrastructure/event"
	"github.com/bakery/ledger/internal/infrastructure/persistence"
	"github.com/bakery/ledger/internal/infrastructure/storage"
	"github.com/bakery/ledger/internal/interfaces/http/dto"
	"github.com/bakery/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// pngReceipt is the smallest byte sequence detected as image/png
var pngReceipt = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

const (
	actorHeader = "X-Test-Actor"
	roleHeader  = "X-Test-Role"
)

// testApp is the ledger API over an in-memory SQLite database
type testApp struct {
	router    *gin.Engine
	db        *gorm.DB
	receipts  *storage.MemoryReceiptStorage
	customers *partnerapp.CustomerService
	sales     *financeapp.SaleService
	cashier   shared.CallerContext
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	txScope := persistence.NewGormTransactionScope(db, event.NewOutboxPublisher(serializer))

	customerRepo := persistence.NewGormCustomerRepository(db)
	saleRepo := persistence.NewGormCreditSaleRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	receipts := storage.NewMemoryReceiptStorage("http://ledger.test")
	uploader := financeapp.NewReceiptUploader(receipts, 0, zap.NewNop())

	customerService := partnerapp.NewCustomerService(customerRepo, txScope, zap.NewNop())
	saleService := financeapp.NewSaleService(saleRepo, paymentRepo, txScope, zap.NewNop())

	customers := NewCustomerHandler(customerService, financeapp.NewCreditLedgerService(customerRepo, saleRepo))
	sales := NewSaleHandler(saleService, financeapp.NewOutstandingSaleSelector(customerRepo, saleRepo))
	payments := NewPaymentHandler(
		financeapp.NewPaymentAllocator(saleRepo, txScope, financeapp.NewProofValidator(uploader), zap.NewNop()),
		financeapp.NewPaymentHistoryService(customerRepo, paymentRepo, persistence.NewGormPaymentHistoryQuery(db)),
	)
	receiptHandler := NewReceiptHandler(uploader, WithReceiptReader(receipts))

	router := gin.New()
	router.GET("/receipts/*key", receiptHandler.Serve)
	api := router.Group("/api/v1", middleware.RequestID(), testAuth())
	api.GET("/customers", customers.List)
	api.POST("/customers", customers.Create)
	api.GET("/customers/:id", customers.Get)
	api.PUT("/customers/:id", customers.Update)
	api.GET("/customers/:id/ledger", customers.Ledger)
	api.GET("/customers/:id/sales", sales.ListByCustomer)
	api.GET("/customers/:id/outstanding-sales", sales.ListOutstanding)
	api.GET("/customers/:id/payments", payments.ListByCustomer)
	api.POST("/sales", sales.Create)
	api.GET("/sales/:id", sales.Get)
	api.POST("/sales/:id/cancel", sales.Cancel)
	api.POST("/payments", payments.Create)
	api.GET("/payments", payments.List)
	api.POST("/receipts", receiptHandler.Upload)
	api.GET("/sales/customer/:id", sales.ListByCustomer)
	api.GET("/sales/customer/:id/outstanding", sales.ListOutstanding)
	api.POST("/sales/upload-receipt", receiptHandler.Upload)
	api.GET("/payments/customer/:id", payments.ListByCustomer)

	return &testApp{
		router:    router,
		db:        db,
		receipts:  receipts,
		customers: customerService,
		sales:     saleService,
		cashier:   shared.NewCallerContext(uuid.New(), shared.RoleCashier),
	}
}

// testAuth stands in for the JWT middleware: the caller comes from test headers
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := uuid.Parse(c.GetHeader(actorHeader))
		if err != nil {
			c.Next()
			return
		}
		caller := shared.NewCallerContext(actor, shared.ParseRole(c.GetHeader(roleHeader)))
		c.Set(middleware.CallerKey, caller)
		c.Set(middleware.ActorIDKey, actor.String())
		c.Next()
	}
}

// seedCustomer creates a customer with a single unpaid sale of total
func (a *testApp) seedCustomer(t *testing.T, name string, total string) (*partnerapp.CustomerDTO, *financeapp.SaleDTO) {
	t.Helper()
	ctx := context.Background()
	customer, err := a.customers.Create(ctx, a.cashier, partnerapp.CustomerInput{
		FullName:    name,
		CreditLimit: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	if total == "" {
		return customer, nil
	}
	due := time.Now().Add(30 * 24 * time.Hour)
	sale, err := a.sales.RecordCreditSale(ctx, a.cashier, financeapp.RecordSaleInput{
		CustomerID:  customer.ID,
		TotalAmount: decimal.RequireFromString(total),
		DueDate:     &due,
	})
	require.NoError(t, err)
	return customer, sale
}

// do sends a request as the given caller. A zero caller sends no identity.
func (a *testApp) do(method, path string, body io.Reader, contentType string, caller shared.CallerContext) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if caller.ActorID != uuid.Nil {
		req.Header.Set(actorHeader, caller.ActorID.String())
		req.Header.Set(roleHeader, string(caller.Role))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) getJSON(path string, caller shared.CallerContext) *httptest.ResponseRecorder {
	return a.do(http.MethodGet, path, nil, "", caller)
}

func (a *testApp) postJSON(path string, body any, caller shared.CallerContext) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	return a.do(http.MethodPost, path, bytes.NewReader(raw), "application/json", caller)
}

// serve runs a request through a bare router
func serve(router *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope and its data into out
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var envelope struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	if out != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return envelope.Response
}

// errorCode returns the wire error code of a failed response
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode(t, w, nil)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}
