package main

import (
	"context"
	"time"

	financeapp "github.com/bakery/ledger/internal/application/finance"
	"github.com/bakery/ledger/internal/infrastructure/auth"
	"github.com/bakery/ledger/internal/infrastructure/config"
	"github.com/bakery/ledger/internal/infrastructure/logger"
	"github.com/bakery/ledger/internal/infrastructure/storage"
	"github.com/bakery/ledger/internal/infrastructure/telemetry"
	"github.com/bakery/ledger/internal/interfaces/http/handler"
	"github.com/bakery/ledger/internal/interfaces/http/middleware"
	"github.com/bakery/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/bakery/ledger/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type handlers struct {
	customer *handler.CustomerHandler
	sale     *handler.SaleHandler
	payment  *handler.PaymentHandler
	receipt  *handler.ReceiptHandler
	outbox   *handler.OutboxHandler
	system   *handler.SystemHandler
}

// newReceiptStorage picks the S3 bucket when one is configured and the
// in-process store otherwise. The handler options tell the receipt handler
// how to serve stored receipts back.
func newReceiptStorage(cfg *config.Config, log *zap.Logger) (financeapp.ReceiptStore, []handler.ReceiptHandlerOption) {
	if !cfg.Storage.Enabled() {
		baseURL := cfg.Storage.PublicBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:" + cfg.App.Port
		}
		log.Warn("No receipt bucket configured, receipts are kept in memory and lost on restart",
			zap.String("base_url", baseURL))
		store := storage.NewMemoryReceiptStorage(baseURL)
		return store, []handler.ReceiptHandlerOption{handler.WithReceiptReader(store)}
	}

	store, err := storage.NewS3ReceiptStorage(&cfg.Storage,
		storage.WithLogger(log.Named("s3")),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		log.Fatal("Failed to initialize receipt storage", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to prepare receipt bucket", zap.Error(err), zap.String("bucket", store.Bucket()))
	}
	log.Info("Receipt storage ready", zap.String("bucket", store.Bucket()))
	return store, []handler.ReceiptHandlerOption{handler.WithReceiptSigner(store)}
}

// newEngine builds the gin engine with the middleware stack and every route
func newEngine(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService, meters *telemetry.MeterProvider, h *handlers) *gin.Engine {
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before logging and tracing read it
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meters,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	jwt := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Verifier:  jwtService,
		SkipPaths: []string{"/api/v1/system/info"},
		Logger:    log,
	})

	// Unversioned routes
	engine.GET("/health", h.system.Health)
	engine.GET("/ready", h.system.Ready)
	engine.GET("/receipts/*key", h.receipt.Serve)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.App.IsProduction(),
		}, jwt),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	var writeLimit []gin.HandlerFunc
	if cfg.HTTP.WriteRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.WriteRateLimit, cfg.HTTP.WriteRateWindow)
		writeLimit = append(writeLimit, middleware.RateLimitByActor(limiter))
		log.Info("Write rate limiting enabled",
			zap.Int("limit", cfg.HTTP.WriteRateLimit),
			zap.Duration("window", cfg.HTTP.WriteRateWindow),
		)
	}
	limited := func(hf gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writeLimit...), hf)
	}

	customers := router.NewDomainGroup("customers", "/customers").
		GET("", h.customer.List).
		POST("", h.customer.Create).
		GET("/:id", h.customer.Get).
		PUT("/:id", h.customer.Update).
		GET("/:id/ledger", h.customer.Ledger).
		GET("/:id/sales", h.sale.ListByCustomer).
		GET("/:id/outstanding-sales", h.sale.ListOutstanding).
		GET("/:id/payments", h.payment.ListByCustomer)

	sales := router.NewDomainGroup("sales", "/sales").
		POST("", h.sale.Create).
		GET("/:id", h.sale.Get).
		POST("/:id/cancel", h.sale.Cancel).
		// collaborator paths used by the POS client
		GET("/customer/:id", h.sale.ListByCustomer).
		GET("/customer/:id/outstanding", h.sale.ListOutstanding).
		POST("/upload-receipt", limited(h.receipt.Upload)...)

	payments := router.NewDomainGroup("payments", "/payments").
		GET("", h.payment.List).
		POST("", limited(h.payment.Create)...).
		GET("/customer/:id", h.payment.ListByCustomer)

	receipts := router.NewDomainGroup("receipts", "/receipts").
		POST("", limited(h.receipt.Upload)...)

	system := router.NewDomainGroup("system", "/system").
		GET("/info", h.system.GetSystemInfo)
	system.Group("outbox", "/outbox").
		GET("/dead", h.outbox.GetDeadLetterEntries).
		POST("/dead/retry", h.outbox.RetryAllDeadEntries).
		GET("/stats", h.outbox.GetStats).
		GET("/entries/:id", h.outbox.GetEntry).
		POST("/entries/:id/retry", h.outbox.RetryDeadEntry)

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(jwt, middleware.SpanEnricher()),
	)
	for _, group := range []*router.DomainGroup{customers, sales, payments, receipts, system} {
		r.Register(group)
		for _, route := range group.Routes() {
			log.Debug("Route registered",
				zap.String("group", group.Name()),
				zap.String("method", route.Method),
				zap.String("path", "/api/v1"+route.Path),
			)
		}
	}
	r.Setup()

	return engine
}
