package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	outboxapp "github.com/bakery/ledger/internal/application/event"
	financeapp "github.com/bakery/ledger/internal/application/finance"
	partnerapp "github.com/bakery/ledger/internal/application/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/bakery/ledger/internal/infrastructure/auth"
	"github.com/bakery/ledger/internal/infrastructure/cache"
	"github.com/bakery/ledger/internal/infrastructure/config"
	"github.com/bakery/ledger/internal/infrastructure/event"
	"github.com/bakery/ledger/internal/infrastructure/logger"
	"github.com/bakery/ledger/internal/infrastructure/migration"
	"github.com/bakery/ledger/internal/infrastructure/persistence"
	"github.com/bakery/ledger/internal/infrastructure/telemetry"
	"github.com/bakery/ledger/internal/interfaces/http/handler"
	"github.com/bakery/ledger/internal/interfaces/http/middleware"
	"github.com/bakery/ledger/migrations"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//	@title			Bakery Ledger API
//	@version		1.0
//	@description	Customer credit and payment ledger for the bakery point of sale

//	@contact.name	Ledger maintainers
//	@contact.url	https://github.com/bakery/ledger

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token issued by the POS identity service. Format: "Bearer {token}"

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting bakery ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("ledger"))
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = !cfg.App.IsProduction()
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		migrator, err := migration.NewFromFS(sqlDB, migrations.FS, log)
		if err != nil {
			log.Fatal("Failed to initialize migrator", zap.Error(err))
		}
		if err := migrator.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Redis backs subscriber deduplication and ledger change notices when configured
	var (
		idempotencyStore shared.IdempotencyStore
		redisClient      *redis.Client
		ledgerNotifier   financeapp.LedgerNotifier
	)
	if cfg.Redis.Host != "" {
		factory := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.App.IsProduction()),
		)
		idempotencyStore, redisClient, err = factory.CreateStore(context.Background())
		if err != nil {
			log.Fatal("Failed to initialize idempotency store", zap.Error(err))
		}
	} else {
		log.Info("Redis not configured, using in-memory idempotency store")
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	if redisClient != nil {
		ledgerNotifier = cache.NewRedisLedgerNotifier(redisClient, cache.DefaultLedgerChannel)
	}

	// Receipt storage
	receiptStore, receiptOpts := newReceiptStorage(cfg, log)

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	saleRepo := persistence.NewGormCreditSaleRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	historyQuery := persistence.NewGormPaymentHistoryQuery(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(serializer).WithMaxRetries(cfg.Event.MaxRetries)
	txScope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)

	// Application services
	uploader := financeapp.NewReceiptUploader(receiptStore, cfg.Storage.MaxReceiptSize, log.Named("receipts"))
	customerService := partnerapp.NewCustomerService(customerRepo, txScope, log)
	saleService := financeapp.NewSaleService(saleRepo, paymentRepo, txScope, log)
	ledgerService := financeapp.NewCreditLedgerService(customerRepo, saleRepo)
	selector := financeapp.NewOutstandingSaleSelector(customerRepo, saleRepo)
	allocator := financeapp.NewPaymentAllocator(saleRepo, txScope, financeapp.NewProofValidator(uploader), log.Named("payments")).
		WithMetrics(ledgerMetrics)
	historyService := financeapp.NewPaymentHistoryService(customerRepo, paymentRepo, historyQuery)
	outboxService := outboxapp.NewOutboxService(outboxRepo, log)

	// Event bus and outbox relay
	eventBus := event.NewInMemoryEventBus(log)
	idempotency := event.WithIdempotencyConfig(shared.IdempotencyConfig{
		TTL:     cfg.Event.IdempotencyTTL,
		Enabled: true,
	})
	eventBus.Subscribe(event.NewIdempotentHandler("ledger_refresh",
		financeapp.NewLedgerRefreshHandler(customerRepo, ledgerNotifier, log), idempotencyStore, log, idempotency))
	eventBus.Subscribe(event.NewIdempotentHandler("payment_audit",
		financeapp.NewPaymentAuditHandler(log), idempotencyStore, log, idempotency))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.OutboxEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Event.BatchSize
		processorConfig.PollInterval = cfg.Event.PollInterval
		if cfg.Event.CleanupInterval > 0 {
			processorConfig.CleanupInterval = cfg.Event.CleanupInterval
		}
		if cfg.Event.CleanupRetention > 0 {
			processorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}
		processor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorConfig, log)
		if err := processor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := processor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// HTTP
	handlers := &handlers{
		customer: handler.NewCustomerHandler(customerService, ledgerService),
		sale:     handler.NewSaleHandler(saleService, selector),
		payment:  handler.NewPaymentHandler(allocator, historyService),
		receipt:  handler.NewReceiptHandler(uploader, receiptOpts...),
		outbox:   handler.NewOutboxHandler(outboxService),
		system: handler.NewSystemHandler(version).
			AddCheck("database", sqlDB.PingContext),
	}
	if redisClient != nil {
		handlers.system.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := newEngine(cfg, log, auth.NewJWTService(cfg.JWT), meterProvider, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
