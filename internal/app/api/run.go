// Package api assembles and runs the HTTP API process.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	checkoutclient "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/clients/http/checkout"
	darajaclient "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/clients/http/daraja"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/clients/http/notify"

	ordersexternalcheckout "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/adapters/external/checkout"
	ordersexternaldaraja "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/adapters/external/daraja"
	ordershttp "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/adapters/http"
	ordersmemory "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/adapters/memory"
	ordersobs "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/application"
	ordersports "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"

	paymentshttp "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/http"
	idemmemory "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/idempotency/memory"
	idempostgres "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/idempotency/postgres"
	ledgermemory "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/ledger/memory"
	ledgerpostgres "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/ledger/postgres"
	paymentsmemory "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/memory"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/notifications"
	paymentsobs "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/observability"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/providers/card"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/providers/mpesa"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/providers/paystack"
	paymentsapp "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/application"
	paymentports "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"

	platformobservability "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/observability"
	platformpostgres "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/postgres"
	platformredis "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/redis"
)

// Run boots the marketplace HTTP API with observability, repositories, payment
// rails, and notification dispatch wired.
func Run(ctx context.Context) error {
	const serviceName = "melagro-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	db, cleanupDB := connectPostgres(ctx, cfg, logger)
	defer cleanupDB()

	stores := buildStores(db, logger)

	push, cards := buildPaymentRails(ctx, cfg, logger)
	coreOrderService := ordersapp.NewService(stores.orders, push, cards)
	orderService := ordersobs.New(
		coreOrderService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	dispatcher, cleanupTemporal := buildDispatcher(cfg, instruments, logger)
	defer cleanupTemporal()

	coreReconciler := paymentsapp.NewService(stores.orders, stores.idempotency, stores.ledger, stores.tx, dispatcher)
	reconciler := paymentsobs.New(
		coreReconciler,
		paymentsobs.WithLogger(logger),
		paymentsobs.WithTracer(instruments.Tracer("internal.payments.application")),
		paymentsobs.WithMeter(instruments.Meter("internal.payments.application")),
	)

	adapters := []paymentports.ProviderAdapter{
		mpesa.New(),
		card.New(),
		paystack.New(cfg.PaystackSecret),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	ordershttp.NewHandler(orderService, stores.ledger).Register(v1)
	paymentshttp.NewHandler(reconciler, adapters, logger).Register(v1)

	addr := ":" + cfg.Port
	logger.Info("Mel-Agro API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("Mel-Agro API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

type stores struct {
	orders      ordersports.Repository
	ledger      paymentports.TransactionLedger
	idempotency paymentports.IdempotencyLedger
	tx          paymentports.TxManager
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory stores")
		return nil, func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory stores", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory stores", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres connection established")
	return db, func() { _ = sqlDB.Close() }
}

func buildStores(db *gorm.DB, logger *slog.Logger) stores {
	if db == nil {
		return stores{
			orders:      ordersmemory.NewRepository(),
			ledger:      ledgermemory.NewLedger(),
			idempotency: idemmemory.NewStore(),
			tx:          paymentsmemory.NewTxManager(),
		}
	}
	logger.Info("stores configured with postgres")
	return stores{
		orders:      orderspostgres.NewRepository(db),
		ledger:      ledgerpostgres.NewLedger(db),
		idempotency: idempostgres.NewStore(db),
		tx:          platformpostgres.NewTxManager(db),
	}
}

func buildPaymentRails(ctx context.Context, cfg Config, logger *slog.Logger) (ordersports.MobilePush, ordersports.CardCheckout) {
	var push ordersports.MobilePush
	if cfg.DarajaConfigured() {
		opts := []darajaclient.Option{}
		if cfg.RedisAddr != "" {
			if redisClient, err := platformredis.Connect(ctx, cfg.RedisAddr); err != nil {
				logger.Warn("redis unavailable, daraja tokens cached in process", slog.String("error", err.Error()))
			} else {
				opts = append(opts, darajaclient.WithTokenCache(platformredis.NewTokenCache(redisClient, "daraja:access_token")))
			}
		}
		mpesaClient, err := darajaclient.NewClient(darajaclient.Config{
			BaseURL:        cfg.DarajaBaseURL,
			ConsumerKey:    cfg.DarajaConsumerKey,
			ConsumerSecret: cfg.DarajaConsumerSecret,
			Shortcode:      cfg.DarajaShortcode,
			Passkey:        cfg.DarajaPasskey,
			CallbackURL:    cfg.DarajaCallbackURL,
		}, opts...)
		if err != nil {
			logger.Warn("mobile money rail disabled", slog.String("error", err.Error()))
		} else {
			push = ordersexternaldaraja.NewPusher(mpesaClient)
			logger.Info("mobile money rail enabled", slog.String("base_url", cfg.DarajaBaseURL))
		}
	} else {
		logger.Warn("mobile money rail disabled, daraja credentials incomplete")
	}

	checkout := checkoutclient.NewClient(checkoutclient.Config{
		BaseURL:     cfg.CheckoutBaseURL,
		APIKey:      cfg.CheckoutAPIKey,
		ReturnURL:   cfg.CheckoutReturnURL,
		ConfirmPath: cfg.CheckoutConfirmPath,
	})
	if checkout.MockMode() {
		logger.Warn("card checkout running in mock mode")
	}
	return push, ordersexternalcheckout.NewSessions(checkout)
}

func buildDispatcher(cfg Config, instruments *platformobservability.Instruments, logger *slog.Logger) (paymentports.Dispatcher, func()) {
	var sender paymentports.Sender
	if cfg.NotifyWebhookURL != "" {
		webhookSender, err := notify.NewSender(cfg.NotifyWebhookURL)
		if err != nil {
			logger.Warn("notification webhook misconfigured, intents logged only", slog.String("error", err.Error()))
			sender = notifications.NewLogSender(logger)
		} else {
			sender = webhookSender
		}
	} else {
		sender = notifications.NewLogSender(logger)
	}

	temporalClient, err := connectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Warn("Temporal unavailable, dispatching notifications inline", slog.String("error", err.Error()))
		return notifications.NewInlineDispatcher(sender, logger), func() {}
	}
	logger.Info("Temporal notification dispatch enabled", slog.String("namespace", cfg.TemporalNamespace))
	return notifications.NewTemporalDispatcher(temporalClient), func() { temporalClient.Close() }
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	logger := workerlog.NewStructuredLogger(effectiveLogger(instruments))
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
