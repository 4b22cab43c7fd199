package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ameliazsabrina/sericlo-app/internal/config"
	"github.com/ameliazsabrina/sericlo-app/internal/event"
	"github.com/ameliazsabrina/sericlo-app/internal/gateway"
	gatewaymock "github.com/ameliazsabrina/sericlo-app/internal/gateway/mock"
	handler "github.com/ameliazsabrina/sericlo-app/internal/handler/http"
	"github.com/ameliazsabrina/sericlo-app/internal/identity"
	"github.com/ameliazsabrina/sericlo-app/internal/repository"
	"github.com/ameliazsabrina/sericlo-app/internal/repository/postgres"
	redisrepo "github.com/ameliazsabrina/sericlo-app/internal/repository/redis"
	"github.com/ameliazsabrina/sericlo-app/internal/service"
	"github.com/ameliazsabrina/sericlo-app/migrations"
	"github.com/ameliazsabrina/sericlo-app/pkg/database"
	"github.com/ameliazsabrina/sericlo-app/pkg/health"
	"github.com/ameliazsabrina/sericlo-app/pkg/httpclient"
	pkgkafka "github.com/ameliazsabrina/sericlo-app/pkg/kafka"
)

// App wires together all dependencies and runs the marketplace API.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *goredis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "checkout")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// The dedup cache is an optimization; a missing Redis only costs extra
	// no-op ledger writes, so startup proceeds without it.
	var dedup repository.DedupCache
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		logger.Warn("redis unavailable, reconciliation dedup cache disabled",
			slog.String("error", err.Error()),
		)
		redisClient = nil
	} else {
		dedup = redisrepo.NewDedupCache(redisClient, cfg.DedupTTL())
		logger.Info("connected to Redis",
			slog.String("host", cfg.RedisHost),
			slog.Int("port", cfg.RedisPort),
		)
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Payment gateway client behind a circuit breaker.
	provider := newGatewayProvider(cfg, logger)
	logger.Info("payment gateway initialized", slog.String("provider", provider.Name()))

	// Session verification: local JWT when a secret is configured, remote
	// identity provider otherwise.
	verifier := newVerifier(cfg, logger)

	// Build the dependency graph.
	cartRepo := postgres.NewCartRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	eventProducer := event.NewProducer(producer, logger)

	cartService := service.NewCartService(cartRepo, catalogRepo, logger)
	checkoutService := service.NewCheckoutService(cartRepo, catalogRepo, orderRepo, txnRepo, dedup, provider, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(cartService, checkoutService, provider, verifier, healthHandler, logger, cfg.FrontendOrigin)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// newGatewayProvider builds the hosted-payment-page client. Without a server
// key there is nothing to sign requests with, so the mock provider is used;
// that keeps local development working end to end.
func newGatewayProvider(cfg *config.Config, logger *slog.Logger) gateway.Provider {
	if cfg.GatewayServerKey == "" {
		logger.Warn("GATEWAY_SERVER_KEY not set, using mock payment provider")
		return gatewaymock.NewProvider()
	}

	baseClient := httpclient.New(httpclient.Config{
		Timeout:         time.Duration(cfg.GatewayTimeout) * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, circuitBreakerConfig(cfg, "payment-gateway"), logger)

	return gateway.NewSnapClient(cbClient, cfg.GatewayBaseURL, cfg.GatewayServerKey)
}

func newVerifier(cfg *config.Config, logger *slog.Logger) identity.Verifier {
	if cfg.JWTSecret != "" {
		logger.Info("using local JWT session verification")
		return identity.NewJWTVerifier(cfg.JWTSecret)
	}

	baseClient := httpclient.New(httpclient.DefaultConfig())
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, circuitBreakerConfig(cfg, "identity"), logger)
	logger.Info("using remote session verification", slog.String("identity_url", cfg.IdentityURL))

	return identity.NewRemoteVerifier(cbClient, cfg.IdentityURL)
}

func circuitBreakerConfig(cfg *config.Config, name string) httpclient.CircuitBreakerConfig {
	return httpclient.CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Kafka producer
// 3. Redis client
// 4. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
