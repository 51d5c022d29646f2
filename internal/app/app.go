package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/orchidcommerce/orchidbe/internal/domain"
	healthcheck "github.com/orchidcommerce/orchidbe/internal/health"
	"github.com/orchidcommerce/orchidbe/internal/messaging/kafka"
	"github.com/orchidcommerce/orchidbe/internal/metrics"
	"github.com/orchidcommerce/orchidbe/internal/service/account"
	"github.com/orchidcommerce/orchidbe/internal/service/catalog"
	"github.com/orchidcommerce/orchidbe/internal/service/idempotency"
	"github.com/orchidcommerce/orchidbe/internal/service/order"
	"github.com/orchidcommerce/orchidbe/internal/service/outbox"
	redisstore "github.com/orchidcommerce/orchidbe/internal/storage/redis"
	"github.com/orchidcommerce/orchidbe/internal/transport/httpapi"
	"github.com/orchidcommerce/orchidbe/internal/version"
)

// Run собирает сервис и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	tokens := account.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	accounts := account.NewService(deps.Accounts, deps.Roles, tokens, logger.WithField("layer", "accounts"))
	catalogSvc := catalog.NewService(deps.Orchids, deps.Categories, logger.WithField("layer", "catalog"))

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := accounts.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.WithError(err).Warn("failed to bootstrap admin account")
		}
	}

	healthHandler := healthcheck.NewHandler(version.String())

	// Каталог для ядра заказов, опционально за Redis-кэшем.
	var catalogCache *redisstore.CatalogCache
	var engineCatalog domain.CatalogGateway = catalogSvc
	if cfg.RedisAddr != "" {
		cache, cacheErr := redisstore.NewCatalogCache(ctx, cfg.RedisAddr, catalogSvc, log.StandardLogger())
		if cacheErr != nil {
			logger.WithError(cacheErr).Warn("failed to connect redis, continuing without catalog cache")
		} else {
			catalogCache = cache
			engineCatalog = cache
			defer func() { _ = cache.Close() }()
			healthHandler.RegisterChecker("redis", healthcheck.NewSimpleChecker("redis", func() error {
				checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return cache.Ping(checkCtx)
			}))
			logger.Info("redis catalog cache initialized")
		}
	}

	orderMetrics := metrics.NewOrderMetrics()
	engine := order.NewEngine(
		deps.Orders,
		deps.Lines,
		engineCatalog,
		deps.Outbox,
		orderMetrics,
		logger.WithField("layer", "orders"),
	)

	if deps.Postgres != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Postgres.Ping(checkCtx)
		}))
	}

	var wg sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if deps.KafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(deps.KafkaProducer, cfg.KafkaTopic)
		dlq := kafka.NewDLQPublisher(deps.KafkaProducer, cfg.KafkaTopic)
		worker := outbox.NewWorker(deps.Outbox, publisher,
			outbox.WithLogger(logger.WithField("layer", "outbox")),
			outbox.WithDLQPublisher(dlq),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(workerCtx)
		}()
	} else {
		logger.Info("kafka is not configured, outbox worker is disabled")
	}

	cleanup := idempotency.NewCleanupWorker(deps.Idempotency,
		idempotency.WithLogger(logger.WithField("layer", "idempotency")),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanup.Run(workerCtx)
	}()

	var invalidator httpapi.CacheInvalidator
	if catalogCache != nil {
		invalidator = catalogCache
	}
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Orders:      httpapi.NewOrderHandler(engine),
		Catalog:     httpapi.NewCatalogHandler(catalogSvc, invalidator),
		Accounts:    httpapi.NewAccountHandler(accounts),
		Identifier:  accounts,
		Idempotency: deps.Idempotency,
		Health:      healthHandler,
		Readiness:   healthHandler.ReadinessHandler,
	})

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		stopWorkers()
		wg.Wait()
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		stopWorkers()
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
