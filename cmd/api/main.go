package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/domeo/domeo-backend/api/controllers"
	"github.com/domeo/domeo-backend/api/routes"
	handlecatalog "github.com/domeo/domeo-backend/internal/catalog"
	"github.com/domeo/domeo-backend/internal/cron"
	"github.com/domeo/domeo-backend/internal/documents"
	"github.com/domeo/domeo-backend/internal/documents/dedup"
	"github.com/domeo/domeo-backend/internal/pricing"
	"github.com/domeo/domeo-backend/internal/revisions"
	"github.com/domeo/domeo-backend/pkg/catalog"
	"github.com/domeo/domeo-backend/pkg/config"
	"github.com/domeo/domeo-backend/pkg/db"
	"github.com/domeo/domeo-backend/pkg/instance"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/metrics"
	"github.com/domeo/domeo-backend/pkg/migrate"
	"github.com/domeo/domeo-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var (
		redisPinger controllers.Pinger
		priceCache  pricing.Cache = pricing.NewMemoryCache()
		sequencer   redis.Sequencer
		locker      redis.Locker = redis.NewLocalLocker()
	)
	if cfg.Redis.Enabled {
		redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		redisPinger = redisClient
		priceCache = pricing.NewRedisCache(redisClient)
		sequencer = redisClient
		locker = redisClient
	} else {
		logg.Warn(ctx, "redis disabled; using in-memory price cache, process-local order locks and database sequences")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	catalogClient, err := catalog.NewClient(cfg.Catalog.BaseURL,
		catalog.WithAPIKey(cfg.Catalog.APIKey),
		catalog.WithTimeout(cfg.Catalog.HTTPTimeout),
	)
	if err != nil {
		return err
	}

	pricingService, err := pricing.NewService(
		catalogClient,
		handlecatalog.NewRepository(dbClient.DB()),
		priceCache,
		pricing.Config{
			CacheTTL:            cfg.Pricing.CacheTTL,
			Timeout:             cfg.Pricing.Timeout,
			ValidateCombination: cfg.Pricing.ValidateCombination,
			UseCache:            cfg.Pricing.UseCache,
		},
		metrics.NewPricingMetrics(registry),
		logg,
	)
	if err != nil {
		return err
	}

	cartStore, err := revisions.NewStore(pricingService, pricingService.DefaultOptions(), logg)
	if err != nil {
		return err
	}

	documentsRepo := documents.NewRepository(dbClient.DB())
	deduplicator, err := dedup.New(documentsRepo, dedup.Config{
		Epsilon:        cfg.Dedup.EpsilonDecimal(),
		CandidateLimit: cfg.Dedup.CandidateLimit,
	}, logg)
	if err != nil {
		return err
	}
	documentService, err := documents.NewService(
		documentsRepo,
		dbClient,
		deduplicator,
		sequencer,
		locker,
		metrics.NewStatusMetrics(registry),
		logg,
	)
	if err != nil {
		return err
	}

	if cfg.Janitor.Enabled {
		janitor, err := newJanitor(cfg, logg, cartStore, metrics.NewJobMetrics(registry))
		if err != nil {
			return err
		}
		go func() {
			if err := janitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "janitor stopped", err)
			}
		}()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisPinger, registry, cartStore, documentService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newJanitor(cfg *config.Config, logg *logger.Logger, store *revisions.Store, jobMetrics *metrics.JobMetrics) (*cron.Service, error) {
	cartTTL, err := cron.NewCartTTLJob(cron.CartTTLJobParams{
		Logger:  logg,
		Carts:   store,
		TTL:     cfg.Janitor.CartTTL,
		Metrics: jobMetrics,
	})
	if err != nil {
		return nil, err
	}
	audit, err := cron.NewRevisionAuditJob(logg, store)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(cartTTL, audit),
		Lock:     cron.NewLocalLock(),
		Metrics:  jobMetrics,
		Interval: cfg.Janitor.Interval,
	})
}
