package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peanutgraphic/servicepoint/internal/geocoding"
	geocodinghandler "github.com/peanutgraphic/servicepoint/internal/geocoding/handler"
	geocodingmetrics "github.com/peanutgraphic/servicepoint/internal/geocoding/metrics"
	"github.com/peanutgraphic/servicepoint/internal/notify"
	"github.com/peanutgraphic/servicepoint/internal/platform/config"
	"github.com/peanutgraphic/servicepoint/internal/platform/httpserver"
	"github.com/peanutgraphic/servicepoint/internal/platform/kvstore"
	"github.com/peanutgraphic/servicepoint/internal/platform/logger"
	"github.com/peanutgraphic/servicepoint/internal/platform/redis"
	"github.com/peanutgraphic/servicepoint/internal/provider"
	"github.com/peanutgraphic/servicepoint/internal/resilience"
	resiliencemetrics "github.com/peanutgraphic/servicepoint/internal/resilience/metrics"
	"github.com/peanutgraphic/servicepoint/internal/validation"
	validationhandler "github.com/peanutgraphic/servicepoint/internal/validation/handler"
	validationmetrics "github.com/peanutgraphic/servicepoint/internal/validation/metrics"
	"github.com/peanutgraphic/servicepoint/pkg/platform/middleware/admin"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Env, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	// Durable TTL store: Redis when configured, in-memory otherwise.
	var store kvstore.Store
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		store = kvstore.NewRedisStore(redisClient.Client)
		log.Info("using redis store")
	} else {
		store = kvstore.NewMemoryStore()
		log.Warn("redis not configured, using in-memory store; resilience state will not survive restarts")
	}

	// Event sink: Kafka when brokers are configured, structured log otherwise.
	var sink notify.Sink = notify.NewLogSink(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("publishing events to kafka", "topic", cfg.Kafka.Topic)
	}

	guard := resilience.New(store, resilience.Config{
		RateLimitRequests:       cfg.Resilience.RateLimitRequests,
		RateLimitWindow:         cfg.Resilience.RateLimitWindow,
		CircuitFailureThreshold: cfg.Resilience.CircuitFailureThreshold,
		CircuitRecoveryTime:     cfg.Resilience.CircuitRecoveryTime,
	}, log,
		resilience.WithSink(sink),
		resilience.WithMetrics(resiliencemetrics.New()),
	)

	client, err := provider.New(cfg.Providers)
	if err != nil {
		return err
	}
	if client == nil {
		log.Warn("no address provider configured; validation and geocoding run permissive")
	} else {
		log.Info("address provider configured", "provider", client.Name(), "configured", client.Configured())
	}

	validationSvc := validation.New(client, guard, store, validation.Config{
		AutocompleteEnabled: cfg.Providers.AutocompleteEnabled,
		ValidationEnabled:   cfg.Providers.ValidationEnabled,
		CacheTTL:            cfg.Cache.ValidationTTL,
	}, log, validation.WithMetrics(validationmetrics.New()))

	territories := geocoding.NewTerritoryStore(store, cfg.Territory.DefaultUtility, log)
	geocodingSvc := geocoding.New(client, guard, validationSvc, territories, store, geocoding.Config{
		Strict:         cfg.Territory.Strict,
		DefaultUtility: cfg.Territory.DefaultUtility,
		GeocodeTTL:     cfg.Cache.GeocodeTTL,
	}, log, geocoding.WithMetrics(geocodingmetrics.New()))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	vh := validationhandler.New(validationSvc, log)
	gh := geocodinghandler.New(geocodingSvc, log)
	vh.Register(r)
	gh.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.AdminToken, log))
		gh.RegisterAdmin(r)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, r)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
