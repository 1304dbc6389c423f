package main

import (
	"context"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/openhours/libs/auth"
	"github.com/md-rashed-zaman/openhours/libs/config"
	"github.com/md-rashed-zaman/openhours/libs/db"
	"github.com/md-rashed-zaman/openhours/libs/grpcx"
	"github.com/md-rashed-zaman/openhours/libs/httpx"
	"github.com/md-rashed-zaman/openhours/libs/kafkax"
	otelx "github.com/md-rashed-zaman/openhours/libs/otel"
	"github.com/md-rashed-zaman/openhours/libs/runtime"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/cache"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/handlers"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/metrics"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/outbox"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/storage"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/transitions"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const grpcServiceName = "openhours.HoursService"

func main() {
	service := config.String("SERVICE_NAME", "hours-service")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	defaultTZ, err := config.Location("DEFAULT_TIMEZONE", "UTC")
	if err != nil {
		panic(err)
	}
	maxConns, err := config.Int("DB_MAX_CONNS", 10, 1)
	if err != nil {
		panic(err)
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(maxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("schema migration failed", "err", err)
		panic(err)
	}

	outboxRepo := outbox.NewRepository()
	repo := storage.NewRepository(pool, outboxRepo)

	brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", ""))
	retention, err := config.Duration("OUTBOX_RETENTION", 7*24*time.Hour)
	if err != nil {
		panic(err)
	}
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
		Retention: retention,
	})
	go publisher.Run(ctx)

	workerInterval, err := config.Duration("TRANSITION_INTERVAL", 5*time.Second)
	if err != nil {
		panic(err)
	}
	workerBatch, err := config.Int("TRANSITION_BATCH_SIZE", 100, 1)
	if err != nil {
		panic(err)
	}
	worker := transitions.NewWorker(pool, repo, outboxRepo, logger, transitions.WorkerConfig{
		Interval:  workerInterval,
		BatchSize: workerBatch,
	})
	go worker.Run(ctx)

	limitPerMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120, 1)
	if err != nil {
		panic(err)
	}

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(brokers), Optional: true},
	}
	var hoursCache cache.Cache = cache.Noop{}
	var rateLimitMW httpx.Middleware
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		redisDB, err := config.Int("REDIS_DB", 0, 0)
		if err != nil {
			panic(err)
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB,
		})
		defer func() { _ = rdb.Close() }()

		cacheTTL, err := config.Duration("CACHE_TTL", 10*time.Minute)
		if err != nil {
			panic(err)
		}
		hoursCache = cache.NewRedis(rdb, config.String("CACHE_PREFIX", "hours:"), cacheTTL)
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: cache.ReadyCheck(rdb)})
		logger.Info("redis enabled", "addr", addr, "rate_limit_per_minute", limitPerMinute)
	} else {
		rateLimitMW = httpx.NewRateLimiter(limitPerMinute, time.Minute).Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	jwtSecret := []byte(config.String("JWT_SECRET", ""))
	var writeRoles []string
	if len(jwtSecret) > 0 {
		writeRoles = config.List("WRITE_ROLES", "owner,admin")
	} else {
		logger.Warn("JWT_SECRET not set; trusting X-Business-Id from the gateway")
	}

	bodyLimit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 64<<10, 1)
	if err != nil {
		panic(err)
	}
	requestTimeout, err := config.Duration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		panic(err)
	}

	apiMux := http.NewServeMux()
	handlers.New(repo, hoursCache, logger, defaultTZ.String()).Register(apiMux, writeRoles...)
	api := httpx.Chain(metrics.Middleware(apiMux),
		auth.RequireToken(jwtSecret),
		rateLimitMW,
		httpx.WithBodyLimit(int64(bodyLimit)),
		httpx.WithTimeout(requestTimeout),
	)

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/api/", api)

	corsMaxAge, err := config.Duration("CORS_MAX_AGE", 10*time.Minute)
	if err != nil {
		panic(err)
	}
	handler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           corsMaxAge,
		}),
	)
	handler = otelhttp.NewHandler(handler, "hours")

	grpcSrv := grpcx.NewServer(logger)
	if err := grpcSrv.Serve(ctx, logger, ":"+grpcPort); err != nil {
		logger.Error("grpc server failed to start", "err", err)
	} else {
		go watchHealth(ctx, grpcSrv, checks)
	}

	shutdownGrace, err := config.Duration("SHUTDOWN_GRACE", 10*time.Second)
	if err != nil {
		panic(err)
	}
	runtime.ServeHTTP(ctx, logger, &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}, shutdownGrace)
}

// watchHealth mirrors the readiness checks into the gRPC health service.
func watchHealth(ctx context.Context, srv *grpcx.Server, checks []runtime.ReadyCheck) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		srv.SetServing(runtime.Ready(ctx, checks...), grpcServiceName)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
