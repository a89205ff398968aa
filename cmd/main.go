// hirely-api-service
//
// Job marketplace backend. Exposes the REST API used by the web frontend:
//   - accounts, sessions, profiles, ratings and reports
//   - job posting, browsing and the lifecycle (interest, assignment,
//     filled, soft delete)
//   - direct messages between users
//
// Publishes lifecycle events to Redis when REDIS_URL is set, serves
// grpc.health.v1 on GRPC_PORT and runs the periodic status drift audit.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hirely/api-service/internal/auth"
	"hirely/api-service/internal/config"
	"hirely/api-service/internal/db"
	"hirely/api-service/internal/events"
	"hirely/api-service/internal/grpcserver"
	"hirely/api-service/internal/httpx"
	"hirely/api-service/internal/jobs"
	"hirely/api-service/internal/logging"
	"hirely/api-service/internal/messages"
	"hirely/api-service/internal/scheduler"
	"hirely/api-service/internal/users"
)

const (
	serviceName = "api-service"
	version     = "1.0.0"
)

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] config error: %v\n", serviceName, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithField("service", serviceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Migrations ──────────────────────────────────────────────────────────
	sqlDB, err := db.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("open database for migrations")
	}
	if err := db.Apply(ctx, sqlDB); err != nil {
		log.WithError(err).Fatal("apply migrations")
	}
	sqlDB.Close()
	log.Info("migrations applied")

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("PostgreSQL")
	}
	defer pool.Close()
	log.Info("PostgreSQL connected")

	// ── Redis (optional) ────────────────────────────────────────────────────
	var pub events.Publisher = events.Nop{}
	if cfg.RedisURL != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("Redis")
		}
		defer rdb.Close()
		pub = events.NewRedisPublisher(rdb)
		log.Info("Redis connected, lifecycle events enabled")
	} else {
		log.Info("REDIS_URL not set, lifecycle events disabled")
	}

	// ── Features ─────────────────────────────────────────────────────────────
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	jobStore := jobs.NewPostgresStore(pool)

	jobsHandler := jobs.NewHandler(jobs.NewEngine(jobStore, pub, logger), jobs.NewCatalog(jobStore))
	usersHandler := users.NewHandler(users.NewService(users.NewPostgresStore(pool), tokens, logger))
	messagesHandler := messages.NewHandler(messages.NewService(messages.NewPostgresStore(pool), logger))

	limiter := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, limiterKey)

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(logger, cfg.CORSAllowedOrigins, tokens, limiter, usersHandler, jobsHandler, messagesHandler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Infof("v%s listening", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	// ── gRPC health ──────────────────────────────────────────────────────────
	grpcSrv := grpcserver.New(logger)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.WithError(err).Fatal("gRPC listen")
	}
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC server error")
		}
	}()

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Schedule{Audit: cfg.AuditSchedule, Health: cfg.HealthSchedule}, scheduler.Deps{
		Audit:   jobStore,
		DB:      pool,
		Health:  grpcSrv,
		Limiter: limiter,
	}, logger)
	if err := sched.Start(ctx); err != nil {
		log.WithError(err).Fatal("scheduler")
	}

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP shutdown error")
	}
	grpcSrv.Stop()
	log.Info("stopped")
}
