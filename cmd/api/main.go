package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"classroll/internal/attendance"
	"classroll/internal/auth"
	"classroll/internal/config"
	"classroll/internal/handler"
	"classroll/internal/httpmiddleware"
	"classroll/internal/logger"
	"classroll/internal/metrics"
	"classroll/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, log *zap.Logger) error {
	ctx := context.Background()

	db, err := store.NewDB(ctx, cfg.DatabaseURL, store.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cfg.AutoMigrate {
		if err := store.RunMigrations(db.Client.DB, log); err != nil {
			return err
		}
	}
	if cfg.SeedDemo {
		if err := store.SeedDemo(ctx, db.Client, log); err != nil {
			return err
		}
	}

	var (
		rdb     *store.Redis
		cache   attendance.SessionCache
		redisUp handler.Probe
		limiter httpmiddleware.Limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	)
	if cfg.RedisAddr != "" {
		rdb, err = store.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis not reachable, running without session cache", zap.Error(err))
			if cfg.RateLimitBackend == "redis" {
				log.Warn("redis rate limiter unavailable, falling back to per-instance memory limiter")
			}
		} else {
			defer func() { _ = rdb.Close() }()
			cache = attendance.NewRedisSessionCache(rdb.Client, cfg.SessionCacheTTL, log)
			redisUp = rdb.Healthy
			if cfg.RateLimitBackend == "redis" {
				limiter = httpmiddleware.NewRedisFixedWindow(rdb.Client, cfg.RateLimitPerMin)
			}
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(repo, log, attendance.Options{
		CodeSuffixLen:    cfg.CodeSuffixLen,
		CodeMaxAttempts:  cfg.CodeMaxAttempts,
		CodeRetryBackoff: cfg.CodeRetryBackoff,
		Cache:            cache,
		Metrics:          m,
	})
	tokens := auth.NewTokens(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)
	verifier := auth.NewVerifier(repo, tokens)

	h := handler.New(svc, verifier, log, db.Healthy, redisUp)
	r := handler.NewRouter(h, handler.RouterConfig{
		Tokens:      tokens,
		Limiter:     limiter,
		Metrics:     m,
		Gatherer:    prometheus.DefaultGatherer,
		CORSOrigins: cfg.CORSOrigins,
		WebDir:      cfg.WebDir,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
	return nil
}
