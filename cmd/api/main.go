package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geotours/tourhub/internal/cache"
	"github.com/geotours/tourhub/internal/config"
	"github.com/geotours/tourhub/internal/db"
	httpx "github.com/geotours/tourhub/internal/http"
	"github.com/geotours/tourhub/internal/mailer"
	"github.com/geotours/tourhub/internal/observability"
	"github.com/geotours/tourhub/internal/repo/mongodb"
	"github.com/joho/godotenv"
)

func main() {
	// Load the .env file when one exists; real env vars win either way.
	_ = godotenv.Load()

	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// tracing is opt-in; without an endpoint the server runs untraced
	if cfg.OTLPEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)

		shutdownTracer, err := observability.InitTracer(ctx, "tourhub", cfg.OTLPEndpoint)

		cancel()

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)

			defer cancel()

			_ = shutdownTracer(ctx)
		}()
	}

	// database

	client, err := db.Connect(cfg.MongoURI)

	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}

	defer func() {
		ctx, cancel := config.WithTimeout(5 * time.Second)

		defer cancel()

		_ = client.Disconnect(ctx)
	}()

	database := client.Database(cfg.MongoDB)

	// indexes and admin seed run before the server takes traffic
	{
		ctx, cancel := config.WithTimeout(10 * time.Second)

		toursRepo := mongodb.NewToursRepo(database, nil)
		usersRepo := mongodb.NewUsersRepo(database, nil)

		if err := toursRepo.EnsureIndexes(ctx); err != nil {
			log.Error("tour indexes failed", "err", err)
			cancel()
			os.Exit(1)
		}

		if err := usersRepo.EnsureIndexes(ctx); err != nil {
			log.Error("user indexes failed", "err", err)
			cancel()
			os.Exit(1)
		}

		if err := db.EnsureAdminUser(ctx, usersRepo, cfg); err != nil {
			log.Error("admin seed failed", "err", err)
			cancel()
			os.Exit(1)
		}

		cancel()
	}

	// report cache: shared redis when configured, in-process otherwise
	var reports cache.Store = cache.NewMemory(30 * time.Second)

	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			TTL:      30 * time.Second,
		})

		ctx, cancel := config.WithTimeout(2 * time.Second)

		err := redisCache.Ping(ctx)

		cancel()

		if err != nil {
			log.Error("redis ping failed", "err", err)
			os.Exit(1)
		}

		defer redisCache.Close()

		reports = redisCache
	}

	// mail: SMTP relay when configured, log-only in dev
	var mail mailer.Mailer = mailer.NewLogMailer(log)

	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
	}

	// set up routers with the log
	router := httpx.NewRouter(log, client, reports, mail, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctxTimeOut := 10 * time.Second

		ctx, cancel := config.WithTimeout(ctxTimeOut)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
