package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/logger/pkg/logger"
	"github.com/cwrk-planet/messaging-service/config"
	"github.com/cwrk-planet/messaging-service/internal/pg"
	"github.com/cwrk-planet/messaging-service/internal/postgres"
	"github.com/cwrk-planet/messaging-service/internal/presence"
	"github.com/cwrk-planet/messaging-service/internal/queue"
	"github.com/cwrk-planet/messaging-service/internal/service"
	httpx "github.com/cwrk-planet/messaging-service/internal/transport/http"

	"github.com/joho/godotenv"
)

func main() {
	// --- env + config ---
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting messaging-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := pg.NewPool(ctx, pg.Config{
		DSN:             cfg.Postgres.DSN,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if cfg.Postgres.MigrationsDir != "" {
		if err := postgres.Migrate(cfg.Postgres.DSN, cfg.Postgres.MigrationsDir); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	// --- redis ---
	redisClient, err := presence.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// --- queue ---
	tasks, err := queue.NewAsynqClient(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("asynq: %v", err)
	}
	defer tasks.Close()

	// --- repos ---
	convRepo := postgres.NewConversationRepository(pool)
	msgRepo := postgres.NewMessageRepository(pool)
	socialRepo := postgres.NewSocialRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)

	// --- presence ---
	tracker := presence.NewTracker(userRepo, presence.NewRedisTypingStore(redisClient))
	tracker.SetOnlineWindow(cfg.OnlineWindow())
	tracker.SetTypingTTL(cfg.TypingTTL())

	// --- services ---
	gateSvc := service.NewGateService(socialRepo, tasks)
	convSvc := service.NewConversationService(convRepo, tracker)
	msgSvc := service.NewMessageService(msgRepo, convRepo, gateSvc)
	msgSvc.SetPageSize(cfg.Chat.PageSize)
	msgSvc.SetMaxContentLen(cfg.Chat.MaxContentLen)
	msgSvc.SetMaxMediaBytes(cfg.Chat.MaxMediaBytes)

	// --- HTTP ---
	handler := httpx.NewHandler(convSvc, msgSvc, gateSvc, tracker)
	router := httpx.NewRouter(handler, sessionRepo, tracker)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
