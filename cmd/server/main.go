package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"codesync/internal/announce"
	"codesync/internal/api"
	"codesync/internal/config"
	"codesync/internal/events"
	"codesync/internal/exec"
	"codesync/internal/metrics"
	"codesync/internal/models"
	"codesync/internal/routers"
	"codesync/internal/session"
	"codesync/internal/utils"
)

func main() {
	logger := utils.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTSecret != "" {
		utils.SetJWTSecret([]byte(cfg.JWTSecret))
	}

	notifiers := []session.Notifier{metrics.Recorder{}}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatalf("redis at %s: %v", cfg.RedisAddr, err)
		}
		cancel()
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
		notifiers = append(notifiers, announce.New(rdb, logger))
	}

	sessions := session.NewCoordinator(logger, notifiers...)

	router := events.NewRouter(sessions, logger)
	router.SetEventHook(metrics.EventRouted)

	sandbox, err := exec.NewSandbox(cfg.SandboxImage, exec.DefaultLimits())
	if err != nil {
		log.Fatalf("sandbox: %v", err)
	}
	executor := exec.NewManager(sandbox,
		func(key exec.Key, frame models.Frame) { sessions.SendTo(key.ConnID, frame) },
		func(roomID string, frame models.Frame) { sessions.Broadcast(roomID, frame, "") },
		logger,
	)

	h := api.NewHandlers(logger, sessions, router, executor)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Mount("/", routers.New(h))
	r.Handle("/metrics", metrics.Handler())

	addr := ":" + cfg.Port
	log.Printf("codesync listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
