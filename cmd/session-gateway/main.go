package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/client"
	"github.com/mathbuddy/mathbuddy-go/internal/config"
	"github.com/mathbuddy/mathbuddy-go/internal/handler"
	"github.com/mathbuddy/mathbuddy-go/internal/metrics"
	"github.com/mathbuddy/mathbuddy-go/internal/middleware"
	"github.com/mathbuddy/mathbuddy-go/internal/service"
	"github.com/mathbuddy/mathbuddy-go/pkg/logger"
	"github.com/mathbuddy/mathbuddy-go/pkg/redis"
	"github.com/mathbuddy/mathbuddy-go/pkg/server"
)

const defaultConfigPath = "configs/session-gateway.yaml"

func main() {
	cfg, err := config.LoadConfig(config.ResolvePath(defaultConfigPath))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("session-gateway starting", zap.String("tutorBackend", cfg.Services.TutorBackend))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connect redis failed", zap.Error(err))
	}
	defer redisClient.Close()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	clock := clockwork.NewRealClock()
	backend := client.NewTutorClient(cfg.Services.TutorBackend, cfg.Services.Timeout, zapLogger)

	store := service.NewSessionStore(redisClient, clock, cfg.Session.TTL, zapLogger)
	tutorService := service.NewTutorService(store, backend, m, zapLogger)
	feedService := service.NewFeedService(clock, cfg.Session.HeartbeatInterval, cfg.Session.HeartbeatTimeout, backend, tutorService, m, zapLogger)
	feedService.LimitFrames(cfg.Session.FrameRate, cfg.Session.FrameBurst)
	go feedService.Run(ctx)
	defer feedService.CloseAll()

	sessionHandler := handler.NewSessionHandler(store, tutorService, backend, feedService, cfg.Server.Name, zapLogger)
	feedHandler := handler.NewFeedHandler(feedService, cfg.Server.AllowedOrigins, zapLogger)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(zapLogger), httpMetrics.Middleware(), middleware.CORS(cfg.Server.AllowedOrigins))
	sessions := sessionHandler.Register(r)
	sessions.GET("/feed", feedHandler.HandleFeed)
	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	if err := server.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port), r, zapLogger); err != nil {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("session-gateway stopped")
}
