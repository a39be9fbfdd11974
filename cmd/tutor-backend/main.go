package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/client"
	"github.com/mathbuddy/mathbuddy-go/internal/config"
	"github.com/mathbuddy/mathbuddy-go/internal/handler"
	"github.com/mathbuddy/mathbuddy-go/internal/metrics"
	"github.com/mathbuddy/mathbuddy-go/internal/middleware"
	"github.com/mathbuddy/mathbuddy-go/internal/tutor"
	"github.com/mathbuddy/mathbuddy-go/pkg/logger"
	"github.com/mathbuddy/mathbuddy-go/pkg/server"
)

const defaultConfigPath = "configs/tutor-backend.yaml"

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

	zapLogger.Info("tutor-backend starting", zap.String("tutor", cfg.Tutor.Type))

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	t, err := newTutor(cfg, m, zapLogger)
	if err != nil {
		zapLogger.Fatal("create tutor failed", zap.Error(err))
	}
	tutorHandler := handler.NewTutorHandler(t, cfg.Server.Name, zapLogger)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(zapLogger), httpMetrics.Middleware(), middleware.CORS(cfg.Server.AllowedOrigins))
	tutorHandler.Register(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port), r, zapLogger); err != nil {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("tutor-backend stopped")
}

// newTutor wires the configured tutor. Classifiers without a URL stay unset so
// the tutor skips their stage.
func newTutor(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (tutor.Tutor, error) {
	deps := tutor.Deps{
		Aggregator: cfg.Fusion.Aggregator(),
		Metrics:    m,
		Logger:     logger,
	}

	sentiment := client.NewSentimentClient(cfg.Classifiers.TextSentimentURL, cfg.Classifiers.Timeout, logger, m)
	if sentiment.Enabled() {
		deps.Sentiment = sentiment
	}
	face := client.NewFaceEmotionClient(cfg.Classifiers.FaceEmotionURL, cfg.Classifiers.Timeout, logger, m)
	if face.Enabled() {
		deps.Face = face
	}

	llm := client.NewLLMClient(cfg.LLM, logger, m)
	switch cfg.Tutor.Type {
	case tutor.TypeLLM, "":
		deps.LLM = llm
	}
	if cfg.Tutor.UseDescription {
		deps.Description = llm
	}
	if cfg.Tutor.UseQA {
		deps.QA = llm
	}

	return tutor.New(cfg.Tutor, deps)
}
