// cmd/assistant-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"migration-assistant/internal/assistant/backend"
	"migration-assistant/internal/assistant/cache"
	"migration-assistant/internal/assistant/orchestrator"
	"migration-assistant/internal/assistant/router"
	"migration-assistant/internal/assistant/session"
	awsclients "migration-assistant/internal/common/aws"
	"migration-assistant/internal/common/config"
	"migration-assistant/internal/common/database"
	"migration-assistant/internal/common/logger"
	"migration-assistant/internal/common/observability"
	"migration-assistant/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger)

	zapLogger.Info("starting assistant server",
		zap.String("environment", cfg.App.Environment),
		zap.Int("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bedrockClient, err := awsclients.NewBedrockAgentClient(ctx, cfg.AWS.Region)
	if err != nil {
		zapLogger.Fatal("failed to create bedrock client", zap.Error(err))
	}

	qbusinessClient, err := awsclients.NewQBusinessClient(ctx, cfg.AWS.Region)
	if err != nil {
		zapLogger.Fatal("failed to create qbusiness client", zap.Error(err))
	}

	redisClient, err := database.NewRedis(cfg.Cache)
	if err != nil {
		zapLogger.Fatal("failed to create redis client", zap.Error(err))
	}
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx); err != nil {
		// The cache degrades to direct backend calls, so a dead Redis is
		// not fatal at startup.
		zapLogger.Warn("redis unavailable, responses will not be cached", zap.Error(err))
	}
	cancel()

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown(context.Background())

	semantic := backend.NewSemanticBackend(bedrockClient, backend.SemanticConfig{
		KnowledgeBaseID: cfg.AWS.Bedrock.KnowledgeBaseID,
		ModelARN:        cfg.AWS.Bedrock.ModelARN,
		NumberOfResults: cfg.AWS.Bedrock.NumberOfResults,
		SearchMode:      cfg.AWS.Bedrock.SearchMode,
	}, log)

	structured := backend.NewStructuredBackend(qbusinessClient, cfg.AWS.QBusiness.ApplicationID, log)

	classifier := router.NewLexiconClassifier(cfg.Routing.StructuredPhrases, cfg.Routing.SemanticPhrases)

	answerCache := cache.New(redisClient.Client, cfg.Cache.KeyPrefix, cfg.Cache.CacheTTL(), log)
	sessions := session.NewStore()

	orch := orchestrator.New(classifier, structured, semantic, answerCache, sessions, orchestrator.Config{
		ListingVerbs:           cfg.Routing.ListingVerbs,
		MaxCitations:           cfg.Limits.MaxCitations,
		MaxQuestionLength:      cfg.Limits.MaxQuestionLength,
		CarryConversationToken: cfg.Session.CarryConversationToken,
	}, obs, log)

	handler, err := server.NewHandler(orch, cfg.Samples, log)
	if err != nil {
		zapLogger.Fatal("failed to create http handler", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.NewRouter(handler),
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("http server listening", zap.String("addr", httpServer.Addr))
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("http server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}

	zapLogger.Info("assistant server stopped")
}
