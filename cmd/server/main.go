package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"chat-relay/internal/api"
	"chat-relay/internal/auth"
	"chat-relay/internal/db"
	"chat-relay/internal/llm"
	"chat-relay/internal/relay"
	"chat-relay/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: failed to build: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()

	postgres, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		sugar.Fatalf("postgres: failed to connect: %v", err)
	}
	defer postgres.Close()

	if err := postgres.Ping(ctx); err != nil {
		sugar.Fatalf("postgres: ping failed: %v", err)
	}
	if err := postgres.EnsureSchema(ctx); err != nil {
		sugar.Fatalf("postgres: ensure schema: %v", err)
	}

	mongoStore, err := db.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		sugar.Fatalf("mongo: failed to connect: %v", err)
	}
	defer func() {
		if err := mongoStore.Close(context.Background()); err != nil {
			sugar.Warnf("mongo: close error: %v", err)
		}
	}()

	if err := mongoStore.EnsureCollections(ctx); err != nil {
		sugar.Fatalf("mongo: ensure collections: %v", err)
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTTTL, postgres)
	if err != nil {
		sugar.Fatalf("failed to initialise auth service: %v", err)
	}

	completionClient, err := llm.NewClient(cfg.OpenAI)
	if err != nil {
		sugar.Fatalf("failed to initialise completion client: %v", err)
	}

	turnStore := db.NewTurnStore(mongoStore)

	relayService, err := relay.NewService(turnStore, completionClient, cfg.OpenAI.SystemPrompt, sugar)
	if err != nil {
		sugar.Fatalf("failed to initialise relay: %v", err)
	}

	router := setupRouter(authService, relayService, turnStore)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infof("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("server crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Warnf("graceful shutdown failed: %v", err)
	}

	sugar.Info("server stopped cleanly")
}

func setupRouter(authService *auth.Service, relayService *relay.Service, turnStore *db.TurnStore) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api.NewHandler(authService, relayService, turnStore).RegisterRoutes(router)

	return router
}
