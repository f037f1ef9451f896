package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"multitenant-rag-platform/internal/ai"
	"multitenant-rag-platform/internal/auth"
	"multitenant-rag-platform/internal/config"
	"multitenant-rag-platform/internal/logger"
	"multitenant-rag-platform/internal/queue"
	"multitenant-rag-platform/internal/store"
	"multitenant-rag-platform/internal/telemetry"
	"multitenant-rag-platform/middleware"
	"multitenant-rag-platform/routes"
	"multitenant-rag-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("multitenant-rag-platform", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
		if _, err := telemetry.InitMetrics(); err != nil {
			logger.Warn("Metrics disabled", "error", err)
		}
	}

	tenantStore := store.NewMongoStore(mongoClient.Database(cfg.DBName))

	embedder, err := ai.NewEmbedder(cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}

	var completion ai.CompletionClient
	if cfg.CompletionAPIKey != "" {
		completion = ai.NewHTTPCompletionClient(cfg)
	} else {
		logger.Warn("COMPLETION_API_KEY not set, answers use the extractive fallback only")
	}

	chunker := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	lexical := services.NewLexicalIndex()
	vector := services.NewVectorIndex(embedder)
	retriever := services.NewHybridRetriever(lexical, vector)
	synthesizer := services.NewSynthesizer(completion)

	queueClient := queue.NewClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer queueClient.Close()

	ragService := services.NewRAGService(
		tenantStore, chunker, lexical, vector, retriever, synthesizer, queueClient, cfg)

	// The indexing consumer runs inside this process: async uploads must
	// land in the same in-memory indexes that serve queries, so a
	// document marked completed is always retrievable here.
	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIndexDocument, queue.NewTaskProcessor(ragService).HandleIndexDocument)
	if err := asynqServer.Start(mux); err != nil {
		log.Fatal("Failed to start indexing consumer:", err)
	}
	defer asynqServer.Shutdown()

	// In-memory indexes restart empty; rebuild them from Mongo.
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 5*time.Minute)
	if err := ragService.RestoreIndexes(restoreCtx); err != nil {
		logger.Error("Index restore failed, continuing with empty indexes", "error", err)
	}
	cancelRestore()

	tokens, err := auth.NewTokenService(cfg.AccessSecret, cfg.RefreshSecret, rdb)
	if err != nil {
		log.Fatal("Failed to initialize token service:", err)
	}

	cron := services.NewCronService(tenantStore)
	if err := cron.Start(); err != nil {
		logger.Error("Failed to start cron scheduler", "error", err)
	}
	defer cron.Stop()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	authMW := middleware.NewAuthMiddleware(tokens, tenantStore)

	routes.SetupAuthRoutes(router, cfg, tokens)
	routes.SetupTenantRoutes(router, ragService, tenantStore, authMW)
	routes.SetupRAGRoutes(router, cfg, ragService, tenantStore, rdb, authMW)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
