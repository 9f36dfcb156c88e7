package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/erickguan/agentic-finance-analysis/internal/ai"
	"github.com/erickguan/agentic-finance-analysis/internal/config"
	"github.com/erickguan/agentic-finance-analysis/internal/logger"
	"github.com/erickguan/agentic-finance-analysis/internal/scraper"
	"github.com/erickguan/agentic-finance-analysis/internal/telemetry"
	"github.com/erickguan/agentic-finance-analysis/middleware"
	"github.com/erickguan/agentic-finance-analysis/routes"
	"github.com/erickguan/agentic-finance-analysis/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("stock-context-engine")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	ctx := context.Background()

	embedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create embedder:", err)
	}
	defer embedder.Close()

	store := services.NewVectorStore(cfg.VectorDBPath, embedder)

	// Collector adapters register here at wiring time; the engine itself
	// ships none and treats an empty registry as "all categories absent".
	var collectors []services.Collector
	if len(collectors) == 0 {
		logger.Warn("No market data collectors configured; retrieval will rely on the existing index and web news")
	}
	fusion := services.NewAggregator(collectors, services.DefaultFusionOrder(), cfg.CollectorTimeout)

	newsScraper := scraper.New(cfg)
	retriever := services.NewRetriever(store, fusion, newsScraper, cfg.RecordCacheTTL, cfg.NewsCacheTTL)

	refresher := services.NewRefresher(retriever, store, cfg.RefreshInterval)
	if err := refresher.Start(); err != nil {
		logger.Warn("Refresher failed to start", "error", err)
	}
	defer refresher.Stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupContextRoutes(router, cfg, retriever, store)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
}
