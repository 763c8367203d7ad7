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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	v1 "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/cmd/api/router/v1"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/ai"
	cacheAdapter "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/adapter"
	cacheport "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/port"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/database"
	queueAdapter "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/queue/adapter"
	qport "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/queue/port"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/realtime"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/task"
	repoAdapter "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/adapter"
	httpHandler "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/presentation/http"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/typing"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.NewPoolFromEnv(ctx)
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Cache is optional: without Redis the unread counters hit the store
	// every time, which is correct, just slower.
	var cache cacheport.Cache
	if redisCache, err := cacheAdapter.NewRedisAdapter(); err != nil {
		logger.Warn("redis cache disabled", zap.Error(err))
	} else {
		cache = redisCache
		defer redisCache.Close()
	}

	hub := realtime.NewHub(logger)
	defer hub.Close()

	tracker := typing.NewTracker(0)
	defer tracker.Stop()

	// The assistant path is optional end to end: no queue or no generation
	// endpoint means human messaging runs unaffected.
	var queueClient qport.Client
	aiClient, err := ai.NewClientFromEnv()
	if err != nil {
		logger.Warn("assistant replies disabled", zap.Error(err))
	} else if client, err := queueAdapter.NewAsynqClientFromEnv(); err != nil {
		logger.Warn("assistant replies disabled: queue unavailable", zap.Error(err))
	} else {
		queueClient = client
		defer client.Close()
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if queueClient != nil {
		srv, err := queueAdapter.NewAsynqServer()
		if err != nil {
			logger.Fatal("failed to build queue server", zap.Error(err))
		}
		repo := repoAdapter.NewPgMessagingRepository(pool, logger)
		task.RegisterAIReplyTask(srv, repo, cache, hub, aiClient, logger)
		go func() {
			if err := srv.Run(rootCtx); err != nil {
				logger.Error("queue server stopped", zap.Error(err))
			}
		}()
	}

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(r, httpHandler.Deps{
		Pool:   pool,
		Cache:  cache,
		Queue:  queueClient,
		Hub:    hub,
		Typing: tracker,
		Logger: logger,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("messaging api listening", zap.String("port", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
