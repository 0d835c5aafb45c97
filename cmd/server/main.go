package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commutesurvey/internal/cache"
	"commutesurvey/internal/config"
	"commutesurvey/internal/repository"
	"commutesurvey/internal/service"
	"commutesurvey/internal/survey"
	"commutesurvey/internal/transport/rest"
	"commutesurvey/internal/transport/ws"

	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	log.Println("started")
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	flow, err := survey.FlowByName(cfg.Flow)
	if err != nil {
		log.Fatal("Invalid survey flow:", err)
	}
	log.Printf("Survey flow: %s (%d steps)", flow.Name(), flow.Len())
	log.Printf("Collect API: %s", cfg.CollectAPIURL)

	// MongoDB connection
	mongoClient, err := repository.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	sessionRepo := repository.NewSessionRepo(db)
	if err := sessionRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("Warning: failed to create session indexes: %v", err)
	}

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb, cfg.SessionTTL)
	infoCache := cache.NewInfoCache(rdb, cfg.InfoTTL)

	// Initialize services
	collectClient := service.NewCollectClient(cfg.CollectAPIURL, cfg.APITimeout, cfg.APIMaxRetries)
	recordStore := service.NewRecordStore(collectClient, infoCache)
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.SessionTTL)
	sessionStore := service.NewSessionStore(sessionRepo, sessionCache)
	sessionSvc := service.NewSessionService(recordStore, sessionStore, authSvc, flow, cfg.Locale)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	sessionSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		RecordStore:    recordStore,
		SessionService: sessionSvc,
		WSHub:          wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  GET  /v1/info/{tokenOrSlug}")
		log.Println("  POST /v1/sessions")
		log.Println("  GET  /v1/sessions/{id}")
		log.Println("  PATCH /v1/sessions/{id}/answers")
		log.Println("  POST /v1/sessions/{id}/next|previous|finish|reset")
		log.Println("  PUT  /v1/sessions/{id}/comments")
		log.Println("  WS   /v1/ws/sessions/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
