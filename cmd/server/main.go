package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meetpoint/service-pickup/internal/application"
	"github.com/meetpoint/service-pickup/internal/config"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	"github.com/meetpoint/service-pickup/internal/handler"
	"github.com/meetpoint/service-pickup/internal/kafka"
	"github.com/meetpoint/service-pickup/internal/logger"
	"github.com/meetpoint/service-pickup/internal/middleware"
	"github.com/meetpoint/service-pickup/internal/provider/googlemaps"
	"github.com/meetpoint/service-pickup/internal/provider/ocrspace"
	"github.com/meetpoint/service-pickup/internal/provider/openai"
	"github.com/meetpoint/service-pickup/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.AppEnv, "service-pickup")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-pickup",
		zap.String("port", cfg.Server.Port),
		zap.String("session_store", cfg.SessionStore),
	)

	// Initialize session store
	sessions, closeStore, err := buildSessionStore(cfg, log)
	if err != nil {
		log.Fatal("failed to build session store", zap.Error(err))
	}
	defer closeStore()

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize external providers
	maps := googlemaps.NewClient(googlemaps.Config{
		Key:     cfg.Maps.Key,
		BaseURL: cfg.Maps.BaseURL,
		Timeout: cfg.Maps.Timeout,
	})
	completion := openai.NewClient(openai.Config{
		APIKey:  cfg.Model.APIKey,
		BaseURL: cfg.Model.BaseURL,
		Model:   cfg.Model.Model,
		Timeout: cfg.Model.Timeout,
	})
	ocr := ocrspace.NewClient(ocrspace.Config{
		APIKey:   cfg.Ocr.APIKey,
		Endpoint: cfg.Ocr.Endpoint,
		Timeout:  cfg.Ocr.Timeout,
	})

	// Build the strategy resolvers
	scorer := pickup.NewScorer(maps)
	res := cfg.Resolution

	poiSource := pickup.NewPoiSource(maps, res.PlacesRadiusMeters, res.PlacesCategory, res.PlacesMaxResults, log)
	modelSource := pickup.NewModelSource(completion, log)
	ocrSource := pickup.NewOcrSource(maps, ocr, maps, log)

	resolvers := []*pickup.Resolver{
		pickup.NewResolver(poiSource, scorer, res.PoiWalkCeilingMin, res.ScoreConcurrency, log),
		pickup.NewResolver(modelSource, scorer, res.ModelWalkCeilingMin, res.ScoreConcurrency, log),
		pickup.NewResolver(ocrSource, scorer, res.OcrWalkCeilingMin, res.ScoreConcurrency, log),
	}

	// Initialize application service
	resolutionService := application.NewResolutionService(sessions, resolvers, kafkaProducer, log)

	// Initialize and start the feedback event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedbackConsumer := application.NewFeedbackEventConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		resolutionService,
		log,
	)
	defer func() { _ = feedbackConsumer.Close() }()

	go func() {
		log.Info("starting feedback event consumer")
		if err := feedbackConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("feedback event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())

	// Register routes
	handler.NewHealthHandler().RegisterRoutes(&router.RouterGroup)
	handler.NewPickupHandler(resolutionService).RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-pickup...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-pickup stopped")
}

// buildSessionStore wires the configured session backend. The returned close
// function is a no-op for backends without local resources.
func buildSessionStore(cfg *config.Config, log *zap.Logger) (pickup.SessionRepository, func(), error) {
	switch cfg.SessionStore {
	case "memory":
		store := repository.NewMemorySessionRepository(cfg.Resolution.SessionTTL)
		return store, func() { _ = store.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := repository.NewRedisSessionRepository(client, cfg.Resolution.SessionTTL)
		return store, func() { _ = client.Close() }, nil

	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if cfg.AppEnv == "development" {
			if err := db.AutoMigrate(&repository.SessionModel{}); err != nil {
				return nil, nil, fmt.Errorf("auto-migrate sessions: %w", err)
			}
			log.Info("database migration completed (dev auto-migrate)")
		}
		return repository.NewGormSessionRepository(db), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
