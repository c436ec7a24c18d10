package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/application"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/cache"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/config"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/events"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/messaging"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/database"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/health"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/logger"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/tracing"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/repository"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/worker"
)

const serviceName = "service-matching"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("timezone", cfg.Location.String()),
	)

	// Spans go to stdout in development only.
	var traceOut io.Writer = io.Discard
	if cfg.AppEnv == "development" {
		traceOut = os.Stdout
	}
	shutdownTracing, err := tracing.Setup(serviceName, traceOut)
	if err != nil {
		log.Fatal("failed to set up tracing", zap.Error(err))
	}

	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	defer func() { _ = redisClient.Close() }()

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute, 7*24*time.Hour)

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	petRepo := repository.NewGormPetRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)
	providerCache := cache.NewProviderSnapshotCache(
		repository.NewGormProviderRepository(db), redisClient, cfg.SnapshotTTL, log)

	// Application services
	clock := application.SystemClock(cfg.Location)
	conversations := messaging.NewKafkaConversationSender(kafkaProducer, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		providerCache,
		petRepo,
		bookingDomain.NewDailyRatePricingStrategy(cfg.Holidays),
		kafkaProducer,
		conversations,
		clock,
		log,
	)
	searchService := application.NewSearchService(
		providerCache,
		bookingRepo,
		petRepo,
		application.SearchConfig{
			DefaultRadiusKm: cfg.Search.DefaultRadiusKm,
			MaxRadiusKm:     cfg.Search.MaxRadiusKm,
		},
		clock,
		log,
	)
	reviewService := application.NewReviewService(reviewRepo, bookingRepo, providerCache, kafkaProducer, log)
	petService := application.NewPetService(petRepo, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providerConsumer := events.NewProviderEventConsumer(
		cfg.KafkaConfig.Brokers,
		cfg.KafkaConfig.GroupPrefix+"matching-service",
		providerCache,
		log,
	)
	defer func() { _ = providerConsumer.Close() }()

	go func() {
		log.Info("starting provider event consumer")
		if err := providerConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("provider event consumer error", zap.Error(err))
		}
	}()

	sweeper := worker.NewCompletionSweeper(bookingService, worker.SweeperConfig{
		Interval:  cfg.Worker.SweepInterval,
		BatchSize: cfg.Worker.BatchSize,
	}, log)
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("completion sweeper stopped", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.MetricsMiddleware())
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, jwtManager, log)
	go rateLimiter.Run(ctx, time.Minute, 10*time.Minute)
	router.Use(rateLimiter.Middleware())

	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.AddChecker("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.AddChecker("conversations", func(context.Context) error {
		if conversations.State() == gobreaker.StateOpen {
			return errors.New("conversation circuit breaker is open")
		}
		return nil
	})
	healthHandler.RegisterRoutes(router)

	handler.NewSearchHandler(searchService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewReviewHandler(reviewService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewPetHandler(petService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminHandler(bookingService, providerCache).RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Stop the consumer and the sweeper first.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("failed to flush traces", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
