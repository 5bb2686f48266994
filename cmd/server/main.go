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
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/stayhive/service-rental/internal/application"
	"github.com/stayhive/service-rental/internal/config"
	bookingDomain "github.com/stayhive/service-rental/internal/domain/booking"
	rentalEvents "github.com/stayhive/service-rental/internal/events/consumer"
	"github.com/stayhive/service-rental/internal/handler"
	"github.com/stayhive/service-rental/internal/platform/auth"
	"github.com/stayhive/service-rental/internal/platform/cache"
	"github.com/stayhive/service-rental/internal/platform/database"
	"github.com/stayhive/service-rental/internal/platform/health"
	"github.com/stayhive/service-rental/internal/platform/kafka"
	"github.com/stayhive/service-rental/internal/platform/logger"
	"github.com/stayhive/service-rental/internal/platform/middleware"
	"github.com/stayhive/service-rental/internal/repository"
)

const reconcileInterval = 15 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-rental")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-rental",
		zap.String("port", cfg.Port),
	)

	// Connect to database
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

	// Run database migrations. The dev auto-migrate path skips the booking
	// exclusion constraint, which only the SQL migrations create.
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.UserModel{},
			&repository.ListingModel{},
			&repository.BookingModel{},
			&repository.WishlistItemModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := dbConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize Redis cache. The service degrades to uncached reads if
	// Redis is unreachable.
	redisCache, err := cache.New(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB, log)
	if err != nil {
		log.Warn("redis unavailable, running without cache", zap.Error(err))
		redisCache = nil
	} else {
		defer func() { _ = redisCache.Close() }()
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	listingRepo := repository.NewGormListingRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	wishlistRepo := repository.NewGormWishlistRepository(db)
	transactor := repository.NewGormTransactor(db)

	clock := clockwork.NewRealClock()
	pricing := bookingDomain.NewNightlyPriceCalculator()

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		listingRepo,
		userRepo,
		transactor,
		pricing,
		kafkaProducer,
		redisCache,
		clock,
		log,
	)
	listingService := application.NewListingService(
		listingRepo,
		bookingRepo,
		userRepo,
		transactor,
		kafkaProducer,
		redisCache,
		clock,
		log,
	)
	userService := application.NewUserService(userRepo, jwtManager, clock, log)
	wishlistService := application.NewWishlistService(wishlistRepo, listingRepo, userRepo, log)

	// Initialize the orphaned-booking reconciler and its periodic sweep
	reconciler, err := application.NewReconciler(bookingRepo, log)
	if err != nil {
		log.Fatal("failed to create reconciler", zap.Error(err))
	}
	if err := reconciler.Start(reconcileInterval); err != nil {
		log.Fatal("failed to start reconciler", zap.Error(err))
	}
	defer func() { _ = reconciler.Stop() }()

	// Initialize and start the listing event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "rental-service"
	listingConsumer := rentalEvents.NewListingEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		reconciler,
		log,
	)
	defer func() { _ = listingConsumer.Close() }()

	go func() {
		log.Info("starting listing event consumer")
		if err := listingConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("listing event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(userService)
	listingHandler := handler.NewListingHandler(listingService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	wishlistHandler := handler.NewWishlistHandler(wishlistService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-rental")
	healthHandler.RegisterRoutes(router)

	// Register routes
	authHandler.RegisterRoutes(&router.RouterGroup)
	listingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	wishlistHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-rental...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-rental stopped")
}
