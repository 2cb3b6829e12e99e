package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/chatline/chatline/internal/auth"
	"github.com/chatline/chatline/internal/config"
	"github.com/chatline/chatline/internal/database"
	"github.com/chatline/chatline/internal/email"
	httpServer "github.com/chatline/chatline/internal/http"
	"github.com/chatline/chatline/internal/logging"
	"github.com/chatline/chatline/internal/message"
	"github.com/chatline/chatline/internal/ratelimit"
	"github.com/chatline/chatline/internal/storage"
	"github.com/chatline/chatline/internal/user"
)

// @title           Chatline API
// @version         1.0
// @description     Chat application backend: accounts, sessions, password reset, messaging.

// @host      localhost:5001
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// run wires the application together. Every failure is returned rather
// than terminating the process, so the caller owns the exit policy.
func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection and run migrations
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db.DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	messageRepo := message.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize token service
	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
	)

	// Initialize auth service
	authService := auth.NewService(
		userRepo,
		tokenService,
		auth.NewPasswordHasher(),
		emailService,
		logger,
		cfg.Auth.TokenTTL,
		cfg.Auth.ResetTTL,
		cfg.Email.FrontendURL,
		cfg.Auth.ExposeResetURL,
		cfg.Server.IsDevelopment(),
	)

	// Initialize HTTP handlers
	cookies := auth.NewCookieManager(!cfg.Server.IsDevelopment(), cfg.Auth.TokenTTL)
	authHandler := auth.NewHandler(authService, cookies, rateLimiter, logger)
	authMiddleware := auth.NewMiddleware(tokenService)
	messageHandler := message.NewHandler(messageRepo, userRepo, logger)
	storageHandler := storage.NewHandler(storage.NewUploader(cfg.Storage), logger)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, messageHandler, storageHandler, rateLimiter, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// newTokenService picks the configured token backend.
func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenBackend {
	case "paseto":
		return auth.NewPasetoService(cfg.TokenSecret)
	default:
		return auth.NewJWTService(cfg.TokenSecret), nil
	}
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
