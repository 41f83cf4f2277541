package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/contacts-api/docs" // Swagger docs
	"github.com/redmonkez12/contacts-api/internal/auth"
	"github.com/redmonkez12/contacts-api/internal/cache"
	"github.com/redmonkez12/contacts-api/internal/config"
	"github.com/redmonkez12/contacts-api/internal/contact"
	"github.com/redmonkez12/contacts-api/internal/database"
	"github.com/redmonkez12/contacts-api/internal/email"
	httpServer "github.com/redmonkez12/contacts-api/internal/http"
	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/ratelimit"
	"github.com/redmonkez12/contacts-api/internal/storage"
	"github.com/redmonkez12/contacts-api/internal/user"
)

// @title           Contacts API
// @version         1.0
// @description     Contact book REST API with email verification, password reset and per-user contacts.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
	)

	sqlDB, err := database.Open(ctx, cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(ctx, sqlDB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	db := database.NewBunDB(sqlDB)

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	avatarStore, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Repositories
	userRepo := user.NewCachedRepository(
		user.NewRepository(db),
		cache.NewRedisCache(redisClient, "contacts-api:user"),
		cfg.Auth.UserCacheTTL,
		logger,
	)
	contactRepo := contact.NewRepository(db)

	// Tokens
	codec, err := auth.NewCodec(cfg.Auth.TokenFormat, cfg.Auth.Secret)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	issuer := auth.NewIssuer(codec, auth.IssuerConfig{
		AccessTTL: cfg.Auth.AccessTokenDuration,
		EmailTTL:  cfg.Auth.EmailTokenDuration,
		ResetTTL:  cfg.Auth.ResetTokenDuration,
	})
	resolver := auth.NewResolver(codec, userRepo)

	proxies, err := ratelimit.ParseProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("failed to parse TRUSTED_PROXIES: %w", err)
	}

	// Services
	emailService := email.NewService(cfg.Email, cfg.Server.PublicURL, cfg.Auth, logger)
	authService := auth.NewService(userRepo, issuer, resolver, emailService, logger).WithAdminSignup(cfg.Auth.AllowAdminSignup)
	userService := user.NewService(userRepo, avatarStore)
	contactService := contact.NewService(contactRepo, cfg.Contacts.PhoneRegion)

	router := httpServer.NewRouter(cfg, httpServer.Dependencies{
		Auth:           auth.NewHandler(authService),
		AuthMiddleware: auth.NewMiddleware(resolver),
		Users:          user.NewHandler(userService, auth.GetCurrentUser),
		Contacts:       contact.NewHandler(contactService, cfg.Contacts.MaxPageSize),
		RateLimiter:    ratelimit.NewLimiter(redisClient),
		Proxies:        proxies,
		PingDB: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	}, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
