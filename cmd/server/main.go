package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	healthapi "clan-rental-backend/internal/api/grpc"
	httpapi "clan-rental-backend/internal/api/http"
	"clan-rental-backend/internal/config"
	"clan-rental-backend/internal/firebase"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/realtime"
	"clan-rental-backend/internal/repository/postgres"
	"clan-rental-backend/internal/security"
	"clan-rental-backend/internal/service"
	"clan-rental-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := pflag.StringP("config", "c", "config/config.dev.yaml", "Path to configuration file")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Clan Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.GetServerAddress(), "grpc", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.RunMigrations {
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Database migrations applied")
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())

	// Initialize Storage
	logger.Info("Using local image storage", "upload_dir", cfg.Storage.UploadDir)
	localStorage, err := storage.NewLocalStorage(cfg.Storage.BaseURL, cfg.Storage.UploadDir, cfg.Storage.MaxFileSize<<20, []byte(cfg.JWT.Secret))
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Firebase is optional: credentials, ID token login and push
	var (
		creds    = service.NewLocalCredentials()
		verifier service.IDTokenVerifier
		push     service.PushSender
	)
	if cfg.Firebase.Enabled {
		app, err := firebase.NewApp(ctx, cfg.Firebase)
		if err != nil {
			log.Fatalf("Failed to initialize firebase: %v", err)
		}
		fbCreds, err := firebase.NewCredentials(ctx, app)
		if err != nil {
			log.Fatalf("Failed to initialize firebase auth: %v", err)
		}
		verifier = fbCreds
		if cfg.Firebase.AuthEnabled {
			creds = fbCreds
		}
		if cfg.Firebase.PushEnabled {
			sender, err := firebase.NewPushSender(ctx, app)
			if err != nil {
				log.Fatalf("Failed to initialize firebase messaging: %v", err)
			}
			push = sender
		}
		logger.Info("Firebase enabled", "project_id", cfg.Firebase.ProjectID, "auth", cfg.Firebase.AuthEnabled, "push", cfg.Firebase.PushEnabled)
	}

	// Initialize Email Service
	emailSvc := service.NewNoopEmailService()
	if cfg.Email.Enabled {
		emailSvc = service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName, cfg.Email.AdminEmails)
	}

	// Chat fan-out, relayed through Redis when configured
	hub := realtime.NewHub(0)
	var broadcaster service.ChatBroadcaster = hub
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		relay := realtime.NewRedisRelay(rdb, hub, cfg.Redis.ChannelPrefix)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Redis chat relay stopped", "error", err)
			}
		}()
		broadcaster = relay
		logger.Info("Chat relay via redis", "addr", cfg.Redis.Addr)
	}

	// Initialize Services
	settingsSvc := service.NewSettingsService(store.Settings, store.Users)
	noteSvc := service.NewNotificationService(store.Notifications, store.Users, push)
	rentalSvc := service.NewRentalService(
		store.Transactor,
		store.Rentals,
		store.Items,
		store.Users,
		service.NewTicketService(store.Counters),
		settingsSvc,
		noteSvc,
		emailSvc,
		cfg.Rentals.TermsText,
	)
	services := httpapi.Services{
		Auth:       service.NewAuthService(store.Transactor, store.Users, creds, verifier, tokenManager),
		Items:      service.NewItemService(store.Transactor, store.Items, store.Categories, store.Users),
		Categories: service.NewCategoryService(store.Categories, store.Users),
		Rentals:    rentalSvc,
		Chat: service.NewChatService(store.Rentals, store.Chat, store.Users, broadcaster, noteSvc, service.ChatLimits{
			MessagesPerSecond: cfg.Chat.MessagesPerSecond,
			Burst:             cfg.Chat.Burst,
			MaxMessageLength:  cfg.Chat.MaxMessageLength,
		}),
		Users:         service.NewUserService(store.Users, store.Notifications, creds),
		Settings:      settingsSvc,
		Notifications: noteSvc,
		Images:        service.NewImageStorageService(localStorage, store.Users, cfg.Storage.AllowedTypes),
		Stats:         service.NewStatsService(store.Stats),
	}

	router := httpapi.NewRouter(httpapi.RouterOptions{
		Services:     services,
		TokenManager: tokenManager,
		Storage:      localStorage,
		AllowedTypes: cfg.Storage.AllowedTypes,
		DB:           store,
	})

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health + reflection
	healthServer := healthapi.NewHealthServer(store)
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.GetGRPCAddress(), err)
	}
	go healthServer.Watch(ctx, 15*time.Second)
	go func() {
		logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
		if err := healthServer.Server().Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	healthServer.Server().GracefulStop()
	logger.Info("Server stopped")
}
