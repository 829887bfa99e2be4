package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"clan-rental-backend/internal/config"
	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
	"clan-rental-backend/internal/repository/postgres"
	"clan-rental-backend/internal/security"
	"clan-rental-backend/internal/service"
)

var defaultCategories = []string{"Melee", "Pistol", "Rifle", "Shotgun", "Launcher", "Implant", "Armor", "Backpack"}

// seed bootstraps a fresh database: schema, the first admin account and the
// item categories. Running it again is harmless.
func main() {
	configPath := pflag.StringP("config", "c", "config/config.dev.yaml", "Path to configuration file")
	email := pflag.String("admin-email", "", "Email of the bootstrap admin (required)")
	password := pflag.String("admin-password", "", "Password for a newly created admin")
	nickname := pflag.String("admin-nickname", "admin", "Game nickname for a newly created admin")
	gameID := pflag.String("admin-game-id", "0", "Game ID for a newly created admin")
	categories := pflag.StringSlice("categories", defaultCategories, "Item categories to create")
	pflag.Parse()

	if *email == "" {
		log.Fatal("--admin-email is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store := postgres.NewStore(db)
	tokens := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	authSvc := service.NewAuthService(store.Transactor, store.Users, service.NewLocalCredentials(), nil, tokens)

	admin, err := store.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if *password == "" {
			log.Fatal("--admin-password is required to create the admin account")
		}
		admin, _, err = authSvc.Signup(ctx, service.SignupInput{
			Email:    *email,
			Password: *password,
			Nickname: *nickname,
			GameID:   *gameID,
		})
		if err != nil {
			log.Fatalf("Failed to create admin account: %v", err)
		}
		logger.Info("Created admin account", "uid", admin.UID, "email", admin.Email)
	case err != nil:
		log.Fatalf("Failed to look up admin account: %v", err)
	}

	if err := store.Users.SetRole(ctx, admin.UID, domain.RoleAdmin); err != nil {
		log.Fatalf("Failed to grant admin role: %v", err)
	}
	logger.Info("Admin role granted", "uid", admin.UID)

	categorySvc := service.NewCategoryService(store.Categories, store.Users)
	for _, name := range *categories {
		c, err := categorySvc.CreateCategory(ctx, admin.UID, name)
		if err != nil {
			log.Fatalf("Failed to create category %q: %v", name, err)
		}
		logger.Info("Category ready", "id", c.ID, "name", c.Name)
	}

	// Persist the default settings row so admins see explicit values.
	settingsSvc := service.NewSettingsService(store.Settings, store.Users)
	current, err := settingsSvc.GetSettings(ctx)
	if err != nil {
		log.Fatalf("Failed to read settings: %v", err)
	}
	if _, err := settingsSvc.UpdateSettings(ctx, admin.UID, *current); err != nil {
		log.Fatalf("Failed to save settings: %v", err)
	}

	logger.Info("Seed completed")
}
