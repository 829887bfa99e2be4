package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"clan-rental-backend/internal/config"
	"clan-rental-backend/internal/firebase"
	"clan-rental-backend/internal/jobs"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository/postgres"
	"clan-rental-backend/internal/scheduler"
	"clan-rental-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := pflag.StringP("config", "c", "config/config.dev.yaml", "Path to configuration file")
	runOnce := pflag.String("run-once", "", "Run a specific job once and exit (e.g. 'send-overdue-reminders')")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Clan Rental Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	// Reminders are mirrored to push when Firebase messaging is on
	var push service.PushSender
	if cfg.Firebase.Enabled && cfg.Firebase.PushEnabled {
		app, err := firebase.NewApp(ctx, cfg.Firebase)
		if err != nil {
			log.Fatalf("Failed to initialize firebase: %v", err)
		}
		sender, err := firebase.NewPushSender(ctx, app)
		if err != nil {
			log.Fatalf("Failed to initialize firebase messaging: %v", err)
		}
		push = sender
	}

	emailSvc := service.NewNoopEmailService()
	if cfg.Email.Enabled {
		emailSvc = service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName, cfg.Email.AdminEmails)
	}
	noteSvc := service.NewNotificationService(store.Notifications, store.Users, push)
	rentalSvc := service.NewRentalService(
		store.Transactor,
		store.Rentals,
		store.Items,
		store.Users,
		service.NewTicketService(store.Counters),
		service.NewSettingsService(store.Settings, store.Users),
		noteSvc,
		emailSvc,
		cfg.Rentals.TermsText,
	)

	jobRunner := jobs.NewJobRunner(&jobs.Services{
		Rental:        rentalSvc,
		Notifications: noteSvc,
		Email:         emailSvc,
	}, cfg.ReminderWindow())

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		found, err := jobRunner.Run(ctx, *runOnce)
		if !found {
			printJobs(jobRunner)
			os.Exit(1)
		}
		if err != nil {
			os.Exit(1)
		}
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner, cfg.Scheduler)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
}

func printJobs(jr *jobs.JobRunner) {
	names := make([]string, 0, len(jr.Jobs()))
	for name := range jr.Jobs() {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Available jobs:")
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}
}
