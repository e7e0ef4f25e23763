package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	httpapi "dpc-portal-backend/internal/api/http"
	"dpc-portal-backend/internal/config"
	"dpc-portal-backend/internal/cpigateway"
	"dpc-portal-backend/internal/logger"
	"dpc-portal-backend/internal/repository/postgres"
	"dpc-portal-backend/internal/security"
	"dpc-portal-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting DPC Portal Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("SMTP configuration", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.SessionTokenExpiry)

	// Initialize CPI API Gateway client
	gateway := cpigateway.NewClient(cfg.CpiGateway)

	// Initialize Services
	emailSvc := service.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.User,
		cfg.SMTP.Password,
		cfg.SMTP.From,
		cfg.Server.PortalURL,
	)
	verifier := service.NewAoVerificationService(gateway)
	invitationSvc := service.NewInvitationService(
		store.InvitationRepository,
		store.UserRepository,
		store.ProviderOrganizationRepository,
		store.AoOrgLinkRepository,
		store.CdOrgLinkRepository,
		verifier,
		emailSvc,
	)

	// Initialize HTTP handlers
	invitationHandler := httpapi.NewInvitationHandler(invitationSvc, tokenManager)
	organizationHandler := httpapi.NewOrganizationHandler(store.ProviderOrganizationRepository, store.CdOrgLinkRepository)
	healthHandler := httpapi.NewHealthHandler(gateway)

	router := httpapi.NewRouter(invitationHandler, organizationHandler, healthHandler)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
