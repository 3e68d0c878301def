package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/migrations"
	"github.com/carelane/ratio-engine/pkg/config"
	"github.com/carelane/ratio-engine/pkg/database"
	"github.com/carelane/ratio-engine/pkg/handlers"
	"github.com/carelane/ratio-engine/pkg/middleware"
	"github.com/carelane/ratio-engine/pkg/models"
	"github.com/carelane/ratio-engine/pkg/repositories"
	"github.com/carelane/ratio-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("bind_addr", cfg.BindAddr),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Database.Database),
		zap.String("policy_path", cfg.Ratio.PolicyPath),
		zap.Int("warning_threshold_percent", cfg.Ratio.WarningThresholdPercent),
		zap.Int("retention_days", cfg.Ratio.RetentionDays),
	)

	policy, err := models.LoadRatioPolicy(cfg.Ratio.PolicyPath)
	if err != nil {
		logger.Fatal("Failed to load ratio policy", zap.Error(err))
	}
	logger.Info("Ratio policy loaded", zap.Int("age_groups", len(policy.AgeGroups)))

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{
		ConnString:     cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// golang-migrate needs a database/sql connection
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, migrations.FS, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	presenceRepo := repositories.NewPresenceRepository(db)
	snapshotRepo := repositories.NewSnapshotRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	calculator := services.NewRatioCalculator(policy)
	complianceService := services.NewComplianceService(presenceRepo, snapshotRepo, calculator, policy, logger)
	alertGateService := services.NewAlertGateService(snapshotRepo, cfg.Ratio.WarningThresholdPercent, logger)
	reportService := services.NewReportService(reportRepo, snapshotRepo, policy, logger)
	retentionService := services.NewRetentionService(snapshotRepo, cfg.Ratio.RetentionDays, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSnapshotHandler(complianceService, logger).RegisterRoutes(mux)
	handlers.NewAlertHandler(alertGateService, logger).RegisterRoutes(mux)
	handlers.NewReportHandler(reportService, logger).RegisterRoutes(mux)
	handlers.NewRetentionHandler(retentionService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting ratio-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
