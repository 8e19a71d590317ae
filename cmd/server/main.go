package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/fujishima/keihi/internal/auth"
	"github.com/fujishima/keihi/internal/config"
	"github.com/fujishima/keihi/internal/export"
	"github.com/fujishima/keihi/internal/gemini"
	"github.com/fujishima/keihi/internal/receipt"
	"github.com/fujishima/keihi/internal/report"
	"github.com/fujishima/keihi/internal/repository"
	"github.com/fujishima/keihi/internal/server"
	"github.com/fujishima/keihi/internal/storage"
	"github.com/fujishima/keihi/pkg/database"
	"github.com/fujishima/keihi/pkg/utils"
)

func main() {
	// Load .env if present; real environments set variables directly
	gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting receipt expense service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	for _, dir := range []string{cfg.Export.OutputDir, cfg.Export.UploadDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recordRepo := repository.NewRecordRepository(db.DB, logger)

	geminiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:        cfg.Gemini.APIKey,
		Model:         cfg.Gemini.Model,
		PollInterval:  cfg.Gemini.PollInterval,
		UploadTimeout: cfg.Gemini.UploadTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}

	normalizer := receipt.NewDateNormalizer(logger)
	analyzer := gemini.NewAnalyzer(geminiClient, normalizer, cfg.Gemini.MaxAttempts, logger)

	excelWriter := report.NewExcelWriter(cfg.Export.TemplatePath, report.NewPopulator(logger), logger)
	exportService := export.NewService(
		recordRepo,
		excelWriter,
		cfg.Export.OutputDir,
		export.ParseDateOrder(cfg.Export.TransportDateOrder),
		logger,
	)

	uploadStore := storage.NewLocalUploadStorage(cfg.Export.UploadDir, logger)
	tokenService := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	handlers := server.NewHandlers(analyzer, recordRepo, exportService, uploadStore, logger)
	srv := server.NewServer(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, tokenService, logger)

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
