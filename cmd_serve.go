package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"awazgram-server/config"
	"awazgram-server/database"
	"awazgram-server/jobs"
	"awazgram-server/logger"
	"awazgram-server/middleware"
	"awazgram-server/routes"
	"awazgram-server/services"
)

var autoMigrate bool

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Start the AwazGram HTTP server and the QR code backfill job.`,
		RunE:  runServe,
	}
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "Run database migrations on startup")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeDatabase()

	if autoMigrate {
		if err := database.RunMigrations(database.DB); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	deps, err := buildDependencies(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	backfill := jobs.NewQRBackfillJob(deps.Complaints, cfg.Complaint.QRBackfillInterval)
	backfill.Start()
	defer backfill.Stop()

	stopCleanup := make(chan struct{})
	go deps.Limiter.RunCleanup(stopCleanup, 10*time.Minute)
	defer close(stopCleanup)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           routes.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "address", srv.Addr, "mode", gin.Mode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}

// bootstrap loads configuration, the logger and the database shared by every command.
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := database.Initialize(cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, nil
}

func closeDatabase() {
	if database.DB == nil {
		return
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func buildDependencies(ctx context.Context, cfg *config.Config) (routes.Deps, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db := database.GetDB()

	ids, err := services.NewIDGenerator(cfg.Complaint, cfg.Server.Location())
	if err != nil {
		return routes.Deps{}, err
	}
	store, err := services.NewMediaStore(cfg.Media, cfg.Cloudinary)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("failed to initialize media store: %w", err)
	}

	complaints := services.NewComplaintService(db, ids, services.NewQREncoder(store, cfg.Complaint.QRSize), store, cfg.Complaint)
	blacklist := services.NewTokenBlacklist(ctx, cfg.Redis)
	auth := services.NewAuthService(db, services.NewJWTService(cfg.JWT), blacklist, cfg.Complaint.ResetTokenTTL)
	mailer := services.NewMailer(cfg.SMTP, cfg.Server.BaseURL)

	return routes.Deps{
		Config:     cfg,
		Complaints: complaints,
		Stats:      services.NewStatsService(db, cfg.Complaint.RecentLimit),
		Auth:       auth,
		Staff:      services.NewStaffService(db, auth, mailer),
		Limiter:    middleware.NewRateLimiter(),
	}, nil
}
