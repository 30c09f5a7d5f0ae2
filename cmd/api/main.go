package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/bankcards/internal/config"
	"github.com/Dan9191/bankcards/internal/handler"
	"github.com/Dan9191/bankcards/internal/repository"
	"github.com/Dan9191/bankcards/internal/scheduler"
	"github.com/Dan9191/bankcards/internal/service"
	"github.com/Dan9191/bankcards/internal/utils"
	"github.com/Dan9191/bankcards/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if err := repository.Migrate(db, logger); err != nil {
		logger.Fatalf("Failed to apply migrations: %v", err)
	}

	cipher, err := utils.NewCardEncryption(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("Failed to initialize card encryption: %v", err)
	}

	var notifier service.TransferNotifier
	if cfg.NotificationsEnabled() {
		notifier = email.NewSender(cfg, logger)
	} else {
		logger.Info("SMTP_HOST not set, transfer notifications disabled")
	}

	// Initialize layers
	repo := repository.NewRepository(db, logger)
	svc := service.NewService(repo, cipher, notifier, logger, cfg)
	h := handler.NewHandler(svc, repo, logger)

	if cfg.AdminEmail != "" {
		if _, err := svc.Users.BootstrapAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatalf("Failed to bootstrap administrator: %v", err)
		}
	}

	jobs := scheduler.New(logger)
	if err := jobs.Add("card-expiry", cfg.ExpirySchedule, scheduler.NewExpiryJob(svc.Cards, logger, time.Minute)); err != nil {
		logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	jobs.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	if err := jobs.Stop(ctx); err != nil {
		logger.WithError(err).Warn("Scheduled jobs did not finish in time")
	}
	logger.Info("Server stopped")
}
