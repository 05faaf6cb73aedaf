package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/auth"
	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/export"
	apphttp "tally/internal/http"
	"tally/internal/log"
	"tally/internal/notify"
	"tally/internal/session"
	"tally/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting tally")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	// The remote backend reads the token per request; the session store that
	// owns it is built after the backend, so the source closes over a late
	// binding.
	var sessions *session.Store
	tokenSource := func() string {
		if sessions == nil {
			return ""
		}
		return sessions.Token()
	}

	factory := backend.NewFactory(logger)
	result, err := factory.Create(cfg, tokenSource)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	var authSvc auth.Service
	switch cfg.AuthMode {
	case "remote":
		authSvc = auth.NewRemoteService(cfg.AuthRemoteURL)
		logger.Info("Using remote authentication", "auth_url", cfg.AuthRemoteURL)
	default:
		authSvc = auth.NewLocalService(result.Users, []byte(cfg.JWTSecret), cfg.TokenTTL)
		logger.Info("Using local authentication")
	}

	notifier := notify.NewLogNotifier(logger)

	var events store.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("AMQP event publication enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	sessions = session.New(authSvc, result.Tokens, notifier, logger)
	txStore := store.New(result.Store, events, notifier, logger)
	txStore.Attach(sessions)

	var exporter *export.SheetsExporter
	if cfg.SheetsSpreadsheetID != "" {
		exporter, err = export.NewSheetsExporter(context.Background(), cfg.SheetsSpreadsheetID, cfg.SheetsSheetName)
		if err != nil {
			logger.Error("Failed to initialize spreadsheet exporter", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Spreadsheet export enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	} else {
		logger.Info("Spreadsheet export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Restore any persisted session before serving requests, so the first
	// /api/auth/me answer is trustworthy.
	sessions.Restore(context.Background())

	srv := apphttp.NewServer(":"+cfg.Port, sessions, txStore, exporter, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting tally server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
