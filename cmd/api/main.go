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

	"invoiceflow/internal/config"
	"invoiceflow/internal/database"
	"invoiceflow/internal/logger"
	"invoiceflow/internal/mailer"
	"invoiceflow/internal/pdf"
	"invoiceflow/internal/scheduler"
	"invoiceflow/internal/server"
	"invoiceflow/internal/validator"
)

// @title           InvoiceFlow API
// @version         1.0
// @description     InvoiceFlow is a small-business invoicing API: manage clients, issue numbered invoices with derived totals, render them to PDF and email them to clients.

// @host      localhost:5000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	if err := mailer.VerifyAPIKey(appConfig.ResendAPIKey); err != nil {
		log.Warnf("Email delivery unavailable: %v", err)
	}

	// Initialize services
	sender := mailer.NewResendSender(appConfig.ResendAPIKey, appConfig.EmailFrom, &http.Client{Timeout: 30 * time.Second})
	svcs := server.NewServices(dbManager.DB(), pdf.NewRenderer(), sender, appConfig.ResendAPIKey)

	validator.Register()
	router := server.NewRouter(svcs, server.OptionsFromConfig(appConfig))

	// Background jobs
	sched := scheduler.New(svcs.Invoices)
	if err := sched.ScheduleOverdueSweep(appConfig.OverdueSweepSchedule); err != nil {
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting InvoiceFlow server on port %s (%s)", appConfig.Port, appConfig.Env)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		<-sched.Stop().Done()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Infof("Received %s, shutting down", sig)
	}

	<-sched.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
