package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expensetracker/auth"
	"expensetracker/config"
	"expensetracker/handlers"
	"expensetracker/repository"
	"expensetracker/routes"
	"expensetracker/service"
	"expensetracker/telemetry"
	"expensetracker/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "expensetracker"

func main() {
	// Load config from .env or the environment
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatalf("config: %v", err)
	}

	shutdownTelemetry := telemetry.Setup(serviceName, cfg.Telemetry)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := repository.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Printf("db close: %v", err)
		}
	}()

	handler, err := newHandler(cfg, store)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(handler, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s (db=%s)", cfg.Port, cfg.DBType)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// newHandler wires the auth, service and HTTP layers over an open store.
func newHandler(cfg *config.Config, store *repository.Store) (http.Handler, error) {
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return nil, err
	}

	verifier := auth.NewCredentialVerifier(store.Users, auth.NewPasswordHasher(cfg.BcryptCost), tokens)
	guard := auth.NewSessionGuard(store.Users, tokens)
	expenses := service.NewExpenseService(store.Expenses)

	reports := &handlers.ReportHandler{Service: expenses, Renderer: utils.PDFRenderer{}}
	if cfg.R2.Enabled() {
		uploader, err := utils.NewR2Uploader(context.Background(), cfg.R2)
		if err != nil {
			return nil, err
		}
		reports.Uploader = uploader
	}

	mux := routes.SetupRoutes(routes.Handlers{
		Users:    &handlers.UserHandler{Auth: verifier},
		Expenses: &handlers.ExpenseHandler{Service: expenses},
		Reports:  reports,
		Guard:    guard,
	})
	return handlers.LoggingMiddleware(mux), nil
}
