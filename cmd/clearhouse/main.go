package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"clearhouse/internal/config"
	"clearhouse/internal/database"
	"clearhouse/internal/handler"
	"clearhouse/internal/mw"
	"clearhouse/internal/service"
	"clearhouse/internal/storage/postgres"
	"clearhouse/internal/worker"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(context.Background(), db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	store := postgres.New(db)

	// Services
	authSvc := service.NewAuthService(store)
	agentSvc := service.NewAgentService(store)
	operatorSvc := service.NewOperatorService(store)
	ledgerSvc := service.NewLedgerService(store, store)
	clearingSvc := service.NewClearingService(store, store, store, store)

	if err := agentSvc.Bootstrap(context.Background(), cfg.OwnerAddress); err != nil {
		slog.Error("failed to seed owner agent", "error", err)
		os.Exit(1)
	}

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/user/register", handler.RegisterHandler(authSvc, cfg.JWTSecret))
	r.Post("/api/user/login", handler.LoginHandler(authSvc, cfg.JWTSecret))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret))

		r.Post("/api/transfers", handler.OrderTransferHandler(clearingSvc))
		r.Post("/api/transfers/from", handler.OrderTransferFromHandler(clearingSvc))
		r.Get("/api/transfers/{operationID}", handler.RetrieveTransferHandler(clearingSvc))
		r.Post("/api/transfers/{operationID}/process", handler.ProcessTransferHandler(clearingSvc))
		r.Post("/api/transfers/{operationID}/reject", handler.RejectTransferHandler(clearingSvc))
		r.Post("/api/transfers/{operationID}/cancel", handler.CancelTransferHandler(clearingSvc))
		r.Post("/api/transfers/{operationID}/execute", handler.ExecuteTransferHandler(clearingSvc))

		r.Post("/api/operators", handler.AuthorizeOperatorHandler(operatorSvc))
		r.Delete("/api/operators/{operator}", handler.RevokeOperatorHandler(operatorSvc))
		r.Get("/api/operators/{operator}", handler.IsAuthorizedOperatorHandler(operatorSvc))

		r.Post("/api/agents", handler.DefineAgentHandler(agentSvc))
		r.Get("/api/agents/{address}", handler.IsAgentHandler(agentSvc))

		r.Get("/api/balance", handler.BalanceHandler(ledgerSvc))
		r.Post("/api/mint", handler.MintHandler(ledgerSvc))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())

	if cfg.AuditWebhookAddress != "" {
		relay := worker.NewRelayWorker(store, service.NewWebhookClient(cfg.AuditWebhookAddress))
		go relay.Start(ctx)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop relay worker
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
