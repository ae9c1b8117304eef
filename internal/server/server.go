// Package server wires storage, token service, revocation registry
// and handlers into a single HTTP server and owns its lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/maryamfad/atlas-ecommerce-backend/internal/config"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/crypto"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/handlers"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/jwt"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/middleware"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/revocation"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

// Server is the assembled auth service
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	storage    *sqlite.Storage
	registry   revocation.Registry
}

// New builds the server from configuration: opens the user store,
// selects the revocation registry (BoltDB when a path is configured,
// in-memory otherwise), constructs the token service and mounts the
// routes. A missing signing secret fails here, before the listener
// ever binds.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open user storage: %w", err)
	}

	var registry revocation.Registry
	if cfg.RevocationPath != "" {
		registry, err = revocation.NewBolt(ctx, cfg.RevocationPath)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to open revocation registry: %w", err)
		}
	} else {
		registry = revocation.NewMemory()
	}

	tokens, err := jwt.NewService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		store.Close()
		registry.Close()
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	hasher := crypto.NewHasher(cfg.BcryptCost)

	authHandler := handlers.NewAuthHandler(logger, store, hasher, tokens, registry)
	healthHandler := handlers.NewHealthHandler(logger, store.DB())

	authGate := middleware.Auth(logger, tokens, registry)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.Handle("POST /auth/logout", authGate(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("POST /auth/password", authGate(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /auth/me", authGate(http.HandlerFunc(authHandler.Me)))
	mux.HandleFunc("GET /health", healthHandler.Health)

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/health"})(handler)
	handler = middleware.Recovery(logger)(handler)

	httpServer := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		logger:     logger,
		httpServer: httpServer,
		storage:    store,
		registry:   registry,
	}, nil
}

// Handler returns the root handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until the context is canceled or SIGINT/SIGTERM arrives,
// then shuts down gracefully and closes the store and the registry.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.closeResources()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.closeResources()

	if err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func (s *Server) closeResources() {
	if err := s.registry.Close(); err != nil {
		s.logger.Error("failed to close revocation registry", "error", err)
	}
	if err := s.storage.Close(); err != nil {
		s.logger.Error("failed to close storage", "error", err)
	}
}
