// Package server is the composition root: it builds every dependency from
// the config, wires handlers to routes and runs the HTTP server with
// graceful shutdown.
//
// DEPENDENCY FLOW:
//
//	config.Config → sqlite.DB, auth.TokenService, auth.Sealer, identity.GitHubClient
//	             → ProfileService, FavoriteService, AuthService
//	             → ProfileHandler, FavoriteHandler, AuthHandler, HealthHandler
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/config"
	"github.com/sakif/refactorium/internal/handler"
	"github.com/sakif/refactorium/internal/identity"
	"github.com/sakif/refactorium/internal/middleware"
	sqliteRepo "github.com/sakif/refactorium/internal/repository/sqlite"
	"github.com/sakif/refactorium/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database connection. The connection is
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

// New opens the database and assembles the application.
// cfg must already have passed Validate.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(ctx, sqliteRepo.Config{
		Path:           cfg.DBPath,
		ConnectTimeout: cfg.DBConnectTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := NewWithDB(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB assembles the application on an already-open database.
func NewWithDB(cfg *config.Config, db *sqliteRepo.DB, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET  /healthz                 → liveness + database ping
//	GET  /auth/github/login       → start OAuth (only when GitHub credentials are configured)
//	GET  /auth/github/callback    → finish OAuth, set session cookie
//	POST /auth/logout             → clear session cookie
//	GET  /api/me                  → session identity
//	GET  /api/user/profile        → profile + preferences
//	PUT  /api/user/profile        → partial profile edit
//	POST /api/user/sync-github    → reconcile with GitHub
//	GET  /api/user/preferences    → preferences
//	PUT  /api/user/preferences    → partial preferences edit
//	GET  /api/user/favorites      → list favorites
//	POST /api/user/favorites      → add/remove a favorite
//
// Middleware order: RequestID before Logger so every log line has an ID;
// Recoverer inside Logger so a panic is logged as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	sealer, err := auth.NewSealer(s.config.CredentialKey)
	if err != nil {
		return fmt.Errorf("creating credential sealer: %w", err)
	}

	github := identity.NewGitHubClient(identity.Config{
		BaseURL: s.config.GitHubAPIURL,
		Timeout: s.config.ProviderTimeout,
	})

	profileService := service.NewProfileService(s.db, s.db, s.db, github, sealer, s.logger)
	favoriteService := service.NewFavoriteService(s.db, s.db, s.logger)
	authService := service.NewAuthService(s.db, s.db, s.db, github, s.tokens, sealer, s.logger)

	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	favoriteHandler := handler.NewFavoriteHandler(favoriteService, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	provider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)
	authHandler := handler.NewAuthHandler(provider, authService, s.tokens.TTL(), s.config.SecureCookies, s.logger)

	s.router.Route("/auth", func(r chi.Router) {
		if s.config.OAuthEnabled() {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		} else {
			s.logger.Warn("GitHub OAuth credentials not set, login routes are disabled")
		}
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(s.tokens))

		r.Get("/me", authHandler.HandleMe)

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", profileHandler.HandleGet)
			r.Put("/profile", profileHandler.HandleUpdate)
			r.Post("/sync-github", profileHandler.HandleSync)

			r.Get("/preferences", profileHandler.HandleGetPreferences)
			r.Put("/preferences", profileHandler.HandleUpdatePreferences)

			r.Get("/favorites", favoriteHandler.HandleList)
			r.Post("/favorites", favoriteHandler.HandleToggle)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down:
//  1. stop accepting new connections
//  2. wait up to 30s for in-flight requests
//  3. close the database
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // a sync may wait up to provider_timeout on GitHub
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
