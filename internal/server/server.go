package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ugel06/registry/config"
	"github.com/ugel06/registry/internal/auth"
	"github.com/ugel06/registry/internal/db"
	"github.com/ugel06/registry/internal/handlers"
	"github.com/ugel06/registry/internal/mq"
	"github.com/ugel06/registry/internal/services"
	"github.com/ugel06/registry/internal/storage"
	"github.com/ugel06/registry/internal/store"
)

// Server wraps the HTTP server, router and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	backend    store.Backend
	events     *mq.MQ
}

// New opens the backend, bootstraps the admin account and builds the router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	backend, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	srv, err := build(ctx, cfg, backend)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return srv, nil
}

func build(ctx context.Context, cfg config.Config, backend store.Backend) (*Server, error) {
	adminService := services.NewAdminService(backend.Admins())
	created, err := adminService.EnsureBootstrapAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Printf("created bootstrap admin %q", cfg.Auth.AdminUsername)
	}

	jwtSecret, err := resolveJWTSecret(cfg)
	if err != nil {
		return nil, err
	}
	authenticator := auth.New(adminService, jwtSecret, auth.WithTTL(cfg.Auth.TokenTTL))

	var (
		events   *mq.MQ
		instOpts []services.InstitutionOption
	)
	if strings.TrimSpace(cfg.MQ.Backend) != "" {
		events, err = mq.New(ctx, cfg.MQ)
		if err != nil {
			return nil, err
		}
		instOpts = append(instOpts, services.WithEventPublisher(events, cfg.MQ.Channel))
		log.Printf("publishing institution events to %s channel %q", cfg.MQ.Backend, cfg.MQ.Channel)
	}
	institutionService := services.NewInstitutionService(backend.Institutions(), instOpts...)

	var archiveService *services.ArchiveService
	if strings.TrimSpace(cfg.Storage.Backend) != "" {
		objects, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			if events != nil {
				_ = events.Close()
			}
			return nil, err
		}
		archiveService = services.NewArchiveService(institutionService, objects)
		log.Printf("archiving exports to %s bucket %q", cfg.Storage.Backend, objects.Bucket())
	}

	router := newRouter(backend, authenticator, institutionService, archiveService)

	port := cfg.ServerPort
	if port == 0 {
		port = 5000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		backend:    backend,
		events:     events,
	}, nil
}

func newRouter(
	backend store.Backend,
	authenticator *auth.Authenticator,
	institutionService *services.InstitutionService,
	archiveService *services.ArchiveService,
) *chi.Mux {
	authMiddleware := handlers.RequireAuth(authenticator)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz(backend))
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Healthz(backend))
		r.Route("/instituciones", func(r chi.Router) {
			handlers.InstitutionRouter(r, institutionService, authMiddleware)
			if archiveService != nil {
				handlers.ArchiveRouter(r, archiveService, authMiddleware)
			}
		})
		if archiveService != nil {
			r.Route("/exports", func(r chi.Router) {
				handlers.ExportDownloadRouter(r, archiveService, authMiddleware)
			})
		}
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authenticator)
		})
	})
	return router
}

// resolveJWTSecret returns JWT_SECRET, or outside production a random
// secret that lives as long as the process.
func resolveJWTSecret(cfg config.Config) (string, error) {
	if secret := strings.TrimSpace(cfg.Auth.JWTSecret); secret != "" {
		return secret, nil
	}
	if cfg.IsProduction() {
		return "", errors.New("JWT_SECRET is required in production")
	}

	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	log.Printf("warning: JWT_SECRET is not set; using a random secret, tokens will not survive a restart")
	return hex.EncodeToString(buf[:]), nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("listening on %s (%s backend)", s.httpServer.Addr, s.backend.Driver())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the backend and broker connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.backend != nil {
		if cerr := s.backend.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
