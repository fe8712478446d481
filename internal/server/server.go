package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/overlay-studio/internal/admin"
	"github.com/ziadkadry99/overlay-studio/internal/assets"
	"github.com/ziadkadry99/overlay-studio/internal/audit"
	"github.com/ziadkadry99/overlay-studio/internal/dashboard"
	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
)

// Config holds server configuration.
type Config struct {
	Port     int
	SiteDir  string        // static site served for every unmatched path
	AllowAll bool          // allow all CORS origins (dev mode)
	Admin    admin.Options // secret prompt on the admin page
}

// Deps are the stores the server exposes. Audit may be nil.
type Deps struct {
	Icons  *iconconfig.Store
	Files  *assets.Store
	Audit  *audit.Store
	Logger *zap.Logger
}

// Server hosts the config store, the asset store and the admin page in
// front of the static site.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *zap.Logger
	hub        *iconconfig.Hub
	router     chi.Router
	httpServer *http.Server
}

// New creates a server and wires all routes.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.Named("server"),
		hub:    iconconfig.NewHub(deps.Logger),
	}
	deps.Icons.OnChange(s.hub.Broadcast)

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{iconconfig.VersionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// The change feed is long-lived and stays outside the request timeout.
	r.Get("/ws/icon-config", s.hub.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/api/version", s.handleVersion)

		var auditor *audit.Recorder
		if s.deps.Audit != nil {
			auditor = audit.NewRecorder(s.deps.Audit, s.deps.Logger)
			audit.RegisterRoutes(r, s.deps.Audit)
		}

		iconDeps := iconconfig.Deps{Logger: s.deps.Logger}
		if s.deps.Files != nil {
			iconDeps.Assets = s.deps.Files
		}
		if auditor != nil {
			iconDeps.Audit = auditor
		}
		iconconfig.RegisterRoutes(r, s.deps.Icons, iconDeps)

		if s.deps.Files != nil {
			var uploadAudit assets.Auditor
			if auditor != nil {
				uploadAudit = auditor
			}
			assets.RegisterRoutes(r, s.deps.Files, uploadAudit, s.deps.Logger)
		}

		dashboard.New(s.deps.Icons, s.deps.Audit, s.cfg.Admin).RegisterRoutes(r)

		if s.cfg.SiteDir != "" {
			r.Handle("/*", http.FileServer(http.Dir(s.cfg.SiteDir)))
		}
	})

	return r
}

// handleVersion reports the config document version without reading it.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]uint64{"version": s.deps.Icons.Version()})
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the change feed.
func (s *Server) Hub() *iconconfig.Hub { return s.hub }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port. It returns nil after
// Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("studio server listening", zap.String("addr", addr), zap.String("site", s.cfg.SiteDir))
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes the change feed and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
