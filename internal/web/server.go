// Package web provides the HTTP API of the catalog admin console.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/catalog/internal/approval"
	"github.com/JonMunkholm/catalog/internal/auth"
	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/web/middleware"
)

// Deps are the services the server routes to.
type Deps struct {
	Service   *core.Service
	Approvals *approval.Service
	Tokens    middleware.TokenValidator

	// MediaDir, when set, is served under /media for the local blob store.
	MediaDir string
}

// Server is the HTTP server for the catalog API.
type Server struct {
	cfg       *config.Config
	service   *core.Service
	approvals *approval.Service
	tokens    middleware.TokenValidator
	mediaDir  string
	router    *chi.Mux
	server    *http.Server
	limiters  []*rateLimiter
}

// NewServer creates a server with all middleware and routes installed.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		service:   deps.Service,
		approvals: deps.Approvals,
		tokens:    deps.Tokens,
		mediaDir:  deps.MediaDir,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimit(s.newLimiter(s.cfg.Rate.RequestsPerMinute)))
	}
}

func (s *Server) newLimiter(perMinute int) *rateLimiter {
	rl := newRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	if s.mediaDir != "" {
		s.router.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaDir))))
	}

	approvals := middleware.ApprovalChecker(nil)
	if s.approvals != nil {
		approvals = s.approvals
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(s.tokens, approvals, s.cfg.Security.RequireAuth))

		// Imports carry their own timeout and a tighter rate limit.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			if s.cfg.Rate.Enabled && s.cfg.Rate.ImportLimit > 0 {
				r.Use(s.rateLimit(s.newLimiter(s.cfg.Rate.ImportLimit)))
			}
			r.Post("/products/import", s.handleImport)
			r.Post("/products/import/preview", s.handleImportPreview)
		})

		r.Group(func(r chi.Router) {
			if s.cfg.Server.RequestTimeout > 0 {
				r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
			}

			// Reads
			r.Get("/products", s.handleListProducts)
			r.Get("/products/facets", s.handleFacets)
			r.Get("/products/export", s.handleExport)
			r.Get("/products/{id}", s.handleGetProduct)
			r.Get("/selection", s.handleGetSelection)

			// Selection is per session and does not touch the store.
			r.Delete("/selection", s.handleClearSelection)
			r.Post("/selection/toggle", s.handleToggleSelection)
			r.Post("/selection/visible", s.handleSelectVisible)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin))

				r.Post("/products", s.handleCreateProduct)
				r.Put("/products/{id}", s.handleUpdateProduct)
				r.Delete("/products/{id}", s.handleDeleteProduct)

				r.Post("/products/bulk/status", s.handleBulkStatus)
				r.Post("/products/bulk/delete", s.handleBulkDelete)
				r.Post("/products/bulk/export", s.handleBulkExport)

				r.Post("/refresh", s.handleRefresh)
				r.Get("/audit", s.handleAuditLog)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleOwner))

				r.Get("/users", s.handleListUsers)
				r.Post("/users/{id}/approve", s.handleApproveUser)
				r.Post("/users/{id}/revoke", s.handleRevokeUser)
			})
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// Thumbnails may be served from the bucket host.
				h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self'")
			}
			next.ServeHTTP(w, r)
		})
	}
}
