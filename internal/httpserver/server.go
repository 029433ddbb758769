// internal/httpserver/server.go
//
// HTTP server wiring for the bloglist backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, logging, panic recovery,
//     metrics, CORS, bearer token extraction).
//   - Diagnostics: /health, /metrics.
//   - Auth + users: POST /api/login, GET|POST /api/users.
//   - Blogs (user resolution applied): /api/blogs/*.
//   - Static frontend build served for any other GET that names a file.
//
// Notes:
//   - The store client and token codec are constructed by the caller and
//     injected here; the server owns neither lifecycle.
//   - Unmatched routes get a JSON 404.

package httpserver

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/metrics"
	"github.com/robalobadob/bloglist/internal/ratelimit"
	"github.com/robalobadob/bloglist/internal/store"
)

// Server bundles router, store client, token codec and login limiter.
type Server struct {
	r         *chi.Mux
	store     store.Store
	codec     *auth.Codec
	limiter   ratelimit.Limiter
	staticDir string
	origins   []string
}

// Option customizes a Server.
type Option func(*Server)

// WithLimiter throttles failed logins. Without it logins are unthrottled.
func WithLimiter(l ratelimit.Limiter) Option { return func(s *Server) { s.limiter = l } }

// WithStaticDir serves a frontend build from dir.
func WithStaticDir(dir string) Option { return func(s *Server) { s.staticDir = dir } }

// WithCORSOrigins restricts CORS to origins ("*" allows any).
func WithCORSOrigins(origins []string) Option { return func(s *Server) { s.origins = origins } }

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, codec *auth.Codec, opts ...Option) *Server {
	s := &Server{r: chi.NewRouter(), store: st, codec: codec, origins: []string{"*"}}
	for _, opt := range opts {
		opt(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(metrics.Middleware)
	s.r.Use(cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)
	s.r.Use(tokenExtractor)

	// --- diagnostics ---
	s.r.Get("/health", s.handleHealth)
	s.r.Handle("/metrics", metrics.Handler())

	// --- API ---
	s.r.Group(func(r chi.Router) {
		r.Use(jsonContentType)
		s.mountLoginRoutes(r)
		s.mountUserRoutes(r)
		s.mountBlogRoutes(r)
	})

	if s.staticDir != "" {
		s.r.Get("/*", s.serveStatic)
	}

	s.r.NotFound(unknownEndpoint)
	s.r.MethodNotAllowed(unknownEndpoint)

	return s
}

// Router exposes the internal router (used by main and tests).
func (s *Server) Router() chi.Router { return s.r }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// serveStatic serves a file from the static dir, falling back to the JSON
// 404 when no such file exists.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + chi.URLParam(r, "*"))
	if rel == "/" {
		rel = "/index.html"
	}
	full := filepath.Join(s.staticDir, filepath.FromSlash(rel))
	fi, err := os.Stat(full)
	if err != nil || fi.IsDir() {
		unknownEndpoint(w, r)
		return
	}
	http.ServeFile(w, r, full)
}

func unknownEndpoint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody("unknown endpoint"))
}
