// Package router sets up all HTTP routes and middleware chains for the
// blog. It organizes routes into the JSON API and the admin panel, each
// with its own middleware stack.
package router

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogcms/internal/handlers"
	"blogcms/internal/logger"
	"blogcms/internal/middleware"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config carries what the router wires together.
type Config struct {
	Logger       *slog.Logger
	DB           Pinger // optional; checked by /health
	Sessions     middleware.SessionGetter
	SecureCookie bool
	LoginLimiter *middleware.RateLimiter
	Static       fs.FS

	API   *handlers.API
	Admin *handlers.Admin
	Auth  *handlers.Auth
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(cfg Config) chi.Router {
	r := chi.NewRouter()

	// Global middleware: every request gets an id, panic recovery,
	// an access log line and security headers.
	r.Use(middleware.RequestID(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthCheck(cfg.DB))

	if cfg.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(cfg.Static)))
	}

	// JSON API: unauthenticated, no session, no CSRF.
	r.Route("/api/blog", func(r chi.Router) {
		r.NotFound(apiNotFound)
		r.MethodNotAllowed(apiMethodNotAllowed)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", cfg.API.ListPosts)
			r.Post("/", cfg.API.CreatePost)
			r.Get("/{post}", cfg.API.ShowPost)
			r.Put("/{post}", cfg.API.UpdatePost)
			r.Patch("/{post}", cfg.API.UpdatePost)
			r.Delete("/{post}", cfg.API.DeletePost)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", cfg.API.ListCategories)
			r.Post("/", cfg.API.CreateCategory)
			r.Get("/{category}", cfg.API.ShowCategory)
			r.Put("/{category}", cfg.API.UpdateCategory)
			r.Patch("/{category}", cfg.API.UpdateCategory)
			r.Delete("/{category}", cfg.API.DeleteCategory)
			r.Get("/{category}/posts", cfg.API.CategoryPosts)
		})

		r.Get("/categories-all", cfg.API.AllCategories)
	})

	// Admin routes: session and CSRF protection.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.LoadSession(cfg.Sessions))
		r.Use(middleware.NewCSRF(cfg.SecureCookie))

		// Auth pages, accessible without a session.
		r.Get("/login", cfg.Auth.LoginPage)
		if cfg.LoginLimiter != nil {
			r.With(cfg.LoginLimiter.Middleware).Post("/login", cfg.Auth.LoginSubmit)
		} else {
			r.Post("/login", cfg.Auth.LoginSubmit)
		}
		r.Post("/logout", cfg.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/", cfg.Admin.Dashboard)
			r.Get("/dashboard", cfg.Admin.Dashboard)

			// Plain HTML forms can only POST, so updates and deletes are
			// reachable both ways.
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", cfg.Admin.CategoriesList)
				r.Get("/new", cfg.Admin.CategoryNew)
				r.Post("/", cfg.Admin.CategoryCreate)
				r.Get("/{id}", cfg.Admin.CategoryEdit)
				r.Post("/{id}", cfg.Admin.CategoryUpdate)
				r.Put("/{id}", cfg.Admin.CategoryUpdate)
				r.Post("/{id}/delete", cfg.Admin.CategoryDelete)
				r.Delete("/{id}", cfg.Admin.CategoryDelete)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", cfg.Admin.PostsList)
				r.Get("/new", cfg.Admin.PostNew)
				r.Post("/", cfg.Admin.PostCreate)
				r.Get("/{id}", cfg.Admin.PostEdit)
				r.Post("/{id}", cfg.Admin.PostUpdate)
				r.Put("/{id}", cfg.Admin.PostUpdate)
				r.Post("/{id}/delete", cfg.Admin.PostDelete)
				r.Delete("/{id}", cfg.Admin.PostDelete)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// healthCheck answers 503 while db is unreachable.
func healthCheck(db Pinger) http.HandlerFunc {
	if db == nil {
		return healthHandler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.FromContext(r.Context()).Error("health check failed", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		healthHandler(w, r)
	}
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message":"Not Found","error":"not_found"}`))
}

func apiMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"message":"Method Not Allowed","error":"method_not_allowed"}`))
}
