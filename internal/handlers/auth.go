package handlers

import (
	"context"
	"net/http"
	"strings"

	"blogcms/internal/logger"
	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/render"
	"blogcms/internal/session"
)

// UserAuthenticator looks up admin users and checks their passwords.
type UserAuthenticator interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// SessionManager creates and destroys admin sessions.
type SessionManager interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer *render.Renderer
	sessions SessionManager
	users    UserAuthenticator
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions SessionManager, users UserAuthenticator) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		users:    users,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, "/admin/", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	log := logger.FromContext(r.Context())

	user, err := a.users.FindByEmail(r.Context(), email)
	if err != nil {
		log.Error("login lookup failed", "error", err)
		a.renderer.PageStatus(w, r, http.StatusInternalServerError, "login", &render.PageData{
			Title: "Sign In",
			Data:  map[string]any{"Error": "An unexpected error occurred.", "Email": email},
		})
		return
	}

	// The unknown author has no password and never matches.
	if user == nil || !a.users.CheckPassword(user, password) {
		log.Info("login rejected", "email", email)
		a.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "login", &render.PageData{
			Title: "Sign In",
			Data:  map[string]any{"Error": "Invalid email or password.", "Email": email},
		})
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		log.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	log.Info("admin signed in", "user_id", user.ID)
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		logger.FromContext(r.Context()).Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
