// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler tests.
// Handlers run against the in-memory repositories from servicetest and the
// real embedded templates, so no PostgreSQL or Valkey is needed.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"blogcms/internal/blog"
	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/render"
	"blogcms/internal/service"
	"blogcms/internal/service/servicetest"
	"blogcms/internal/session"
)

var testNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

// memoryCache is a ResponseCache that also honours invalidation, so the
// whole read-through path can be exercised.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	return b, ok
}

func (c *memoryCache) Set(_ context.Context, key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = body
}

func (c *memoryCache) Invalidate(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}

func (c *memoryCache) InvalidatePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// fakeFlashes keeps a single pending flash message.
type fakeFlashes struct {
	pending string
}

func (f *fakeFlashes) SetFlash(_ context.Context, _ *http.Request, msg string) error {
	f.pending = msg
	return nil
}

func (f *fakeFlashes) PopFlash(_ context.Context, _ *http.Request) string {
	msg := f.pending
	f.pending = ""
	return msg
}

// activityFeed adapts the activity recorder to the dashboard feed.
type activityFeed struct {
	rec *servicetest.Activity
}

func (f activityFeed) Recent(_ context.Context, limit int) ([]models.ActivityEntry, error) {
	var out []models.ActivityEntry
	for i := len(f.rec.Entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := f.rec.Entries[i]
		out = append(out, models.ActivityEntry{
			ID: int64(i + 1), EntityType: e.EntityType, EntityID: e.EntityID,
			Action: e.Action, CreatedAt: testNow,
		})
	}
	return out, nil
}

// fakeUsers authenticates against a fixed email and plain-text password.
type fakeUsers struct {
	user     *models.User
	password string
	err      error
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil || !strings.EqualFold(f.user.Email, email) {
		return nil, nil
	}
	return f.user, nil
}

func (f *fakeUsers) CheckPassword(u *models.User, password string) bool {
	return u.PasswordHash != "" && password == f.password
}

// fakeSessions records created and destroyed sessions.
type fakeSessions struct {
	created   []*session.Data
	destroyed int
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	f.created = append(f.created, data)
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "test-session", Path: "/"})
	return "test-session", nil
}

func (f *fakeSessions) Destroy(_ context.Context, _ http.ResponseWriter, _ *http.Request) error {
	f.destroyed++
	return nil
}

// testEnv wires every handler group onto a chi router.
type testEnv struct {
	mem        *servicetest.Memory
	cache      *memoryCache
	activity   *servicetest.Activity
	flashes    *fakeFlashes
	users      *fakeUsers
	sessions   *fakeSessions
	categories *service.Categories
	posts      *service.Posts

	// session is attached to every admin request when non-nil.
	session *session.Data
	router  chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		mem:      servicetest.NewMemory(),
		cache:    newMemoryCache(),
		activity: &servicetest.Activity{},
		flashes:  &fakeFlashes{},
		sessions: &fakeSessions{},
		users: &fakeUsers{
			user:     &models.User{ID: 2, Name: "Admin", Email: "admin@example.com", PasswordHash: "hash"},
			password: "secret-password",
		},
	}
	env.mem.AddUser(models.User{ID: 2, Name: "Admin", Email: "admin@example.com", PasswordHash: "hash"})

	deps := service.Deps{
		Categories: env.mem.Categories(),
		Posts:      env.mem.Posts(),
		Tree:       blog.NewTree(blog.DefaultRootID),
		Cache:      env.cache,
		Activity:   env.activity,
		Now:        func() time.Time { return testNow },
	}
	env.categories = service.NewCategories(deps)
	env.posts = service.NewPosts(deps)

	renderer, err := render.New(true)
	require.NoError(t, err)

	api := NewAPI(env.categories, env.posts, env.cache, 10)
	admin := NewAdmin(renderer, env.flashes, env.categories, env.posts, activityFeed{env.activity}, 5)
	auth := NewAuth(renderer, env.sessions, env.users)

	r := chi.NewRouter()
	r.Use(middleware.RequestID(slog.New(slog.NewTextHandler(io.Discard, nil))))

	r.Route("/api/blog", func(r chi.Router) {
		r.Get("/posts", api.ListPosts)
		r.Post("/posts", api.CreatePost)
		r.Get("/posts/{post}", api.ShowPost)
		r.Put("/posts/{post}", api.UpdatePost)
		r.Patch("/posts/{post}", api.UpdatePost)
		r.Delete("/posts/{post}", api.DeletePost)
		r.Get("/categories", api.ListCategories)
		r.Post("/categories", api.CreateCategory)
		r.Get("/categories/{category}", api.ShowCategory)
		r.Put("/categories/{category}", api.UpdateCategory)
		r.Delete("/categories/{category}", api.DeleteCategory)
		r.Get("/categories/{category}/posts", api.CategoryPosts)
		r.Get("/categories-all", api.AllCategories)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if env.session != nil {
					req = req.WithContext(middleware.WithSession(req.Context(), env.session))
				}
				next.ServeHTTP(w, req)
			})
		})
		r.Get("/login", auth.LoginPage)
		r.Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)
		r.Get("/", admin.Dashboard)
		r.Get("/categories", admin.CategoriesList)
		r.Get("/categories/new", admin.CategoryNew)
		r.Post("/categories", admin.CategoryCreate)
		r.Get("/categories/{id}", admin.CategoryEdit)
		r.Post("/categories/{id}", admin.CategoryUpdate)
		r.Post("/categories/{id}/delete", admin.CategoryDelete)
		r.Get("/posts", admin.PostsList)
		r.Get("/posts/new", admin.PostNew)
		r.Post("/posts", admin.PostCreate)
		r.Get("/posts/{id}", admin.PostEdit)
		r.Post("/posts/{id}", admin.PostUpdate)
		r.Post("/posts/{id}/delete", admin.PostDelete)
	})

	env.router = r
	return env
}

// do sends a request with an optional JSON body.
func (env *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			panic(err)
		}
		rdr = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, target, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// form posts url-encoded form values.
func (env *testEnv) form(target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// signIn attaches an admin session to subsequent admin requests.
func (env *testEnv) signIn() {
	env.session = &session.Data{UserID: 2, Email: "admin@example.com", Name: "Admin"}
}

func (env *testEnv) category(t *testing.T, title string, parent *int64) *models.Category {
	t.Helper()
	c, err := env.categories.Create(context.Background(), service.CategoryInput{Title: title, ParentID: parent})
	require.NoError(t, err)
	return c
}

func (env *testEnv) post(t *testing.T, title string, categoryID int64, published bool) *models.Post {
	t.Helper()
	p, err := env.posts.Create(context.Background(), service.PostInput{
		Title:       title,
		ContentRaw:  "Some **bold** text.",
		CategoryID:  categoryID,
		IsPublished: published,
	}, models.UnknownUserID)
	require.NoError(t, err)
	return p
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func decodeJSONArray(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func ptr[T any](v T) *T { return &v }
