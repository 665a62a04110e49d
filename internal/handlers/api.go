// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the blog: the JSON API,
// the admin panel and the admin sign-in. Handlers are grouped by concern
// and receive their dependencies through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogcms/internal/blog"
	"blogcms/internal/cache"
	"blogcms/internal/logger"
	"blogcms/internal/models"
	"blogcms/internal/pagination"
	"blogcms/internal/service"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ResponseCache stores encoded show responses between writes.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// API serves the unauthenticated JSON API under /api/blog.
type API struct {
	categories *service.Categories
	posts      *service.Posts
	cache      ResponseCache
	perPage    int
}

// NewAPI creates the API handler group. cache may be nil.
func NewAPI(categories *service.Categories, posts *service.Posts, rc ResponseCache, perPage int) *API {
	return &API{
		categories: categories,
		posts:      posts,
		cache:      rc,
		perPage:    perPage,
	}
}

type categoryRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Slug        string  `json:"slug" validate:"max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	ParentID    *int64  `json:"parent_id" validate:"omitempty,gt=0"`
}

func (req *categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		ParentID:    req.ParentID,
	}
}

type postRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Slug        string  `json:"slug" validate:"max=255"`
	CategoryID  int64   `json:"category_id" validate:"required,gt=0"`
	Excerpt     *string `json:"excerpt" validate:"omitempty,max=500"`
	ContentRaw  string  `json:"content_raw" validate:"required"`
	IsPublished bool    `json:"is_published"`
	PublishedAt *string `json:"published_at"`
}

func (req *postRequest) input() (service.PostInput, error) {
	in := service.PostInput{
		Title:       req.Title,
		Slug:        req.Slug,
		CategoryID:  req.CategoryID,
		Excerpt:     req.Excerpt,
		ContentRaw:  req.ContentRaw,
		IsPublished: req.IsPublished,
	}
	if req.PublishedAt != nil {
		at, err := parseDate(*req.PublishedAt)
		if err != nil {
			return in, blog.NewValidationError("published_at", "The published at field must be a valid date.")
		}
		in.PublishedAt = at
	}
	return in, nil
}

// --- Posts ---

// ListPosts returns a page of posts, newest first.
func (a *API) ListPosts(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), a.perPage)
	items, total, err := a.posts.List(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, envelope(r, page, presentPostList(items), total))
}

// ShowPost returns the post with the slug in the path.
func (a *API) ShowPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "post")
	a.cached(w, r, cache.PostKey(slug), func(ctx context.Context) (any, error) {
		p, err := a.posts.Get(ctx, slug)
		if err != nil {
			return nil, err
		}
		return presentPost(p), nil
	})
}

// CreatePost stores a post owned by the unknown author.
func (a *API) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := a.posts.Create(r.Context(), in, models.UnknownUserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, presentPost(p))
}

// UpdatePost rewrites the post with the id in the path.
func (a *API) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "post")
	if !ok {
		writeError(w, r, blog.ErrPostNotFound)
		return
	}
	var req postRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := a.posts.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, presentPost(p))
}

// DeletePost soft-deletes the post with the id in the path.
func (a *API) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "post")
	if !ok {
		writeError(w, r, blog.ErrPostNotFound)
		return
	}
	if err := a.posts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Post deleted successfully")
}

// --- Categories ---

// ListCategories returns a page of categories, newest first.
func (a *API) ListCategories(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), a.perPage)
	items, total, err := a.categories.List(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tree := a.categories.Tree()
	writeJSON(w, r, http.StatusOK, envelope(r, page, presentCategories(tree, items), total))
}

// AllCategories returns every category ordered by title, unpaginated.
func (a *API) AllCategories(w http.ResponseWriter, r *http.Request) {
	a.cached(w, r, cache.CategoriesAll, func(ctx context.Context) (any, error) {
		items, err := a.categories.All(ctx)
		if err != nil {
			return nil, err
		}
		return presentCategories(a.categories.Tree(), items), nil
	})
}

// ShowCategory returns the category with the slug in the path.
func (a *API) ShowCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "category")
	a.cached(w, r, cache.CategoryKey(slug), func(ctx context.Context) (any, error) {
		c, err := a.categories.Get(ctx, slug)
		if err != nil {
			return nil, err
		}
		return presentCategory(a.categories.Tree(), c), nil
	})
}

// CategoryPosts returns a page of the posts in the category with the slug
// in the path.
func (a *API) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), a.perPage)
	c, items, total, err := a.categories.Posts(r.Context(), chi.URLParam(r, "category"), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		pagination.Envelope[postListJSON]
		Category categorySummary `json:"category"`
	}{
		Envelope: envelope(r, page, presentPostList(items), total),
		Category: categorySummary{ID: c.ID, Title: c.Title, Slug: c.Slug, Description: c.Description},
	})
}

// CreateCategory stores a new category.
func (a *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.categories.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, presentCategory(a.categories.Tree(), c))
}

// UpdateCategory rewrites the category with the id in the path.
func (a *API) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "category")
	if !ok {
		writeError(w, r, blog.ErrCategoryNotFound)
		return
	}
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.categories.Update(r.Context(), id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, presentCategory(a.categories.Tree(), c))
}

// DeleteCategory soft-deletes the category with the id in the path.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "category")
	if !ok {
		writeError(w, r, blog.ErrCategoryNotFound)
		return
	}
	if err := a.categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Category deleted successfully")
}

// --- Shared helpers ---

// cached serves key from the response cache, or builds, stores and serves
// the body. Errors from build are never cached.
func (a *API) cached(w http.ResponseWriter, r *http.Request, key string, build func(ctx context.Context) (any, error)) {
	if a.cache != nil {
		if body, ok := a.cache.Get(r.Context(), key); ok {
			w.Header().Set("X-Cache", "HIT")
			writeRaw(w, http.StatusOK, body)
			return
		}
	}

	v, err := build(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, fmt.Errorf("encode %s: %w", key, err))
		return
	}
	if a.cache != nil {
		a.cache.Set(r.Context(), key, body)
		w.Header().Set("X-Cache", "MISS")
	}
	writeRaw(w, http.StatusOK, body)
}

// envelope wraps one page of items with absolute navigation links.
func envelope[T any](r *http.Request, page pagination.Page, items []T, total int) pagination.Envelope[T] {
	meta := pagination.NewMeta(page, len(items), total)
	return pagination.NewEnvelope(items, meta, pagination.NewLinks(requestURL(r), meta))
}

// requestURL rebuilds the absolute URL the client used.
func requestURL(r *http.Request) *url.URL {
	u := *r.URL
	u.Host = r.Host
	u.Scheme = "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		u.Scheme = "https"
	}
	return &u
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// decode reads a JSON body into dst, trims its strings and validates it.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		logger.FromContext(r.Context()).Debug("decode request body failed", "error", err)
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return blog.FieldErrors{typeErr.Field: {fmt.Sprintf("The %s field is invalid.", strings.ReplaceAll(typeErr.Field, "_", " "))}}
		}
		return blog.FieldErrors{"body": {"The request body must be a valid JSON object."}}
	}
	trimStrings(dst)
	return validateStruct(dst)
}

// trimStrings trims the text fields of the request types.
func trimStrings(dst any) {
	switch v := dst.(type) {
	case *categoryRequest:
		v.Title, v.Slug = strings.TrimSpace(v.Title), strings.TrimSpace(v.Slug)
	case *postRequest:
		v.Title, v.Slug = strings.TrimSpace(v.Title), strings.TrimSpace(v.Slug)
		if strings.TrimSpace(v.ContentRaw) == "" {
			v.ContentRaw = ""
		}
	}
}
