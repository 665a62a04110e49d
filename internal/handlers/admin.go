// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"blogcms/internal/blog"
	"blogcms/internal/logger"
	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/pagination"
	"blogcms/internal/render"
	"blogcms/internal/service"
)

// FlashStore carries one-time messages across a redirect.
type FlashStore interface {
	SetFlash(ctx context.Context, r *http.Request, message string) error
	PopFlash(ctx context.Context, r *http.Request) string
}

// ActivityFeed lists recent writes for the dashboard.
type ActivityFeed interface {
	Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

// recentActivity is how many entries the dashboard shows.
const recentActivity = 10

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer   *render.Renderer
	flashes    FlashStore
	categories *service.Categories
	posts      *service.Posts
	activity   ActivityFeed
	perPage    int
}

// NewAdmin creates a new Admin handler group with the given dependencies.
func NewAdmin(renderer *render.Renderer, flashes FlashStore, categories *service.Categories, posts *service.Posts, activity ActivityFeed, perPage int) *Admin {
	return &Admin{
		renderer:   renderer,
		flashes:    flashes,
		categories: categories,
		posts:      posts,
		activity:   activity,
		perPage:    perPage,
	}
}

// Dashboard renders the admin dashboard with post counts and recent activity.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	stats, err := a.posts.Stats(r.Context())
	if err != nil {
		log.Error("dashboard stats failed", "error", err)
	}
	recent, err := a.activity.Recent(r.Context(), recentActivity)
	if err != nil {
		log.Error("dashboard activity failed", "error", err)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Flashes: a.popFlashes(r),
		Data: map[string]any{
			"Stats":    stats,
			"Activity": recent,
		},
	})
}

// --- Categories CRUD ---

// categoryForm is the admin category form. Its rules are stricter than
// the JSON API's.
type categoryForm struct {
	ID          int64  `json:"-"`
	Title       string `json:"title" validate:"required,min=5,max=200"`
	Slug        string `json:"slug" validate:"max=200"`
	Description string `json:"description" validate:"max=500"`
	ParentID    *int64 `json:"parent_id"`
}

func categoryFormFrom(c *models.Category) categoryForm {
	f := categoryForm{ID: c.ID, Title: c.Title, Slug: c.Slug, ParentID: c.ParentID}
	if c.Description != nil {
		f.Description = *c.Description
	}
	return f
}

func (f *categoryForm) input() service.CategoryInput {
	return service.CategoryInput{
		Title:       f.Title,
		Slug:        f.Slug,
		Description: &f.Description,
		ParentID:    f.ParentID,
	}
}

// parseCategoryForm reads and validates the submitted category form.
func parseCategoryForm(r *http.Request) (categoryForm, error) {
	f := categoryForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Slug:        strings.TrimSpace(r.FormValue("slug")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	fields := blog.FieldErrors{}
	if raw := strings.TrimSpace(r.FormValue("parent_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			fields.Add("parent_id", "The selected parent id is invalid.")
		} else {
			f.ParentID = &id
		}
	}
	return f, mergeFieldErrors(fields, validateStruct(&f))
}

// CategoriesList renders one page of categories.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	a.categoriesPage(w, r, http.StatusOK, a.popFlashes(r))
}

func (a *Admin) categoriesPage(w http.ResponseWriter, r *http.Request, status int, flashes []render.Flash) {
	page := pagination.FromQuery(r.URL.Query(), a.perPage)
	items, total, err := a.categories.List(r.Context(), page)
	if err != nil {
		a.serverError(w, r, "list categories failed", err)
		return
	}

	a.renderer.PageStatus(w, r, status, "categories_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Flashes: flashes,
		Data: map[string]any{
			"Items": presentCategories(a.categories.Tree(), items),
			"Meta":  pagination.NewMeta(page, len(items), total),
		},
	})
}

// CategoryNew renders the new category form.
func (a *Admin) CategoryNew(w http.ResponseWriter, r *http.Request) {
	a.categoryFormPage(w, r, http.StatusOK, true, categoryForm{}, nil)
}

// CategoryCreate handles the new category form submission.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	f, err := parseCategoryForm(r)
	if err == nil {
		_, err = a.categories.Create(r.Context(), f.input())
	}
	if err != nil {
		a.categoryFormPage(w, r, 0, true, f, err)
		return
	}
	a.redirectWithFlash(w, r, "/admin/categories", "Category created.")
}

// CategoryEdit renders the edit form for a category.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	c, err := a.categories.GetByID(r.Context(), id)
	if err != nil {
		a.notFoundOrError(w, r, err)
		return
	}
	a.categoryFormPage(w, r, http.StatusOK, false, categoryFormFrom(c), nil)
}

// CategoryUpdate handles the edit form submission for a category.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	f, err := parseCategoryForm(r)
	f.ID = id
	if err == nil {
		_, err = a.categories.Update(r.Context(), id, f.input())
	}
	if blog.IsNotFound(err) {
		a.notFoundOrError(w, r, err)
		return
	}
	if err != nil {
		a.categoryFormPage(w, r, 0, false, f, err)
		return
	}
	a.redirectWithFlash(w, r, "/admin/categories", "Category updated.")
}

// CategoryDelete handles category deletion. A refused deletion re-renders
// the list with the reason.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	err := a.categories.Delete(r.Context(), id)
	if err != nil {
		status, body := errorResponse(err)
		if status == http.StatusInternalServerError {
			a.serverError(w, r, "delete category failed", err)
			return
		}
		a.categoriesPage(w, r, status, []render.Flash{{Type: "error", Message: body.Message}})
		return
	}
	a.redirectWithFlash(w, r, "/admin/categories", "Category deleted.")
}

// categoryFormPage renders the category form. A non-nil err selects the
// status from the error taxonomy and shows its messages; status 0 means
// "derive from err".
func (a *Admin) categoryFormPage(w http.ResponseWriter, r *http.Request, status int, isNew bool, f categoryForm, err error) {
	parents, perr := a.categories.ParentOptions(r.Context(), f.ID)
	if perr != nil {
		a.serverError(w, r, "load parent categories failed", perr)
		return
	}

	title := "Edit Category"
	if isNew {
		title = "New Category"
	}
	data := map[string]any{
		"IsNew":   isNew,
		"Item":    f,
		"Parents": parents,
		"Errors":  map[string][]string{},
	}
	if !a.applyFormError(w, r, &status, data, err) {
		return
	}

	a.renderer.PageStatus(w, r, status, "category_form", &render.PageData{
		Title:   title,
		Section: "categories",
		Data:    data,
	})
}

// --- Posts CRUD ---

// postForm is the admin post form.
type postForm struct {
	ID          int64  `json:"-"`
	Title       string `json:"title" validate:"required,max=255"`
	Slug        string `json:"slug" validate:"max=255"`
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	Excerpt     string `json:"excerpt" validate:"max=500"`
	ContentRaw  string `json:"content_raw" validate:"required"`
	IsPublished bool   `json:"is_published"`
	PublishedAt string `json:"published_at"`
}

func postFormFrom(p *models.Post) postForm {
	f := postForm{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		CategoryID:  p.CategoryID,
		ContentRaw:  p.ContentRaw,
		IsPublished: p.IsPublished,
	}
	if p.Excerpt != nil {
		f.Excerpt = *p.Excerpt
	}
	if p.PublishedAt != nil {
		f.PublishedAt = p.PublishedAt.Format("2006-01-02T15:04")
	}
	return f
}

// parsePostForm reads and validates the submitted post form.
func parsePostForm(r *http.Request) (postForm, service.PostInput, error) {
	f := postForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Slug:        strings.TrimSpace(r.FormValue("slug")),
		Excerpt:     strings.TrimSpace(r.FormValue("excerpt")),
		ContentRaw:  r.FormValue("content_raw"),
		PublishedAt: strings.TrimSpace(r.FormValue("published_at")),
	}
	if strings.TrimSpace(f.ContentRaw) == "" {
		f.ContentRaw = ""
	}
	switch r.FormValue("is_published") {
	case "1", "true", "on":
		f.IsPublished = true
	}

	fields := blog.FieldErrors{}
	if raw := strings.TrimSpace(r.FormValue("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fields.Add("category_id", "The selected category id is invalid.")
		}
		f.CategoryID = id
	}
	at, err := parseDate(f.PublishedAt)
	if err != nil {
		fields.Add("published_at", "The published at field must be a valid date.")
	}

	in := service.PostInput{
		Title:       f.Title,
		Slug:        f.Slug,
		Excerpt:     &f.Excerpt,
		ContentRaw:  f.ContentRaw,
		CategoryID:  f.CategoryID,
		IsPublished: f.IsPublished,
		PublishedAt: at,
	}
	return f, in, mergeFieldErrors(fields, validateStruct(&f))
}

// PostsList renders one page of posts.
func (a *Admin) PostsList(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), a.perPage)
	items, total, err := a.posts.List(r.Context(), page)
	if err != nil {
		a.serverError(w, r, "list posts failed", err)
		return
	}

	a.renderer.Page(w, r, "posts_list", &render.PageData{
		Title:   "Posts",
		Section: "posts",
		Flashes: a.popFlashes(r),
		Data: map[string]any{
			"Items": presentPostList(items),
			"Meta":  pagination.NewMeta(page, len(items), total),
		},
	})
}

// PostNew renders the new post form.
func (a *Admin) PostNew(w http.ResponseWriter, r *http.Request) {
	a.postFormPage(w, r, http.StatusOK, true, postForm{CategoryID: a.categories.Tree().RootID}, nil)
}

// PostCreate handles the new post form submission. The signed-in user
// becomes the author.
func (a *Admin) PostCreate(w http.ResponseWriter, r *http.Request) {
	f, in, err := parsePostForm(r)
	if err == nil {
		_, err = a.posts.Create(r.Context(), in, authorID(r))
	}
	if err != nil {
		a.postFormPage(w, r, 0, true, f, err)
		return
	}
	a.redirectWithFlash(w, r, "/admin/posts", "Post created.")
}

// PostEdit renders the edit form for a post.
func (a *Admin) PostEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	p, err := a.posts.GetByID(r.Context(), id)
	if err != nil {
		a.notFoundOrError(w, r, err)
		return
	}
	a.postFormPage(w, r, http.StatusOK, false, postFormFrom(p), nil)
}

// PostUpdate handles the edit form submission for a post.
func (a *Admin) PostUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	f, in, err := parsePostForm(r)
	f.ID = id
	if err == nil {
		_, err = a.posts.Update(r.Context(), id, in)
	}
	if blog.IsNotFound(err) {
		a.notFoundOrError(w, r, err)
		return
	}
	if err != nil {
		a.postFormPage(w, r, 0, false, f, err)
		return
	}
	a.redirectWithFlash(w, r, "/admin/posts", "Post updated.")
}

// PostDelete handles post deletion.
func (a *Admin) PostDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err := a.posts.Delete(r.Context(), id); err != nil {
		a.notFoundOrError(w, r, err)
		return
	}
	a.redirectWithFlash(w, r, "/admin/posts", "Post deleted.")
}

func (a *Admin) postFormPage(w http.ResponseWriter, r *http.Request, status int, isNew bool, f postForm, err error) {
	categories, cerr := a.categories.ParentOptions(r.Context(), 0)
	if cerr != nil {
		a.serverError(w, r, "load categories failed", cerr)
		return
	}

	title := "Edit Post"
	if isNew {
		title = "New Post"
	}
	data := map[string]any{
		"IsNew":      isNew,
		"Item":       f,
		"Categories": categories,
		"Errors":     map[string][]string{},
	}
	if !a.applyFormError(w, r, &status, data, err) {
		return
	}

	a.renderer.PageStatus(w, r, status, "post_form", &render.PageData{
		Title:   title,
		Section: "posts",
		Data:    data,
	})
}

// --- Shared admin helpers ---

// applyFormError copies a write failure into the form data and picks the
// response status. It reports false when it already answered with a 500.
func (a *Admin) applyFormError(w http.ResponseWriter, r *http.Request, status *int, data map[string]any, err error) bool {
	if err == nil {
		if *status == 0 {
			*status = http.StatusOK
		}
		return true
	}
	code, body := errorResponse(err)
	if code == http.StatusInternalServerError {
		a.serverError(w, r, "save form failed", err)
		return false
	}
	if *status == 0 {
		*status = code
	}
	if body.Errors != nil {
		data["Errors"] = body.Errors
	} else {
		data["Error"] = body.Message
	}
	return true
}

// redirectWithFlash stores msg for the next page and redirects there.
func (a *Admin) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, msg string) {
	if err := a.flashes.SetFlash(r.Context(), r, msg); err != nil {
		logger.FromContext(r.Context()).Warn("set flash failed", "error", err)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (a *Admin) popFlashes(r *http.Request) []render.Flash {
	if msg := a.flashes.PopFlash(r.Context(), r); msg != "" {
		return []render.Flash{{Type: "success", Message: msg}}
	}
	return nil
}

func (a *Admin) notFoundOrError(w http.ResponseWriter, r *http.Request, err error) {
	if blog.IsNotFound(err) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	a.serverError(w, r, "admin request failed", err)
}

func (a *Admin) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.FromContext(r.Context()).Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// authorID returns the signed-in user, falling back to the unknown author.
func authorID(r *http.Request) int64 {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.UserID > 0 {
		return sess.UserID
	}
	return models.UnknownUserID
}

// mergeFieldErrors combines pre-parsed field errors with the validator's.
// A field that failed to parse keeps only its parse message.
func mergeFieldErrors(parsed blog.FieldErrors, validated error) error {
	if validated != nil {
		more, ok := validated.(blog.FieldErrors)
		if !ok {
			return validated
		}
		for field, msgs := range more {
			if _, seen := parsed[field]; seen {
				continue
			}
			for _, m := range msgs {
				parsed.Add(field, m)
			}
		}
	}
	if len(parsed) == 0 {
		return nil
	}
	return parsed
}
