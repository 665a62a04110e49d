package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blogcms/internal/blog"
	"blogcms/internal/cache"
	"blogcms/internal/models"
	"blogcms/internal/pagination"
)

// PostInput is a validated post write.
type PostInput struct {
	Title       string
	Slug        string
	Excerpt     *string
	ContentRaw  string
	CategoryID  int64
	IsPublished bool
	PublishedAt *time.Time
}

// Stats summarises posts for the admin dashboard.
type Stats struct {
	Posts      int
	Published  int
	Categories int
}

// Posts runs the post use cases.
type Posts struct {
	d Deps
}

// NewPosts returns the post use cases over d.
func NewPosts(d Deps) *Posts {
	return &Posts{d: d.withDefaults()}
}

// List returns one page of posts, newest first, and the total count.
func (s *Posts) List(ctx context.Context, page pagination.Page) ([]models.Post, int, error) {
	return s.d.Posts.Paginate(ctx, page.Normalize(), nil)
}

// Get returns the post with the given slug.
func (s *Posts) Get(ctx context.Context, slug string) (*models.Post, error) {
	p, err := s.d.Posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, blog.ErrPostNotFound
	}
	return p, nil
}

// GetByID returns the post with the given id.
func (s *Posts) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	p, err := s.d.Posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, blog.ErrPostNotFound
	}
	return p, nil
}

// Stats counts posts and categories.
func (s *Posts) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if st.Posts, err = s.d.Posts.Count(ctx, false); err != nil {
		return st, err
	}
	if st.Published, err = s.d.Posts.Count(ctx, true); err != nil {
		return st, err
	}
	all, err := s.d.Categories.All(ctx)
	if err != nil {
		return st, err
	}
	st.Categories = len(all)
	return st, nil
}

// Create stores a new post owned by authorID and returns it with its author
// and category loaded.
func (s *Posts) Create(ctx context.Context, in PostInput, authorID int64) (*models.Post, error) {
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	sl, err := assignSlug(ctx, in.Slug, in.Title, 0, s.d.Posts.SlugExists)
	if err != nil {
		return nil, err
	}

	p := &models.Post{
		CategoryID: in.CategoryID,
		UserID:     authorID,
		Slug:       sl,
	}
	if err := s.apply(p, in); err != nil {
		return nil, err
	}
	if err := s.d.Posts.Create(ctx, p); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, p, "", models.ActionCreate)
	return s.GetByID(ctx, p.ID)
}

// Update rewrites the post with the given id. Publishing without an
// explicit time stamps the post with the current time, as on create.
func (s *Posts) Update(ctx context.Context, id int64, in PostInput) (*models.Post, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	sl, err := assignSlug(ctx, in.Slug, in.Title, p.ID, s.d.Posts.SlugExists)
	if err != nil {
		return nil, err
	}

	oldSlug := p.Slug
	oldCategory := p.Category
	p.Slug = sl
	p.CategoryID = in.CategoryID
	if err := s.apply(p, in); err != nil {
		return nil, err
	}
	if err := s.d.Posts.Update(ctx, p); err != nil {
		return nil, err
	}

	if oldCategory != nil && oldCategory.ID != p.CategoryID {
		s.d.Cache.Invalidate(ctx, cache.CategoryKey(oldCategory.Slug))
	}
	s.afterWrite(ctx, p, oldSlug, models.ActionUpdate)
	return s.GetByID(ctx, p.ID)
}

// Delete soft-deletes the post with the given id.
func (s *Posts) Delete(ctx context.Context, id int64) error {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	p.MarkDeleted(s.d.Now())
	if err := s.d.Posts.SoftDelete(ctx, p); err != nil {
		return err
	}

	s.afterWrite(ctx, p, "", models.ActionDelete)
	return nil
}

// apply copies the editable fields of in onto p, derives the publication
// time and renders the content.
func (s *Posts) apply(p *models.Post, in PostInput) error {
	html, err := s.d.Markdown(in.ContentRaw)
	if err != nil {
		return fmt.Errorf("render post content: %w", err)
	}

	p.Title = strings.TrimSpace(in.Title)
	p.Excerpt = optional(in.Excerpt)
	p.ContentRaw = in.ContentRaw
	p.ContentHTML = html
	p.IsPublished = in.IsPublished
	p.PublishedAt = blog.PublicationTimestamp(in.IsPublished, in.PublishedAt, s.d.Now())
	return nil
}

// afterWrite drops the cached responses a post write makes stale and
// records the write.
func (s *Posts) afterWrite(ctx context.Context, p *models.Post, oldSlug, action string) {
	keys := []string{cache.PostKey(p.Slug), cache.CategoriesAll}
	if oldSlug != "" && oldSlug != p.Slug {
		keys = append(keys, cache.PostKey(oldSlug))
	}
	if c, err := s.d.Categories.FindByID(ctx, p.CategoryID); err == nil && c != nil {
		keys = append(keys, cache.CategoryKey(c.Slug))
	}
	s.d.Cache.Invalidate(ctx, keys...)
	s.d.Activity.Log(ctx, models.EntityPost, p.ID, action)
}

// checkCategory rejects a category id that does not name a live category.
func (s *Posts) checkCategory(ctx context.Context, id int64) error {
	ok, err := s.d.Categories.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check post category: %w", err)
	}
	if !ok {
		return blog.NewValidationError("category_id", msgCategoryMissed)
	}
	return nil
}
