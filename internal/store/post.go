// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"blogcms/internal/blog"
	"blogcms/internal/models"
	"blogcms/internal/pagination"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db *DB
}

// NewPostStore creates a new PostStore.
func NewPostStore(db *DB) *PostStore {
	return &PostStore{db: db}
}

// postRow carries the eager-loaded author and category.
type postRow struct {
	models.Post
	AuthorName    sql.NullString `db:"author_name"`
	CategoryTitle sql.NullString `db:"category_title"`
	CategorySlug  sql.NullString `db:"category_slug"`
}

func (r *postRow) model() models.Post {
	p := r.Post
	if r.AuthorName.Valid {
		p.User = &models.User{ID: p.UserID, Name: r.AuthorName.String}
	}
	if r.CategoryTitle.Valid {
		p.Category = &models.Category{ID: p.CategoryID, Title: r.CategoryTitle.String, Slug: r.CategorySlug.String}
	}
	return p
}

// selectPosts selects live posts joined with their author and category.
func selectPosts() sq.SelectBuilder {
	return psql.Select(
		"p.id", "p.category_id", "p.user_id", "p.title", "p.slug", "p.excerpt",
		"p.content_raw", "p.content_html", "p.is_published", "p.published_at",
		"p.deleted_at", "p.created_at", "p.updated_at",
		"u.name AS author_name",
		"c.title AS category_title", "c.slug AS category_slug",
	).
		From("blog_posts p").
		LeftJoin("users u ON u.id = p.user_id").
		LeftJoin("blog_categories c ON c.id = p.category_id").
		Where(sq.Eq{"p.deleted_at": nil})
}

func (s *PostStore) one(ctx context.Context, op string, q sq.SelectBuilder) (*models.Post, error) {
	var row postRow
	err := s.db.get(ctx, op, &row, q)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	p := row.model()
	return &p, nil
}

// Paginate returns one page of live posts, newest first, with the total.
// A non-nil categoryID restricts the listing to that category.
func (s *PostStore) Paginate(ctx context.Context, page pagination.Page, categoryID *int64) ([]models.Post, int, error) {
	filter := sq.Eq{"deleted_at": nil}
	if categoryID != nil {
		filter["category_id"] = *categoryID
	}
	total, err := s.db.count(ctx, "post.count", psql.Select("COUNT(*)").From("blog_posts").Where(filter))
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	q := selectPosts().
		OrderBy("p.id DESC").
		Limit(uint64(page.Limit())).
		Offset(uint64(page.Offset()))
	if categoryID != nil {
		q = q.Where(sq.Eq{"p.category_id": *categoryID})
	}

	var rows []postRow
	if err := s.db.selectAll(ctx, "post.paginate", &rows, q); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	items := make([]models.Post, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].model())
	}
	return items, total, nil
}

// FindByID retrieves a live post by id. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	return s.one(ctx, "post.find_by_id", selectPosts().Where(sq.Eq{"p.id": id}))
}

// FindBySlug retrieves a live post by slug. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.one(ctx, "post.find_by_slug", selectPosts().Where(sq.Eq{"p.slug": slug}))
}

// SlugExists reports whether a live post other than exceptID owns slug.
func (s *PostStore) SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	q := psql.Select("1").From("blog_posts").Where(sq.Eq{"slug": slug, "deleted_at": nil})
	ok, err := s.db.exists(ctx, "post.slug_exists", excluding(q, "id", exceptID))
	if err != nil {
		return false, fmt.Errorf("post slug exists: %w", err)
	}
	return ok, nil
}

// CountByCategory returns the number of live posts in a category.
func (s *PostStore) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	n, err := s.db.count(ctx, "post.count_by_category",
		psql.Select("COUNT(*)").From("blog_posts").Where(sq.Eq{"category_id": categoryID, "deleted_at": nil}))
	if err != nil {
		return 0, fmt.Errorf("count posts by category: %w", err)
	}
	return n, nil
}

// Count returns the number of live posts, optionally only published ones.
func (s *PostStore) Count(ctx context.Context, publishedOnly bool) (int, error) {
	filter := sq.Eq{"deleted_at": nil}
	if publishedOnly {
		filter["is_published"] = true
	}
	n, err := s.db.count(ctx, "post.count_all", psql.Select("COUNT(*)").From("blog_posts").Where(filter))
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// Create inserts p and fills its id and timestamps.
func (s *PostStore) Create(ctx context.Context, p *models.Post) error {
	q := psql.Insert("blog_posts").
		Columns("category_id", "user_id", "title", "slug", "excerpt",
			"content_raw", "content_html", "is_published", "published_at").
		Values(p.CategoryID, p.UserID, p.Title, p.Slug, p.Excerpt,
			p.ContentRaw, p.ContentHTML, p.IsPublished, p.PublishedAt).
		Suffix("RETURNING id, created_at, updated_at")
	if err := s.db.get(ctx, "post.create", p, q); err != nil {
		return writeError("create post", err)
	}
	return nil
}

// Update writes the editable columns of a live post and refreshes
// p.UpdatedAt. The author is never changed.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	q := psql.Update("blog_posts").
		Set("category_id", p.CategoryID).
		Set("title", p.Title).
		Set("slug", p.Slug).
		Set("excerpt", p.Excerpt).
		Set("content_raw", p.ContentRaw).
		Set("content_html", p.ContentHTML).
		Set("is_published", p.IsPublished).
		Set("published_at", p.PublishedAt).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": p.ID, "deleted_at": nil}).
		Suffix("RETURNING updated_at")
	err := s.db.get(ctx, "post.update", &p.UpdatedAt, q)
	if isNoRows(err) {
		return fmt.Errorf("update post %d: %w", p.ID, blog.ErrPostNotFound)
	}
	if err != nil {
		return writeError("update post", err)
	}
	return nil
}

// SoftDelete persists the deletion marker set by p.MarkDeleted.
func (s *PostStore) SoftDelete(ctx context.Context, p *models.Post) error {
	if !p.IsDeleted() {
		return fmt.Errorf("soft delete post %d: not marked deleted", p.ID)
	}
	n, err := s.db.exec(ctx, "post.soft_delete", psql.Update("blog_posts").
		Set("deleted_at", *p.DeletedAt).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": p.ID, "deleted_at": nil}))
	if err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("soft delete post %d: %w", p.ID, blog.ErrPostNotFound)
	}
	return nil
}
