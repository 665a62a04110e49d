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

// CategoryStore manages blog categories in the database.
type CategoryStore struct {
	db *DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// categoryRow carries the eager-loaded parent next to the category columns.
type categoryRow struct {
	models.Category
	ParentTitle sql.NullString `db:"parent_title"`
	ParentSlug  sql.NullString `db:"parent_slug"`
}

func (r *categoryRow) model() models.Category {
	c := r.Category
	if c.ParentID != nil && r.ParentTitle.Valid {
		c.Parent = &models.Category{
			ID:    *c.ParentID,
			Title: r.ParentTitle.String,
			Slug:  r.ParentSlug.String,
		}
	}
	return c
}

// selectCategories selects live categories with their parent and the
// number of live posts.
func selectCategories() sq.SelectBuilder {
	return psql.Select(
		"c.id", "c.title", "c.slug", "c.description", "c.parent_id",
		"c.deleted_at", "c.created_at", "c.updated_at",
		"p.title AS parent_title", "p.slug AS parent_slug",
		"(SELECT COUNT(*) FROM blog_posts bp WHERE bp.category_id = c.id AND bp.deleted_at IS NULL) AS posts_count",
	).
		From("blog_categories c").
		LeftJoin("blog_categories p ON p.id = c.parent_id AND p.deleted_at IS NULL").
		Where(sq.Eq{"c.deleted_at": nil})
}

func (s *CategoryStore) list(ctx context.Context, op string, q sq.SelectBuilder) ([]models.Category, error) {
	var rows []categoryRow
	if err := s.db.selectAll(ctx, op, &rows, q); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	items := make([]models.Category, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].model())
	}
	return items, nil
}

func (s *CategoryStore) one(ctx context.Context, op string, q sq.SelectBuilder) (*models.Category, error) {
	var row categoryRow
	err := s.db.get(ctx, op, &row, q)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	c := row.model()
	return &c, nil
}

// Paginate returns one page of live categories, newest first, and the
// total number of live categories.
func (s *CategoryStore) Paginate(ctx context.Context, page pagination.Page) ([]models.Category, int, error) {
	total, err := s.db.count(ctx, "category.count",
		psql.Select("COUNT(*)").From("blog_categories").Where(sq.Eq{"deleted_at": nil}))
	if err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	items, err := s.list(ctx, "category.paginate", selectCategories().
		OrderBy("c.id DESC").
		Limit(uint64(page.Limit())).
		Offset(uint64(page.Offset())))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// All returns every live category ordered by title.
func (s *CategoryStore) All(ctx context.Context) ([]models.Category, error) {
	return s.list(ctx, "category.all", selectCategories().OrderBy("c.title", "c.id"))
}

// Tree returns categories as a nested tree structure.
func (s *CategoryStore) Tree(ctx context.Context) ([]models.Category, error) {
	flat, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return buildTree(flat), nil
}

// buildTree nests categories under their parents. Categories that cannot be
// reached from a top-level node are appended at depth 0 so none are lost.
func buildTree(flat []models.Category) []models.Category {
	placed := make(map[int64]bool, len(flat))
	tree := buildLevel(flat, nil, 0, placed)
	for _, c := range flat {
		if !placed[c.ID] {
			placed[c.ID] = true
			c.Depth = 0
			c.Children = buildLevel(flat, &c.ID, 1, placed)
			tree = append(tree, c)
		}
	}
	return tree
}

func buildLevel(flat []models.Category, parentID *int64, depth int, placed map[int64]bool) []models.Category {
	var result []models.Category
	for _, c := range flat {
		if placed[c.ID] || !sameParent(c.ParentID, parentID) {
			continue
		}
		placed[c.ID] = true
		c.Depth = depth
		c.Children = buildLevel(flat, &c.ID, depth+1, placed)
		result = append(result, c)
	}
	return result
}

// sameParent compares two optional ids (both nil or same value).
func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// FlatTree returns categories in depth-first display order with Depth set
// for indentation. Used by parent <select> dropdowns.
func (s *CategoryStore) FlatTree(ctx context.Context) ([]models.Category, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	var result []models.Category
	flattenTree(tree, &result)
	return result, nil
}

func flattenTree(cats []models.Category, result *[]models.Category) {
	for _, c := range cats {
		children := c.Children
		c.Children = nil
		*result = append(*result, c)
		flattenTree(children, result)
	}
}

// FindByID retrieves a live category by id. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	return s.one(ctx, "category.find_by_id", selectCategories().Where(sq.Eq{"c.id": id}))
}

// FindBySlug retrieves a live category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.one(ctx, "category.find_by_slug", selectCategories().Where(sq.Eq{"c.slug": slug}))
}

// Exists reports whether a live category with the given id exists.
func (s *CategoryStore) Exists(ctx context.Context, id int64) (bool, error) {
	ok, err := s.db.exists(ctx, "category.exists",
		psql.Select("1").From("blog_categories").Where(sq.Eq{"id": id, "deleted_at": nil}))
	if err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return ok, nil
}

// SlugExists reports whether a live category other than exceptID owns slug.
func (s *CategoryStore) SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	q := psql.Select("1").From("blog_categories").Where(sq.Eq{"slug": slug, "deleted_at": nil})
	ok, err := s.db.exists(ctx, "category.slug_exists", excluding(q, "id", exceptID))
	if err != nil {
		return false, fmt.Errorf("category slug exists: %w", err)
	}
	return ok, nil
}

// CountChildren returns the number of live categories whose parent is id.
func (s *CategoryStore) CountChildren(ctx context.Context, id int64) (int, error) {
	n, err := s.db.count(ctx, "category.count_children",
		psql.Select("COUNT(*)").From("blog_categories").Where(sq.Eq{"parent_id": id, "deleted_at": nil}))
	if err != nil {
		return 0, fmt.Errorf("count child categories: %w", err)
	}
	return n, nil
}

// Create inserts c and fills its id and timestamps.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	q := psql.Insert("blog_categories").
		Columns("title", "slug", "description", "parent_id").
		Values(c.Title, c.Slug, c.Description, c.ParentID).
		Suffix("RETURNING id, created_at, updated_at")
	if err := s.db.get(ctx, "category.create", c, q); err != nil {
		return writeError("create category", err)
	}
	return nil
}

// Update writes the editable columns of a live category and refreshes
// c.UpdatedAt.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	q := psql.Update("blog_categories").
		Set("title", c.Title).
		Set("slug", c.Slug).
		Set("description", c.Description).
		Set("parent_id", c.ParentID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": c.ID, "deleted_at": nil}).
		Suffix("RETURNING updated_at")
	err := s.db.get(ctx, "category.update", &c.UpdatedAt, q)
	if isNoRows(err) {
		return fmt.Errorf("update category %d: %w", c.ID, blog.ErrCategoryNotFound)
	}
	if err != nil {
		return writeError("update category", err)
	}
	return nil
}

// SoftDelete persists the deletion marker set by c.MarkDeleted.
func (s *CategoryStore) SoftDelete(ctx context.Context, c *models.Category) error {
	if !c.IsDeleted() {
		return fmt.Errorf("soft delete category %d: not marked deleted", c.ID)
	}
	n, err := s.db.exec(ctx, "category.soft_delete", psql.Update("blog_categories").
		Set("deleted_at", *c.DeletedAt).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": c.ID, "deleted_at": nil}))
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("soft delete category %d: %w", c.ID, blog.ErrCategoryNotFound)
	}
	return nil
}
