package service

import (
	"context"
	"fmt"
	"strings"

	"blogcms/internal/blog"
	"blogcms/internal/cache"
	"blogcms/internal/models"
	"blogcms/internal/pagination"
)

// CategoryInput is a validated category write. PUT and PATCH both carry
// the full editable state.
type CategoryInput struct {
	Title       string
	Slug        string
	Description *string
	ParentID    *int64
}

// Categories runs the category use cases.
type Categories struct {
	d Deps
}

// NewCategories returns the category use cases over d.
func NewCategories(d Deps) *Categories {
	return &Categories{d: d.withDefaults()}
}

// Tree returns the guard the use cases enforce.
func (s *Categories) Tree() blog.Tree {
	return s.d.Tree
}

// List returns one page of categories, newest first, and the total count.
func (s *Categories) List(ctx context.Context, page pagination.Page) ([]models.Category, int, error) {
	return s.d.Categories.Paginate(ctx, page.Normalize())
}

// All returns every live category ordered by title.
func (s *Categories) All(ctx context.Context) ([]models.Category, error) {
	return s.d.Categories.All(ctx)
}

// ParentOptions returns the categories in tree order for a parent picker,
// leaving out excludeID so a category is never offered as its own parent.
func (s *Categories) ParentOptions(ctx context.Context, excludeID int64) ([]models.Category, error) {
	flat, err := s.d.Categories.FlatTree(ctx)
	if err != nil {
		return nil, err
	}
	out := flat[:0]
	for _, c := range flat {
		if c.ID != excludeID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Get returns the category with the given slug.
func (s *Categories) Get(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.d.Categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, blog.ErrCategoryNotFound
	}
	return c, nil
}

// GetByID returns the category with the given id.
func (s *Categories) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.d.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, blog.ErrCategoryNotFound
	}
	return c, nil
}

// Posts returns the category with the given slug and one page of its posts.
func (s *Categories) Posts(ctx context.Context, slug string, page pagination.Page) (*models.Category, []models.Post, int, error) {
	c, err := s.Get(ctx, slug)
	if err != nil {
		return nil, nil, 0, err
	}
	posts, total, err := s.d.Posts.Paginate(ctx, page.Normalize(), &c.ID)
	if err != nil {
		return nil, nil, 0, err
	}
	return c, posts, total, nil
}

// Create stores a new category and returns it with its relations loaded.
func (s *Categories) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := s.checkParent(ctx, in.ParentID); err != nil {
		return nil, err
	}

	sl, err := assignSlug(ctx, in.Slug, in.Title, 0, s.d.Categories.SlugExists)
	if err != nil {
		return nil, err
	}

	c := &models.Category{
		Title:       strings.TrimSpace(in.Title),
		Slug:        sl,
		Description: optional(in.Description),
		ParentID:    in.ParentID,
	}
	if err := s.d.Categories.Create(ctx, c); err != nil {
		return nil, err
	}

	s.d.Cache.Invalidate(ctx, cache.CategoriesAll)
	s.d.Activity.Log(ctx, models.EntityCategory, c.ID, models.ActionCreate)

	return s.GetByID(ctx, c.ID)
}

// Update rewrites the category with the given id.
func (s *Categories) Update(ctx context.Context, id int64, in CategoryInput) (*models.Category, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.d.Tree.CanReassignParent(c.ID, in.ParentID); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, in.ParentID); err != nil {
		return nil, err
	}

	sl, err := assignSlug(ctx, in.Slug, in.Title, c.ID, s.d.Categories.SlugExists)
	if err != nil {
		return nil, err
	}

	oldSlug := c.Slug
	c.Title = strings.TrimSpace(in.Title)
	c.Slug = sl
	c.Description = optional(in.Description)
	c.ParentID = in.ParentID
	if err := s.d.Categories.Update(ctx, c); err != nil {
		return nil, err
	}

	// Children show this title as parent_title and posts embed it.
	s.d.Cache.Invalidate(ctx, cache.CategoryKey(oldSlug), cache.CategoryKey(sl), cache.CategoriesAll)
	s.d.Cache.InvalidatePrefix(ctx, cache.CategoryPrefix)
	s.d.Cache.InvalidatePrefix(ctx, cache.PostPrefix)
	s.d.Activity.Log(ctx, models.EntityCategory, c.ID, models.ActionUpdate)

	return s.GetByID(ctx, c.ID)
}

// Delete soft-deletes the category with the given id once the tree guard
// allows it.
func (s *Categories) Delete(ctx context.Context, id int64) error {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	children, err := s.d.Categories.CountChildren(ctx, c.ID)
	if err != nil {
		return err
	}
	posts, err := s.d.Posts.CountByCategory(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := s.d.Tree.CanDelete(c, children, posts); err != nil {
		return err
	}

	c.MarkDeleted(s.d.Now())
	if err := s.d.Categories.SoftDelete(ctx, c); err != nil {
		return err
	}

	s.d.Cache.Invalidate(ctx, cache.CategoryKey(c.Slug), cache.CategoriesAll)
	s.d.Activity.Log(ctx, models.EntityCategory, c.ID, models.ActionDelete)
	return nil
}

// checkParent rejects a parent id that does not name a live category.
func (s *Categories) checkParent(ctx context.Context, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	ok, err := s.d.Categories.Exists(ctx, *parentID)
	if err != nil {
		return fmt.Errorf("check parent category: %w", err)
	}
	if !ok {
		return blog.NewValidationError("parent_id", msgParentInvalid)
	}
	return nil
}
