// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service holds the blog use cases: create, update and delete flows
// for categories and posts. It assigns slugs, consults the category tree
// guard, persists through the repositories and then runs the post-write side
// effects (cache invalidation, activity log) explicitly.
package service

import (
	"context"
	"strings"
	"time"

	"blogcms/internal/blog"
	"blogcms/internal/markdown"
	"blogcms/internal/models"
	"blogcms/internal/pagination"
	"blogcms/internal/slug"
)

// CategoryRepository is the persistence surface the category use cases need.
// Lookups that find nothing return (nil, nil).
type CategoryRepository interface {
	Paginate(ctx context.Context, page pagination.Page) ([]models.Category, int, error)
	All(ctx context.Context) ([]models.Category, error)
	FlatTree(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)
	CountChildren(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	SoftDelete(ctx context.Context, c *models.Category) error
}

// PostRepository is the persistence surface the post use cases need.
type PostRepository interface {
	Paginate(ctx context.Context, page pagination.Page, categoryID *int64) ([]models.Post, int, error)
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)
	CountByCategory(ctx context.Context, categoryID int64) (int, error)
	Count(ctx context.Context, publishedOnly bool) (int, error)
	Create(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, p *models.Post) error
	SoftDelete(ctx context.Context, p *models.Post) error
}

// Invalidator drops cached responses after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// ActivityLog records successful writes. Implementations must not fail the
// caller.
type ActivityLog interface {
	Log(ctx context.Context, entityType string, entityID int64, action string)
}

// Deps bundles what the use cases run against. Cache and Activity may be
// nil; Now and Markdown default to time.Now and markdown.ToHTML.
type Deps struct {
	Categories CategoryRepository
	Posts      PostRepository
	Tree       blog.Tree
	Cache      Invalidator
	Activity   ActivityLog
	Now        func() time.Time
	Markdown   func(source string) (string, error)
}

func (d Deps) withDefaults() Deps {
	if d.Tree.RootID == 0 {
		d.Tree = blog.NewTree(blog.DefaultRootID)
	}
	if d.Cache == nil {
		d.Cache = nopCache{}
	}
	if d.Activity == nil {
		d.Activity = nopActivity{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Markdown == nil {
		d.Markdown = markdown.ToHTML
	}
	return d
}

type nopCache struct{}

func (nopCache) Invalidate(context.Context, ...string)    {}
func (nopCache) InvalidatePrefix(context.Context, string) {}

type nopActivity struct{}

func (nopActivity) Log(context.Context, string, int64, string) {}

// Validation messages shared by both use cases.
const (
	msgSlugTaken      = "The slug has already been taken."
	msgSlugUnderived  = "The slug could not be derived from the title."
	msgParentInvalid  = "The selected parent id is invalid."
	msgCategoryMissed = "The selected category id is invalid."
)

// slugLookup reports whether slug belongs to a live record other than
// exceptID.
type slugLookup func(ctx context.Context, slug string, exceptID int64) (bool, error)

// assignSlug returns the slug a record with the given id should be stored
// under. An explicit slug is kept as given and must be free. A blank one is
// derived from the title and suffixed until it is free.
func assignSlug(ctx context.Context, explicit, title string, id int64, exists slugLookup) (string, error) {
	others := func(ctx context.Context, s string) (bool, error) {
		return exists(ctx, s, id)
	}

	if explicit = strings.TrimSpace(explicit); explicit != "" {
		taken, err := others(ctx, explicit)
		if err != nil {
			return "", err
		}
		if taken {
			return "", blog.NewValidationError("slug", msgSlugTaken)
		}
		return explicit, nil
	}

	candidate := slug.Generate(title)
	if candidate == "" {
		return "", blog.NewValidationError("slug", msgSlugUnderived)
	}
	return slug.Unique(ctx, candidate, others)
}

// optional trims s and returns nil when nothing is left.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
