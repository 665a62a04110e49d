// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category represents a node in the blog category tree. A nil ParentID
// marks a top-level category.
type Category struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Slug        string     `db:"slug" json:"slug"`
	Description *string    `db:"description" json:"description"`
	ParentID    *int64     `db:"parent_id" json:"parent_id"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	// PostsCount is filled by store queries that aggregate live posts.
	PostsCount int `db:"posts_count" json:"posts_count"`

	// Virtual fields populated by store methods.
	Parent   *Category  `db:"-" json:"-"`
	Children []Category `db:"-" json:"-"`
	Depth    int        `db:"-" json:"-"`
}

// MarkDeleted records the soft deletion of the category at the given time.
// The store persists the marker; reads skip marked rows.
func (c *Category) MarkDeleted(at time.Time) {
	c.DeletedAt = &at
}

// IsDeleted reports whether the category carries a soft-delete marker.
func (c *Category) IsDeleted() bool {
	return c.DeletedAt != nil
}
