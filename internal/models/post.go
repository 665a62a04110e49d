// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Post is a blog article owned by one category and one user.
type Post struct {
	ID          int64      `db:"id"`
	CategoryID  int64      `db:"category_id"`
	UserID      int64      `db:"user_id"`
	Title       string     `db:"title"`
	Slug        string     `db:"slug"`
	Excerpt     *string    `db:"excerpt"`
	ContentRaw  string     `db:"content_raw"`
	ContentHTML string     `db:"content_html"`
	IsPublished bool       `db:"is_published"`
	PublishedAt *time.Time `db:"published_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`

	// Eager-loaded relations.
	User     *User     `db:"-"`
	Category *Category `db:"-"`
}

// MarkDeleted records the soft deletion of the post at the given time.
func (p *Post) MarkDeleted(at time.Time) {
	p.DeletedAt = &at
}

// IsDeleted reports whether the post carries a soft-delete marker.
func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}
