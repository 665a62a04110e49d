// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog holds the rules that keep the category tree and posts
// consistent: root protection, parent checks, deletion guards and
// publication timestamps. Everything here is pure; callers fetch counts
// and persist results.
package blog

import "blogcms/internal/models"

const (
	// DefaultRootID is the identifier of the seeded root category.
	DefaultRootID int64 = 1

	// RootLabel is shown as the parent title of the root category.
	RootLabel = "Root"
)

// Tree applies the category tree rules for a configured root category.
type Tree struct {
	RootID int64
}

// NewTree returns a Tree for rootID, falling back to DefaultRootID when
// rootID is not positive.
func NewTree(rootID int64) Tree {
	if rootID <= 0 {
		rootID = DefaultRootID
	}
	return Tree{RootID: rootID}
}

// IsRoot reports whether c is the root category.
func (t Tree) IsRoot(c *models.Category) bool {
	return c != nil && c.ID == t.RootID
}

// CanReassignParent denies making a category its own parent. Only the
// immediate self-reference is rejected; longer cycles are accepted.
func (t Tree) CanReassignParent(categoryID int64, newParentID *int64) error {
	if newParentID != nil && *newParentID == categoryID {
		return ErrSelfParent
	}
	return nil
}

// CanDelete denies deleting the root category or any category that still
// owns children or posts. The root check wins regardless of counts.
func (t Tree) CanDelete(c *models.Category, childCount, postCount int) error {
	switch {
	case t.IsRoot(c):
		return ErrRootDeletion
	case childCount > 0:
		return ErrHasChildren
	case postCount > 0:
		return ErrHasPosts
	}
	return nil
}

// ParentTitle returns the loaded parent's title, RootLabel for the root
// category, or nil when neither applies.
func (t Tree) ParentTitle(c *models.Category) *string {
	if c == nil {
		return nil
	}
	if c.Parent != nil {
		title := c.Parent.Title
		return &title
	}
	if t.IsRoot(c) {
		label := RootLabel
		return &label
	}
	return nil
}
