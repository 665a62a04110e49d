// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every *Error wraps exactly one of these so the boundary
// layer can map it to a status code with errors.Is.
var (
	// ErrValidation marks rejected input, including tree-guard denials.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a lookup by id or slug that matched no live row.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a storage uniqueness violation that raced past the
	// slug check. The client may retry.
	ErrConflict = errors.New("conflict")
)

// Error is a domain error with a machine-readable code and a message that
// is safe to show to users.
type Error struct {
	Kind    error
	Code    string
	Message string
	Field   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the kind for errors.Is support.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Is matches another *Error by code, so a sentinel such as ErrSelfParent
// matches any error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Tree guard denials.
var (
	ErrSelfParent = &Error{
		Kind:    ErrValidation,
		Code:    "self_parent",
		Field:   "parent_id",
		Message: "A category cannot be its own parent.",
	}
	ErrRootDeletion = &Error{
		Kind:    ErrValidation,
		Code:    "root_deletion",
		Message: "Cannot delete root category.",
	}
	ErrHasChildren = &Error{
		Kind:    ErrValidation,
		Code:    "has_children",
		Message: "Cannot delete category with children.",
	}
	ErrHasPosts = &Error{
		Kind:    ErrValidation,
		Code:    "has_posts",
		Message: "Cannot delete category with posts.",
	}
)

// Lookup failures.
var (
	ErrCategoryNotFound = &Error{Kind: ErrNotFound, Code: "category_not_found", Message: "Category not found."}
	ErrPostNotFound     = &Error{Kind: ErrNotFound, Code: "post_not_found", Message: "Post not found."}
)

// ErrSlugTaken is the uniqueness race: the slug was free when checked but
// another writer stored it first.
var ErrSlugTaken = &Error{
	Kind:    ErrConflict,
	Code:    "slug_taken",
	Field:   "slug",
	Message: "The slug was taken by a concurrent request. Please retry.",
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *Error {
	return &Error{
		Kind:    ErrValidation,
		Code:    "invalid_" + field,
		Field:   field,
		Message: message,
	}
}

// FieldErrors collects validation messages per field. It is produced by
// request validation and rendered as the "errors" object of a 422 body.
type FieldErrors map[string][]string

// Add appends a message for field.
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Error implements the error interface with a stable field order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], "; "))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

// Unwrap makes FieldErrors match ErrValidation.
func (fe FieldErrors) Unwrap() error {
	return ErrValidation
}

// IsValidation reports whether err is any validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err is a failed lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a storage uniqueness race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
