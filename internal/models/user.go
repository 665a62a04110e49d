// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import "time"

// UnknownUserID owns posts created without an authenticated author.
const UnknownUserID int64 = 1

// User is a blog author. Only users with a password hash can sign in to
// the admin interface.
type User struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// CanSignIn reports whether the user has credentials for the admin area.
func (u *User) CanSignIn() bool {
	return u.PasswordHash != ""
}
