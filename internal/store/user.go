package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/crypto/bcrypt"

	"blogcms/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func selectUsers() sq.SelectBuilder {
	return psql.Select("id", "name", "email", "password_hash", "created_at", "updated_at").From("users")
}

func (s *UserStore) one(ctx context.Context, op string, q sq.SelectBuilder) (*models.User, error) {
	u := &models.User{}
	err := s.db.get(ctx, op, u, q)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.one(ctx, "user.find_by_email", selectUsers().Where(sq.Eq{"email": email}))
}

// FindByID retrieves a user by id. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.one(ctx, "user.find_by_id", selectUsers().Where(sq.Eq{"id": id}))
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{}
	q := psql.Insert("users").
		Columns("name", "email", "password_hash").
		Values(name, email, string(hash)).
		Suffix("RETURNING id, name, email, password_hash, created_at, updated_at")
	if err := s.db.get(ctx, "user.create", u, q); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// CheckPassword verifies a plaintext password against the user's stored
// hash. Users without a hash never match.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	if !user.CanSignIn() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
