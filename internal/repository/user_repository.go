package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and sets its ID. A taken email returns ErrDuplicate.
func (r *UserRepository) Create(user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.Exec(
		"INSERT INTO users (email, full_name, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.Email, user.FullName, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	return nil
}

// GetByEmail looks a user up by email, ignoring case
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.scanOne("SELECT id, email, full_name, password_hash, created_at FROM users WHERE email = ?", email)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	return r.scanOne("SELECT id, email, full_name, password_hash, created_at FROM users WHERE id = ?", id)
}

func (r *UserRepository) scanOne(query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(query, arg).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
