package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arnavp/treasurer/internal/storage"
)

// CreateUser inserts a new account into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *storage.User) error {
	query := `
		INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves an account by its email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM users
		WHERE email = ?
	`

	user := &storage.User{}
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // user not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves an account by its ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	user := &storage.User{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // user not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}
