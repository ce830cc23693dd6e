package store

import (
	"context"
	"fmt"

	"shop-service/internal/models"
)

// CreateUser inserts a new user and fills in the generated fields
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_admin, phone_verified, active, created_at, updated_at`

	err := s.db.GetContext(ctx, user, query,
		user.Username, user.Email, user.PasswordHash, user.Phone)
	return translateErr(err)
}

// GetUserByID retrieves an active user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		"SELECT * FROM users WHERE id = $1 AND active = TRUE", id)
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves an active user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		"SELECT * FROM users WHERE email = $1 AND active = TRUE", email)
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

// UpdateUserProfile updates mutable profile fields
func (s *Store) UpdateUserProfile(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET username = $1, phone = $2, phone_verified = $3, updated_at = NOW() WHERE id = $4",
		user.Username, user.Phone, user.PhoneVerified, user.ID)
	return translateErr(err)
}

// UpdateUserPassword stores a new password hash. The password_changed_at
// stamp is backdated one second so tokens issued in the same request stay
// valid.
func (s *Store) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1, password_changed_at = NOW() - INTERVAL '1 second', updated_at = NOW() WHERE id = $2",
		passwordHash, userID)
	return translateErr(err)
}

// MarkPhoneVerified marks the user's phone as confirmed
func (s *Store) MarkPhoneVerified(ctx context.Context, userID int64, phone string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET phone = $1, phone_verified = TRUE, updated_at = NOW() WHERE id = $2",
		phone, userID)
	return translateErr(err)
}

// DeactivateUser soft-deletes a user; accounts are never hard-deleted
func (s *Store) DeactivateUser(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active = TRUE", userID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListUsers retrieves active users for the admin listing
func (s *Store) ListUsers(ctx context.Context, page, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.SelectContext(ctx, &users,
		"SELECT * FROM users WHERE active = TRUE ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
