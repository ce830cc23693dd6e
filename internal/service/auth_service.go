package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordChanged    = errors.New("password changed after token was issued")
)

const bcryptCost = 12

// UserStore is the persistence surface the auth service needs
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
	DeactivateUser(ctx context.Context, userID int64) error
	ListUsers(ctx context.Context, page, limit int) ([]models.User, error)
}

// Claims is the signed token payload
type Claims struct {
	UserID  int64  `json:"uid"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies bearer tokens and manages user accounts
type AuthService struct {
	store  UserStore
	secret []byte
	expiry time.Duration
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store UserStore, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		store:  store,
		secret: []byte(secret),
		expiry: expiry,
		logger: util.GetLogger(),
	}
}

// RegisterRequest carries the signup fields
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

// Register creates a user with a hashed password and returns it with a
// fresh token
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Phone:        req.Phone,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return user, token, nil
}

// Login checks credentials and issues a token
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// VerifyToken parses and validates a token, loads the user and rejects
// tokens minted before the last password change.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load token user: %w", err)
	}

	if claims.IssuedAt != nil && user.PasswordChangedAfter(claims.IssuedAt.Time) {
		return nil, ErrPasswordChanged
	}
	return user, nil
}

// UpdateProfileRequest carries the mutable profile fields
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=30"`
	Phone    string `json:"phone"`
}

// UpdateProfile applies profile changes. Changing the phone number resets
// its verified flag.
func (s *AuthService) UpdateProfile(ctx context.Context, user *models.User, req UpdateProfileRequest) (*models.User, error) {
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Phone != "" && req.Phone != user.Phone {
		user.Phone = req.Phone
		user.PhoneVerified = false
	}
	if err := s.store.UpdateUserProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash. The
// store backdates password_changed_at by one second so the freshly issued
// token survives.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, current, next string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return "", ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, string(hash)); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("Password changed", zap.Int64("user_id", user.ID))
	return s.issueToken(user)
}

// Deactivate soft-deletes the account
func (s *AuthService) Deactivate(ctx context.Context, userID int64) error {
	return s.store.DeactivateUser(ctx, userID)
}

// ListUsers returns active users for the admin listing
func (s *AuthService) ListUsers(ctx context.Context, page, limit int) ([]models.User, error) {
	return s.store.ListUsers(ctx, page, limit)
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
