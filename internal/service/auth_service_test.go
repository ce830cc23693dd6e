package service

import (
	"context"
	"testing"
	"time"

	"shop-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return models.ErrDuplicate
		}
	}
	user.ID = f.nextID
	user.Active = true
	f.nextID++
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok || !u.Active {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUserStore) UpdateUserProfile(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	u, ok := f.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.PasswordHash = passwordHash
	changed := time.Now().Add(-time.Second)
	u.PasswordChangedAt = &changed
	return nil
}

func (f *fakeUserStore) DeactivateUser(ctx context.Context, userID int64) error {
	u, ok := f.users[userID]
	if !ok || !u.Active {
		return models.ErrNotFound
	}
	u.Active = false
	return nil
}

func (f *fakeUserStore) ListUsers(ctx context.Context, page, limit int) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func newTestAuthService(store *fakeUserStore) *AuthService {
	return NewAuthService(store, "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, RegisterRequest{
		Username: "sara",
		Email:    "Sara@Example.com",
		Password: "correct-horse",
		Phone:    "09121234567",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "sara@example.com", user.Email)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	_, _, err = svc.Register(ctx, RegisterRequest{
		Username: "sara2",
		Email:    "sara@example.com",
		Password: "another-pass",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	logged, token2, err := svc.Login(ctx, "sara@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token2)

	_, _, err = svc.Login(ctx, "sara@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, RegisterRequest{
		Username: "sara",
		Email:    "sara@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	verified, err := svc.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	_, err = svc.VerifyToken(ctx, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a token signed with a different secret is rejected
	other := NewAuthService(store, "other-secret", time.Hour)
	_, otherToken, err := other.Register(ctx, RegisterRequest{
		Username: "reza",
		Email:    "reza@example.com",
		Password: "some-password",
	})
	require.NoError(t, err)
	_, err = svc.VerifyToken(ctx, otherToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// deactivated accounts invalidate outstanding tokens
	require.NoError(t, svc.Deactivate(ctx, user.ID))
	_, err = svc.VerifyToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenAfterPasswordChange(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	user, oldToken, err := svc.Register(ctx, RegisterRequest{
		Username: "sara",
		Email:    "sara@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	// make the change land strictly after the old token's iat, which has
	// second precision
	time.Sleep(1100 * time.Millisecond)

	newToken, err := svc.ChangePassword(ctx, user, "correct-horse", "battery-staple")
	require.NoError(t, err)

	_, err = svc.VerifyToken(ctx, oldToken)
	assert.ErrorIs(t, err, ErrPasswordChanged)

	_, err = svc.VerifyToken(ctx, newToken)
	assert.NoError(t, err)

	_, err = svc.ChangePassword(ctx, user, "correct-horse", "again")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfileResetsPhoneVerification(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterRequest{
		Username: "sara",
		Email:    "sara@example.com",
		Password: "correct-horse",
		Phone:    "09121234567",
	})
	require.NoError(t, err)
	user.PhoneVerified = true

	updated, err := svc.UpdateProfile(ctx, user, UpdateProfileRequest{Phone: "09359876543"})
	require.NoError(t, err)
	assert.Equal(t, "09359876543", updated.Phone)
	assert.False(t, updated.PhoneVerified)

	// unchanged phone keeps its verified flag
	updated.PhoneVerified = true
	updated, err = svc.UpdateProfile(ctx, updated, UpdateProfileRequest{Username: "sara-m"})
	require.NoError(t, err)
	assert.Equal(t, "sara-m", updated.Username)
	assert.True(t, updated.PhoneVerified)
}
