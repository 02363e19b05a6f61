package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 24 * time.Hour,
	}
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginSuccess(t *testing.T) {
	e := newTestEcho()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "alice@example.com",
		Password: hashPassword(t, "correct horse"),
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	repo := &fakeUserRepo{
		getUserByEmail: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, user.Email, email)
			return user, nil
		},
	}
	h := NewAuthHandler(repo, nil, testConfig())

	c, rec := newRequestContext(t, e, http.MethodPost, "/api/v1/auth/login",
		models.LoginRequest{Email: user.Email, Password: "correct horse"}, "")

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["accessToken"])
	assert.NotEmpty(t, body["refreshToken"])
}

func TestLoginWrongPassword(t *testing.T) {
	e := newTestEcho()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "alice@example.com",
		Password: hashPassword(t, "correct horse"),
		Status:   models.StatusActive,
	}
	repo := &fakeUserRepo{
		getUserByEmail: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	h := NewAuthHandler(repo, nil, testConfig())

	c, _ := newRequestContext(t, e, http.MethodPost, "/api/v1/auth/login",
		models.LoginRequest{Email: user.Email, Password: "battery staple"}, "")

	mustStatus(t, h.Login(c), http.StatusUnauthorized)
}

func TestLoginDeletedAccount(t *testing.T) {
	e := newTestEcho()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Email:     "gone@example.com",
		Password:  hashPassword(t, "whatever"),
		IsDeleted: true,
	}
	repo := &fakeUserRepo{
		getUserByEmail: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	h := NewAuthHandler(repo, nil, testConfig())

	c, _ := newRequestContext(t, e, http.MethodPost, "/api/v1/auth/login",
		models.LoginRequest{Email: user.Email, Password: "whatever"}, "")

	mustStatus(t, h.Login(c), http.StatusForbidden)
}

func TestLoginBlockedAccount(t *testing.T) {
	e := newTestEcho()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "blocked@example.com",
		Password: hashPassword(t, "whatever"),
		Status:   models.StatusBlocked,
	}
	repo := &fakeUserRepo{
		getUserByEmail: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	h := NewAuthHandler(repo, nil, testConfig())

	c, _ := newRequestContext(t, e, http.MethodPost, "/api/v1/auth/login",
		models.LoginRequest{Email: user.Email, Password: "whatever"}, "")

	mustStatus(t, h.Login(c), http.StatusForbidden)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	e := newTestEcho()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "alice@example.com",
		Password: hashPassword(t, "pw"),
		Status:   models.StatusActive,
	}
	repo := &fakeUserRepo{
		getUserByEmail: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
		getUserByID:    func(ctx context.Context, id primitive.ObjectID) (*models.User, error) { return user, nil },
	}
	h := NewAuthHandler(repo, nil, testConfig())

	c, rec := newRequestContext(t, e, http.MethodPost, "/api/v1/auth/login",
		models.LoginRequest{Email: user.Email, Password: "pw"}, "")
	require.NoError(t, h.Login(c))

	var login map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	refresh, _ := login["refreshToken"].(string)
	require.NotEmpty(t, refresh)

	c, rec = newRequestContext(t, e, http.MethodPost, "/api/v1/auth/refresh-token",
		models.RefreshTokenRequest{RefreshToken: refresh}, "")
	require.NoError(t, h.RefreshToken(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "accessToken")
}

// Tokens issued before a password change must stop working at refresh time.
func TestRefreshTokenRejectedAfterPasswordChange(t *testing.T) {
	e := newTestEcho()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "alice@example.com",
		Password: hashPassword(t, "pw"),
		Status:   models.StatusActive,
	}
	repo := &fakeUserRepo{
		getUserByEmail: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
		getUserByID:    func(ctx context.Context, id primitive.ObjectID) (*models.User, error) { return user, nil },
	}
	h := NewAuthHandler(repo, nil, testConfig())

	c, rec := newRequestContext(t, e, http.MethodPost, "/api/v1/auth/login",
		models.LoginRequest{Email: user.Email, Password: "pw"}, "")
	require.NoError(t, h.Login(c))

	var login map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	refresh, _ := login["refreshToken"].(string)

	changed := time.Now().Add(time.Minute)
	user.PasswordChangedAt = &changed

	c, _ = newRequestContext(t, e, http.MethodPost, "/api/v1/auth/refresh-token",
		models.RefreshTokenRequest{RefreshToken: refresh}, "")
	mustStatus(t, h.RefreshToken(c), http.StatusUnauthorized)
}

func TestRefreshTokenGarbage(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&fakeUserRepo{}, nil, testConfig())

	c, _ := newRequestContext(t, e, http.MethodPost, "/api/v1/auth/refresh-token",
		models.RefreshTokenRequest{RefreshToken: "not.a.jwt"}, "")
	mustStatus(t, h.RefreshToken(c), http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	e := newTestEcho()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "alice@example.com",
		Password: hashPassword(t, "old password"),
		Status:   models.StatusActive,
	}

	var storedHash string
	repo := &fakeUserRepo{
		getUserByID: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) { return user, nil },
		updatePassword: func(ctx context.Context, id primitive.ObjectID, hash string) error {
			storedHash = hash
			return nil
		},
	}
	h := NewAuthHandler(repo, nil, testConfig())

	c, rec := newRequestContext(t, e, http.MethodPost, "/api/v1/auth/change-password",
		models.ChangePasswordRequest{OldPassword: "old password", NewPassword: "new password"}, user.ID.Hex())

	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("new password")))
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	e := newTestEcho()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Password: hashPassword(t, "old password"),
	}
	repo := &fakeUserRepo{
		getUserByID: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) { return user, nil },
	}
	h := NewAuthHandler(repo, nil, testConfig())

	c, _ := newRequestContext(t, e, http.MethodPost, "/api/v1/auth/change-password",
		models.ChangePasswordRequest{OldPassword: "guess", NewPassword: "new password"}, user.ID.Hex())

	mustStatus(t, h.ChangePassword(c), http.StatusUnauthorized)
}
