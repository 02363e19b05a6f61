package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/pkg/apperrors"
)

func TestRegisterHashesPassword(t *testing.T) {
	e := newTestEcho()

	var created *models.User
	repo := &fakeUserRepo{
		createUser: func(ctx context.Context, user *models.User) error {
			created = user
			return nil
		},
	}
	h := NewUserHandler(repo)

	c, rec := newRequestContext(t, e, http.MethodPost, "/api/v1/users",
		models.CreateUserRequest{Name: "Alice", Email: "alice@example.com", Password: "longenough"}, "")

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, created)
	assert.NotEqual(t, "longenough", created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("longenough")))
	assert.NotContains(t, rec.Body.String(), created.Password, "hash must never serialize")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newTestEcho()
	repo := &fakeUserRepo{
		createUser: func(ctx context.Context, user *models.User) error {
			return apperrors.InvalidOperation("user with this email already exists")
		},
	}
	h := NewUserHandler(repo)

	c, _ := newRequestContext(t, e, http.MethodPost, "/api/v1/users",
		models.CreateUserRequest{Name: "Alice", Email: "alice@example.com", Password: "longenough"}, "")

	mustStatus(t, h.Register(c), http.StatusBadRequest)
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEcho()
	h := NewUserHandler(&fakeUserRepo{})

	cases := []models.CreateUserRequest{
		{Email: "alice@example.com", Password: "longenough"}, // no name
		{Name: "Alice", Email: "not-an-email", Password: "longenough"},
		{Name: "Alice", Email: "alice@example.com", Password: "short"},
	}
	for _, req := range cases {
		c, _ := newRequestContext(t, e, http.MethodPost, "/api/v1/users", req, "")
		mustStatus(t, h.Register(c), http.StatusBadRequest)
	}
}

func TestGetUsersExcludesSelf(t *testing.T) {
	e := newTestEcho()
	selfID := primitive.NewObjectID()

	var gotSearch string
	var gotExclude primitive.ObjectID
	repo := &fakeUserRepo{
		getUsers: func(ctx context.Context, search string, exclude primitive.ObjectID) ([]models.User, error) {
			gotSearch, gotExclude = search, exclude
			return []models.User{}, nil
		},
	}
	h := NewUserHandler(repo)

	c, rec := newRequestContext(t, e, http.MethodGet, "/api/v1/users?search=bob", nil, selfID.Hex())

	require.NoError(t, h.GetUsers(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", gotSearch)
	assert.Equal(t, selfID, gotExclude)
}

func TestGetUserProfile(t *testing.T) {
	e := newTestEcho()
	id := primitive.NewObjectID()
	friend := models.User{ID: primitive.NewObjectID(), Name: "Friend"}

	repo := &fakeUserRepo{
		getUserProfile: func(ctx context.Context, got primitive.ObjectID) (*models.UserProfile, error) {
			assert.Equal(t, id, got)
			return &models.UserProfile{
				User:         models.User{ID: id, Name: "Alice"},
				FriendsUsers: []models.User{friend},
			}, nil
		},
	}
	h := NewUserHandler(repo)

	c, rec := newRequestContext(t, e, http.MethodGet, "/api/v1/users/"+id.Hex(), nil, id.Hex())
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	require.NoError(t, h.GetUserProfile(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "friendsUsers")
}

func TestGetUserProfileNotFound(t *testing.T) {
	e := newTestEcho()
	repo := &fakeUserRepo{
		getUserProfile: func(ctx context.Context, id primitive.ObjectID) (*models.UserProfile, error) {
			return nil, apperrors.NotFound("user not found")
		},
	}
	h := NewUserHandler(repo)

	id := primitive.NewObjectID()
	c, _ := newRequestContext(t, e, http.MethodGet, "/api/v1/users/"+id.Hex(), nil, id.Hex())
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	mustStatus(t, h.GetUserProfile(c), http.StatusNotFound)
}

func TestUpdateUserForbiddenForOthers(t *testing.T) {
	e := newTestEcho()
	h := NewUserHandler(&fakeUserRepo{})

	selfID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()

	c, _ := newRequestContext(t, e, http.MethodPatch, "/api/v1/users/"+otherID.Hex(),
		models.UpdateUserRequest{Bio: "hacked"}, selfID.Hex())
	c.SetParamNames("id")
	c.SetParamValues(otherID.Hex())

	mustStatus(t, h.UpdateUser(c), http.StatusForbidden)
}

func TestUpdateUserAdminOverride(t *testing.T) {
	e := newTestEcho()
	otherID := primitive.NewObjectID()

	repo := &fakeUserRepo{
		updateUser: func(ctx context.Context, id primitive.ObjectID, req *models.UpdateUserRequest) (*models.User, error) {
			return &models.User{ID: id, Bio: req.Bio}, nil
		},
	}
	h := NewUserHandler(repo)

	c, rec := newRequestContext(t, e, http.MethodPatch, "/api/v1/users/"+otherID.Hex(),
		models.UpdateUserRequest{Bio: "moderated"}, primitive.NewObjectID().Hex())
	c.Set("userRole", "admin")
	c.SetParamNames("id")
	c.SetParamValues(otherID.Hex())

	require.NoError(t, h.UpdateUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteUserSoftDeletes(t *testing.T) {
	e := newTestEcho()
	selfID := primitive.NewObjectID()

	var deleted primitive.ObjectID
	repo := &fakeUserRepo{
		softDeleteUser: func(ctx context.Context, id primitive.ObjectID) error {
			deleted = id
			return nil
		},
	}
	h := NewUserHandler(repo)

	c, rec := newRequestContext(t, e, http.MethodDelete, "/api/v1/users/"+selfID.Hex(), nil, selfID.Hex())
	c.SetParamNames("id")
	c.SetParamValues(selfID.Hex())

	require.NoError(t, h.DeleteUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, selfID, deleted)
}
