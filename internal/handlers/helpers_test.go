package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/internal/realtime"
	"github.com/orbitlabs/orbit/backend/validators"
)

// fakeUserRepo scripts UserRepository behavior per test through function
// fields; unset operations fail loudly.
type fakeUserRepo struct {
	createUser          func(ctx context.Context, user *models.User) error
	getUserByID         func(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	getUserByEmail      func(ctx context.Context, email string) (*models.User, error)
	getUserProfile      func(ctx context.Context, id primitive.ObjectID) (*models.UserProfile, error)
	getUsers            func(ctx context.Context, search string, exclude primitive.ObjectID) ([]models.User, error)
	updateUser          func(ctx context.Context, id primitive.ObjectID, req *models.UpdateUserRequest) (*models.User, error)
	updatePassword      func(ctx context.Context, id primitive.ObjectID, hash string) error
	softDeleteUser      func(ctx context.Context, id primitive.ObjectID) error
	sendFriendRequest   func(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.User, *models.User, error)
	acceptFriendRequest func(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.User, *models.User, error)
	rejectFriendRequest func(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.User, *models.User, error)
	removeFriend        func(ctx context.Context, userID, friendID primitive.ObjectID) error
	toggleFollow        func(ctx context.Context, actorID, targetID primitive.ObjectID) (bool, *models.User, *models.User, error)
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	return f.createUser(ctx, user)
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return f.getUserByID(ctx, id)
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.getUserByEmail(ctx, email)
}

func (f *fakeUserRepo) GetUserProfile(ctx context.Context, id primitive.ObjectID) (*models.UserProfile, error) {
	return f.getUserProfile(ctx, id)
}

func (f *fakeUserRepo) GetUsers(ctx context.Context, search string, exclude primitive.ObjectID) ([]models.User, error) {
	return f.getUsers(ctx, search, exclude)
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, id primitive.ObjectID, req *models.UpdateUserRequest) (*models.User, error) {
	return f.updateUser(ctx, id, req)
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return f.updatePassword(ctx, id, hash)
}

func (f *fakeUserRepo) SoftDeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return f.softDeleteUser(ctx, id)
}

func (f *fakeUserRepo) SendFriendRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.User, *models.User, error) {
	return f.sendFriendRequest(ctx, senderID, receiverID)
}

func (f *fakeUserRepo) AcceptFriendRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.User, *models.User, error) {
	return f.acceptFriendRequest(ctx, userID, requesterID)
}

func (f *fakeUserRepo) RejectFriendRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.User, *models.User, error) {
	return f.rejectFriendRequest(ctx, userID, requesterID)
}

func (f *fakeUserRepo) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	return f.removeFriend(ctx, userID, friendID)
}

func (f *fakeUserRepo) ToggleFollow(ctx context.Context, actorID, targetID primitive.ObjectID) (bool, *models.User, *models.User, error) {
	return f.toggleFollow(ctx, actorID, targetID)
}

type fakeChatRepo struct {
	sendMessage      func(ctx context.Context, senderID, receiverID primitive.ObjectID, payload *models.CreateChatRequest) (*models.MessageView, error)
	listChatsForUser func(ctx context.Context, userID primitive.ObjectID) ([]models.ChatSummary, error)
	getChatBetween   func(ctx context.Context, a, b primitive.ObjectID, skip, limit int64) (*models.ChatView, error)
	markMessagesSeen func(ctx context.Context, chatID, readerID primitive.ObjectID) error
}

func (f *fakeChatRepo) SendMessage(ctx context.Context, senderID, receiverID primitive.ObjectID, payload *models.CreateChatRequest) (*models.MessageView, error) {
	return f.sendMessage(ctx, senderID, receiverID, payload)
}

func (f *fakeChatRepo) ListChatsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ChatSummary, error) {
	if f.listChatsForUser == nil {
		return []models.ChatSummary{}, nil
	}
	return f.listChatsForUser(ctx, userID)
}

func (f *fakeChatRepo) GetChatBetween(ctx context.Context, a, b primitive.ObjectID, skip, limit int64) (*models.ChatView, error) {
	return f.getChatBetween(ctx, a, b, skip, limit)
}

func (f *fakeChatRepo) MarkMessagesSeen(ctx context.Context, chatID, readerID primitive.ObjectID) error {
	return f.markMessagesSeen(ctx, chatID, readerID)
}

// newTestDispatcher builds a dispatcher over an idle hub. Nothing is
// connected, so emissions are silent drops and broadcasts land in the hub's
// buffer.
func newTestDispatcher() *realtime.Dispatcher {
	return realtime.NewDispatcher(realtime.NewHub(realtime.NewRegistry()))
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e
}

// newRequestContext builds an echo context for a JSON request authenticated
// as userID (skipped when empty).
func newRequestContext(t *testing.T, e *echo.Echo, method, target string, body interface{}, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("userID", userID)
	}
	return c, rec
}

func httpStatusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func mustStatus(t *testing.T, err error, want int) {
	t.Helper()
	require.Equal(t, want, httpStatusOf(t, err))
}
