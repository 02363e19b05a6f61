package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/internal/realtime"
	"github.com/orbitlabs/orbit/backend/internal/repositories"
	"github.com/orbitlabs/orbit/backend/pkg/logger"
)

// ChatHandler handles conversation HTTP requests. Sending a message persists
// it first, then notifies the recipient over the live channel; an offline
// recipient simply pulls the thread on reconnect.
type ChatHandler struct {
	chatRepository repositories.ChatRepository
	dispatcher     *realtime.Dispatcher
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatRepo repositories.ChatRepository, dispatcher *realtime.Dispatcher) *ChatHandler {
	return &ChatHandler{chatRepository: chatRepo, dispatcher: dispatcher}
}

// RegisterChatRoutes registers chat-related routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.POST("/chats", h.CreateChat)
	g.GET("/chats", h.GetMyChats)
	g.GET("/chats/:receiverId", h.GetChatWithUser)
	g.PATCH("/chats/seen", h.MarkSeen)
}

// CreateChat appends a message to the thread with the receiver, creating the
// thread on first contact.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	senderID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Text == "" && req.ImageURL == "" && req.VideoURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message must carry text or media")
	}
	receiverID, err := parseObjectID(req.ReceiverID, "receiver id")
	if err != nil {
		return err
	}

	view, err := h.chatRepository.SendMessage(c.Request().Context(), senderID, receiverID, &req)
	if err != nil {
		return toHTTPError(err)
	}

	h.dispatcher.EmitTo(receiverID.Hex(), realtime.EventNewMessage, view)
	h.pushChatList(senderID)
	h.pushChatList(receiverID)

	return c.JSON(http.StatusCreated, view)
}

// GetMyChats lists the caller's conversations, most recently active first,
// each with its last message.
func (h *ChatHandler) GetMyChats(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	summaries, err := h.chatRepository.ListChatsForUser(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

// GetChatWithUser returns one page of the thread with the given user, oldest
// first within the page. skip/limit count from the most recent message.
func (h *ChatHandler) GetChatWithUser(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	receiverID, err := parseObjectID(c.Param("receiverId"), "receiver id")
	if err != nil {
		return err
	}

	skip := queryInt64(c, "skip", 0)
	limit := queryInt64(c, "limit", 50)

	view, err := h.chatRepository.GetChatBetween(c.Request().Context(), userID, receiverID, skip, limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// MarkSeen flips the seen flag on every counterpart message in the chat.
func (h *ChatHandler) MarkSeen(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.MarkSeenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	chatID, err := parseObjectID(req.ChatID, "chat id")
	if err != nil {
		return err
	}

	if err := h.chatRepository.MarkMessagesSeen(c.Request().Context(), chatID, userID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Messages marked as seen"})
}

// pushChatList refreshes a participant's conversation list over the live
// channel after a send. Failures only log; the message is already persisted.
func (h *ChatHandler) pushChatList(userID primitive.ObjectID) {
	summaries, err := h.chatRepository.ListChatsForUser(context.Background(), userID)
	if err != nil {
		logger.Get().Warn("refreshing chat list", zap.String("user", userID.Hex()), zap.Error(err))
		return
	}
	h.dispatcher.EmitTo(userID.Hex(), realtime.EventChat, summaries)
}

func queryInt64(c echo.Context, name string, fallback int64) int64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
