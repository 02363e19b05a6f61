package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/internal/realtime"
	"github.com/orbitlabs/orbit/backend/internal/repositories"
)

// FriendshipHandler handles the friend-request lifecycle. Every committed
// mutation fans out the refreshed documents of both parties over the live
// channel; delivery is best effort and never fails the request.
type FriendshipHandler struct {
	userRepository repositories.UserRepository
	dispatcher     *realtime.Dispatcher
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(userRepo repositories.UserRepository, dispatcher *realtime.Dispatcher) *FriendshipHandler {
	return &FriendshipHandler{userRepository: userRepo, dispatcher: dispatcher}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friends/request", h.SendFriendRequest)
	g.POST("/friends/accept", h.AcceptFriendRequest)
	g.POST("/friends/reject", h.RejectFriendRequest)
	g.POST("/friends/remove", h.RemoveFriend)
}

// SendFriendRequest records a pending request toward the receiver.
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	senderID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.FriendRequestPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	receiverID, err := parseObjectID(req.ReceiverID, "receiver id")
	if err != nil {
		return err
	}

	sender, receiver, err := h.userRepository.SendFriendRequest(c.Request().Context(), senderID, receiverID)
	if err != nil {
		return toHTTPError(err)
	}

	// Each party gets its own refreshed graph view.
	h.dispatcher.EmitTo(sender.ID.Hex(), realtime.EventFriendRequestSent, sender)
	h.dispatcher.EmitTo(receiver.ID.Hex(), realtime.EventFriendRequestReceived, receiver)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Friend request sent",
		"user":    sender,
	})
}

// AcceptFriendRequest converts a pending request into a friendship.
func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	requesterID, err := h.bindRequester(c)
	if err != nil {
		return err
	}

	user, requester, err := h.userRepository.AcceptFriendRequest(c.Request().Context(), userID, requesterID)
	if err != nil {
		return toHTTPError(err)
	}

	h.dispatcher.EmitTo(user.ID.Hex(), realtime.EventAcceptFriendRequest, user)
	h.dispatcher.EmitTo(requester.ID.Hex(), realtime.EventAcceptFriendRequestRequester, requester)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Friend request accepted",
		"user":    user,
	})
}

// RejectFriendRequest drops a pending request. Rejecting an absent request is
// a no-op.
func (h *FriendshipHandler) RejectFriendRequest(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	requesterID, err := h.bindRequester(c)
	if err != nil {
		return err
	}

	user, requester, err := h.userRepository.RejectFriendRequest(c.Request().Context(), userID, requesterID)
	if err != nil {
		return toHTTPError(err)
	}

	h.dispatcher.EmitTo(user.ID.Hex(), realtime.EventRejectFriendRequest, user)
	h.dispatcher.EmitTo(requester.ID.Hex(), realtime.EventRejectFriendRequestRequester, requester)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Friend request rejected",
		"user":    user,
	})
}

// RemoveFriend deletes the friendship in both directions.
func (h *FriendshipHandler) RemoveFriend(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.RemoveFriendPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	friendID, err := parseObjectID(req.FriendID, "friend id")
	if err != nil {
		return err
	}

	if err := h.userRepository.RemoveFriend(c.Request().Context(), userID, friendID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Friend removed"})
}

func (h *FriendshipHandler) bindRequester(c echo.Context) (primitive.ObjectID, error) {
	var req models.FriendRequestDecisionPayload
	if err := c.Bind(&req); err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return primitive.NilObjectID, err
	}
	return parseObjectID(req.RequesterID, "requester id")
}
