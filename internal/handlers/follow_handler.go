package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/orbitlabs/orbit/backend/internal/repositories"
)

// FollowHandler handles the follow/unfollow toggle
type FollowHandler struct {
	userRepository repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{userRepository: userRepo}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.PATCH("/users/update-follow-unfollow/:id", h.ToggleFollow)
}

// ToggleFollow follows the target when not yet following and unfollows
// otherwise. The response reports the resulting state.
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	actorID, err := currentUserID(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c.Param("id"), "user id")
	if err != nil {
		return err
	}

	following, actor, target, err := h.userRepository.ToggleFollow(c.Request().Context(), actorID, targetID)
	if err != nil {
		return toHTTPError(err)
	}

	message := "Unfollowed user"
	if following {
		message = "Now following user"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":   message,
		"following": following,
		"user":      actor,
		"target":    target,
	})
}
