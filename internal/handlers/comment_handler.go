package handlers

import (
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

// CommentHandler handles comment HTTP requests. Comments live in the
// relational store; mutations keep the owning post's counter in sync and
// broadcast the change over the live channel, mirroring the channel-side
// comment events.
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	dispatcher        *realtime.Dispatcher
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, dispatcher *realtime.Dispatcher) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		dispatcher:        dispatcher,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/comments", h.CreateComment)
	g.GET("/comments/post/:postId", h.GetCommentsByPost)
	g.PATCH("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment adds a comment authored by the caller.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment := &models.Comment{
		PostID:  req.PostID,
		UserID:  userID.Hex(),
		Content: req.Content,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return toHTTPError(err)
	}

	h.bumpCommentsCount(c, req.PostID, 1)
	h.dispatcher.Broadcast(realtime.EventAddedComment, comment)
	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsByPost lists a post's comments, newest first.
func (h *CommentHandler) GetCommentsByPost(c echo.Context) error {
	comments, err := h.commentRepository.GetCommentsByPostID(c.Param("postId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, comments)
}

// UpdateComment replaces a comment's content. Only the author may edit.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseCommentID(c)
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	existing, err := h.commentRepository.GetCommentByID(id)
	if err != nil {
		return toHTTPError(err)
	}
	if existing.UserID != userID.Hex() && !isAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "You can only modify your own comments")
	}

	comment, err := h.commentRepository.UpdateComment(id, req.Content)
	if err != nil {
		return toHTTPError(err)
	}

	h.dispatcher.Broadcast(realtime.EventUpdatedComment, comment)
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment removes a comment and decrements the owning post's counter.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseCommentID(c)
	if err != nil {
		return err
	}

	existing, err := h.commentRepository.GetCommentByID(id)
	if err != nil {
		return toHTTPError(err)
	}
	if existing.UserID != userID.Hex() && !isAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own comments")
	}

	comment, err := h.commentRepository.DeleteComment(id)
	if err != nil {
		return toHTTPError(err)
	}

	h.bumpCommentsCount(c, comment.PostID, -1)
	h.dispatcher.Broadcast(realtime.EventDeletedComment, echo.Map{
		"commentId": id,
		"postId":    comment.PostID,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Comment deleted successfully"})
}

// bumpCommentsCount adjusts the post's counter; a failure only logs because
// the comment mutation has already committed.
func (h *CommentHandler) bumpCommentsCount(c echo.Context, postID string, delta int) {
	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return
	}
	if err := h.postRepository.IncrementCommentsCount(c.Request().Context(), id, delta); err != nil {
		logger.Get().Warn("adjusting comments count", zap.String("post", postID), zap.Error(err))
	}
}

func parseCommentID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}
	return uint(id), nil
}
