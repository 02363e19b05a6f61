package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/internal/realtime"
	"github.com/orbitlabs/orbit/backend/internal/repositories"
)

// PostHandler handles feed post HTTP requests
type PostHandler struct {
	postRepository repositories.PostRepository
	dispatcher     *realtime.Dispatcher
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, dispatcher *realtime.Dispatcher) *PostHandler {
	return &PostHandler{postRepository: postRepo, dispatcher: dispatcher}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetAllPosts)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts/user/:id", h.GetPostsByUser)
	g.PATCH("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.PATCH("/posts/:id/reactions", h.UpdateReactions)
}

// CreatePost creates a new feed post authored by the caller.
func (h *PostHandler) CreatePost(c echo.Context) error {
	authorID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post := &models.Post{
		Author:    authorID,
		Content:   req.Content,
		Images:    req.Images,
		IsPremium: req.IsPremium,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetAllPosts lists posts newest first, with optional content search and
// skip/limit paging.
func (h *PostHandler) GetAllPosts(c echo.Context) error {
	skip := queryInt64(c, "skip", 0)
	limit := queryInt64(c, "limit", 20)

	posts, err := h.postRepository.GetAllPosts(c.Request().Context(), c.QueryParam("search"), skip, limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by id.
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := parseObjectID(c.Param("id"), "post id")
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// GetPostsByUser lists one author's posts, newest first.
func (h *PostHandler) GetPostsByUser(c echo.Context) error {
	authorID, err := parseObjectID(c.Param("id"), "user id")
	if err != nil {
		return err
	}

	skip := queryInt64(c, "skip", 0)
	limit := queryInt64(c, "limit", 20)

	posts, err := h.postRepository.GetPostsByAuthor(c.Request().Context(), authorID, skip, limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, posts)
}

// UpdatePost edits a post's content or images. Only the author may edit.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	id, err := h.authorizeAuthor(c, false)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.postRepository.UpdatePost(c.Request().Context(), id, &req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost removes a post. The author or an admin may delete.
func (h *PostHandler) DeletePost(c echo.Context) error {
	id, err := h.authorizeAuthor(c, true)
	if err != nil {
		return err
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}

// UpdateReactions replaces the post's like/dislike sets and broadcasts the
// refreshed post to every connected client.
func (h *PostHandler) UpdateReactions(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return err
	}
	id, err := parseObjectID(c.Param("id"), "post id")
	if err != nil {
		return err
	}

	var req models.LikeDislikePayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	likes, err := parseObjectIDList(req.Likes, "likes")
	if err != nil {
		return err
	}
	dislikes, err := parseObjectIDList(req.Dislikes, "dislikes")
	if err != nil {
		return err
	}

	post, err := h.postRepository.SetLikesDislikes(c.Request().Context(), id, likes, dislikes)
	if err != nil {
		return toHTTPError(err)
	}

	h.dispatcher.Broadcast(realtime.EventUpdatedLikeDislike, post)
	return c.JSON(http.StatusOK, post)
}

// authorizeAuthor loads the post and checks the caller owns it; admins may
// also act when adminOverride is set.
func (h *PostHandler) authorizeAuthor(c echo.Context, adminOverride bool) (primitive.ObjectID, error) {
	selfID, err := currentUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	postID, err := parseObjectID(c.Param("id"), "post id")
	if err != nil {
		return primitive.NilObjectID, err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return primitive.NilObjectID, toHTTPError(err)
	}
	if post.Author != selfID && !(adminOverride && isAdmin(c)) {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusForbidden, "You can only modify your own posts")
	}
	return postID, nil
}
