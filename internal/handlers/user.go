package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/internal/repositories"
)

// UserHandler handles user account and profile HTTP requests
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterPublicUserRoutes registers routes that need no authentication.
func (h *UserHandler) RegisterPublicUserRoutes(g *echo.Group) {
	g.POST("/users", h.Register)
}

// RegisterUserRoutes registers the authenticated user routes.
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users", h.GetUsers)
	g.GET("/users/:id", h.GetUserProfile)
	g.PATCH("/users/:id", h.UpdateUser)
	g.DELETE("/users/:id", h.DeleteUser)
}

// Register creates a new account with a hashed password.
func (h *UserHandler) Register(c echo.Context) error {
	var req models.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// GetUsers lists users, optionally filtered by a name search. The requesting
// user is excluded from the result.
func (h *UserHandler) GetUsers(c echo.Context) error {
	selfID, err := currentUserID(c)
	if err != nil {
		return err
	}

	users, err := h.userRepository.GetUsers(c.Request().Context(), c.QueryParam("search"), selfID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUserProfile returns a user with friends and pending requests resolved.
func (h *UserHandler) GetUserProfile(c echo.Context) error {
	id, err := parseObjectID(c.Param("id"), "user id")
	if err != nil {
		return err
	}

	profile, err := h.userRepository.GetUserProfile(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateUser applies a profile update. Users may only edit their own profile
// unless they are admins.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := h.authorizeSelfOrAdmin(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.UpdateUser(c.Request().Context(), id, &req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser soft-deletes an account; the document stays so old chats remain
// readable.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := h.authorizeSelfOrAdmin(c)
	if err != nil {
		return err
	}

	if err := h.userRepository.SoftDeleteUser(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}

func (h *UserHandler) authorizeSelfOrAdmin(c echo.Context) (primitive.ObjectID, error) {
	selfID, err := currentUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, err := parseObjectID(c.Param("id"), "user id")
	if err != nil {
		return primitive.NilObjectID, err
	}
	if id != selfID && !isAdmin(c) {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusForbidden, "You can only modify your own account")
	}
	return id, nil
}
