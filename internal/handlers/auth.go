package handlers

import (
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/internal/repositories"
	"github.com/orbitlabs/orbit/backend/pkg/config"
	"github.com/orbitlabs/orbit/backend/pkg/logger"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   *auth.Client
	cfg            *config.Config
}

// NewAuthHandler creates a new AuthHandler. firebaseAuthClient may be nil
// when the deployment does not delegate identity to Firebase.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuthClient *auth.Client, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuthClient,
		cfg:            cfg,
	}
}

// RegisterAuthRoutes registers the public authentication routes.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/login", h.Login)
	g.POST("/refresh-token", h.RefreshToken)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// RegisterProtectedAuthRoutes registers auth routes that require a valid
// access token.
func (h *AuthHandler) RegisterProtectedAuthRoutes(g *echo.Group) {
	g.POST("/change-password", h.ChangePassword)
}

// Login handles email/password authentication and issues a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if user.IsDeleted {
		return echo.NewHTTPError(http.StatusForbidden, "This account has been deleted")
	}
	if user.Status == models.StatusBlocked {
		return echo.NewHTTPError(http.StatusForbidden, "This account is blocked")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	accessToken, refreshToken, err := h.generateTokenPair(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair. Tokens
// issued before the user's last password change are rejected.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(req.RefreshToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
		}
		return []byte(h.cfg.JWTRefreshSecret), nil
	})
	if err != nil || !token.Valid {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	userID, err := parseObjectID(claims.UserID, "user id in token")
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User no longer exists")
	}
	if user.Status == models.StatusBlocked {
		return echo.NewHTTPError(http.StatusForbidden, "This account is blocked")
	}
	if user.PasswordChangedAt != nil && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(*user.PasswordChangedAt) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Password changed, please log in again")
	}

	accessToken, refreshToken, err := h.generateTokenPair(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

// ChangePassword verifies the current password and stores a new hash. All
// previously issued tokens become invalid on the next refresh.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	if err := h.userRepository.UpdatePassword(c.Request().Context(), userID, string(hash)); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully"})
}

// FirebaseLogin verifies a Firebase ID token and resolves or provisions the
// matching local account.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req struct {
		IDToken string `json:"idToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	decoded, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
	}

	email, _ := decoded.Claims["email"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ID token carries no email")
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), email)
	if err != nil {
		name, _ := decoded.Claims["name"].(string)
		if name == "" {
			name = email
		}
		user = &models.User{Name: name, Email: email, IsVerified: true}
		if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
			return toHTTPError(err)
		}
		logger.Get().Info("provisioned account from firebase identity", zap.String("email", email))
	} else if user.IsDeleted {
		return echo.NewHTTPError(http.StatusForbidden, "This account has been deleted")
	}

	accessToken, refreshToken, err := h.generateTokenPair(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

func (h *AuthHandler) generateTokenPair(user *models.User) (string, string, error) {
	access, err := h.signToken(user, h.cfg.JWTAccessSecret, h.cfg.JWTAccessExpiry)
	if err != nil {
		return "", "", err
	}
	refresh, err := h.signToken(user, h.cfg.JWTRefreshSecret, h.cfg.JWTRefreshExpiry)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (h *AuthHandler) signToken(user *models.User, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
