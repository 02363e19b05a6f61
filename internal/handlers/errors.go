package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/orbitlabs/orbit/backend/pkg/apperrors"
)

// toHTTPError converts a domain error into the echo error surfaced to the
// client, keeping the status mapping in one place.
func toHTTPError(err error) *echo.HTTPError {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return echo.NewHTTPError(apperrors.HTTPStatus(err), appErr.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// currentUserID reads the authenticated user's id from the request context,
// as set by the auth middleware.
func currentUserID(c echo.Context) (primitive.ObjectID, error) {
	raw, _ := c.Get("userID").(string)
	if raw == "" {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusUnauthorized, "Missing authenticated user")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusUnauthorized, "Invalid authenticated user id")
	}
	return id, nil
}

// parseObjectID parses a hex user/post/chat id from a path or body field.
func parseObjectID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what)
	}
	return id, nil
}

// parseObjectIDList parses a list of hex ids, rejecting the whole list on
// the first malformed entry.
func parseObjectIDList(raw []string, what string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, r := range raw {
		id, err := primitive.ObjectIDFromHex(r)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid id in "+what)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("userRole").(string)
	return role == "admin"
}
