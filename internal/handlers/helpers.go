package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devflowhq/backend/internal/engine"
)

// extractUserID pulls the authenticated user id set by the auth middleware.
func extractUserID(c *gin.Context) (string, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	userID, ok := raw.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// respondError maps engine error kinds to status codes with generic
// messages; internal details never reach the response body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": "validation"})
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found", "kind": "not_found"})
	case errors.Is(err, engine.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed", "kind": "unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong", "kind": "internal"})
	}
}
