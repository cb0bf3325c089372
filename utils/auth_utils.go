package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// GetUser returns the authenticated user placed on the context by the auth
// middleware, or nil on an unauthenticated request.
func GetUser(c *gin.Context) *models.User {
	value, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	if user, ok := value.(*models.User); ok {
		return user
	}
	return nil
}
