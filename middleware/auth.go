package middleware

import (
	"crypto/rsa"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/auth"
	"github.com/town-square/api-go/storage"
	"github.com/town-square/api-go/utils"
)

// AuthMiddleware decodes the bearer access token and loads the authenticated
// user onto the request context. A token whose subject no longer exists is
// treated as invalid.
func AuthMiddleware(publicKey *rsa.PublicKey, store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperr.Respond(c, apperr.ErrTokenNotExists)
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			apperr.Respond(c, apperr.ErrInvalidToken)
			return
		}

		token, err := auth.Decode(bearerToken[1], publicKey)
		if err != nil {
			apperr.Respond(c, err)
			return
		}

		user, err := store.UserByID(c.Request.Context(), token.UserID)
		if err != nil {
			apperr.Respond(c, apperr.ErrInvalidToken)
			return
		}

		c.Set(string(utils.UserContextKey), user)
		c.Next()
	}
}
