package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
)

// TokenPairResponse carries both session tokens. ExpiresIn is the access
// token lifetime in seconds.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthResponse struct {
	User   *models.User      `json:"user"`
	Tokens TokenPairResponse `json:"tokens"`
}

func uintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, apperr.ErrInvalidRequest
	}
	return uint(value), nil
}
