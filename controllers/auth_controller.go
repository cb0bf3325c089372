package controllers

import (
	"crypto/rsa"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/auth"
	"github.com/town-square/api-go/models"
	"github.com/town-square/api-go/objectstore"
	"github.com/town-square/api-go/storage"
	"github.com/town-square/api-go/verification"
)

// AuthController owns registration, the phone verification round-trips and
// the token lifecycle.
type AuthController struct {
	Store        storage.Storage
	Verification *verification.Service
	Objects      *objectstore.Client
	PrivateKey   *rsa.PrivateKey
	PublicKey    *rsa.PublicKey
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

func NewAuthController(store storage.Storage, verif *verification.Service, objects *objectstore.Client,
	privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, accessTTL, refreshTTL time.Duration) *AuthController {
	return &AuthController{
		Store:        store,
		Verification: verif,
		Objects:      objects,
		PrivateKey:   privateKey,
		PublicKey:    publicKey,
		AccessTTL:    accessTTL,
		RefreshTTL:   refreshTTL,
	}
}

type SendPhoneCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type VerifyPhoneRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// SendPhoneCode issues a fresh verification code over SMS. Reissuing for the
// same phone invalidates the earlier code.
func (ac *AuthController) SendPhoneCode(c *gin.Context) {
	var req SendPhoneCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}

	if err := ac.Verification.Send(c.Request.Context(), req.Phone); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

// VerifyPhone logs an existing user in: a correct code plus a registered
// phone yields a fresh token pair and retires the code.
func (ac *AuthController) VerifyPhone(c *gin.Context) {
	var req VerifyPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	if err := ac.Verification.Authorize(ctx, req.Phone, req.Code); err != nil {
		apperr.Respond(c, err)
		return
	}

	user, err := ac.Store.UserByPhone(ctx, req.Phone)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := ac.Verification.Cancel(ctx, req.Phone); err != nil {
		apperr.Respond(c, err)
		return
	}

	tokens, err := ac.issueTokenPair(c, user)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{User: user, Tokens: *tokens})
}

// Register creates a user from a multipart form: the profile fields, the
// verification code issued for the phone, and the identity-document photo.
func (ac *AuthController) Register(c *gin.Context) {
	ctx := c.Request.Context()

	phone := c.PostForm("phone")
	code := c.PostForm("code")
	name := c.PostForm("name")
	address := c.PostForm("address")
	if phone == "" || code == "" || name == "" || address == "" {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}

	sex, err := models.ParseSex(c.PostForm("sex"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	verificationType, err := models.ParseIDVerificationType(c.PostForm("verification_type"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	birthdate, err := time.Parse("2006-01-02", c.PostForm("birthdate"))
	if err != nil {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}

	if err := ac.Verification.Authorize(ctx, phone, code); err != nil {
		apperr.Respond(c, err)
		return
	}

	user := &models.User{
		Name:               name,
		Phone:              phone,
		Birthdate:          birthdate,
		Sex:                sex,
		VerificationType:   verificationType,
		VerificationStatus: models.VerificationPending,
	}

	if err := ac.Store.RegisterUser(ctx, user, address); err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := ac.Verification.Cancel(ctx, phone); err != nil {
		apperr.Respond(c, err)
		return
	}

	// The document photo upload happens after the row exists so the object
	// key can carry the user id. A failed upload leaves the account pending
	// with no photo; the client retries through the profile endpoints.
	if file, err := c.FormFile("verification_photo"); err == nil {
		url, err := uploadFormFile(c, ac.Objects, file, objectstore.VerificationPhotoKey(user.ID, file.Filename))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if err := ac.Store.UpdateUserVerificationPhoto(ctx, user.ID, url); err != nil {
			apperr.Respond(c, err)
			return
		}
		user.VerificationPhotoURL = url
	}

	tokens, err := ac.issueTokenPair(c, user)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{User: user, Tokens: *tokens})
}

// RefreshToken exchanges a valid refresh token for a new pair. Only the most
// recently issued refresh token matches the stored hash, so a replayed older
// token is rejected.
func (ac *AuthController) RefreshToken(c *gin.Context) {
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
	encoded := bearerToken[1]

	token, err := auth.Decode(encoded, ac.PublicKey)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := ac.Store.UserByID(ctx, token.UserID)
	if err != nil {
		apperr.Respond(c, apperr.ErrInvalidToken)
		return
	}

	if err := user.VerifyRefreshToken(encoded); err != nil {
		apperr.Respond(c, err)
		return
	}

	tokens, err := ac.issueTokenPair(c, user)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (ac *AuthController) issueTokenPair(c *gin.Context, user *models.User) (*TokenPairResponse, error) {
	access, err := auth.Issue(ac.PrivateKey, ac.AccessTTL, user.ID)
	if err != nil {
		return nil, err
	}

	refresh, err := auth.Issue(ac.PrivateKey, ac.RefreshTTL, user.ID)
	if err != nil {
		return nil, err
	}

	if err := user.SetRefreshToken(refresh.Encoded); err != nil {
		return nil, err
	}
	if err := ac.Store.UpdateRefreshTokenHash(c.Request.Context(), user.ID, user.RefreshTokenHash); err != nil {
		return nil, err
	}

	return &TokenPairResponse{
		AccessToken:  access.Encoded,
		RefreshToken: refresh.Encoded,
		TokenType:    "Bearer",
		ExpiresIn:    access.ExpiresIn(),
	}, nil
}
