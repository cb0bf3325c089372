package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/objectstore"
	"github.com/town-square/api-go/storage"
	"github.com/town-square/api-go/utils"
)

type UserController struct {
	Store   storage.Storage
	Objects *objectstore.Client
}

func NewUserController(store storage.Storage, objects *objectstore.Client) *UserController {
	return &UserController{Store: store, Objects: objects}
}

type UpdateBioRequest struct {
	Bio string `json:"bio" binding:"required,max=500"`
}

func (uc *UserController) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetUser(c))
}

func (uc *UserController) UpdateBio(c *gin.Context) {
	user := utils.GetUser(c)

	var req UpdateBioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}

	if err := uc.Store.UpdateUserBio(c.Request.Context(), user.ID, req.Bio); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bio": req.Bio})
}

func (uc *UserController) UpdatePicture(c *gin.Context) {
	user := utils.GetUser(c)

	file, err := c.FormFile("picture")
	if err != nil {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}

	url, err := uploadFormFile(c, uc.Objects, file, objectstore.ProfilePictureKey(user.ID, file.Filename))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := uc.Store.UpdateUserPicture(c.Request.Context(), user.ID, url); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"picture": url})
}
