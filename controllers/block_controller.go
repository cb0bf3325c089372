package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/storage"
	"github.com/town-square/api-go/utils"
)

// BlockController toggles the three per-viewer block lists. Each call flips
// the state and reports the resulting one.
type BlockController struct {
	Store storage.Storage
}

func NewBlockController(store storage.Storage) *BlockController {
	return &BlockController{Store: store}
}

func (bc *BlockController) BlockUser(c *gin.Context) {
	bc.toggle(c, "user_id", bc.Store.ToggleUserBlock)
}

func (bc *BlockController) BlockPost(c *gin.Context) {
	bc.toggle(c, "post_id", bc.Store.TogglePostBlock)
}

func (bc *BlockController) BlockComment(c *gin.Context) {
	bc.toggle(c, "comment_id", bc.Store.ToggleCommentBlock)
}

func (bc *BlockController) toggle(c *gin.Context, param string, fn func(ctx context.Context, blockerID, targetID uint) (bool, error)) {
	user := utils.GetUser(c)

	targetID, err := uintParam(c, param)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	blocked, err := fn(c.Request.Context(), user.ID, targetID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocked": blocked})
}
