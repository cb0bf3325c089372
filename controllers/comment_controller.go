package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/storage"
	"github.com/town-square/api-go/utils"
)

type CommentController struct {
	Store storage.Storage
}

func NewCommentController(store storage.Storage) *CommentController {
	return &CommentController{Store: store}
}

type CreateCommentRequest struct {
	Content         string `json:"content" binding:"required"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

func (cc *CommentController) CreateComment(c *gin.Context) {
	user := utils.GetUser(c)

	postID, err := uintParam(c, "post_id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}

	comment, err := cc.Store.AddComment(c.Request.Context(), postID, user.ID, req.Content, req.ParentCommentID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (cc *CommentController) ListComments(c *gin.Context) {
	user := utils.GetUser(c)

	postID, err := uintParam(c, "post_id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	// The post must be visible to the viewer at all.
	if _, err := cc.Store.PostByID(c.Request.Context(), postID, user.ID); err != nil {
		apperr.Respond(c, err)
		return
	}

	nodes, err := cc.Store.CommentsByPostID(c.Request.Context(), postID, user.ID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": nodes})
}

// DeleteComment removes the author's comment together with every reply under
// it. A comment addressed under the wrong post is a bad request; someone
// else's comment is reported as absent.
func (cc *CommentController) DeleteComment(c *gin.Context) {
	user := utils.GetUser(c)

	postID, err := uintParam(c, "post_id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	commentID, err := uintParam(c, "comment_id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	ctx := c.Request.Context()
	comment, err := cc.Store.CommentByIDAnyViewer(ctx, commentID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if comment.PostID != postID {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}
	if comment.AuthorID == nil || *comment.AuthorID != user.ID {
		apperr.Respond(c, apperr.ErrCommentNotFound)
		return
	}

	if err := cc.Store.DeleteComment(ctx, commentID); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
