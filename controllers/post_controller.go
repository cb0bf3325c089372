package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
	"github.com/town-square/api-go/objectstore"
	"github.com/town-square/api-go/storage"
	"github.com/town-square/api-go/utils"
)

type PostController struct {
	Store   storage.Storage
	Objects *objectstore.Client
}

func NewPostController(store storage.Storage, objects *objectstore.Client) *PostController {
	return &PostController{Store: store, Objects: objects}
}

// CreatePost accepts a multipart form: post_type, content, the gathering-only
// fields, and zero or more files under "images".
func (pc *PostController) CreatePost(c *gin.Context) {
	user := utils.GetUser(c)

	postType, err := models.ParsePostType(c.PostForm("post_type"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	content := c.PostForm("content")
	if content == "" {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}

	post := &models.Post{
		AuthorID: user.ID,
		TownID:   user.TownID,
		PostType: postType,
		Content:  content,
	}

	if v := c.PostForm("age_range"); v != "" {
		post.AgeRange = &v
	}
	if v := c.PostForm("place"); v != "" {
		post.Place = &v
	}
	if v := c.PostForm("capacity"); v != "" {
		capacity, err := strconv.Atoi(v)
		if err != nil || capacity <= 0 {
			apperr.Respond(c, apperr.ErrInvalidRequest)
			return
		}
		post.Capacity = &capacity
	}

	if err := post.ValidateGatheringFields(); err != nil {
		apperr.Respond(c, err)
		return
	}

	images, err := pc.uploadImages(c, user.ID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := pc.Store.CreatePost(c.Request.Context(), post, images); err != nil {
		pc.cleanupObjects(c, images)
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (pc *PostController) GetPost(c *gin.Context) {
	user := utils.GetUser(c)

	postID, err := uintParam(c, "post_id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	post, err := pc.Store.PostByID(c.Request.Context(), postID, user.ID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// ListPosts pages newest-first by id: ?last_id=<previous page's oldest id>.
func (pc *PostController) ListPosts(c *gin.Context) {
	user := utils.GetUser(c)

	var opts storage.ListPostsOptions
	if v := c.Query("last_id"); v != "" {
		lastID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apperr.Respond(c, apperr.ErrInvalidRequest)
			return
		}
		opts.LastID = uint(lastID)
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > 100 {
			apperr.Respond(c, apperr.ErrInvalidRequest)
			return
		}
		opts.Limit = limit
	}

	posts, err := pc.Store.Posts(c.Request.Context(), user.ID, opts)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// UpdatePost replaces the content and the full image set. Old objects are
// removed from the bucket best-effort once the row change committed.
func (pc *PostController) UpdatePost(c *gin.Context) {
	user := utils.GetUser(c)

	postID, err := uintParam(c, "post_id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	content := c.PostForm("content")
	if content == "" {
		apperr.Respond(c, apperr.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	oldImages, err := pc.Store.PostImages(ctx, postID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	images, err := pc.uploadImages(c, user.ID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := pc.Store.UpdatePost(ctx, postID, user.ID, content, images); err != nil {
		pc.cleanupObjects(c, images)
		apperr.Respond(c, err)
		return
	}

	pc.cleanupObjects(c, oldImages)

	post, err := pc.Store.PostByID(ctx, postID, user.ID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (pc *PostController) DeletePost(c *gin.Context) {
	user := utils.GetUser(c)

	postID, err := uintParam(c, "post_id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	ctx := c.Request.Context()
	images, err := pc.Store.PostImages(ctx, postID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := pc.Store.DeletePost(ctx, postID, user.ID); err != nil {
		apperr.Respond(c, err)
		return
	}

	pc.cleanupObjects(c, images)

	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (pc *PostController) LikePost(c *gin.Context) {
	user := utils.GetUser(c)

	postID, err := uintParam(c, "post_id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	liked, err := pc.Store.ToggleLike(c.Request.Context(), postID, user.ID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (pc *PostController) uploadImages(c *gin.Context, userID uint) ([]models.PostImage, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.ErrInvalidRequest
	}

	files := form.File["images"]
	images := make([]models.PostImage, 0, len(files))
	for _, file := range files {
		key := objectstore.PostImageKey(userID, file.Filename)
		url, err := uploadFormFile(c, pc.Objects, file, key)
		if err != nil {
			pc.cleanupObjects(c, images)
			return nil, err
		}
		images = append(images, models.PostImage{ObjectKey: key, ImageURL: url})
	}
	return images, nil
}

// cleanupObjects removes bucket objects that no row references anymore. The
// bucket is outside the transaction, so failures are logged and tolerated.
func (pc *PostController) cleanupObjects(c *gin.Context, images []models.PostImage) {
	for _, image := range images {
		if err := pc.Objects.DeleteFile(c.Request.Context(), image.ObjectKey); err != nil {
			log.Printf("orphaned object %s: %v", image.ObjectKey, err)
		}
	}
}
