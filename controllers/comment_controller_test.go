package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/town-square/api-go/models"
	"github.com/town-square/api-go/storage/inmemory"
	"github.com/town-square/api-go/utils"
)

func newCommentRouter(store *inmemory.Store, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(string(utils.UserContextKey), user)
		c.Next()
	})

	cc := NewCommentController(store)
	router.POST("/post/:post_id/comment", cc.CreateComment)
	router.GET("/post/:post_id/comment", cc.ListComments)
	router.DELETE("/post/:post_id/comment/:comment_id", cc.DeleteComment)
	return router
}

func seedUserAndPost(t *testing.T, store *inmemory.Store, phone string) (*models.User, *models.Post) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Name: "tester", Phone: phone, Sex: models.SexMale}
	require.NoError(t, store.RegisterUser(ctx, user, "seoul/mapo"))

	post := &models.Post{AuthorID: user.ID, TownID: user.TownID, PostType: models.PostDaily, Content: "hello"}
	require.NoError(t, store.CreatePost(ctx, post, nil))
	return user, post
}

func postJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateCommentAndReply(t *testing.T) {
	store := inmemory.New()
	user, post := seedUserAndPost(t, store, "01000000001")
	router := newCommentRouter(store, user)

	rec := postJSON(router, http.MethodPost, fmt.Sprintf("/post/%d/comment", post.ID),
		gin.H{"content": "first"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var root models.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.Equal(t, "first", root.Content)

	rec = postJSON(router, http.MethodPost, fmt.Sprintf("/post/%d/comment", post.ID),
		gin.H{"content": "reply", "parent_comment_id": root.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(router, http.MethodGet, fmt.Sprintf("/post/%d/comment", post.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Comments []models.CommentNode `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Comments, 2)
	assert.Equal(t, root.ID, listing.Comments[0].ParentCommentID)
	assert.Equal(t, root.ID, listing.Comments[1].ParentCommentID)
	assert.NotEqual(t, root.ID, listing.Comments[1].ChildCommentID)
}

func TestCreateCommentValidation(t *testing.T) {
	store := inmemory.New()
	user, post := seedUserAndPost(t, store, "01000000001")
	router := newCommentRouter(store, user)

	// Missing content.
	rec := postJSON(router, http.MethodPost, fmt.Sprintf("/post/%d/comment", post.ID), gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown post.
	rec = postJSON(router, http.MethodPost, "/post/999/comment", gin.H{"content": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Reply whose parent lives in a different post.
	_, otherPost := seedUserAndPost(t, store, "01000000002")
	rec = postJSON(router, http.MethodPost, fmt.Sprintf("/post/%d/comment", post.ID), gin.H{"content": "root"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var root models.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))

	rec = postJSON(router, http.MethodPost, fmt.Sprintf("/post/%d/comment", otherPost.ID),
		gin.H{"content": "crossed", "parent_comment_id": root.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCommentRules(t *testing.T) {
	store := inmemory.New()
	owner, post := seedUserAndPost(t, store, "01000000001")
	other, otherPost := seedUserAndPost(t, store, "01000000002")

	ctx := context.Background()
	comment, err := store.AddComment(ctx, post.ID, owner.ID, "mine", nil)
	require.NoError(t, err)
	reply, err := store.AddComment(ctx, post.ID, other.ID, "theirs", &comment.ID)
	require.NoError(t, err)

	ownerRouter := newCommentRouter(store, owner)
	otherRouter := newCommentRouter(store, other)

	// Wrong post in the path.
	rec := postJSON(ownerRouter, http.MethodDelete,
		fmt.Sprintf("/post/%d/comment/%d", otherPost.ID, comment.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Not the author.
	rec = postJSON(otherRouter, http.MethodDelete,
		fmt.Sprintf("/post/%d/comment/%d", post.ID, comment.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The author deletes the root; the other user's reply goes with it.
	rec = postJSON(ownerRouter, http.MethodDelete,
		fmt.Sprintf("/post/%d/comment/%d", post.ID, comment.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = store.CommentByIDAnyViewer(ctx, reply.ID)
	assert.Error(t, err)

	rec = postJSON(ownerRouter, http.MethodDelete,
		fmt.Sprintf("/post/%d/comment/%d", post.ID, comment.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
