package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
	"github.com/town-square/api-go/storage"
)

func newTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	s := New()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s, context.Background()
}

func registerUser(t *testing.T, s *Store, ctx context.Context, phone string) *models.User {
	t.Helper()
	user := &models.User{
		Name:      "tester",
		Phone:     phone,
		Sex:       models.SexMale,
		Birthdate: time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.RegisterUser(ctx, user, "seoul/mapo"))
	return user
}

func createPost(t *testing.T, s *Store, ctx context.Context, authorID uint) *models.Post {
	t.Helper()
	post := &models.Post{AuthorID: authorID, TownID: 1, PostType: models.PostDaily, Content: "hello"}
	require.NoError(t, s.CreatePost(ctx, post, nil))
	return post
}

func TestRegisterUserDuplicatePhone(t *testing.T) {
	s, ctx := newTestStore(t)

	registerUser(t, s, ctx, "01012345678")

	dup := &models.User{Name: "other", Phone: "01012345678", Sex: models.SexFemale}
	err := s.RegisterUser(ctx, dup, "seoul/mapo")
	assert.ErrorIs(t, err, apperr.ErrDuplicatePhone)
}

func TestRegisterUserReusesTown(t *testing.T) {
	s, ctx := newTestStore(t)

	a := registerUser(t, s, ctx, "01011112222")
	b := registerUser(t, s, ctx, "01033334444")

	assert.Equal(t, a.TownID, b.TownID)
	assert.Equal(t, "seoul/mapo", b.Town.Address)
}

func TestAddCommentClosureInvariant(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")
	post := createPost(t, s, ctx, user.ID)

	root, err := s.AddComment(ctx, post.ID, user.ID, "root", nil)
	require.NoError(t, err)
	reply, err := s.AddComment(ctx, post.ID, user.ID, "reply", &root.ID)
	require.NoError(t, err)
	leaf, err := s.AddComment(ctx, post.ID, user.ID, "leaf", &reply.ID)
	require.NoError(t, err)

	// Every node carries the reflexive edge plus one edge per ancestor.
	assert.Len(t, s.ancestors[root.ID], 1)
	assert.Len(t, s.ancestors[reply.ID], 2)
	assert.Len(t, s.ancestors[leaf.ID], 3)
	assert.True(t, s.ancestors[leaf.ID][root.ID])
	assert.True(t, s.ancestors[leaf.ID][reply.ID])
	assert.True(t, s.ancestors[leaf.ID][leaf.ID])
}

func TestAddCommentParentChecks(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")
	first := createPost(t, s, ctx, user.ID)
	second := createPost(t, s, ctx, user.ID)

	onFirst, err := s.AddComment(ctx, first.ID, user.ID, "on first", nil)
	require.NoError(t, err)

	_, err = s.AddComment(ctx, second.ID, user.ID, "cross-post reply", &onFirst.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	missing := uint(999)
	_, err = s.AddComment(ctx, first.ID, user.ID, "reply to nothing", &missing)
	assert.ErrorIs(t, err, apperr.ErrCommentNotFound)

	_, err = s.AddComment(ctx, 999, user.ID, "on missing post", nil)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
}

func TestDeleteCommentRemovesSubtree(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")
	post := createPost(t, s, ctx, user.ID)

	root, _ := s.AddComment(ctx, post.ID, user.ID, "root", nil)
	mid, _ := s.AddComment(ctx, post.ID, user.ID, "mid", &root.ID)
	leaf, _ := s.AddComment(ctx, post.ID, user.ID, "leaf", &mid.ID)
	sibling, _ := s.AddComment(ctx, post.ID, user.ID, "sibling", &root.ID)

	require.NoError(t, s.DeleteComment(ctx, mid.ID))

	_, err := s.CommentByIDAnyViewer(ctx, mid.ID)
	assert.ErrorIs(t, err, apperr.ErrCommentNotFound)
	_, err = s.CommentByIDAnyViewer(ctx, leaf.ID)
	assert.ErrorIs(t, err, apperr.ErrCommentNotFound)

	// The root and the untouched sibling branch survive.
	_, err = s.CommentByIDAnyViewer(ctx, root.ID)
	assert.NoError(t, err)
	_, err = s.CommentByIDAnyViewer(ctx, sibling.ID)
	assert.NoError(t, err)

	// No closure edge may reference a deleted node.
	for child, edges := range s.ancestors {
		assert.NotEqual(t, mid.ID, child)
		assert.False(t, edges[mid.ID])
		assert.False(t, edges[leaf.ID])
	}

	err = s.DeleteComment(ctx, mid.ID)
	assert.ErrorIs(t, err, apperr.ErrCommentNotFound)
}

func TestCommentsByPostIDThreadShape(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")
	post := createPost(t, s, ctx, user.ID)

	c1, _ := s.AddComment(ctx, post.ID, user.ID, "first root", nil)
	c2, _ := s.AddComment(ctx, post.ID, user.ID, "second root", nil)
	r1, _ := s.AddComment(ctx, post.ID, user.ID, "reply to first", &c1.ID)
	r2, _ := s.AddComment(ctx, post.ID, user.ID, "reply to reply", &r1.ID)

	nodes, err := s.CommentsByPostID(ctx, post.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	// Creation order, with each node pointing at its direct parent. Roots
	// are their own parent.
	assert.Equal(t, c1.ID, nodes[0].ChildCommentID)
	assert.Equal(t, c1.ID, nodes[0].ParentCommentID)
	assert.Equal(t, c2.ID, nodes[1].ChildCommentID)
	assert.Equal(t, c2.ID, nodes[1].ParentCommentID)
	assert.Equal(t, r1.ID, nodes[2].ChildCommentID)
	assert.Equal(t, c1.ID, nodes[2].ParentCommentID)
	assert.Equal(t, r2.ID, nodes[3].ChildCommentID)
	assert.Equal(t, r1.ID, nodes[3].ParentCommentID)
}

func TestCommentsByPostIDAfterSubtreeDelete(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")
	post := createPost(t, s, ctx, user.ID)

	root, _ := s.AddComment(ctx, post.ID, user.ID, "root", nil)
	mid, _ := s.AddComment(ctx, post.ID, user.ID, "mid", &root.ID)
	_, err := s.AddComment(ctx, post.ID, user.ID, "leaf", &mid.ID)
	require.NoError(t, err)
	sibling, _ := s.AddComment(ctx, post.ID, user.ID, "sibling", &root.ID)

	require.NoError(t, s.DeleteComment(ctx, mid.ID))

	// The listing snapshot stays consistent: every surviving node still has
	// its full ancestor set, so only the real root renders as its own parent.
	nodes, err := s.CommentsByPostID(ctx, post.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, root.ID, nodes[0].ChildCommentID)
	assert.Equal(t, root.ID, nodes[0].ParentCommentID)
	assert.Equal(t, sibling.ID, nodes[1].ChildCommentID)
	assert.Equal(t, root.ID, nodes[1].ParentCommentID)
}

func TestCommentBlockFiltering(t *testing.T) {
	s, ctx := newTestStore(t)
	author := registerUser(t, s, ctx, "01000000001")
	viewer := registerUser(t, s, ctx, "01000000002")
	post := createPost(t, s, ctx, author.ID)

	root, _ := s.AddComment(ctx, post.ID, author.ID, "root", nil)
	reply, _ := s.AddComment(ctx, post.ID, author.ID, "reply", &root.ID)

	blocked, err := s.ToggleCommentBlock(ctx, viewer.ID, root.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	nodes, err := s.CommentsByPostID(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	// The hidden parent still anchors the reply's parent edge.
	assert.Equal(t, reply.ID, nodes[0].ChildCommentID)
	assert.Equal(t, root.ID, nodes[0].ParentCommentID)

	// The author's own view is untouched.
	nodes, err = s.CommentsByPostID(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestUserBlockHidesContent(t *testing.T) {
	s, ctx := newTestStore(t)
	author := registerUser(t, s, ctx, "01000000001")
	viewer := registerUser(t, s, ctx, "01000000002")
	post := createPost(t, s, ctx, author.ID)
	comment, _ := s.AddComment(ctx, post.ID, author.ID, "hi", nil)

	blocked, err := s.ToggleUserBlock(ctx, viewer.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	_, err = s.PostByID(ctx, post.ID, viewer.ID)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
	_, err = s.CommentByID(ctx, comment.ID, viewer.ID)
	assert.ErrorIs(t, err, apperr.ErrCommentNotFound)

	posts, err := s.Posts(ctx, viewer.ID, storage.ListPostsOptions{})
	require.NoError(t, err)
	assert.Empty(t, posts)

	// Toggling again unblocks.
	blocked, err = s.ToggleUserBlock(ctx, viewer.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, blocked)

	_, err = s.PostByID(ctx, post.ID, viewer.ID)
	assert.NoError(t, err)
}

func TestToggleUserBlockSelf(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")

	_, err := s.ToggleUserBlock(ctx, user.ID, user.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
}

func TestToggleLikeAndCounts(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")
	post := createPost(t, s, ctx, user.ID)
	_, err := s.AddComment(ctx, post.ID, user.ID, "hi", nil)
	require.NoError(t, err)

	liked, err := s.ToggleLike(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := s.PostByID(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikeCount)
	assert.Equal(t, int64(1), got.CommentCount)

	liked, err = s.ToggleLike(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	got, err = s.PostByID(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.LikeCount)
}

func TestPostsKeysetPagination(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")
	for i := 0; i < 5; i++ {
		createPost(t, s, ctx, user.ID)
	}

	page, err := s.Posts(ctx, user.ID, storage.ListPostsOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint(5), page[0].ID)
	assert.Equal(t, uint(4), page[1].ID)

	page, err = s.Posts(ctx, user.ID, storage.ListPostsOptions{LastID: page[1].ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint(3), page[0].ID)
	assert.Equal(t, uint(2), page[1].ID)
}

func TestUpdatePostOwnership(t *testing.T) {
	s, ctx := newTestStore(t)
	owner := registerUser(t, s, ctx, "01000000001")
	other := registerUser(t, s, ctx, "01000000002")
	post := createPost(t, s, ctx, owner.ID)

	err := s.UpdatePost(ctx, post.ID, other.ID, "hijacked", nil)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)

	err = s.DeletePost(ctx, post.ID, other.ID)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)

	require.NoError(t, s.UpdatePost(ctx, post.ID, owner.ID, "edited", nil))
	got, err := s.PostByID(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
}

func TestDeletePostRemovesThread(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")
	post := createPost(t, s, ctx, user.ID)
	root, _ := s.AddComment(ctx, post.ID, user.ID, "root", nil)
	reply, _ := s.AddComment(ctx, post.ID, user.ID, "reply", &root.ID)
	_, err := s.ToggleLike(ctx, post.ID, user.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, post.ID, user.ID))

	_, err = s.PostByID(ctx, post.ID, user.ID)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
	_, err = s.CommentByIDAnyViewer(ctx, root.ID)
	assert.ErrorIs(t, err, apperr.ErrCommentNotFound)
	_, err = s.CommentByIDAnyViewer(ctx, reply.ID)
	assert.ErrorIs(t, err, apperr.ErrCommentNotFound)
	assert.Empty(t, s.ancestors)
}

func TestReplaceImagesKeepsDenormalizedURLs(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")

	post := &models.Post{AuthorID: user.ID, TownID: 1, PostType: models.PostDaily, Content: "pics"}
	images := []models.PostImage{
		{ObjectKey: "post/a.jpg", ImageURL: "https://cdn.example.com/post/a.jpg"},
		{ObjectKey: "post/b.jpg", ImageURL: "https://cdn.example.com/post/b.jpg"},
	}
	require.NoError(t, s.CreatePost(ctx, post, images))

	stored, err := s.PostImages(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, post.ID, stored[0].PostID)

	got, err := s.PostByID(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.example.com/post/a.jpg",
		"https://cdn.example.com/post/b.jpg",
	}, []string(got.ImageURLs))

	require.NoError(t, s.UpdatePost(ctx, post.ID, user.ID, "pics", []models.PostImage{
		{ObjectKey: "post/c.jpg", ImageURL: "https://cdn.example.com/post/c.jpg"},
	}))
	got, err = s.PostByID(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/post/c.jpg"}, []string(got.ImageURLs))
}

func TestPhoneVerificationSingleRow(t *testing.T) {
	s, ctx := newTestStore(t)
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.PhoneVerificationByPhone(ctx, "01012345678")
	assert.ErrorIs(t, err, apperr.ErrVerification)

	require.NoError(t, s.ReplacePhoneVerification(ctx, "01012345678", "000111", issued))
	require.NoError(t, s.ReplacePhoneVerification(ctx, "01012345678", "222333", issued.Add(time.Minute)))

	record, err := s.PhoneVerificationByPhone(ctx, "01012345678")
	require.NoError(t, err)
	assert.Equal(t, "222333", record.Code)
	assert.Equal(t, issued.Add(time.Minute), record.CreatedAt)

	require.NoError(t, s.DeletePhoneVerification(ctx, "01012345678"))
	_, err = s.PhoneVerificationByPhone(ctx, "01012345678")
	assert.ErrorIs(t, err, apperr.ErrVerification)
}

func TestUpdateRefreshTokenHash(t *testing.T) {
	s, ctx := newTestStore(t)
	user := registerUser(t, s, ctx, "01000000001")

	hash := "bcrypt-hash"
	require.NoError(t, s.UpdateRefreshTokenHash(ctx, user.ID, &hash))

	got, err := s.UserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshTokenHash)
	assert.Equal(t, hash, *got.RefreshTokenHash)

	require.NoError(t, s.UpdateRefreshTokenHash(ctx, user.ID, nil))
	got, err = s.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RefreshTokenHash)

	err = s.UpdateRefreshTokenHash(ctx, 999, &hash)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}
