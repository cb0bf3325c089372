// Package storage defines the relational-store contract shared by the
// postgres implementation and the in-memory implementation used in tests.
package storage

import (
	"context"
	"time"

	"github.com/town-square/api-go/models"
)

// ListPostsOptions selects a keyset page: posts with id < LastID (all newest
// when LastID is zero), at most Limit rows.
type ListPostsOptions struct {
	LastID uint
	Limit  int
}

const DefaultPostPageSize = 20

type Storage interface {
	// Users. RegisterUser resolves the town by address (creating it on first
	// use) and inserts the user inside one transaction.
	RegisterUser(ctx context.Context, user *models.User, address string) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateRefreshTokenHash(ctx context.Context, userID uint, hash *string) error
	UpdateUserBio(ctx context.Context, userID uint, bio string) error
	UpdateUserPicture(ctx context.Context, userID uint, url string) error
	UpdateUserVerificationPhoto(ctx context.Context, userID uint, url string) error

	TownByAddress(ctx context.Context, address string) (*models.Town, error)

	// Posts. Reads apply the viewer's block lists; ownership mismatches on
	// update/delete surface as not-found.
	CreatePost(ctx context.Context, post *models.Post, images []models.PostImage) error
	PostByID(ctx context.Context, id, viewerID uint) (*models.Post, error)
	Posts(ctx context.Context, viewerID uint, opts ListPostsOptions) ([]models.Post, error)
	UpdatePost(ctx context.Context, id, authorID uint, content string, images []models.PostImage) error
	DeletePost(ctx context.Context, id, authorID uint) error
	PostImages(ctx context.Context, postID uint) ([]models.PostImage, error)
	ToggleLike(ctx context.Context, postID, userID uint) (bool, error)

	// Comment closure engine.
	AddComment(ctx context.Context, postID, authorID uint, content string, parentID *uint) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
	CommentsByPostID(ctx context.Context, postID, viewerID uint) ([]models.CommentNode, error)
	CommentByID(ctx context.Context, id, viewerID uint) (*models.Comment, error)
	CommentByIDAnyViewer(ctx context.Context, id uint) (*models.Comment, error)

	// Block toggles; the returned bool is the resulting blocked state.
	ToggleUserBlock(ctx context.Context, blockerID, targetID uint) (bool, error)
	TogglePostBlock(ctx context.Context, blockerID, postID uint) (bool, error)
	ToggleCommentBlock(ctx context.Context, blockerID, commentID uint) (bool, error)

	// Phone verification rows. ReplacePhoneVerification enforces the
	// single-live-record-per-phone invariant with a delete-then-insert.
	ReplacePhoneVerification(ctx context.Context, phone, code string, issuedAt time.Time) error
	PhoneVerificationByPhone(ctx context.Context, phone string) (*models.PhoneVerification, error)
	DeletePhoneVerification(ctx context.Context, phone string) error
}
