package postgres

import (
	"context"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
	"github.com/town-square/api-go/storage"
)

func (s *Store) CreatePost(ctx context.Context, post *models.Post, images []models.PostImage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return apperr.Database(err)
		}
		return replaceImages(tx, post, images)
	})
}

func (s *Store) PostByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := s.visiblePosts(ctx, viewerID).Where("posts.id = ?", id).First(&post).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrPostNotFound)
	}

	if err := s.attachCounts(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) Posts(ctx context.Context, viewerID uint, opts storage.ListPostsOptions) ([]models.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = storage.DefaultPostPageSize
	}

	query := s.visiblePosts(ctx, viewerID).Order("posts.id DESC").Limit(limit)
	if opts.LastID > 0 {
		query = query.Where("posts.id < ?", opts.LastID)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, apperr.Database(err)
	}

	refs := make([]*models.Post, len(posts))
	for i := range posts {
		refs[i] = &posts[i]
	}
	if err := s.attachCounts(ctx, refs); err != nil {
		return nil, err
	}

	return posts, nil
}

func (s *Store) UpdatePost(ctx context.Context, id, authorID uint, content string, images []models.PostImage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return notFound(err, apperr.ErrPostNotFound)
		}
		// Ownership mismatch surfaces as not-found to hide existence.
		if post.AuthorID != authorID {
			return apperr.ErrPostNotFound
		}

		if err := tx.Model(&post).Update("content", content).Error; err != nil {
			return apperr.Database(err)
		}

		return replaceImages(tx, &post, images)
	})
}

func (s *Store) DeletePost(ctx context.Context, id, authorID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return notFound(err, apperr.ErrPostNotFound)
		}
		if post.AuthorID != authorID {
			return apperr.ErrPostNotFound
		}

		// Drop the post's comment thread and its closure edges with it.
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return apperr.Database(err)
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("child_comment_id IN ?", commentIDs).Delete(&models.CommentClosure{}).Error; err != nil {
				return apperr.Database(err)
			}
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentBlock{}).Error; err != nil {
				return apperr.Database(err)
			}
			if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
				return apperr.Database(err)
			}
		}

		for _, m := range []interface{}{&models.PostImage{}, &models.Like{}, &models.PostBlock{}} {
			if err := tx.Where("post_id = ?", id).Delete(m).Error; err != nil {
				return apperr.Database(err)
			}
		}

		if err := tx.Unscoped().Delete(&post).Error; err != nil {
			return apperr.Database(err)
		}
		return nil
	})
}

func (s *Store) PostImages(ctx context.Context, postID uint) ([]models.PostImage, error) {
	var images []models.PostImage
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Find(&images).Error; err != nil {
		return nil, apperr.Database(err)
	}
	return images, nil
}

func (s *Store) ToggleLike(ctx context.Context, postID, userID uint) (bool, error) {
	liked := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err, apperr.ErrPostNotFound)
		}

		var existing models.Like
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		if err == nil {
			if err := tx.Delete(&existing).Error; err != nil {
				return apperr.Database(err)
			}
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return apperr.Database(err)
		}

		if err := tx.Create(&models.Like{PostID: postID, UserID: userID}).Error; err != nil {
			return apperr.Database(err)
		}
		liked = true
		return nil
	})
	return liked, err
}

// visiblePosts is the base read query with the viewer's block lists applied:
// posts the viewer blocked and posts whose author the viewer blocked are
// excluded.
func (s *Store) visiblePosts(ctx context.Context, viewerID uint) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Post{}).
		Where("posts.id NOT IN (SELECT post_id FROM post_blocks WHERE blocker_user_id = ?)", viewerID).
		Where("posts.author_id NOT IN (SELECT blocked_user_id FROM user_blocks WHERE blocker_user_id = ?)", viewerID)
}

func (s *Store) attachCounts(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	byID := make(map[uint]*models.Post, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	type countRow struct {
		PostID uint
		N      int64
	}

	var likeRows []countRow
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&likeRows).Error
	if err != nil {
		return apperr.Database(err)
	}
	for _, row := range likeRows {
		byID[row.PostID].LikeCount = row.N
	}

	var commentRows []countRow
	err = s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&commentRows).Error
	if err != nil {
		return apperr.Database(err)
	}
	for _, row := range commentRows {
		byID[row.PostID].CommentCount = row.N
	}

	return nil
}

func replaceImages(tx *gorm.DB, post *models.Post, images []models.PostImage) error {
	if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostImage{}).Error; err != nil {
		return apperr.Database(err)
	}

	urls := make(pq.StringArray, 0, len(images))
	for i := range images {
		images[i].PostID = post.ID
		urls = append(urls, images[i].ImageURL)
	}

	if len(images) > 0 {
		if err := tx.Create(&images).Error; err != nil {
			return apperr.Database(err)
		}
	}

	post.ImageURLs = urls
	if err := tx.Model(post).Update("image_urls", urls).Error; err != nil {
		return apperr.Database(err)
	}
	return nil
}
