package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
)

func (s *Store) ToggleUserBlock(ctx context.Context, blockerID, targetID uint) (bool, error) {
	if blockerID == targetID {
		return false, apperr.ErrInvalidRequest
	}

	blocked := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if err := tx.First(&target, targetID).Error; err != nil {
			return notFound(err, apperr.ErrUserNotFound)
		}

		var existing models.UserBlock
		err := tx.Where("blocker_user_id = ? AND blocked_user_id = ?", blockerID, targetID).First(&existing).Error
		if err == nil {
			if err := tx.Delete(&existing).Error; err != nil {
				return apperr.Database(err)
			}
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return apperr.Database(err)
		}

		if err := tx.Create(&models.UserBlock{BlockerUserID: blockerID, BlockedUserID: targetID}).Error; err != nil {
			return apperr.Database(err)
		}
		blocked = true
		return nil
	})
	return blocked, err
}

func (s *Store) TogglePostBlock(ctx context.Context, blockerID, postID uint) (bool, error) {
	blocked := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err, apperr.ErrPostNotFound)
		}

		var existing models.PostBlock
		err := tx.Where("blocker_user_id = ? AND post_id = ?", blockerID, postID).First(&existing).Error
		if err == nil {
			if err := tx.Delete(&existing).Error; err != nil {
				return apperr.Database(err)
			}
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return apperr.Database(err)
		}

		if err := tx.Create(&models.PostBlock{BlockerUserID: blockerID, PostID: postID}).Error; err != nil {
			return apperr.Database(err)
		}
		blocked = true
		return nil
	})
	return blocked, err
}

func (s *Store) ToggleCommentBlock(ctx context.Context, blockerID, commentID uint) (bool, error) {
	blocked := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Un-blocking must reach content the block itself hides.
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return notFound(err, apperr.ErrCommentNotFound)
		}

		var existing models.CommentBlock
		err := tx.Where("blocker_user_id = ? AND comment_id = ?", blockerID, commentID).First(&existing).Error
		if err == nil {
			if err := tx.Delete(&existing).Error; err != nil {
				return apperr.Database(err)
			}
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return apperr.Database(err)
		}

		if err := tx.Create(&models.CommentBlock{BlockerUserID: blockerID, CommentID: commentID}).Error; err != nil {
			return apperr.Database(err)
		}
		blocked = true
		return nil
	})
	return blocked, err
}
