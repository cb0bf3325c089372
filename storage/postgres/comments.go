package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
	"github.com/town-square/api-go/storage"
)

// AddComment inserts the comment row and extends the closure table in one
// transaction: the new node inherits every ancestor edge of its parent plus
// the reflexive edge. A top-level comment is its own parent, so the ancestor
// copy is a no-op and only the reflexive edge lands.
func (s *Store) AddComment(ctx context.Context, postID, authorID uint, content string, parentID *uint) (*models.Comment, error) {
	comment := &models.Comment{PostID: postID, AuthorID: &authorID, Content: content}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err, apperr.ErrPostNotFound)
		}

		if parentID != nil {
			var parent models.Comment
			if err := tx.First(&parent, *parentID).Error; err != nil {
				return notFound(err, apperr.ErrCommentNotFound)
			}
			// A reply must stay within its parent's post.
			if parent.PostID != postID {
				return apperr.ErrInvalidRequest
			}
		}

		if err := tx.Create(comment).Error; err != nil {
			return apperr.Database(err)
		}

		parent := comment.ID
		if parentID != nil {
			parent = *parentID
		}

		err := tx.Exec(`INSERT INTO comment_closures (parent_comment_id, child_comment_id)
SELECT parent_comment_id, ? FROM comment_closures WHERE child_comment_id = ?
UNION ALL SELECT ?, ?`,
			comment.ID, parent, comment.ID, comment.ID).Error
		if err != nil {
			return apperr.Database(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// DeleteComment removes the whole subtree rooted at the comment: every
// closure edge touching a descendant and every descendant comment row,
// atomically. No orphaned comment rows survive.
func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			return notFound(err, apperr.ErrCommentNotFound)
		}

		var descendants []uint
		err := tx.Model(&models.CommentClosure{}).
			Where("parent_comment_id = ?", id).
			Pluck("child_comment_id", &descendants).Error
		if err != nil {
			return apperr.Database(err)
		}

		if err := tx.Where("child_comment_id IN ?", descendants).Delete(&models.CommentClosure{}).Error; err != nil {
			return apperr.Database(err)
		}
		if err := tx.Where("comment_id IN ?", descendants).Delete(&models.CommentBlock{}).Error; err != nil {
			return apperr.Database(err)
		}
		if err := tx.Where("id IN ?", descendants).Delete(&models.Comment{}).Error; err != nil {
			return apperr.Database(err)
		}

		return nil
	})
}

// CommentsByPostID reads the visible comments and the closure edges inside
// one transaction, so a concurrent subtree delete cannot strand a comment
// without its ancestor set.
func (s *Store) CommentsByPostID(ctx context.Context, postID, viewerID uint) ([]models.CommentNode, error) {
	var comments []models.Comment
	var edges []models.CommentClosure

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("post_id = ?", postID).
			Where("id NOT IN (SELECT comment_id FROM comment_blocks WHERE blocker_user_id = ?)", viewerID).
			Where("author_id IS NULL OR author_id NOT IN (SELECT blocked_user_id FROM user_blocks WHERE blocker_user_id = ?)", viewerID).
			Order("created_at ASC, id ASC").
			Find(&comments).Error
		if err != nil {
			return apperr.Database(err)
		}

		// Edges for the whole post, not just the visible comments: the direct
		// parent derivation needs complete ancestor sets.
		err = tx.
			Where("child_comment_id IN (SELECT id FROM comments WHERE post_id = ?)", postID).
			Find(&edges).Error
		if err != nil {
			return apperr.Database(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return storage.BuildCommentNodes(comments, edges), nil
}

func (s *Store) CommentByID(ctx context.Context, id, viewerID uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Where("id NOT IN (SELECT comment_id FROM comment_blocks WHERE blocker_user_id = ?)", viewerID).
		Where("author_id IS NULL OR author_id NOT IN (SELECT blocked_user_id FROM user_blocks WHERE blocker_user_id = ?)", viewerID).
		First(&comment).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrCommentNotFound)
	}
	return &comment, nil
}

// CommentByIDAnyViewer skips the block-list filter. Needed by flows that
// operate on content the viewer has hidden, such as un-blocking it.
func (s *Store) CommentByIDAnyViewer(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrCommentNotFound)
	}
	return &comment, nil
}
