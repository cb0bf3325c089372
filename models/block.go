package models

import "time"

// Block relations are three independent directed pair sets. Presence of a
// pair hides the target from the blocking user's read paths.

type UserBlock struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	BlockerUserID uint      `gorm:"not null;uniqueIndex:idx_user_block_pair" json:"blocker_user_id"`
	BlockedUserID uint      `gorm:"not null;uniqueIndex:idx_user_block_pair" json:"blocked_user_id"`
}

type PostBlock struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	BlockerUserID uint      `gorm:"not null;uniqueIndex:idx_post_block_pair" json:"blocker_user_id"`
	PostID        uint      `gorm:"not null;uniqueIndex:idx_post_block_pair" json:"post_id"`
}

type CommentBlock struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	BlockerUserID uint      `gorm:"not null;uniqueIndex:idx_comment_block_pair" json:"blocker_user_id"`
	CommentID     uint      `gorm:"not null;uniqueIndex:idx_comment_block_pair" json:"comment_id"`
}
