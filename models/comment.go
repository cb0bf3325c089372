package models

import "time"

// Comment is a reply in a post's thread. A comment whose author removed their
// account keeps its row with a nil AuthorID and the Deleted flag set; such a
// comment must never surface its stale content.
type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	AuthorID  *uint     `json:"author_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Deleted   bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// IsDeleted reports whether the comment is in its deleted state.
func (c *Comment) IsDeleted() bool {
	return c.Deleted || c.AuthorID == nil
}

// Sanitized returns a copy safe for serialization: a deleted comment carries
// no content and no author.
func (c Comment) Sanitized() Comment {
	if c.IsDeleted() {
		c.Content = ""
		c.AuthorID = nil
		c.Deleted = true
	}
	return c
}

// CommentClosure is one reachability pair of the transitive-closure table:
// every comment has the reflexive edge (id, id) plus one edge per ancestor.
type CommentClosure struct {
	ParentCommentID uint `gorm:"primaryKey;autoIncrement:false;index" json:"parent_comment_id"`
	ChildCommentID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"child_comment_id"`
}

// CommentNode is a comment plus the closure edge linking it to its direct
// parent, enough for a client to rebuild the thread tree. A root comment is
// its own parent.
type CommentNode struct {
	Comment
	ParentCommentID uint `json:"parent_comment_id"`
	ChildCommentID  uint `json:"child_comment_id"`
}
