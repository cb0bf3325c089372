package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/town-square/api-go/apperr"
)

type PostType string

const (
	PostDaily     PostType = "daily"
	PostQuestion  PostType = "question"
	PostGathering PostType = "gathering"
)

func ParsePostType(s string) (PostType, error) {
	switch PostType(s) {
	case PostDaily, PostQuestion, PostGathering:
		return PostType(s), nil
	}
	return "", fmt.Errorf("%w: unknown post type %q", apperr.ErrInvalidRequest, s)
}

type Post struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	AuthorID uint     `gorm:"not null;index" json:"author_id"`
	Author   User     `gorm:"foreignKey:AuthorID" json:"-"`
	TownID   uint     `gorm:"not null;index" json:"town_id"`
	PostType PostType `gorm:"type:varchar(20);not null" json:"post_type"`
	Content  string   `gorm:"type:text;not null" json:"content"`

	// Gathering-only fields; must be absent for other post types.
	AgeRange *string `gorm:"type:varchar(20)" json:"age_range,omitempty"`
	Capacity *int    `json:"capacity,omitempty"`
	Place    *string `json:"place,omitempty"`

	// Denormalized copy of the image URLs; post_images rows keep the object
	// keys needed for deletion.
	ImageURLs pq.StringArray `gorm:"type:text[]" json:"image_urls"`
	Images    []PostImage    `gorm:"foreignKey:PostID" json:"-"`

	LikeCount    int64 `gorm:"-" json:"like_count"`
	CommentCount int64 `gorm:"-" json:"comment_count"`
}

// ValidateGatheringFields enforces that the structured gathering fields are
// only set on gathering posts.
func (p *Post) ValidateGatheringFields() error {
	if p.PostType == PostGathering {
		return nil
	}

	if p.AgeRange != nil || p.Capacity != nil || p.Place != nil {
		return fmt.Errorf("%w: gathering fields on a %s post", apperr.ErrInvalidRequest, p.PostType)
	}

	return nil
}

type PostImage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	ObjectKey string    `gorm:"not null" json:"-"`
	ImageURL  string    `gorm:"not null" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}
