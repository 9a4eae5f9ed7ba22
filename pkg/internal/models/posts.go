package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PostVisibilityPublic   = "PUBLIC"
	PostVisibilityFriends  = "FRIENDS"
	PostVisibilityUnlisted = "UNLISTED"
)

const (
	ContentTypeMarkdown  = "text/markdown"
	ContentTypePlain     = "text/plain"
	ContentTypeBase64    = "application/base64"
	ContentTypePngBase64 = "image/png;base64"
	ContentTypeJpgBase64 = "image/jpeg;base64"
)

type Post struct {
	BaseModel

	AuthorID string `json:"author_id" gorm:"index"`
	Author   Author `json:"author"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	Visibility  string `json:"visibility" gorm:"index"`

	// Origin is the URL of the eternal original and never changes after
	// creation. Source is the URL of the specific copy this row came from
	// and moves with every share hop.
	Origin string `json:"origin"`
	Source string `json:"source"`

	// Non-nil OriginPostID marks this row as a shared copy. Share chains are
	// flattened, so both always point at the ultimate original.
	OriginPostID   *string `json:"origin_post_id"`
	OriginPost     *Post   `json:"origin_post" gorm:"foreignKey:OriginPostID"`
	OriginAuthorID *string `json:"origin_author_id"`
	OriginAuthor   *Author `json:"origin_author" gorm:"foreignKey:OriginAuthorID"`

	Categories datatypes.JSONSlice[string] `json:"categories"`
	Language   string                      `json:"language"`

	PublishedAt time.Time `json:"published_at" gorm:"index"`
}

type Comment struct {
	BaseModel

	PostID string `json:"post_id" gorm:"index"`
	Post   Post   `json:"post"`

	AuthorID string `json:"author_id"`
	Author   Author `json:"author"`

	Content     string `json:"content"`
	ContentType string `json:"content_type"`

	PublishedAt time.Time `json:"published_at"`
}
