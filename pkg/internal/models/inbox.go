package models

const (
	InboxContentPost    = "post"
	InboxContentFollow  = "follow"
	InboxContentLike    = "like"
	InboxContentComment = "comment"
)

// InboxMessage is a notification pointer into another table, never the
// content itself. Rows are cleaned up manually whenever their referent is
// deleted; there is no relational cascade backing them.
type InboxMessage struct {
	BaseModel

	AuthorID string `json:"author_id" gorm:"index"`
	Author   Author `json:"author"`

	ContentID   string `json:"content_id" gorm:"index"`
	ContentType string `json:"content_type"`
}
