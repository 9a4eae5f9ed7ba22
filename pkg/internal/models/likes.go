package models

const (
	LikeContentPost    = "post"
	LikeContentComment = "comment"
)

// Like records send author liking a post or comment. The composite unique
// index backstops the existence check under concurrent delivery.
type Like struct {
	BaseModel

	SendAuthorID    string `json:"send_author_id" gorm:"index;uniqueIndex:idx_like_pair"`
	SendAuthor      Author `json:"send_author"`
	ReceiveAuthorID string `json:"receive_author_id" gorm:"index"`
	ReceiveAuthor   Author `json:"receive_author"`

	ContentID   string `json:"content_id" gorm:"uniqueIndex:idx_like_pair"`
	ContentType string `json:"content_type"`
}
