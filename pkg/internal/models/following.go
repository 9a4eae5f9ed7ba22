package models

// Following is a one-directional edge: author follows target. Friendship is
// two edges, one in each direction.
type Following struct {
	BaseModel

	AuthorID string `json:"author_id" gorm:"index;uniqueIndex:idx_following_pair"`
	Author   Author `json:"author"`

	TargetAuthorID string `json:"target_author_id" gorm:"index;uniqueIndex:idx_following_pair"`
	TargetAuthor   Author `json:"target_author"`
}

// FollowingRequest is a pending follow waiting on the target's decision.
type FollowingRequest struct {
	BaseModel

	AuthorID string `json:"author_id" gorm:"index;uniqueIndex:idx_following_request_pair"`
	Author   Author `json:"author"`

	TargetAuthorID string `json:"target_author_id" gorm:"index;uniqueIndex:idx_following_request_pair"`
	TargetAuthor   Author `json:"target_author"`
}
