package models

// FollowingFeedPost is a materialized feed entry written once per delivery,
// so feed reads never have to walk the following graph.
type FollowingFeedPost struct {
	BaseModel

	PostID string `json:"post_id" gorm:"index;uniqueIndex:idx_feed_entry"`
	Post   Post   `json:"post"`

	FollowerID string `json:"follower_id" gorm:"index;uniqueIndex:idx_feed_entry"`
	Follower   Author `json:"follower"`

	FromAuthorID string `json:"from_author_id"`
	FromAuthor   Author `json:"from_author"`
}
