package wire

// AuthorPage is the pagination envelope peer nodes serve their author roster
// in, consumed during node registration.
type AuthorPage struct {
	Type  string      `json:"type"`
	Next  string      `json:"next"`
	Prev  string      `json:"prev"`
	Items []AuthorRef `json:"items"`
}

// FollowerList wraps follower/following query results.
type FollowerList struct {
	Type  string      `json:"type"`
	Items []AuthorRef `json:"items"`
}

// LikeList wraps like query results.
type LikeList struct {
	Type  string         `json:"type"`
	Items []LikeActivity `json:"items"`
}
