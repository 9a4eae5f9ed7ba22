package wire

import (
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var ErrUnknownActivity = errors.New("unknown activity type")

const (
	TypeFollow         = "Follow"
	TypeUnfollow       = "Unfollow"
	TypeFollowResponse = "FollowResponse"
	TypeLike           = "Like"
	TypePost           = "post"
	TypeComment        = "comment"
)

type FollowActivity struct {
	Type    string    `json:"type"`
	Summary string    `json:"summary"`
	Actor   AuthorRef `json:"actor" validate:"required"`
	Object  AuthorRef `json:"object" validate:"required"`
}

type UnfollowActivity struct {
	Type   string    `json:"type"`
	Actor  AuthorRef `json:"actor" validate:"required"`
	Object AuthorRef `json:"object" validate:"required"`
}

type FollowResponseActivity struct {
	Type     string    `json:"type"`
	Actor    AuthorRef `json:"actor" validate:"required"`
	Object   AuthorRef `json:"object" validate:"required"`
	Accepted bool      `json:"accepted"`
}

type LikeActivity struct {
	Type    string    `json:"type"`
	Summary string    `json:"summary"`
	Author  AuthorRef `json:"author" validate:"required"`
	Object  string    `json:"object" validate:"required,url"`
}

type CommentsPreview struct {
	Type     string            `json:"type"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
	Post     string            `json:"post"`
	ID       string            `json:"id"`
	Comments []CommentActivity `json:"comments"`
}

type PostActivity struct {
	Type        string    `json:"type"`
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Source      string    `json:"source" validate:"required,url"`
	Origin      string    `json:"origin" validate:"required,url"`
	ContentType string    `json:"contentType" validate:"required"`
	Content     string    `json:"content" validate:"required"`
	Author      AuthorRef `json:"author" validate:"required"`
	Categories  []string  `json:"categories,omitempty"`
	Published   time.Time `json:"published"`
	Visibility  string    `json:"visibility" validate:"required,oneof=PUBLIC FRIENDS UNLISTED"`

	Count        int              `json:"count"`
	Comments     string           `json:"comments,omitempty"`
	CommentsSrc  *CommentsPreview `json:"commentsSrc,omitempty"`
	OriginAuthor *AuthorRef       `json:"originAuthor,omitempty"`
	OriginID     string           `json:"originId,omitempty"`
}

type CommentActivity struct {
	// ID is the nested content URL: .../authors/{a}/posts/{p}/comments/{c}
	ID          string    `json:"id" validate:"required,url"`
	Type        string    `json:"type"`
	Author      AuthorRef `json:"author" validate:"required"`
	Comment     string    `json:"comment" validate:"required"`
	ContentType string    `json:"contentType" validate:"required"`
	Published   time.Time `json:"published"`
}

// Activity is the closed union of everything a node inbox accepts. Exactly
// one variant field is non-nil after a successful decode.
type Activity struct {
	Type           string
	Follow         *FollowActivity
	Unfollow       *UnfollowActivity
	FollowResponse *FollowResponseActivity
	Like           *LikeActivity
	Post           *PostActivity
	Comment        *CommentActivity
}

func DecodeActivity(raw []byte) (Activity, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := jsoniter.Unmarshal(raw, &envelope); err != nil {
		return Activity{}, fmt.Errorf("malformed activity payload: %v", err)
	}

	out := Activity{Type: envelope.Type}
	var payload any
	switch envelope.Type {
	case TypeFollow:
		out.Follow = &FollowActivity{}
		payload = out.Follow
	case TypeUnfollow:
		out.Unfollow = &UnfollowActivity{}
		payload = out.Unfollow
	case TypeFollowResponse:
		out.FollowResponse = &FollowResponseActivity{}
		payload = out.FollowResponse
	case TypeLike:
		out.Like = &LikeActivity{}
		payload = out.Like
	case TypePost:
		out.Post = &PostActivity{}
		payload = out.Post
	case TypeComment:
		out.Comment = &CommentActivity{}
		payload = out.Comment
	default:
		return Activity{}, ErrUnknownActivity
	}

	if err := jsoniter.Unmarshal(raw, payload); err != nil {
		return Activity{}, fmt.Errorf("malformed %s activity: %v", envelope.Type, err)
	}
	if err := validate.Struct(payload); err != nil {
		return Activity{}, fmt.Errorf("invalid %s activity: %v", envelope.Type, err)
	}

	return out, nil
}
