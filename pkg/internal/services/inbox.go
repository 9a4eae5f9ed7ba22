package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// HandleActivity is the single entry point for all inbound federation
// traffic. It dispatches on the activity type and returns the HTTP status
// the delivering node should see. Malformed payloads never cause partial
// writes.
func HandleActivity(recipient models.Author, raw []byte) (int, error) {
	activity, err := wire.DecodeActivity(raw)
	if err != nil {
		return http.StatusBadRequest, err
	}

	switch activity.Type {
	case wire.TypeFollow:
		return handleFollowActivity(*activity.Follow)
	case wire.TypeUnfollow:
		return handleUnfollowActivity(*activity.Unfollow)
	case wire.TypeFollowResponse:
		return handleFollowResponseActivity(*activity.FollowResponse)
	case wire.TypeLike:
		return handleLikeActivity(*activity.Like)
	case wire.TypePost:
		return handlePostActivity(recipient, *activity.Post)
	case wire.TypeComment:
		return handleCommentActivity(*activity.Comment)
	default:
		return http.StatusBadRequest, wire.ErrUnknownActivity
	}
}

func handleFollowActivity(activity wire.FollowActivity) (int, error) {
	target, err := GetAuthor(activity.Object.LocalID())
	if err != nil {
		return http.StatusNotFound, fmt.Errorf("follow target unknown on this node")
	}

	actor, err := ResolveOrCreateAuthor(activity.Actor)
	if err != nil {
		return http.StatusBadRequest, err
	}

	// A still-standing edge means the peer unfollowed at some point without
	// us noticing. Drop the stale edge and treat this as a fresh request.
	if followingExists(actor.ID, target.ID) {
		database.C.Where("author_id = ? AND target_author_id = ?", actor.ID, target.ID).
			Delete(&models.Following{})
		invalidateFriendship(actor.ID, target.ID)
	}

	if followRequestExists(actor.ID, target.ID) {
		return http.StatusConflict, ErrConflict
	}

	if !Di.IsLocal(target.Host) {
		status, err := DeliverActivity(target, activity)
		if err != nil || !isSuccess(status) {
			return status, &RelayError{Status: status}
		}
	}

	request := models.FollowingRequest{
		BaseModel:      models.BaseModel{ID: NextID()},
		AuthorID:       actor.ID,
		TargetAuthorID: target.ID,
	}
	err = database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		return tx.Create(&models.InboxMessage{
			BaseModel:   models.BaseModel{ID: NextID()},
			AuthorID:    target.ID,
			ContentID:   request.ID,
			ContentType: models.InboxContentFollow,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return http.StatusConflict, ErrConflict
		}
		return http.StatusInternalServerError, fmt.Errorf("unable to create follow request: %v", err)
	}
	return http.StatusCreated, nil
}

func handleUnfollowActivity(activity wire.UnfollowActivity) (int, error) {
	actorID := activity.Actor.LocalID()
	objectID := activity.Object.LocalID()

	database.C.Where("author_id = ? AND target_author_id = ?", actorID, objectID).
		Delete(&models.Following{})
	invalidateFriendship(actorID, objectID)

	return http.StatusNoContent, nil
}

func handleFollowResponseActivity(activity wire.FollowResponseActivity) (int, error) {
	responder, err := GetAuthor(activity.Actor.LocalID())
	if err != nil {
		return http.StatusNotFound, fmt.Errorf("responding author unknown on this node")
	}
	requester, err := GetAuthor(activity.Object.LocalID())
	if err != nil {
		return http.StatusNotFound, fmt.Errorf("requesting author unknown on this node")
	}

	if activity.Accepted && !followingExists(requester.ID, responder.ID) {
		if err := database.C.Create(&models.Following{
			BaseModel:      models.BaseModel{ID: NextID()},
			AuthorID:       requester.ID,
			TargetAuthorID: responder.ID,
		}).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return http.StatusInternalServerError, err
		}
		invalidateFriendship(requester.ID, responder.ID)
	}

	var request models.FollowingRequest
	if err := database.C.Where("author_id = ? AND target_author_id = ?", requester.ID, responder.ID).
		First(&request).Error; err == nil {
		if err := database.C.Transaction(func(tx *gorm.DB) error {
			return deleteFollowRequest(tx, request)
		}); err != nil {
			return http.StatusInternalServerError, err
		}
	}

	return http.StatusNoContent, nil
}

func handleLikeActivity(activity wire.LikeActivity) (int, error) {
	sender, err := ResolveOrCreateAuthor(activity.Author)
	if err != nil {
		return http.StatusBadRequest, err
	}

	contentType, contentID, err := parseLikedObject(activity.Object)
	if err != nil {
		return http.StatusBadRequest, err
	}

	var owner models.Author
	var origin string
	switch contentType {
	case models.LikeContentComment:
		comment, err := GetComment(contentID)
		if err != nil {
			return http.StatusNotFound, err
		}
		post, err := GetPost(comment.PostID)
		if err != nil {
			return http.StatusNotFound, err
		}
		owner, origin = comment.Author, post.Origin
	default:
		post, err := GetPost(contentID)
		if err != nil {
			return http.StatusNotFound, err
		}
		owner, origin = post.Author, post.Origin
	}

	// Authority over likes sits with the content's origin node; forward the
	// activity there but keep a local copy so "liked" queries answered here
	// stay correct.
	if originHost, err := Di.Canonicalize(origin); err == nil && !Di.IsLocal(originHost) {
		if status, err := DeliverActivity(owner, activity); err != nil || !isSuccess(status) {
			log.Warn().Int("status", status).Str("object", activity.Object).
				Msg("Failed to relay like to origin node...")
		}
	}

	if _, err := CreateLike(sender, owner.ID, contentID, contentType); err != nil {
		if errors.Is(err, ErrConflict) {
			return http.StatusConflict, err
		}
		return http.StatusInternalServerError, err
	}
	return http.StatusCreated, nil
}

// parseLikedObject recovers the content kind and id from the trailing path
// segments of a liked object URL.
func parseLikedObject(object string) (string, string, error) {
	segments := wire.PathSegments(object)
	if len(segments) < 2 {
		return "", "", fmt.Errorf("unparseable like object: %s", object)
	}
	kind := segments[len(segments)-2]
	id := segments[len(segments)-1]
	switch kind {
	case "comments":
		return models.LikeContentComment, id, nil
	case "posts":
		return models.LikeContentPost, id, nil
	default:
		return "", "", fmt.Errorf("like object is neither post nor comment: %s", object)
	}
}

func handlePostActivity(recipient models.Author, activity wire.PostActivity) (int, error) {
	author, err := ResolveOrCreateAuthor(activity.Author)
	if err != nil {
		return http.StatusBadRequest, err
	}

	originID := wire.TrailingSegment(activity.Origin)
	deliveredAuthorID := author.ID

	if originID == activity.ID {
		// Original post: the delivered id is the one encoded in origin.
		if err := createPostIfAbsent(postFromWire(activity, author.ID, nil, nil)); err != nil {
			return http.StatusInternalServerError, err
		}
	} else {
		originAuthor, err := resolveOriginAuthor(activity, author)
		if err != nil {
			return http.StatusBadRequest, err
		}

		original := postFromWire(activity, originAuthor.ID, nil, nil)
		original.ID = originID
		original.Source = activity.Origin
		if err := createPostIfAbsent(original); err != nil {
			return http.StatusInternalServerError, err
		}

		sharer := resolveSourceAuthor(activity, author)
		shared := postFromWire(activity, sharer.ID, &originID, &originAuthor.ID)
		if err := createPostIfAbsent(shared); err != nil {
			return http.StatusInternalServerError, err
		}
		deliveredAuthorID = sharer.ID
	}

	err = database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.InboxMessage{
			BaseModel:   models.BaseModel{ID: NextID()},
			AuthorID:    recipient.ID,
			ContentID:   activity.ID,
			ContentType: models.InboxContentPost,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.FollowingFeedPost{
			BaseModel:    models.BaseModel{ID: NextID()},
			PostID:       activity.ID,
			FollowerID:   recipient.ID,
			FromAuthorID: deliveredAuthorID,
		}).Error
	})
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return http.StatusInternalServerError, err
	}

	return http.StatusCreated, nil
}

func postFromWire(activity wire.PostActivity, authorID string, originPostID, originAuthorID *string) models.Post {
	return models.Post{
		BaseModel:      models.BaseModel{ID: activity.ID},
		AuthorID:       authorID,
		Title:          activity.Title,
		Description:    activity.Description,
		Content:        activity.Content,
		ContentType:    activity.ContentType,
		Visibility:     activity.Visibility,
		Origin:         activity.Origin,
		Source:         activity.Source,
		OriginPostID:   originPostID,
		OriginAuthorID: originAuthorID,
		Categories:     activity.Categories,
		PublishedAt:    activity.Published,
	}
}

func createPostIfAbsent(post models.Post) error {
	var count int64
	database.C.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
	if count > 0 {
		return nil
	}
	if err := database.C.Create(&post).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("unable to mirror delivered post: %v", err)
	}
	return nil
}

// resolveOriginAuthor finds the ultimate original's author, preferring the
// embedded payload and falling back to fetching the profile from the origin
// node when it was never sighted here.
func resolveOriginAuthor(activity wire.PostActivity, fallback models.Author) (models.Author, error) {
	if activity.OriginAuthor != nil {
		return ResolveOrCreateAuthor(*activity.OriginAuthor)
	}

	segments := wire.PathSegments(activity.Origin)
	authorID := segmentAfter(segments, "authors")
	if len(authorID) == 0 {
		return fallback, nil
	}
	if author, err := GetAuthor(authorID); err == nil {
		return author, nil
	}

	originHost, err := Di.Canonicalize(activity.Origin)
	if err != nil {
		return fallback, nil
	}
	author, err := FetchRemoteAuthor(originHost, authorID)
	if err != nil {
		log.Warn().Err(err).Str("host", originHost).Str("author", authorID).
			Msg("Unable to fetch origin author profile, keeping payload author...")
		return fallback, nil
	}
	return author, nil
}

func resolveSourceAuthor(activity wire.PostActivity, fallback models.Author) models.Author {
	segments := wire.PathSegments(activity.Source)
	authorID := segmentAfter(segments, "authors")
	if len(authorID) == 0 || authorID == fallback.ID {
		return fallback
	}
	if author, err := GetAuthor(authorID); err == nil {
		return author
	}
	if sourceHost, err := Di.Canonicalize(activity.Source); err == nil {
		if author, err := FetchRemoteAuthor(sourceHost, authorID); err == nil {
			return author
		}
	}
	return fallback
}

func segmentAfter(segments []string, marker string) string {
	for idx, segment := range segments {
		if segment == marker && idx+1 < len(segments) {
			return segments[idx+1]
		}
	}
	return ""
}

func handleCommentActivity(activity wire.CommentActivity) (int, error) {
	segments := wire.PathSegments(activity.ID)
	postID := segmentAfter(segments, "posts")
	commentID := segmentAfter(segments, "comments")
	if len(postID) == 0 {
		return http.StatusBadRequest, fmt.Errorf("comment id does not encode a post: %s", activity.ID)
	}

	post, err := GetPost(postID)
	if err != nil {
		return http.StatusNotFound, err
	}

	// Comments live on the origin node; a copy-holding node just forwards.
	if originHost, err := Di.Canonicalize(post.Origin); err == nil && !Di.IsLocal(originHost) {
		status, err := DeliverActivity(post.Author, activity)
		if err != nil || !isSuccess(status) {
			return status, &RelayError{Status: status}
		}
		return status, nil
	}

	author, err := ResolveOrCreateAuthor(activity.Author)
	if err != nil {
		return http.StatusBadRequest, err
	}

	if _, err := CreateComment(author, post, activity.Comment, activity.ContentType, commentID); err != nil {
		return http.StatusInternalServerError, err
	}
	return http.StatusCreated, nil
}
