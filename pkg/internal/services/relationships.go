package services

import (
	"errors"
	"fmt"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// RelayError carries the status a remote inbox answered with, so the
// original caller sees the relayed outcome instead of a local one.
type RelayError struct {
	Status int
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("remote inbox answered with status %d", e.Status)
}

// IsFriend reports mutual following. Symmetric by construction.
func IsFriend(authorID, otherID string) bool {
	var count int64
	database.C.Model(&models.Following{}).
		Where("(author_id = ? AND target_author_id = ?) OR (author_id = ? AND target_author_id = ?)",
			authorID, otherID, otherID, authorID).
		Count(&count)
	return count == 2
}

func GetFollowing(authorID string) ([]models.Following, error) {
	var edges []models.Following
	err := database.C.Preload("TargetAuthor").Where("author_id = ?", authorID).Find(&edges).Error
	return edges, err
}

func GetFollowers(authorID string) ([]models.Following, error) {
	var edges []models.Following
	err := database.C.Preload("Author").Where("target_author_id = ?", authorID).Find(&edges).Error
	return edges, err
}

func ListFollowRequests(targetID string) ([]models.FollowingRequest, error) {
	var requests []models.FollowingRequest
	err := database.C.Preload("Author").Preload("TargetAuthor").
		Where("target_author_id = ?", targetID).Find(&requests).Error
	return requests, err
}

func followingExists(authorID, targetID string) bool {
	var count int64
	database.C.Model(&models.Following{}).
		Where("author_id = ? AND target_author_id = ?", authorID, targetID).Count(&count)
	return count > 0
}

func followRequestExists(authorID, targetID string) bool {
	var count int64
	database.C.Model(&models.FollowingRequest{}).
		Where("author_id = ? AND target_author_id = ?", authorID, targetID).Count(&count)
	return count > 0
}

// Follow opens a follow request from requester to target. When the target is
// remote the Follow activity is relayed first and the local request row is
// only persisted once the peer acknowledged it.
func Follow(requester, target models.Author) (models.FollowingRequest, error) {
	var request models.FollowingRequest
	if followingExists(requester.ID, target.ID) || followRequestExists(requester.ID, target.ID) {
		return request, ErrConflict
	}

	if !Di.IsLocal(target.Host) {
		activity := wire.FollowActivity{
			Type:    wire.TypeFollow,
			Summary: fmt.Sprintf("%s wants to follow %s", requester.DisplayName, target.DisplayName),
			Actor:   LocalAuthorRef(requester),
			Object:  LocalAuthorRef(target),
		}
		status, err := DeliverActivity(target, activity)
		if err != nil || !isSuccess(status) {
			return request, &RelayError{Status: status}
		}
	}

	request = models.FollowingRequest{
		BaseModel:      models.BaseModel{ID: NextID()},
		AuthorID:       requester.ID,
		TargetAuthorID: target.ID,
	}
	err := database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		if Di.IsLocal(target.Host) {
			return tx.Create(&models.InboxMessage{
				BaseModel:   models.BaseModel{ID: NextID()},
				AuthorID:    target.ID,
				ContentID:   request.ID,
				ContentType: models.InboxContentFollow,
			}).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return request, ErrConflict
		}
		return request, fmt.Errorf("unable to create follow request: %v", err)
	}
	return request, nil
}

// deleteFollowRequest removes a request together with the inbox message
// pointing at it. This is the post-delete hook the notification index needs
// because no relational cascade covers it.
func deleteFollowRequest(tx *gorm.DB, request models.FollowingRequest) error {
	if err := tx.Where("content_type = ? AND content_id = ?", models.InboxContentFollow, request.ID).
		Delete(&models.InboxMessage{}).Error; err != nil {
		return err
	}
	return tx.Delete(&request).Error
}

// AcceptFollow turns a pending request into a following edge. When the
// requester is remote the accepting side answers their inbox with an
// accepted FollowResponse.
func AcceptFollow(requester, target models.Author) error {
	var request models.FollowingRequest
	if err := database.C.Where("author_id = ? AND target_author_id = ?", requester.ID, target.ID).
		First(&request).Error; err != nil {
		return ErrNotFound
	}

	err := database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Following{
			BaseModel:      models.BaseModel{ID: NextID()},
			AuthorID:       requester.ID,
			TargetAuthorID: target.ID,
		}).Error; err != nil {
			return err
		}
		return deleteFollowRequest(tx, request)
	})
	if err != nil {
		return fmt.Errorf("unable to accept follow: %v", err)
	}
	invalidateFriendship(requester.ID, target.ID)

	if !Di.IsLocal(requester.Host) {
		emitFollowResponse(target, requester, true)
	}
	return nil
}

// RejectFollow drops a pending request without creating an edge.
func RejectFollow(requester, target models.Author) error {
	var request models.FollowingRequest
	if err := database.C.Where("author_id = ? AND target_author_id = ?", requester.ID, target.ID).
		First(&request).Error; err != nil {
		return ErrNotFound
	}

	if err := database.C.Transaction(func(tx *gorm.DB) error {
		return deleteFollowRequest(tx, request)
	}); err != nil {
		return fmt.Errorf("unable to reject follow: %v", err)
	}

	if !Di.IsLocal(requester.Host) {
		emitFollowResponse(target, requester, false)
	}
	return nil
}

// CancelFollow withdraws the requester's own pending request. The peer that
// received the relayed Follow learns about it through an Unfollow.
func CancelFollow(requester, target models.Author) error {
	var request models.FollowingRequest
	if err := database.C.Where("author_id = ? AND target_author_id = ?", requester.ID, target.ID).
		First(&request).Error; err != nil {
		return ErrNotFound
	}

	if err := database.C.Transaction(func(tx *gorm.DB) error {
		return deleteFollowRequest(tx, request)
	}); err != nil {
		return fmt.Errorf("unable to cancel follow: %v", err)
	}

	if !Di.IsLocal(target.Host) {
		emitUnfollow(requester, target)
	}
	return nil
}

// Unfollow drops the following edge best-effort; nothing fails when the edge
// was already gone.
func Unfollow(requester, target models.Author) error {
	database.C.Where("author_id = ? AND target_author_id = ?", requester.ID, target.ID).
		Delete(&models.Following{})
	database.C.Where("post_id IN (?) AND follower_id = ?",
		database.C.Model(&models.Post{}).Select("id").Where("author_id = ?", target.ID),
		requester.ID,
	).Delete(&models.FollowingFeedPost{})
	invalidateFriendship(requester.ID, target.ID)

	if !Di.IsLocal(target.Host) {
		emitUnfollow(requester, target)
	}
	return nil
}

func emitFollowResponse(actor, object models.Author, accepted bool) {
	activity := wire.FollowResponseActivity{
		Type:     wire.TypeFollowResponse,
		Actor:    LocalAuthorRef(actor),
		Object:   LocalAuthorRef(object),
		Accepted: accepted,
	}
	if status, err := DeliverActivity(object, activity); err != nil || !isSuccess(status) {
		log.Warn().Int("status", status).
			Str("requester", object.ID).
			Bool("accepted", accepted).
			Msg("Failed to deliver follow response...")
	}
}

func emitUnfollow(actor, object models.Author) {
	activity := wire.UnfollowActivity{
		Type:   wire.TypeUnfollow,
		Actor:  LocalAuthorRef(actor),
		Object: LocalAuthorRef(object),
	}
	if status, err := DeliverActivity(object, activity); err != nil || !isSuccess(status) {
		log.Warn().Int("status", status).Str("target", object.ID).Msg("Failed to deliver unfollow...")
	}
}

// FollowerRefs resolves follower edges into wire author refs.
func FollowerRefs(edges []models.Following, pickFollower bool) []wire.AuthorRef {
	return lo.Map(edges, func(edge models.Following, _ int) wire.AuthorRef {
		if pickFollower {
			return LocalAuthorRef(edge.Author)
		}
		return LocalAuthorRef(edge.TargetAuthor)
	})
}
