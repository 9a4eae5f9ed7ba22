package services

import (
	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
)

func ListInbox(authorID string, take, offset int) ([]models.InboxMessage, error) {
	if take <= 0 || take > 100 {
		take = 20
	}
	var messages []models.InboxMessage
	err := database.C.
		Where("author_id = ?", authorID).
		Order("created_at ASC").
		Limit(take).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

func ClearInbox(authorID string) error {
	return database.C.Where("author_id = ?", authorID).Delete(&models.InboxMessage{}).Error
}

type followRequestEnvelope struct {
	Type         string         `json:"type"`
	RequestID    string         `json:"request_id"`
	Author       wire.AuthorRef `json:"author"`
	TargetAuthor wire.AuthorRef `json:"target_author"`
}

// RenderInboxMessage resolves a notification pointer into the full wire
// representation of whatever it points at. The second return is false when
// the referent is gone.
func RenderInboxMessage(message models.InboxMessage) (any, bool) {
	switch message.ContentType {
	case models.InboxContentPost:
		post, err := GetPost(message.ContentID)
		if err != nil {
			return nil, false
		}
		return SerializePost(post), true
	case models.InboxContentFollow:
		var request models.FollowingRequest
		if err := database.C.Preload("Author").Preload("TargetAuthor").
			Where("id = ?", message.ContentID).First(&request).Error; err != nil {
			return nil, false
		}
		return followRequestEnvelope{
			Type:         "follow_request",
			RequestID:    request.ID,
			Author:       LocalAuthorRef(request.Author),
			TargetAuthor: LocalAuthorRef(request.TargetAuthor),
		}, true
	case models.InboxContentLike:
		var like models.Like
		if err := database.C.Preload("SendAuthor").
			Where("id = ?", message.ContentID).First(&like).Error; err != nil {
			return nil, false
		}
		return SerializeLike(like), true
	case models.InboxContentComment:
		comment, err := GetComment(message.ContentID)
		if err != nil {
			return nil, false
		}
		return SerializeComment(comment), true
	}
	return nil, false
}
