package services

import (
	"errors"
	"fmt"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// CreateLike records sender liking a piece of content and notifies its
// owner. At most one like per (sender, content) pair ever exists.
func CreateLike(sender models.Author, receiveAuthorID, contentID, contentType string) (models.Like, error) {
	var existing int64
	database.C.Model(&models.Like{}).
		Where("send_author_id = ? AND content_id = ?", sender.ID, contentID).
		Count(&existing)
	if existing > 0 {
		return models.Like{}, ErrConflict
	}

	like := models.Like{
		BaseModel:       models.BaseModel{ID: NextID()},
		SendAuthorID:    sender.ID,
		ReceiveAuthorID: receiveAuthorID,
		ContentID:       contentID,
		ContentType:     contentType,
	}
	err := database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		if receiveAuthorID == sender.ID {
			return nil
		}
		return tx.Create(&models.InboxMessage{
			BaseModel:   models.BaseModel{ID: NextID()},
			AuthorID:    receiveAuthorID,
			ContentID:   like.ID,
			ContentType: models.InboxContentLike,
		}).Error
	})
	if err != nil {
		// The unique pair index turns a lost check-then-act race into a
		// conflict instead of a duplicate row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return like, ErrConflict
		}
		return like, fmt.Errorf("unable to create like: %v", err)
	}
	like.SendAuthor = sender
	return like, nil
}

// DeleteLike removes a like together with its inbox pointer.
func DeleteLike(like models.Like) error {
	return database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_type = ? AND content_id = ?", models.InboxContentLike, like.ID).
			Delete(&models.InboxMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&like).Error
	})
}

func ListLikesOn(contentID, contentType string) ([]models.Like, error) {
	var likes []models.Like
	err := database.C.Preload("SendAuthor").
		Where("content_id = ? AND content_type = ?", contentID, contentType).
		Order("created_at ASC").
		Find(&likes).Error
	return likes, err
}

func ListAuthorLiked(authorID string) ([]models.Like, error) {
	var likes []models.Like
	err := database.C.Preload("SendAuthor").
		Where("send_author_id = ?", authorID).
		Order("created_at ASC").
		Find(&likes).Error
	return likes, err
}

// SerializeLike renders a like as the wire activity, object pointing at the
// liked content's canonical URL.
func SerializeLike(like models.Like) wire.LikeActivity {
	object := likedContentURL(like)
	return wire.LikeActivity{
		Type:    wire.TypeLike,
		Summary: fmt.Sprintf("%s liked your %s", like.SendAuthor.DisplayName, like.ContentType),
		Author:  LocalAuthorRef(like.SendAuthor),
		Object:  object,
	}
}

func likedContentURL(like models.Like) string {
	if like.ContentType == models.LikeContentComment {
		comment, err := GetComment(like.ContentID)
		if err != nil {
			return ""
		}
		post, err := GetPost(comment.PostID)
		if err != nil {
			return ""
		}
		url, _ := Di.ResolveRoute(post.Author.Host, "comments", map[string]string{
			"author_id": post.AuthorID,
			"post_id":   post.ID,
		})
		return url + "/" + comment.ID
	}

	post, err := GetPost(like.ContentID)
	if err != nil {
		return ""
	}
	url, _ := Di.ResolveRoute(post.Author.Host, "post", map[string]string{
		"author_id": post.AuthorID,
		"post_id":   post.ID,
	})
	return url
}

func SerializeLikes(likes []models.Like) []wire.LikeActivity {
	return lo.Map(likes, func(like models.Like, _ int) wire.LikeActivity {
		return SerializeLike(like)
	})
}
