package services

import (
	"fmt"
	"time"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"gorm.io/gorm"
)

func GetComment(id string) (models.Comment, error) {
	var comment models.Comment
	if err := database.C.Preload("Author").Preload("Post").
		Where("id = ?", id).First(&comment).Error; err != nil {
		return comment, ErrNotFound
	}
	return comment, nil
}

func ListPostComments(postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := database.C.Preload("Author").
		Where("post_id = ?", postID).
		Order("published_at DESC").
		Find(&comments).Error
	return comments, err
}

// CreateComment persists a comment and drops a notification pointer into the
// post author's inbox.
func CreateComment(author models.Author, post models.Post, content, contentType string, id ...string) (models.Comment, error) {
	commentID := NextID()
	if len(id) > 0 && len(id[0]) > 0 {
		commentID = id[0]
	}

	comment := models.Comment{
		BaseModel:   models.BaseModel{ID: commentID},
		PostID:      post.ID,
		AuthorID:    author.ID,
		Content:     content,
		ContentType: contentType,
		PublishedAt: time.Now(),
	}
	err := database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if post.AuthorID == author.ID {
			return nil
		}
		return tx.Create(&models.InboxMessage{
			BaseModel:   models.BaseModel{ID: NextID()},
			AuthorID:    post.AuthorID,
			ContentID:   comment.ID,
			ContentType: models.InboxContentComment,
		}).Error
	})
	if err != nil {
		return comment, fmt.Errorf("unable to create comment: %v", err)
	}
	comment.Author = author
	return comment, nil
}

// DeleteComment removes a comment, its likes, and the inbox messages
// pointing at either.
func DeleteComment(comment models.Comment) error {
	return database.C.Transaction(func(tx *gorm.DB) error {
		if err := deleteLikesOn(tx, comment.ID); err != nil {
			return err
		}
		if err := tx.Where("content_type = ? AND content_id = ?", models.InboxContentComment, comment.ID).
			Delete(&models.InboxMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
}

// SerializeComment renders the wire representation with the nested content
// URL as its id.
func SerializeComment(comment models.Comment) wire.CommentActivity {
	var post models.Post
	database.C.Preload("Author").Where("id = ?", comment.PostID).First(&post)

	id, _ := Di.ResolveRoute(post.Author.Host, "comments", map[string]string{
		"author_id": post.AuthorID,
		"post_id":   post.ID,
	})
	return wire.CommentActivity{
		ID:          id + "/" + comment.ID,
		Type:        wire.TypeComment,
		Author:      LocalAuthorRef(comment.Author),
		Comment:     comment.Content,
		ContentType: comment.ContentType,
		Published:   comment.PublishedAt,
	}
}
