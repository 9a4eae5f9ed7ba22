package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/pemistahl/lingua-go"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PostDraft struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Content     string   `json:"content" validate:"required"`
	ContentType string   `json:"contentType" validate:"required"`
	Visibility  string   `json:"visibility" validate:"required,oneof=PUBLIC FRIENDS UNLISTED"`
	Categories  []string `json:"categories"`
}

var (
	languageDetector     lingua.LanguageDetector
	languageDetectorOnce sync.Once
)

func detectLanguage(content string) string {
	languageDetectorOnce.Do(func() {
		languageDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.French, lingua.Spanish, lingua.German,
				lingua.Chinese, lingua.Japanese, lingua.Russian,
			).
			Build()
	})
	if language, ok := languageDetector.DetectLanguageOf(content); ok {
		return language.IsoCode639_1().String()
	}
	return ""
}

func GetPost(id string) (models.Post, error) {
	var post models.Post
	if err := database.C.
		Preload("Author").
		Preload("OriginPost").
		Preload("OriginAuthor").
		Where("id = ?", id).
		First(&post).Error; err != nil {
		return post, ErrNotFound
	}
	return post, nil
}

// CreatePost persists a new original post. Origin and source both start as
// the post's own canonical URL; origin never changes again.
func CreatePost(author models.Author, draft PostDraft) (models.Post, error) {
	if err := wire.Validate(draft); err != nil {
		return models.Post{}, fmt.Errorf("invalid post draft: %v", err)
	}

	id := NextID()
	canonical, err := Di.ResolveRoute(author.Host, "post", map[string]string{
		"author_id": author.ID,
		"post_id":   id,
	})
	if err != nil {
		return models.Post{}, err
	}

	post := models.Post{
		BaseModel:   models.BaseModel{ID: id},
		AuthorID:    author.ID,
		Title:       draft.Title,
		Description: draft.Description,
		Content:     draft.Content,
		ContentType: draft.ContentType,
		Visibility:  draft.Visibility,
		Origin:      canonical,
		Source:      canonical,
		Categories:  draft.Categories,
		Language:    detectLanguage(draft.Content),
		PublishedAt: time.Now(),
	}
	if err := database.C.Create(&post).Error; err != nil {
		return post, fmt.Errorf("unable to create post: %v", err)
	}
	post.Author = author
	return post, nil
}

// SharePost creates the sharer's own copy of a post. Chains are flattened:
// sharing a share still points straight at the ultimate original.
func SharePost(sharer models.Author, post models.Post) (models.Post, error) {
	originPostID := post.ID
	originAuthorID := post.AuthorID
	if post.OriginPostID != nil {
		originPostID = *post.OriginPostID
	}
	if post.OriginAuthorID != nil {
		originAuthorID = *post.OriginAuthorID
	}

	id := NextID()
	source, err := Di.ResolveRoute(sharer.Host, "post", map[string]string{
		"author_id": sharer.ID,
		"post_id":   id,
	})
	if err != nil {
		return models.Post{}, err
	}

	shared := models.Post{
		BaseModel:      models.BaseModel{ID: id},
		AuthorID:       sharer.ID,
		Title:          post.Title,
		Description:    post.Description,
		Content:        post.Content,
		ContentType:    post.ContentType,
		Visibility:     post.Visibility,
		Origin:         post.Origin,
		Source:         source,
		OriginPostID:   &originPostID,
		OriginAuthorID: &originAuthorID,
		Categories:     post.Categories,
		Language:       post.Language,
		PublishedAt:    time.Now(),
	}
	if err := database.C.Create(&shared).Error; err != nil {
		return shared, fmt.Errorf("unable to share post: %v", err)
	}
	shared.Author = sharer
	return shared, nil
}

// UpdatePost rewrites a post's editable fields in place. Origin and source
// never move; peers that mirrored the old body keep it until re-delivery.
func UpdatePost(post models.Post, draft PostDraft) (models.Post, error) {
	if err := wire.Validate(draft); err != nil {
		return post, fmt.Errorf("invalid post draft: %v", err)
	}

	changes := map[string]any{
		"title":        draft.Title,
		"description":  draft.Description,
		"content":      draft.Content,
		"content_type": draft.ContentType,
		"visibility":   draft.Visibility,
		"categories":   datatypes.JSONSlice[string](draft.Categories),
		"language":     detectLanguage(draft.Content),
	}
	if err := database.C.Model(&post).Updates(changes).Error; err != nil {
		return post, fmt.Errorf("unable to update post: %v", err)
	}
	return GetPost(post.ID)
}

// deleteLikesOn removes every like on a piece of content together with the
// inbox messages pointing at those likes.
func deleteLikesOn(tx *gorm.DB, contentID string) error {
	var likes []models.Like
	if err := tx.Where("content_id = ?", contentID).Find(&likes).Error; err != nil {
		return err
	}
	if len(likes) == 0 {
		return nil
	}
	likeIDs := lo.Map(likes, func(like models.Like, _ int) string {
		return like.ID
	})
	if err := tx.Where("content_type = ? AND content_id IN ?", models.InboxContentLike, likeIDs).
		Delete(&models.InboxMessage{}).Error; err != nil {
		return err
	}
	return tx.Where("content_id = ?", contentID).Delete(&models.Like{}).Error
}

// DeletePost removes a post and everything that referenced it: likes on the
// post and on each of its comments, the inbox messages pointing at any of
// them, feed entries, the comments, and finally the post itself.
func DeletePost(post models.Post) error {
	return database.C.Transaction(func(tx *gorm.DB) error {
		var comments []models.Comment
		if err := tx.Where("post_id = ?", post.ID).Find(&comments).Error; err != nil {
			return err
		}
		for _, comment := range comments {
			if err := deleteLikesOn(tx, comment.ID); err != nil {
				return err
			}
			if err := tx.Where("content_type = ? AND content_id = ?", models.InboxContentComment, comment.ID).
				Delete(&models.InboxMessage{}).Error; err != nil {
				return err
			}
		}

		if err := deleteLikesOn(tx, post.ID); err != nil {
			return err
		}
		if err := tx.Where("content_type = ? AND content_id = ?", models.InboxContentPost, post.ID).
			Delete(&models.InboxMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.FollowingFeedPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		// Shared copies keep living, but their pointer at the original is
		// cleared so nothing dangles.
		if err := tx.Model(&models.Post{}).Where("origin_post_id = ?", post.ID).
			Updates(map[string]any{"origin_post_id": nil}).Error; err != nil {
			return err
		}

		return tx.Delete(&post).Error
	})
}

// ListAuthorPosts returns an author's posts, friend-gated for the viewer.
func ListAuthorPosts(authorID string, viewerID string) ([]models.Post, error) {
	canSeeFriends := authorID == viewerID || (len(viewerID) > 0 && IsFriend(authorID, viewerID))

	tx := database.C.Preload("Author").Where("author_id = ?", authorID)
	if canSeeFriends {
		tx = tx.Where("visibility != ?", models.PostVisibilityUnlisted)
	} else {
		tx = tx.Where("visibility = ?", models.PostVisibilityPublic)
	}

	var posts []models.Post
	err := tx.Order("published_at DESC").Find(&posts).Error
	return posts, err
}

// SerializePost renders the canonical wire representation of a post,
// including the inline comment preview.
func SerializePost(post models.Post) wire.PostActivity {
	var count int64
	database.C.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)

	var recent []models.Comment
	database.C.Preload("Author").
		Where("post_id = ?", post.ID).
		Order("published_at DESC").
		Limit(5).
		Find(&recent)

	out := wire.PostActivity{
		Type:        wire.TypePost,
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		Source:      post.Source,
		Origin:      post.Origin,
		ContentType: post.ContentType,
		Content:     post.Content,
		Author:      LocalAuthorRef(post.Author),
		Categories:  post.Categories,
		Published:   post.PublishedAt,
		Visibility:  post.Visibility,
		Count:       int(count),
		Comments: Di.FullAPIURL("comments", map[string]string{
			"author_id": post.AuthorID,
			"post_id":   post.ID,
		}),
		CommentsSrc: &wire.CommentsPreview{
			Type: "comments",
			Page: 1,
			Size: 5,
			Post: post.ID,
			ID:   post.ID,
			Comments: lo.Map(recent, func(comment models.Comment, _ int) wire.CommentActivity {
				return SerializeComment(comment)
			}),
		},
	}

	if post.OriginAuthor != nil {
		ref := LocalAuthorRef(*post.OriginAuthor)
		out.OriginAuthor = &ref
	}
	if post.OriginPostID != nil {
		out.OriginID = *post.OriginPostID
	}
	return out
}
