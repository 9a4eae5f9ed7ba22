package services

import (
	"context"
	"fmt"
	"time"

	localCache "github.com/deadlybird/deadlybird/pkg/internal/cache"
	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func friendshipCacheKey(authorID, otherID string) string {
	if otherID < authorID {
		authorID, otherID = otherID, authorID
	}
	return fmt.Sprintf("friendship#%s#%s", authorID, otherID)
}

// isFriendCached answers IsFriend through a short-lived cache so fanning one
// post out to many followers does not re-run the pair query per follower.
func isFriendCached(authorID, otherID string) bool {
	if localCache.S == nil {
		return IsFriend(authorID, otherID)
	}

	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)
	ctx := context.Background()

	key := friendshipCacheKey(authorID, otherID)
	if cached, err := marshal.Get(ctx, key, new(bool)); err == nil {
		return *cached.(*bool)
	}

	answer := IsFriend(authorID, otherID)
	_ = marshal.Set(ctx, key, answer,
		store.WithExpiration(time.Minute),
		store.WithTags([]string{"friendship"}),
	)
	return answer
}

func invalidateFriendship(authorID, otherID string) {
	if localCache.S == nil {
		return
	}
	cacheManager := cache.New[any](localCache.S)
	_ = cacheManager.Delete(context.Background(), friendshipCacheKey(authorID, otherID))
}

// FanOutPost delivers a freshly created or shared post to every follower
// inbox it is visible to. Remote deliveries are fire-and-forget: a failed
// peer is logged and skipped, never retried.
func FanOutPost(post models.Post, posterID string) {
	if post.Visibility == models.PostVisibilityUnlisted {
		return
	}

	var followers []models.Following
	if err := database.C.Preload("Author").
		Where("target_author_id = ?", posterID).
		Find(&followers).Error; err != nil {
		log.Error().Err(err).Str("post", post.ID).Msg("Unable to enumerate followers for fan-out...")
		return
	}

	payload := serializePostForInbox(post)

	for _, edge := range followers {
		follower := edge.Author
		if post.Visibility == models.PostVisibilityFriends && !isFriendCached(posterID, follower.ID) {
			continue
		}

		if Di.IsLocal(follower.Host) {
			err := database.C.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&models.InboxMessage{
					BaseModel:   models.BaseModel{ID: NextID()},
					AuthorID:    follower.ID,
					ContentID:   post.ID,
					ContentType: models.InboxContentPost,
				}).Error; err != nil {
					return err
				}
				return tx.Create(&models.FollowingFeedPost{
					BaseModel:    models.BaseModel{ID: NextID()},
					PostID:       post.ID,
					FollowerID:   follower.ID,
					FromAuthorID: posterID,
				}).Error
			})
			if err != nil {
				log.Warn().Err(err).Str("post", post.ID).Str("follower", follower.ID).
					Msg("Failed to write local feed entry...")
			}
			continue
		}

		status, err := DeliverActivity(follower, payload)
		if err != nil || !isSuccess(status) {
			log.Warn().Int("status", status).Str("post", post.ID).Str("follower", follower.ID).
				Msg("Failed to fan post out to remote inbox...")
		}
	}
}

// serializePostForInbox builds the wire payload used for remote deliveries.
// For a shared copy the source points at the sharer's row while the author
// is rewritten to the original author, so the receiving node can rebuild the
// whole chain from one payload.
func serializePostForInbox(post models.Post) wire.PostActivity {
	if post.OriginAuthorID != nil {
		var originAuthor models.Author
		if err := database.C.Where("id = ?", *post.OriginAuthorID).First(&originAuthor).Error; err == nil {
			rewritten := post
			rewritten.Author = originAuthor
			rewritten.AuthorID = originAuthor.ID
			return SerializePost(rewritten)
		}
	}
	return SerializePost(post)
}

// FeedForAuthor reads the materialized following feed.
func FeedForAuthor(followerID string, limit int) ([]models.FollowingFeedPost, error) {
	var entries []models.FollowingFeedPost
	tx := database.C.
		Preload("Post").
		Preload("Post.Author").
		Preload("FromAuthor").
		Where("follower_id = ?", followerID).
		Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	err := tx.Find(&entries).Error
	return entries, err
}
