package services

import (
	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/rs/zerolog/log"
)

// DoAutoDatabaseCleanup sweeps inbox messages whose referent disappeared.
// The manual cascades already cover the normal paths; this catches rows
// orphaned by crashes between a delete and its cleanup.
func DoAutoDatabaseCleanup() {
	var count int64

	referents := map[string]any{
		models.InboxContentPost:    &models.Post{},
		models.InboxContentFollow:  &models.FollowingRequest{},
		models.InboxContentLike:    &models.Like{},
		models.InboxContentComment: &models.Comment{},
	}

	for contentType, model := range referents {
		result := database.C.
			Where("content_type = ?", contentType).
			Where("content_id NOT IN (?)", database.C.Model(model).Select("id")).
			Delete(&models.InboxMessage{})
		if result.Error != nil {
			log.Error().Err(result.Error).Str("type", contentType).
				Msg("Failed to sweep orphaned inbox messages...")
			continue
		}
		count += result.RowsAffected
	}

	if count > 0 {
		log.Info().Int64("count", count).Msg("Swept orphaned inbox messages.")
	}
}
