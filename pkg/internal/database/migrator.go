package database

import (
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Account{},
	&models.Author{},
	&models.Node{},
	&models.Following{},
	&models.FollowingRequest{},
	&models.Post{},
	&models.Comment{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(
		append(
			AutoMaintainRange,
			&models.Like{},
			&models.InboxMessage{},
			&models.FollowingFeedPost{},
		)...,
	); err != nil {
		return err
	}

	return nil
}
