package services

import (
	"path/filepath"
	"testing"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSiteHost = "https://social.test"

// setupTest points the global database at a throwaway sqlite file and
// resets the domain resolver. Each test gets a fresh schema.
func setupTest(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigration(db))
	database.C = db

	Di = NewDomain(DeploymentConfig{SiteHost: testSiteHost})
}

func newLocalAuthor(t *testing.T, username string) models.Author {
	t.Helper()
	author, err := CreateLocalAuthor(username, username+"@social.test", "open sesame")
	require.NoError(t, err)
	return author
}

func remoteAuthorRef(host, id string) wire.AuthorRef {
	return wire.AuthorRef{
		Type:        "author",
		ID:          host + "/api/authors/" + id,
		Host:        host,
		DisplayName: "peer-" + id,
		URL:         host + "/api/authors/" + id,
	}
}

func newRemoteAuthor(t *testing.T, host, id string) models.Author {
	t.Helper()
	author, err := ResolveOrCreateAuthor(remoteAuthorRef(host, id))
	require.NoError(t, err)
	return author
}

func mustFollow(t *testing.T, follower, target models.Author) {
	t.Helper()
	require.NoError(t, database.C.Create(&models.Following{
		BaseModel:      models.BaseModel{ID: NextID()},
		AuthorID:       follower.ID,
		TargetAuthorID: target.ID,
	}).Error)
}

func countRows(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	tx := database.C.Model(model)
	if len(query) > 0 {
		tx = tx.Where(query, args...)
	}
	require.NoError(t, tx.Count(&count).Error)
	return count
}
