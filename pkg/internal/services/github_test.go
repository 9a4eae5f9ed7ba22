package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const githubEventsFixture = `[
	{
		"id": "200",
		"type": "PushEvent",
		"actor": {"display_login": "octocat"},
		"repo": {"name": "octocat/hello"},
		"payload": {"commits": [{"message": "fix the thing"}, {"message": "add the thing"}]}
	},
	{
		"id": "100",
		"type": "WatchEvent",
		"actor": {"display_login": "octocat"},
		"repo": {"name": "torvalds/linux"},
		"payload": {}
	},
	{
		"id": "50",
		"type": "PublicEvent",
		"actor": {"display_login": "octocat"},
		"repo": {"name": "octocat/hello"},
		"payload": {}
	}
]`

func TestPollAuthorGithub(t *testing.T) {
	setupTest(t)

	var gotPath string
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(githubEventsFixture))
	}))
	defer github.Close()

	previousBase := githubAPIBase
	githubAPIBase = github.URL
	defer func() { githubAPIBase = previousBase }()

	alice := newLocalAuthor(t, "alice")
	require.NoError(t, database.C.Model(&alice).Update("github", "octocat").Error)
	alice.Github = "octocat"

	require.NoError(t, pollAuthorGithub(alice))
	assert.Equal(t, "/users/octocat/events", gotPath)

	// Push and Watch become posts, the unsupported event type is skipped.
	assert.Equal(t, int64(2), countRows(t, &models.Post{}, "author_id = ?", alice.ID))

	refreshed, err := GetAuthor(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "200", refreshed.LastGithubID)
	require.NotNil(t, refreshed.LastGithubCheck)

	// A second poll over the same events stops at the watermark.
	require.NoError(t, pollAuthorGithub(refreshed))
	assert.Equal(t, int64(2), countRows(t, &models.Post{}, "author_id = ?", alice.ID))
}

func TestDraftFromGithubEvent(t *testing.T) {
	event := githubEvent{ID: "1", Type: "WatchEvent"}
	event.Actor.DisplayLogin = "octocat"
	event.Repo.Name = "torvalds/linux"

	draft, ok := draftFromGithubEvent(event)
	require.True(t, ok)
	assert.Equal(t, "Github - Watch", draft.Title)
	assert.Equal(t, models.PostVisibilityPublic, draft.Visibility)
	assert.Equal(t, []string{"github"}, draft.Categories)
	assert.Contains(t, draft.Content, "torvalds/linux")

	event.Type = "MembershipEvent"
	_, ok = draftFromGithubEvent(event)
	assert.False(t, ok)
}

func TestPollGithubFeedsSkipsRemoteAuthors(t *testing.T) {
	setupTest(t)

	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(githubEventsFixture))
	}))
	defer github.Close()

	previousBase := githubAPIBase
	githubAPIBase = github.URL
	defer func() { githubAPIBase = previousBase }()

	remote := newRemoteAuthor(t, "https://peer.test", "r1")
	require.NoError(t, database.C.Model(&remote).Update("github", "octocat").Error)

	PollGithubFeeds()
	assert.Equal(t, int64(0), countRows(t, &models.Post{}, ""))
}
