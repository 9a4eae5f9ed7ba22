package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// githubAPIBase is swapped for an httptest server in tests.
var githubAPIBase = "https://api.github.com"

type githubEvent struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Actor struct {
		DisplayLogin string `json:"display_login"`
	} `json:"actor"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		RefType string `json:"ref_type"`
		Ref     string `json:"ref"`
		Forkee  struct {
			HTMLURL string `json:"html_url"`
		} `json:"forkee"`
		Commits []struct {
			Message string `json:"message"`
		} `json:"commits"`
	} `json:"payload"`
}

// PollGithubFeeds republishes each local author's recent GitHub activity as
// posts. One bounded batch per tick, single-threaded, with a per-author
// watermark so a tick that re-reads old events creates nothing twice.
func PollGithubFeeds() {
	batch := viper.GetInt("github.batch")
	if batch <= 0 {
		batch = 10
	}

	var authors []models.Author
	if err := database.C.
		Where("github != ''").
		Order("last_github_check ASC NULLS FIRST").
		Limit(batch).
		Find(&authors).Error; err != nil {
		log.Error().Err(err).Msg("Unable to pick authors for github poll...")
		return
	}
	authors = lo.Filter(authors, func(author models.Author, _ int) bool {
		return Di.IsLocal(author.Host)
	})

	for _, author := range authors {
		if err := pollAuthorGithub(author); err != nil {
			log.Warn().Err(err).Str("author", author.ID).Msg("Failed to poll github feed...")
		}
	}
}

func pollAuthorGithub(author models.Author) error {
	url := fmt.Sprintf("%s/users/%s/events", githubAPIBase, author.Github)
	resp, err := httpClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("github answered with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var events []githubEvent
	if err := jsoniter.Unmarshal(body, &events); err != nil {
		return fmt.Errorf("unable to decode github events: %v", err)
	}

	latestID := ""
	for _, event := range events {
		if len(latestID) == 0 {
			latestID = event.ID
		}
		if event.ID == author.LastGithubID {
			break
		}

		draft, ok := draftFromGithubEvent(event)
		if !ok {
			continue
		}
		post, err := CreatePost(author, draft)
		if err != nil {
			return err
		}
		FanOutPost(post, author.ID)
	}

	if len(latestID) == 0 {
		latestID = author.LastGithubID
	}
	return touchGithubWatermark(author, latestID)
}

func draftFromGithubEvent(event githubEvent) (PostDraft, bool) {
	draft := PostDraft{
		ContentType: models.ContentTypeMarkdown,
		Visibility:  models.PostVisibilityPublic,
		Categories:  []string{"github"},
	}

	switch event.Type {
	case "ForkEvent":
		draft.Title = "Github - Fork"
		draft.Description = fmt.Sprintf("%s forked a repository", event.Actor.DisplayLogin)
		draft.Content = fmt.Sprintf("I forked %s. Check it out [here](%s)!",
			event.Repo.Name, event.Payload.Forkee.HTMLURL)
	case "PushEvent":
		var lines []string
		for _, commit := range event.Payload.Commits {
			lines = append(lines, "- "+commit.Message)
		}
		draft.Title = "Github - Push"
		draft.Description = fmt.Sprintf("%s pushed to a repository", event.Actor.DisplayLogin)
		draft.Content = fmt.Sprintf("I pushed to **%s**!\n%s", event.Repo.Name, strings.Join(lines, "\n"))
	case "WatchEvent":
		draft.Title = "Github - Watch"
		draft.Description = fmt.Sprintf("%s watched a repository", event.Actor.DisplayLogin)
		draft.Content = fmt.Sprintf("I started watching **%s**!", event.Repo.Name)
	case "DeleteEvent":
		draft.Title = "Github - Delete"
		draft.Description = fmt.Sprintf("%s deleted from a repository", event.Actor.DisplayLogin)
		draft.Content = fmt.Sprintf("I deleted a **%s** (%s)", event.Payload.RefType, event.Payload.Ref)
	default:
		return draft, false
	}
	return draft, true
}

func touchGithubWatermark(author models.Author, latestID string) error {
	now := time.Now()
	return database.C.Model(&author).Updates(map[string]any{
		"last_github_check": now,
		"last_github_id":    latestID,
	}).Error
}
