package services

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/deadlybird/deadlybird/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

// Relay calls run inside the HTTP request that delivered the triggering
// activity, so this timeout is the only bound on how long a slow peer can
// hold the original caller.
var httpClient = &http.Client{Timeout: 15 * time.Second}

// DeliverActivity posts an activity to an author's inbox with the outbound
// credentials registered for their node. Delivery is at-most-once; the
// returned status is the only durability signal.
func DeliverActivity(recipient models.Author, activity any) (int, error) {
	url, err := Di.ResolveRoute(recipient.Host, "inbox", map[string]string{
		"author_id": recipient.ID,
	})
	if err != nil {
		return http.StatusBadRequest, err
	}

	body, err := jsoniter.Marshal(activity)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("unable to encode activity: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return http.StatusInternalServerError, err
	}
	req.Header.Set("Content-Type", "application/json")
	username, password := CredentialsFor(recipient.Host)
	req.SetBasicAuth(username, password)

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to deliver activity to remote inbox...")
		return http.StatusBadGateway, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("Remote inbox rejected activity...")
	}
	return resp.StatusCode, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
