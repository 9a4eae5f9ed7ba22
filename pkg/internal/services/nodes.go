package services

import (
	"fmt"
	"io"
	"net/http"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// CredentialsFor returns the outbound credentials registered for a host.
// Unregistered hosts degrade to the configured placeholder pair instead of
// failing closed; the warning is the operator's only signal.
func CredentialsFor(host string) (string, string) {
	var nodes []models.Node
	database.C.Find(&nodes)

	for _, node := range nodes {
		if Di.IsSame(node.Host, host) {
			return node.OutgoingUsername, node.OutgoingPassword
		}
	}

	log.Warn().Str("host", host).Msg("No node registered for host, using placeholder credentials...")
	return viper.GetString("federation.default_username"), viper.GetString("federation.default_password")
}

// RegisterNode persists a federated peer and synchronously imports its
// author roster.
func RegisterNode(host, username, password string) (models.Node, error) {
	canonical, err := Di.Canonicalize(host)
	if err != nil {
		return models.Node{}, err
	}

	node := models.Node{
		BaseModel:        models.BaseModel{ID: NextID()},
		Host:             canonical,
		OutgoingUsername: username,
		OutgoingPassword: password,
	}
	if err := database.C.Create(&node).Error; err != nil {
		return node, fmt.Errorf("unable to register node: %v", err)
	}

	ImportNodeAuthors(node)
	return node, nil
}

// ImportNodeAuthors pages through the peer's author roster and mirrors each
// entry locally. Stops on an empty page or a non-2xx response.
func ImportNodeAuthors(node models.Node) {
	base, err := Di.ResolveRoute(node.Host, "authors", nil)
	if err != nil {
		log.Error().Err(err).Str("host", node.Host).Msg("Unable to resolve roster route...")
		return
	}

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s?page=%d", base, page)
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return
		}
		req.SetBasicAuth(node.OutgoingUsername, node.OutgoingPassword)

		resp, err := httpClient.Do(req)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Failed to fetch author roster page...")
			return
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if !isSuccess(resp.StatusCode) {
			log.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("Author roster fetch rejected...")
			return
		}

		var envelope wire.AuthorPage
		if err := jsoniter.Unmarshal(body, &envelope); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Peer does not speak the roster pagination format...")
			return
		}
		if len(envelope.Items) == 0 {
			break
		}

		for _, item := range envelope.Items {
			if _, err := ResolveOrCreateAuthor(item); err != nil {
				log.Warn().Err(err).Str("id", item.ID).Msg("Skipped unusable roster entry...")
			}
		}
	}

	log.Info().Str("host", node.Host).Msg("Imported author roster from node.")
}

// RemoveNode deletes a registered peer along with every shadow author that
// was mirrored from it, discarding their content through the normal
// cascades.
func RemoveNode(host string) error {
	canonical, err := Di.Canonicalize(host)
	if err != nil {
		return err
	}

	var node models.Node
	if err := database.C.Where("host = ?", canonical).First(&node).Error; err != nil {
		return ErrNotFound
	}

	var authors []models.Author
	database.C.Find(&authors)
	for _, author := range authors {
		if !Di.IsSame(author.Host, canonical) {
			continue
		}
		if err := DeleteAuthor(author); err != nil {
			log.Warn().Err(err).Str("author", author.ID).Msg("Failed to purge shadow author...")
		}
	}

	return database.C.Delete(&node).Error
}
