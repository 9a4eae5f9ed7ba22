package services

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func NextID() string {
	return uuid.NewString()
}

func GetAuthor(id string) (models.Author, error) {
	var author models.Author
	if err := database.C.Where("id = ?", id).First(&author).Error; err != nil {
		return author, fmt.Errorf("unable to get author by id: %v", err)
	}
	return author, nil
}

// LocalAuthorRef builds the wire representation of an author row.
func LocalAuthorRef(author models.Author) wire.AuthorRef {
	id, _ := Di.ResolveRoute(author.Host, "author", map[string]string{
		"author_id": author.ID,
	})
	picture := author.ProfilePicture
	if len(picture) == 0 {
		picture = Di.SiteHost() + "/static/default-avatar.png"
	}
	github := author.Github
	if len(github) > 0 {
		github = "https://github.com/" + github
	}
	return wire.AuthorRef{
		Type:         "author",
		ID:           id,
		Host:         author.Host,
		DisplayName:  author.DisplayName,
		URL:          author.ProfileURL,
		ProfileImage: picture,
		Github:       github,
	}
}

// CreateLocalAuthor registers a new author on this node together with its
// login credential.
func CreateLocalAuthor(username, email, password string) (models.Author, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Author{}, err
	}

	account := models.Account{
		BaseModel:    models.BaseModel{ID: NextID()},
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := database.C.Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Author{}, ErrConflict
		}
		return models.Author{}, fmt.Errorf("unable to create account: %v", err)
	}

	id := NextID()
	author := models.Author{
		BaseModel:   models.BaseModel{ID: id},
		AccountID:   account.ID,
		Host:        Di.SiteHost(),
		DisplayName: username,
		ProfileURL: Di.FullAPIURL("author", map[string]string{
			"author_id": id,
		}),
	}
	if err := database.C.Create(&author).Error; err != nil {
		return author, fmt.Errorf("unable to create author: %v", err)
	}
	return author, nil
}

// ResolveOrCreateAuthor maps a wire author payload onto a local row,
// creating a shadow author the first time a remote identity is sighted and
// reconciling drifted profile fields on every later one.
func ResolveOrCreateAuthor(ref wire.AuthorRef) (models.Author, error) {
	if err := wire.Validate(ref); err != nil {
		return models.Author{}, fmt.Errorf("%w: %v", ErrInvalidAuthorPayload, err)
	}

	id := ref.LocalID()
	var author models.Author
	if err := database.C.Where("id = ?", id).First(&author).Error; err == nil {
		return reconcileAuthorDrift(author, ref)
	}

	host, err := Di.Canonicalize(ref.Host)
	if err != nil {
		return models.Author{}, fmt.Errorf("%w: %v", ErrInvalidAuthorPayload, err)
	}

	// Non-authenticatable credential behind the shadow author.
	account := models.Account{
		BaseModel: models.BaseModel{ID: NextID()},
		Username:  fmt.Sprintf("%s@%s", id, host),
		Disabled:  true,
	}
	author = models.Author{
		BaseModel:      models.BaseModel{ID: id},
		AccountID:      account.ID,
		Host:           host,
		DisplayName:    ref.DisplayName,
		ProfileURL:     ref.URL,
		ProfilePicture: ref.ProfileImage,
		Github:         ref.NormalizedGithub(),
	}

	err = database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		return tx.Create(&author).Error
	})
	if err != nil {
		// Two near-simultaneous sightings race on the primary key; the loser
		// falls back to reading the winner's row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := database.C.Where("id = ?", id).First(&author).Error; err == nil {
				return author, nil
			}
		}
		return author, fmt.Errorf("unable to create shadow author: %v", err)
	}

	log.Debug().Str("id", id).Str("host", host).Msg("Created shadow author.")
	return author, nil
}

func reconcileAuthorDrift(author models.Author, ref wire.AuthorRef) (models.Author, error) {
	changes := map[string]any{}
	if github := ref.NormalizedGithub(); author.Github != github {
		changes["github"] = github
	}
	if author.DisplayName != ref.DisplayName {
		changes["display_name"] = ref.DisplayName
	}
	if len(ref.ProfileImage) > 0 && author.ProfilePicture != ref.ProfileImage {
		changes["profile_picture"] = ref.ProfileImage
	}
	if len(changes) == 0 {
		return author, nil
	}
	if err := database.C.Model(&author).Updates(changes).Error; err != nil {
		return author, fmt.Errorf("unable to refresh author profile: %v", err)
	}
	return author, nil
}

// FetchRemoteAuthor pulls an unknown author's profile from their node and
// mirrors it locally.
func FetchRemoteAuthor(host, id string) (models.Author, error) {
	url, err := Di.ResolveRoute(host, "author", map[string]string{
		"author_id": id,
	})
	if err != nil {
		return models.Author{}, err
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return models.Author{}, err
	}
	req.SetBasicAuth(CredentialsFor(host))

	resp, err := httpClient.Do(req)
	if err != nil {
		return models.Author{}, fmt.Errorf("unable to fetch remote author: %v", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return models.Author{}, fmt.Errorf("remote author fetch rejected with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Author{}, err
	}

	var ref wire.AuthorRef
	if err := jsoniter.Unmarshal(body, &ref); err != nil {
		return models.Author{}, fmt.Errorf("unable to decode remote author: %v", err)
	}
	return ResolveOrCreateAuthor(ref)
}

// DeleteAuthor hard-deletes an author, their credential, and everything they
// own through the normal content cascades.
func DeleteAuthor(author models.Author) error {
	var posts []models.Post
	database.C.Where("author_id = ?", author.ID).Find(&posts)
	for _, post := range posts {
		if err := DeletePost(post); err != nil {
			return err
		}
	}

	return database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ? OR target_author_id = ?", author.ID, author.ID).
			Delete(&models.Following{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ? OR target_author_id = ?", author.ID, author.ID).
			Delete(&models.FollowingRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("send_author_id = ?", author.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ? OR follower_id = ?", author.ID, author.ID).
			Delete(&models.FollowingFeedPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", author.ID).Delete(&models.InboxMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", author.AccountID).Delete(&models.Account{}).Error; err != nil {
			return err
		}
		return tx.Delete(&author).Error
	})
}

// AuthenticateAccount validates a username/password pair against an enabled
// account and returns its author.
func AuthenticateAccount(username, password string) (models.Author, error) {
	var account models.Account
	if err := database.C.Where("username = ? AND disabled = ?", username, false).
		First(&account).Error; err != nil {
		return models.Author{}, ErrNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return models.Author{}, ErrNotFound
	}

	var author models.Author
	if err := database.C.Where("account_id = ?", account.ID).First(&author).Error; err != nil {
		return author, ErrNotFound
	}
	return author, nil
}
