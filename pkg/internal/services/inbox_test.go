package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliver(t *testing.T, recipient models.Author, activity any) (int, error) {
	t.Helper()
	raw, err := jsoniter.Marshal(activity)
	require.NoError(t, err)
	return HandleActivity(recipient, raw)
}

func TestHandleFollowFromUnseenRemote(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	activity := wire.FollowActivity{
		Type:   wire.TypeFollow,
		Actor:  remoteAuthorRef("https://peer.test", "r1"),
		Object: LocalAuthorRef(alice),
	}

	status, err := deliver(t, alice, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)

	// The unseen actor was mirrored as a shadow author.
	actor, err := GetAuthor("r1")
	require.NoError(t, err)
	assert.Equal(t, "https://peer.test", actor.Host)
	assert.True(t, followRequestExists("r1", alice.ID))
	assert.Equal(t, int64(1), countRows(t, &models.InboxMessage{},
		"author_id = ? AND content_type = ?", alice.ID, models.InboxContentFollow))

	status, err = deliver(t, alice, activity)
	assert.Equal(t, http.StatusConflict, status)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestHandleFollowUnknownTarget(t *testing.T) {
	setupTest(t)

	ghost := wire.AuthorRef{
		Type:        "author",
		ID:          testSiteHost + "/api/authors/ghost",
		Host:        testSiteHost,
		DisplayName: "ghost",
		URL:         testSiteHost + "/api/authors/ghost",
	}
	activity := wire.FollowActivity{
		Type:   wire.TypeFollow,
		Actor:  remoteAuthorRef("https://peer.test", "r1"),
		Object: ghost,
	}
	status, _ := deliver(t, models.Author{}, activity)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHandleFollowHealsStaleEdge(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	actor := newRemoteAuthor(t, "https://peer.test", "r1")
	mustFollow(t, actor, alice)

	activity := wire.FollowActivity{
		Type:   wire.TypeFollow,
		Actor:  remoteAuthorRef("https://peer.test", "r1"),
		Object: LocalAuthorRef(alice),
	}
	status, err := deliver(t, alice, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)

	// The edge the peer silently dropped is gone, the new request pends.
	assert.False(t, followingExists(actor.ID, alice.ID))
	assert.True(t, followRequestExists(actor.ID, alice.ID))
}

func TestHandleFollowRemoteObjectRelays(t *testing.T) {
	setupTest(t)

	answer := http.StatusCreated
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(answer)
	}))
	defer peer.Close()

	target := newRemoteAuthor(t, peer.URL, "r1")
	activity := wire.FollowActivity{
		Type:   wire.TypeFollow,
		Actor:  remoteAuthorRef("https://elsewhere.test", "r2"),
		Object: remoteAuthorRef(peer.URL, "r1"),
	}

	status, err := deliver(t, target, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, followRequestExists("r2", target.ID))

	// When the peer rejects, no local mirror is written.
	setupTest(t)
	target = newRemoteAuthor(t, peer.URL, "r1")
	answer = http.StatusBadGateway
	status, err = deliver(t, target, activity)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.False(t, followRequestExists("r2", target.ID))
}

func TestHandleUnknownActivityType(t *testing.T) {
	setupTest(t)

	status, err := HandleActivity(models.Author{}, []byte(`{"type":"Dance"}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.ErrorIs(t, err, wire.ErrUnknownActivity)
}

func TestHandleFollowResponseAccepted(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	remote := newRemoteAuthor(t, "https://peer.test", "r1")
	require.NoError(t, database.C.Create(&models.FollowingRequest{
		BaseModel:      models.BaseModel{ID: NextID()},
		AuthorID:       alice.ID,
		TargetAuthorID: remote.ID,
	}).Error)

	activity := wire.FollowResponseActivity{
		Type:     wire.TypeFollowResponse,
		Actor:    remoteAuthorRef("https://peer.test", "r1"),
		Object:   LocalAuthorRef(alice),
		Accepted: true,
	}
	status, err := deliver(t, alice, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	assert.True(t, followingExists(alice.ID, remote.ID))
	assert.Equal(t, int64(0), countRows(t, &models.FollowingRequest{}, ""))
}

func TestHandleFollowResponseRejected(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	remote := newRemoteAuthor(t, "https://peer.test", "r1")
	require.NoError(t, database.C.Create(&models.FollowingRequest{
		BaseModel:      models.BaseModel{ID: NextID()},
		AuthorID:       alice.ID,
		TargetAuthorID: remote.ID,
	}).Error)

	activity := wire.FollowResponseActivity{
		Type:     wire.TypeFollowResponse,
		Actor:    remoteAuthorRef("https://peer.test", "r1"),
		Object:   LocalAuthorRef(alice),
		Accepted: false,
	}
	status, err := deliver(t, alice, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	assert.False(t, followingExists(alice.ID, remote.ID))
	assert.Equal(t, int64(0), countRows(t, &models.FollowingRequest{}, ""))
}

func TestHandleLikeOnLocalPost(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	post, err := CreatePost(alice, draftOf(models.PostVisibilityPublic))
	require.NoError(t, err)

	activity := wire.LikeActivity{
		Type:   wire.TypeLike,
		Author: remoteAuthorRef("https://peer.test", "r1"),
		Object: post.Origin,
	}
	status, err := deliver(t, alice, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)

	assert.Equal(t, int64(1), countRows(t, &models.Like{},
		"send_author_id = ? AND content_id = ?", "r1", post.ID))
	assert.Equal(t, int64(1), countRows(t, &models.InboxMessage{},
		"author_id = ? AND content_type = ?", alice.ID, models.InboxContentLike))

	status, err = deliver(t, alice, activity)
	assert.Equal(t, http.StatusConflict, status)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestHandleLikeRelaysToOriginNode(t *testing.T) {
	setupTest(t)

	relayed := false
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayed = true
		w.WriteHeader(http.StatusCreated)
	}))
	defer origin.Close()

	owner := newRemoteAuthor(t, origin.URL, "r1")
	mirrored := models.Post{
		BaseModel:   models.BaseModel{ID: "p1"},
		AuthorID:    owner.ID,
		Title:       "hello",
		Content:     "hello world",
		ContentType: models.ContentTypePlain,
		Visibility:  models.PostVisibilityPublic,
		Origin:      origin.URL + "/api/authors/r1/posts/p1",
		Source:      origin.URL + "/api/authors/r1/posts/p1",
		PublishedAt: time.Now(),
	}
	require.NoError(t, createPostIfAbsent(mirrored))

	activity := wire.LikeActivity{
		Type:   wire.TypeLike,
		Author: remoteAuthorRef("https://elsewhere.test", "r2"),
		Object: mirrored.Origin,
	}
	status, err := deliver(t, owner, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)

	assert.True(t, relayed)
	// A local copy is kept so liked queries answered here stay correct.
	assert.Equal(t, int64(1), countRows(t, &models.Like{}, "send_author_id = ?", "r2"))
}

func TestHandlePostOriginal(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	authorRef := remoteAuthorRef("https://peer.test", "r1")
	activity := wire.PostActivity{
		Type:        wire.TypePost,
		ID:          "p1",
		Title:       "hello",
		Content:     "hello world",
		ContentType: models.ContentTypePlain,
		Visibility:  models.PostVisibilityPublic,
		Origin:      "https://peer.test/api/authors/r1/posts/p1",
		Source:      "https://peer.test/api/authors/r1/posts/p1",
		Author:      authorRef,
		Published:   time.Now(),
	}

	status, err := deliver(t, alice, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)

	post, err := GetPost("p1")
	require.NoError(t, err)
	assert.Equal(t, "r1", post.AuthorID)
	assert.Nil(t, post.OriginPostID)
	assert.Equal(t, int64(1), countRows(t, &models.InboxMessage{},
		"author_id = ? AND content_id = ?", alice.ID, "p1"))
	assert.Equal(t, int64(1), countRows(t, &models.FollowingFeedPost{},
		"post_id = ? AND follower_id = ?", "p1", alice.ID))

	// Re-delivery is tolerated without duplicating the post.
	status, err = deliver(t, alice, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, int64(1), countRows(t, &models.Post{}, "id = ?", "p1"))
}

func TestHandlePostShareRebuildsChain(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	originRef := remoteAuthorRef("https://origin.test", "r1")
	sharerRef := remoteAuthorRef("https://peer.test", "r2")
	activity := wire.PostActivity{
		Type:         wire.TypePost,
		ID:           "share1",
		Title:        "hello",
		Content:      "hello world",
		ContentType:  models.ContentTypePlain,
		Visibility:   models.PostVisibilityPublic,
		Origin:       "https://origin.test/api/authors/r1/posts/orig1",
		Source:       "https://peer.test/api/authors/r2/posts/share1",
		Author:       sharerRef,
		OriginAuthor: &originRef,
		OriginID:     "orig1",
		Published:    time.Now(),
	}

	status, err := deliver(t, alice, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)

	original, err := GetPost("orig1")
	require.NoError(t, err)
	assert.Equal(t, "r1", original.AuthorID)
	assert.Nil(t, original.OriginPostID)
	assert.Equal(t, activity.Origin, original.Source)

	share, err := GetPost("share1")
	require.NoError(t, err)
	assert.Equal(t, "r2", share.AuthorID)
	require.NotNil(t, share.OriginPostID)
	assert.Equal(t, "orig1", *share.OriginPostID)
	assert.Equal(t, "r1", *share.OriginAuthorID)
}

func TestHandleCommentOnLocalPost(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	post, err := CreatePost(alice, draftOf(models.PostVisibilityPublic))
	require.NoError(t, err)

	activity := wire.CommentActivity{
		ID:          post.Origin + "/comments/c123",
		Type:        wire.TypeComment,
		Author:      remoteAuthorRef("https://peer.test", "r1"),
		Comment:     "nice post",
		ContentType: models.ContentTypePlain,
		Published:   time.Now(),
	}
	status, err := deliver(t, alice, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)

	comment, err := GetComment("c123")
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, "r1", comment.AuthorID)
	assert.Equal(t, int64(1), countRows(t, &models.InboxMessage{},
		"author_id = ? AND content_type = ?", alice.ID, models.InboxContentComment))
}

func TestHandleCommentRelaysToOriginNode(t *testing.T) {
	setupTest(t)

	relayed := false
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayed = true
		w.WriteHeader(http.StatusCreated)
	}))
	defer origin.Close()

	owner := newRemoteAuthor(t, origin.URL, "r1")
	mirrored := models.Post{
		BaseModel:   models.BaseModel{ID: "p1"},
		AuthorID:    owner.ID,
		Title:       "hello",
		Content:     "hello world",
		ContentType: models.ContentTypePlain,
		Visibility:  models.PostVisibilityPublic,
		Origin:      origin.URL + "/api/authors/r1/posts/p1",
		Source:      origin.URL + "/api/authors/r1/posts/p1",
		PublishedAt: time.Now(),
	}
	require.NoError(t, createPostIfAbsent(mirrored))

	activity := wire.CommentActivity{
		ID:          mirrored.Origin + "/comments/c123",
		Type:        wire.TypeComment,
		Author:      remoteAuthorRef("https://elsewhere.test", "r2"),
		Comment:     "nice post",
		ContentType: models.ContentTypePlain,
		Published:   time.Now(),
	}
	status, err := deliver(t, owner, activity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, relayed)
	assert.Equal(t, int64(0), countRows(t, &models.Comment{}, ""))
}
