package services

import (
	"testing"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftOf(visibility string) PostDraft {
	return PostDraft{
		Title:       "hello",
		Description: "a greeting",
		Content:     "Hello there, how are you doing today?",
		ContentType: models.ContentTypePlain,
		Visibility:  visibility,
		Categories:  []string{"greetings"},
	}
}

func TestCreatePostCanonicalURLs(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	post, err := CreatePost(alice, draftOf(models.PostVisibilityPublic))
	require.NoError(t, err)

	canonical := testSiteHost + "/api/authors/" + alice.ID + "/posts/" + post.ID
	assert.Equal(t, canonical, post.Origin)
	assert.Equal(t, canonical, post.Source)
	assert.Nil(t, post.OriginPostID)
	assert.Equal(t, "EN", post.Language)
}

func TestCreatePostRejectsInvalidDraft(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	draft := draftOf("SECRET")
	_, err := CreatePost(alice, draft)
	assert.Error(t, err)
	assert.Equal(t, int64(0), countRows(t, &models.Post{}, ""))
}

func TestSharePostFlattensChain(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	bob := newLocalAuthor(t, "bob")
	carol := newLocalAuthor(t, "carol")

	original, err := CreatePost(alice, draftOf(models.PostVisibilityPublic))
	require.NoError(t, err)

	firstShare, err := SharePost(bob, original)
	require.NoError(t, err)
	require.NotNil(t, firstShare.OriginPostID)
	assert.Equal(t, original.ID, *firstShare.OriginPostID)
	assert.Equal(t, alice.ID, *firstShare.OriginAuthorID)
	assert.Equal(t, original.Origin, firstShare.Origin)
	assert.Contains(t, firstShare.Source, bob.ID)

	// Sharing a share still points straight at the ultimate original.
	secondShare, err := SharePost(carol, firstShare)
	require.NoError(t, err)
	assert.Equal(t, original.ID, *secondShare.OriginPostID)
	assert.Equal(t, alice.ID, *secondShare.OriginAuthorID)
	assert.Equal(t, original.Origin, secondShare.Origin)
}

func TestDeletePostCascades(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	bob := newLocalAuthor(t, "bob")

	post, err := CreatePost(alice, draftOf(models.PostVisibilityPublic))
	require.NoError(t, err)
	comment, err := CreateComment(bob, post, "hi", models.ContentTypePlain)
	require.NoError(t, err)
	_, err = CreateLike(bob, alice.ID, post.ID, models.LikeContentPost)
	require.NoError(t, err)
	_, err = CreateLike(alice, bob.ID, comment.ID, models.LikeContentComment)
	require.NoError(t, err)
	share, err := SharePost(bob, post)
	require.NoError(t, err)
	require.NoError(t, database.C.Create(&models.FollowingFeedPost{
		BaseModel:    models.BaseModel{ID: NextID()},
		PostID:       post.ID,
		FollowerID:   bob.ID,
		FromAuthorID: alice.ID,
	}).Error)

	require.NoError(t, DeletePost(post))

	assert.Equal(t, int64(0), countRows(t, &models.Comment{}, ""))
	assert.Equal(t, int64(0), countRows(t, &models.Like{}, ""))
	assert.Equal(t, int64(0), countRows(t, &models.InboxMessage{}, ""))
	assert.Equal(t, int64(0), countRows(t, &models.FollowingFeedPost{}, ""))
	assert.Equal(t, int64(0), countRows(t, &models.Post{}, "id = ?", post.ID))

	// The shared copy survives with its origin pointer cleared.
	survivor, err := GetPost(share.ID)
	require.NoError(t, err)
	assert.Nil(t, survivor.OriginPostID)
}

func TestListAuthorPostsGating(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	bob := newLocalAuthor(t, "bob")
	_, err := CreatePost(alice, draftOf(models.PostVisibilityPublic))
	require.NoError(t, err)
	_, err = CreatePost(alice, draftOf(models.PostVisibilityFriends))
	require.NoError(t, err)
	_, err = CreatePost(alice, draftOf(models.PostVisibilityUnlisted))
	require.NoError(t, err)

	posts, err := ListAuthorPosts(alice.ID, "")
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	posts, err = ListAuthorPosts(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	mustFollow(t, alice, bob)
	mustFollow(t, bob, alice)
	posts, err = ListAuthorPosts(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	posts, err = ListAuthorPosts(alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestSerializePostCommentPreview(t *testing.T) {
	setupTest(t)

	alice := newLocalAuthor(t, "alice")
	bob := newLocalAuthor(t, "bob")
	post, err := CreatePost(alice, draftOf(models.PostVisibilityPublic))
	require.NoError(t, err)
	for range [7]struct{}{} {
		_, err := CreateComment(bob, post, "hi", models.ContentTypePlain)
		require.NoError(t, err)
	}

	post, err = GetPost(post.ID)
	require.NoError(t, err)
	out := SerializePost(post)
	assert.Equal(t, 7, out.Count)
	require.NotNil(t, out.CommentsSrc)
	assert.Len(t, out.CommentsSrc.Comments, 5)
	assert.Equal(t, testSiteHost+"/api/authors/"+alice.ID+"/posts/"+post.ID+"/comments", out.Comments)
}
