package api

import (
	"github.com/deadlybird/deadlybird/pkg/internal/http/exts"
	"github.com/gofiber/fiber/v2"
)

func MapAPIs(app *fiber.App, baseURL string) {
	api := app.Group(baseURL)
	{
		api.Post("/login", login)
		api.Post("/register", register)
		api.Post("/logout", logout)

		authors := api.Group("/authors")
		{
			authors.Get("/", listAuthors)
			authors.Get("/:authorId", getAuthor)
			authors.Put("/:authorId", exts.SessionAuthenticated, editAuthor)

			authors.Post("/:authorId/inbox", exts.RemoteOrSessionAuthenticated, postInbox)
			authors.Get("/:authorId/inbox", exts.SessionAuthenticated, getInbox)
			authors.Delete("/:authorId/inbox", exts.SessionAuthenticated, clearInbox)

			authors.Get("/:authorId/posts/", listAuthorPosts)
			authors.Post("/:authorId/posts/", exts.SessionAuthenticated, createPost)
			authors.Get("/:authorId/posts/:postId", getPost)
			authors.Put("/:authorId/posts/:postId", exts.SessionAuthenticated, editPost)
			authors.Delete("/:authorId/posts/:postId", exts.SessionAuthenticated, deletePost)
			authors.Post("/:authorId/posts/:postId/share", exts.SessionAuthenticated, sharePost)

			authors.Get("/:authorId/posts/:postId/comments", listComments)
			authors.Post("/:authorId/posts/:postId/comments", exts.SessionAuthenticated, createComment)

			authors.Get("/:authorId/posts/:postId/likes", exts.RemoteOrSessionAuthenticated, postLikes)
			authors.Get("/:authorId/posts/:postId/comments/:commentId/likes", exts.RemoteOrSessionAuthenticated, commentLikes)
			authors.Get("/:authorId/liked", exts.RemoteOrSessionAuthenticated, likedByAuthor)
			authors.Post("/:authorId/posts/:postId/likes", exts.SessionAuthenticated, likePost)

			authors.Get("/:authorId/followers", listFollowers)
			authors.Get("/:authorId/following", listFollowing)
			authors.Get("/:authorId/follow-requests", exts.SessionAuthenticated, listFollowRequests)
			authors.Post("/:authorId/follow/:targetId", exts.SessionAuthenticated, follow)
			authors.Post("/:authorId/follow/:targetId/accept", exts.SessionAuthenticated, acceptFollow)
			authors.Post("/:authorId/follow/:targetId/reject", exts.SessionAuthenticated, rejectFollow)
			authors.Post("/:authorId/follow/:targetId/cancel", exts.SessionAuthenticated, cancelFollow)
			authors.Post("/:authorId/unfollow/:targetId", exts.SessionAuthenticated, unfollow)

			authors.Get("/:authorId/feed", exts.SessionAuthenticated, getFeed)
		}
	}
}
