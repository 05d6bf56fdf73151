package post

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/internal/features/forum"
	"github.com/forumhub/forum-server-go/internal/middleware"
	"github.com/forumhub/forum-server-go/pkg/params"
	"github.com/forumhub/forum-server-go/pkg/response"
	"github.com/forumhub/forum-server-go/pkg/types"
)

const (
	forumContextKey = "posts_forum"
	postContextKey  = "posts_record"
)

// Handler processes post HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a post handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// SetForum resolves the :forumId path param before index/new/create run.
// An unknown forum is a 404; the handler body never executes.
func (h *Handler) SetForum(c *gin.Context) {
	forumID, err := uuid.Parse(c.Param("forumId"))
	if err != nil {
		h.respondNotFound(c, "Forum not found.")
		return
	}

	f, err := forum.Get(h.db, forumID)
	if err != nil {
		if errors.Is(err, forum.ErrForumNotFound) {
			h.respondNotFound(c, "Forum not found.")
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load forum", err)
		c.Abort()
		return
	}

	c.Set(forumContextKey, f)
	c.Next()
}

// SetPost resolves the :postId path param before show/edit/update/destroy.
func (h *Handler) SetPost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("postId"))
	if err != nil {
		h.respondNotFound(c, "Post not found.")
		return
	}

	p, err := Get(h.db, postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			h.respondNotFound(c, "Post not found.")
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load post", err)
		c.Abort()
		return
	}

	c.Set(postContextKey, p)
	c.Next()
}

// RequireOwner lets only the post's author past. The check compares against
// the id the session carries; no user reload happens here.
func (h *Handler) RequireOwner(c *gin.Context) {
	p := contextPost(c)
	identity := middleware.CurrentIdentity(c)

	if p == nil || identity == nil || p.UserID != identity.ID {
		if response.Negotiate(c) == response.FormatHTML {
			response.Redirect(c, "/forums", OwnerNotice)
		} else {
			response.Error(c, http.StatusForbidden, OwnerNotice, nil)
		}
		c.Abort()
		return
	}

	c.Next()
}

// Index lists a forum's posts.
func (h *Handler) Index(c *gin.Context) {
	f := contextForum(c)

	posts, err := ListByForum(h.db, f.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load posts", err)
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusOK, "posts_index.html", gin.H{
			"forum": f,
			"posts": posts,
		})
		return
	}

	response.Success(c, http.StatusOK, posts, "")
}

// New renders the post form.
func (h *Handler) New(c *gin.Context) {
	response.HTML(c, http.StatusOK, "posts_new.html", gin.H{
		"forum": contextForum(c),
		"post":  &Post{},
	})
}

// Create adds a post to the forum. Whatever owner id the client submitted,
// the stored one is the session's.
func (h *Handler) Create(c *gin.Context) {
	f := contextForum(c)
	identity := middleware.CurrentIdentity(c)

	var input Params
	if err := params.Bind(c, "post", &input); err != nil {
		h.respondBindError(c, err)
		return
	}
	input.UserID = identity.ID

	p := &Post{
		ForumID: f.ID,
		UserID:  input.UserID,
		Title:   input.Title,
		Content: input.Content,
	}

	if err := Create(h.db, p); err != nil {
		var fieldErrors types.FieldErrors
		if errors.As(err, &fieldErrors) {
			if response.Negotiate(c) == response.FormatHTML {
				response.HTML(c, http.StatusUnprocessableEntity, "posts_new.html", gin.H{
					"forum":  f,
					"post":   p,
					"errors": fieldErrors,
				})
			} else {
				response.Error(c, http.StatusUnprocessableEntity, "validation failed", fieldErrors)
			}
			return
		}

		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create post", err)
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.Redirect(c, "/posts/"+p.ID.String(), "Your post was created.")
		return
	}

	response.Created(c, p, "Your post was created.")
}

// Show displays one post.
func (h *Handler) Show(c *gin.Context) {
	p := contextPost(c)

	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusOK, "posts_show.html", gin.H{"post": p})
		return
	}

	response.Success(c, http.StatusOK, p, "")
}

// Edit renders the edit form for the caller's own post.
func (h *Handler) Edit(c *gin.Context) {
	response.HTML(c, http.StatusOK, "posts_edit.html", gin.H{"post": contextPost(c)})
}

// Update rewrites the caller's own post.
func (h *Handler) Update(c *gin.Context) {
	p := contextPost(c)
	identity := middleware.CurrentIdentity(c)

	var input Params
	if err := params.Bind(c, "post", &input); err != nil {
		h.respondBindError(c, err)
		return
	}
	input.UserID = identity.ID

	if err := Update(h.db, p, input); err != nil {
		var fieldErrors types.FieldErrors
		if errors.As(err, &fieldErrors) {
			if response.Negotiate(c) == response.FormatHTML {
				response.HTML(c, http.StatusUnprocessableEntity, "posts_edit.html", gin.H{
					"post":   p,
					"errors": fieldErrors,
				})
			} else {
				response.Error(c, http.StatusUnprocessableEntity, "validation failed", fieldErrors)
			}
			return
		}

		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to update post", err)
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.Redirect(c, "/posts/"+p.ID.String(), "Your post was updated.")
		return
	}

	response.Success(c, http.StatusOK, p, "Your post was updated.")
}

// Destroy deletes the caller's own post and returns to its forum.
func (h *Handler) Destroy(c *gin.Context) {
	p := contextPost(c)

	if err := Delete(h.db, p.ID); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete post", err)
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.Redirect(c, "/forums/"+p.ForumID.String(), "Your post was deleted.")
		return
	}

	response.NoContent(c)
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	if errors.Is(err, params.ErrMissingKey) {
		response.Error(c, http.StatusBadRequest, "The submission is missing its post payload.", nil)
		c.Abort()
		return
	}

	response.Error(c, http.StatusBadRequest, "The submission could not be read.", nil)
	c.Abort()
}

func (h *Handler) respondNotFound(c *gin.Context, message string) {
	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusNotFound, "not_found.html", gin.H{"message": message})
	} else {
		response.Error(c, http.StatusNotFound, message, nil)
	}
	c.Abort()
}

func contextForum(c *gin.Context) *forum.Forum {
	value, _ := c.Get(forumContextKey)
	f, _ := value.(*forum.Forum)
	return f
}

func contextPost(c *gin.Context) *Post {
	value, _ := c.Get(postContextKey)
	p, _ := value.(*Post)
	return p
}
