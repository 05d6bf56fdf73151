package forum

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/pkg/pagination"
	"github.com/forumhub/forum-server-go/pkg/response"
)

// Handler processes forum HTTP requests. Both endpoints are public.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a forum handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Index lists forums. This is the landing page the guards redirect to.
func (h *Handler) Index(c *gin.Context) {
	params := pagination.Extract(c)

	forums, total, err := List(h.db, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load forums", err)
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusOK, "forums_index.html", gin.H{
			"forums": forums,
			"meta":   pagination.MetadataFrom(total, params),
		})
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"forums": forums,
		"meta":   pagination.MetadataFrom(total, params),
	}, "")
}

// Show displays one forum with its most recent posts.
func (h *Handler) Show(c *gin.Context) {
	forumID, err := uuid.Parse(c.Param("forumId"))
	if err != nil {
		h.respondNotFound(c)
		return
	}

	f, err := GetWithRecentPosts(h.db, forumID)
	if err != nil {
		if errors.Is(err, ErrForumNotFound) {
			h.respondNotFound(c)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load forum", err)
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusOK, "forums_show.html", gin.H{"forum": f})
		return
	}

	response.Success(c, http.StatusOK, f, "")
}

func (h *Handler) respondNotFound(c *gin.Context) {
	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusNotFound, "not_found.html", nil)
		return
	}

	response.Error(c, http.StatusNotFound, "Forum not found.", nil)
}
