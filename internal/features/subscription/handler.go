package subscription

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

const subscriptionContextKey = "subscriptions_record"

// Handler processes subscription HTTP requests. Every route sits behind
// RequireUser, so handlers can count on a full user in the context.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a subscription handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// SetSubscription resolves :subscriptionId through an owner-scoped lookup.
// A subscription belonging to someone else 404s; there is no 403 here.
func (h *Handler) SetSubscription(c *gin.Context) {
	current := middleware.CurrentUser(c)

	id, err := uuid.Parse(c.Param("subscriptionId"))
	if err != nil {
		h.respondNotFound(c)
		return
	}

	s, err := GetScoped(h.db, id, current.ID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			h.respondNotFound(c)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load subscription", err)
		c.Abort()
		return
	}

	c.Set(subscriptionContextKey, s)
	c.Next()
}

// Index lists the caller's subscribed forums ordered by priority.
func (h *Handler) Index(c *gin.Context) {
	current := middleware.CurrentUser(c)

	forums, err := SubscribedForums(h.db, current.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load subscriptions", err)
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusOK, "subscriptions_index.html", gin.H{"forums": forums})
		return
	}

	response.Success(c, http.StatusOK, forums, "")
}

// New renders the subscription form for the forum named by forum_id. An
// unknown forum is a 404. If the caller already subscribes they are sent
// back to the forum listing instead.
func (h *Handler) New(c *gin.Context) {
	current := middleware.CurrentUser(c)

	f, ok := h.loadForum(c, c.Query("forum_id"))
	if !ok {
		return
	}

	subscribed, err := IsSubscribed(h.db, current.ID, f.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to check subscription", err)
		return
	}

	if subscribed {
		if response.Negotiate(c) == response.FormatHTML {
			response.Redirect(c, "/forums", AlreadySubscribedNotice)
		} else {
			response.Success(c, http.StatusOK, nil, AlreadySubscribedNotice)
		}
		return
	}

	response.HTML(c, http.StatusOK, "subscriptions_new.html", gin.H{
		"subscription": &Subscription{},
		"forum":        f,
		"forumId":      f.ID.String(),
	})
}

// Create subscribes the caller to a forum. The stored user id is always the
// caller's, whatever the submission said.
func (h *Handler) Create(c *gin.Context) {
	current := middleware.CurrentUser(c)

	var input Params
	if err := params.Bind(c, "subscription", &input); err != nil {
		h.respondBindError(c, err)
		return
	}
	input.UserID = current.ID

	if _, ok := h.loadForum(c, input.ForumID.String()); !ok {
		return
	}

	s := &Subscription{
		UserID:   input.UserID,
		ForumID:  input.ForumID,
		Priority: input.Priority,
	}

	if err := Create(h.db, s); err != nil {
		h.respondSaveError(c, err, s, "subscriptions_new.html")
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.Redirect(c, "/subscriptions/"+s.ID.String(), "Subscription was successfully created.")
		return
	}

	response.Created(c, s, "Subscription was successfully created.")
}

// Show displays one of the caller's subscriptions.
func (h *Handler) Show(c *gin.Context) {
	s := contextSubscription(c)

	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusOK, "subscriptions_show.html", gin.H{"subscription": s})
		return
	}

	response.Success(c, http.StatusOK, s, "")
}

// Edit renders the edit form.
func (h *Handler) Edit(c *gin.Context) {
	response.HTML(c, http.StatusOK, "subscriptions_edit.html", gin.H{
		"subscription": contextSubscription(c),
	})
}

// Update changes the subscription's priority (and forum, if resubmitted).
func (h *Handler) Update(c *gin.Context) {
	current := middleware.CurrentUser(c)
	s := contextSubscription(c)

	var input Params
	if err := params.Bind(c, "subscription", &input); err != nil {
		h.respondBindError(c, err)
		return
	}
	input.UserID = current.ID

	if input.ForumID != uuid.Nil && input.ForumID != s.ForumID {
		if _, ok := h.loadForum(c, input.ForumID.String()); !ok {
			return
		}
	}

	if err := Update(h.db, s, input); err != nil {
		h.respondSaveError(c, err, s, "subscriptions_edit.html")
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.Redirect(c, "/subscriptions/"+s.ID.String(), "Subscription was successfully updated.")
		return
	}

	response.Success(c, http.StatusOK, s, "Subscription was successfully updated.")
}

// Destroy removes the subscription.
func (h *Handler) Destroy(c *gin.Context) {
	s := contextSubscription(c)

	if err := Delete(h.db, s.ID); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete subscription", err)
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.Redirect(c, "/subscriptions", "Subscription was successfully destroyed.")
		return
	}

	response.NoContent(c)
}

func (h *Handler) respondSaveError(c *gin.Context, err error, s *Subscription, template string) {
	fieldErrors := types.FieldErrors{}

	switch {
	case errors.As(err, &fieldErrors):
	case errors.Is(err, ErrAlreadySubscribed):
		fieldErrors["forum"] = AlreadySubscribedNotice
	default:
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to save subscription", err)
		return
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusUnprocessableEntity, template, gin.H{
			"subscription": s,
			"errors":       fieldErrors,
		})
		return
	}

	response.Error(c, http.StatusUnprocessableEntity, "validation failed", fieldErrors)
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	if errors.Is(err, params.ErrMissingKey) {
		response.Error(c, http.StatusBadRequest, "The submission is missing its subscription payload.", nil)
		c.Abort()
		return
	}

	response.Error(c, http.StatusBadRequest, "The submission could not be read.", nil)
	c.Abort()
}

// loadForum resolves the forum a subscription points at. An absent or
// unknown forum is a 404; nothing is written in that case.
func (h *Handler) loadForum(c *gin.Context, raw string) (*forum.Forum, bool) {
	forumID, err := uuid.Parse(raw)
	if err != nil {
		h.respondForumNotFound(c)
		return nil, false
	}

	f, err := forum.Get(h.db, forumID)
	if err != nil {
		if errors.Is(err, forum.ErrForumNotFound) {
			h.respondForumNotFound(c)
			return nil, false
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load forum", err)
		c.Abort()
		return nil, false
	}

	return f, true
}

func (h *Handler) respondForumNotFound(c *gin.Context) {
	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusNotFound, "not_found.html", gin.H{"message": "Forum not found."})
	} else {
		response.Error(c, http.StatusNotFound, "Forum not found.", nil)
	}
	c.Abort()
}

func (h *Handler) respondNotFound(c *gin.Context) {
	if response.Negotiate(c) == response.FormatHTML {
		response.HTML(c, http.StatusNotFound, "not_found.html", gin.H{"message": "Subscription not found."})
	} else {
		response.Error(c, http.StatusNotFound, "Subscription not found.", nil)
	}
	c.Abort()
}

func contextSubscription(c *gin.Context) *Subscription {
	value, _ := c.Get(subscriptionContextKey)
	s, _ := value.(*Subscription)
	return s
}
