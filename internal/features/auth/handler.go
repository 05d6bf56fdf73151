package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/pkg/metrics"
	"github.com/forumhub/forum-server-go/pkg/params"
	"github.com/forumhub/forum-server-go/pkg/response"
	"github.com/forumhub/forum-server-go/pkg/session"
	"github.com/forumhub/forum-server-go/pkg/types"
)

// RegisterParams is the permitted registration submission.
type RegisterParams struct {
	Name     string `params:"name"`
	Email    string `params:"email"`
	Password string `params:"password"`
}

// LoginParams is the permitted login submission.
type LoginParams struct {
	Email    string `params:"email"`
	Password string `params:"password"`
}

// Handler processes authentication HTTP requests.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs an auth handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{service: NewService(db), logger: logger}
}

// NewRegistration renders the sign-up form.
func (h *Handler) NewRegistration(c *gin.Context) {
	response.HTML(c, http.StatusOK, "register.html", nil)
}

// CreateRegistration creates the account and signs the new member in.
func (h *Handler) CreateRegistration(c *gin.Context) {
	var input RegisterParams
	if err := params.Bind(c, "user", &input); err != nil {
		h.respondBindError(c, err)
		return
	}

	account, err := h.service.Register(input.Name, input.Email, input.Password)
	if err != nil {
		var fieldErrors types.FieldErrors
		if errors.As(err, &fieldErrors) {
			if response.Negotiate(c) == response.FormatHTML {
				response.HTML(c, http.StatusUnprocessableEntity, "register.html", gin.H{
					"errors": fieldErrors,
					"name":   input.Name,
					"email":  input.Email,
				})
			} else {
				response.Error(c, http.StatusUnprocessableEntity, "validation failed", fieldErrors)
			}
			return
		}

		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create account", err)
		return
	}

	h.signIn(c, account.ID, account.Name)
	metrics.RecordSignIn()

	if response.Negotiate(c) == response.FormatHTML {
		response.Redirect(c, "/forums", "Welcome to the forum!")
		return
	}

	response.Created(c, account, "Welcome to the forum!")
}

// NewSession renders the login form.
func (h *Handler) NewSession(c *gin.Context) {
	response.HTML(c, http.StatusOK, "login.html", nil)
}

// CreateSession checks credentials and establishes the session.
func (h *Handler) CreateSession(c *gin.Context) {
	var input LoginParams
	if err := params.Bind(c, "session", &input); err != nil {
		h.respondBindError(c, err)
		return
	}

	account, err := h.service.Authenticate(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if response.Negotiate(c) == response.FormatHTML {
				response.HTML(c, http.StatusUnprocessableEntity, "login.html", gin.H{
					"error": "Invalid email or password.",
					"email": input.Email,
				})
			} else {
				response.Error(c, http.StatusUnauthorized, "Invalid email or password.", nil)
			}
			return
		}

		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to log on", err)
		return
	}

	h.signIn(c, account.ID, account.Name)
	metrics.RecordSignIn()

	if response.Negotiate(c) == response.FormatHTML {
		response.Redirect(c, "/forums", "You have logged on.")
		return
	}

	response.Success(c, http.StatusOK, account, "You have logged on.")
}

// DestroySession logs the caller off.
func (h *Handler) DestroySession(c *gin.Context) {
	if scope := session.FromContext(c); scope != nil {
		if err := scope.SignOut(); err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to log off", err)
			return
		}
	}

	if response.Negotiate(c) == response.FormatHTML {
		response.Redirect(c, "/forums", "You have logged off.")
		return
	}

	response.NoContent(c)
}

func (h *Handler) signIn(c *gin.Context, id uuid.UUID, name string) {
	scope := session.FromContext(c)
	if scope == nil {
		return
	}

	if err := scope.SignIn(session.Identity{ID: id, Name: name}); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to persist session", slog.String("error", err.Error()))
	}
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	if errors.Is(err, params.ErrMissingKey) {
		response.Error(c, http.StatusBadRequest, "The submission is missing its payload.", nil)
		return
	}

	response.Error(c, http.StatusBadRequest, "The submission could not be read.", nil)
}
