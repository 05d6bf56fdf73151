package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forumhub/forum-server-go/pkg/session"
)

// Format is the response shape negotiated once per request. The same handler
// result maps to a redirect/render for HTML callers and to an envelope for
// JSON callers.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// Negotiate picks the response format from the Accept header. HTML is the
// default; JSON is chosen only when the caller asks for it.
func Negotiate(c *gin.Context) Format {
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		return FormatJSON
	}
	return FormatHTML
}

// Envelope is the standard JSON response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Redirect stores the notice as a flash and sends the caller to location.
func Redirect(c *gin.Context, location, notice string) {
	if notice != "" {
		if scope := session.FromContext(c); scope != nil {
			_ = scope.SetFlash(notice)
		}
	}

	c.Redirect(http.StatusSeeOther, location)
}

// HTML renders a template, injecting the pending flash notice and the
// signed-in identity so every page can show them.
func HTML(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if scope := session.FromContext(c); scope != nil {
		if _, ok := data["notice"]; !ok {
			data["notice"] = scope.PopFlash()
		}
		data["identity"] = scope.Identity()
	}

	c.HTML(status, name, data)
}

// Success writes a success envelope with optional message and data.
func Success(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created is a convenience helper for POST 201 responses.
func Created(c *gin.Context, data interface{}, message string) {
	Success(c, http.StatusCreated, data, message)
}

// NoContent writes an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes an error envelope capturing the message and optional payload.
func Error(c *gin.Context, status int, message string, err interface{}) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Error:   err,
	})
}

// ErrorWithLog writes an error envelope and logs the error via slog.
func ErrorWithLog(logger *slog.Logger, c *gin.Context, status int, message string, err error) {
	if logger != nil && err != nil {
		logger.ErrorContext(c.Request.Context(), message, slog.Int("status", status), slog.String("error", err.Error()))
	}

	Error(c, status, message, errMessage(err))
}

func errMessage(err error) interface{} {
	if err == nil {
		return nil
	}
	return err.Error()
}
