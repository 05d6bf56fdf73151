package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forumhub/forum-server-go/pkg/config"
)

const contextKey = "session_scope"

// Manager ties the cookie transport to the server-side store.
type Manager struct {
	store Store
	cfg   config.SessionConfig
}

// NewManager creates a session manager.
func NewManager(store Store, cfg config.SessionConfig) *Manager {
	return &Manager{store: store, cfg: cfg}
}

// Middleware resolves the request's session scope and places it in the Gin
// context. Every request gets a scope; an anonymous request simply has no
// identity yet.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKey, m.resolve(c))
		c.Next()
	}
}

// FromContext retrieves the session scope set by Middleware.
func FromContext(c *gin.Context) *Scope {
	value, exists := c.Get(contextKey)
	if !exists {
		return nil
	}

	scope, ok := value.(*Scope)
	if !ok {
		return nil
	}

	return scope
}

func (m *Manager) resolve(c *gin.Context) *Scope {
	scope := &Scope{manager: m, ctx: c, data: &Data{}}

	cookie, err := c.Cookie(m.cfg.CookieName)
	if err != nil || cookie == "" {
		return scope
	}

	id, err := verifyToken(cookie, m.cfg.Secret)
	if err != nil {
		return scope
	}

	data, err := m.store.Get(c.Request.Context(), id)
	if err != nil {
		// Expired or tampered sessions fall back to an anonymous scope.
		return scope
	}

	scope.id = id
	scope.data = data
	return scope
}

// Scope is one request's view of its session. Mutations persist immediately,
// establishing the session (id + cookie) on first write.
type Scope struct {
	manager *Manager
	ctx     *gin.Context
	id      string
	data    *Data
}

// Identity returns the signed-in identity, or nil for anonymous scopes.
func (s *Scope) Identity() *Identity {
	if s == nil || s.data == nil {
		return nil
	}
	return s.data.Identity
}

// SignIn binds an identity to the session under a fresh session id.
func (s *Scope) SignIn(identity Identity) error {
	// Rotate the id on privilege change
	if s.id != "" {
		_ = s.manager.store.Delete(s.ctx.Request.Context(), s.id)
		s.id = ""
	}

	s.data.Identity = &identity
	return s.persist()
}

// SignOut discards the session server-side and expires the cookie.
func (s *Scope) SignOut() error {
	if s.id != "" {
		if err := s.manager.store.Delete(s.ctx.Request.Context(), s.id); err != nil {
			return err
		}
	}

	s.id = ""
	s.data = &Data{}
	s.setCookie("", -1)
	return nil
}

// SetFlash records a one-shot notice for the next HTML render.
func (s *Scope) SetFlash(notice string) error {
	s.data.Flash = notice
	return s.persist()
}

// PopFlash returns the pending notice and clears it.
func (s *Scope) PopFlash() string {
	if s == nil || s.data == nil || s.data.Flash == "" {
		return ""
	}

	notice := s.data.Flash
	s.data.Flash = ""
	_ = s.persist()
	return notice
}

func (s *Scope) persist() error {
	if s.id == "" {
		s.id = uuid.NewString()

		token, err := signToken(s.id, s.manager.cfg.Secret, s.manager.cfg.TTL)
		if err != nil {
			return err
		}
		s.setCookie(token, int(s.manager.cfg.TTL.Seconds()))
	}

	return s.manager.store.Save(s.ctx.Request.Context(), s.id, s.data, s.manager.cfg.TTL)
}

func (s *Scope) setCookie(value string, maxAge int) {
	http.SetCookie(s.ctx.Writer, &http.Cookie{
		Name:     s.manager.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.manager.cfg.SecureCookie,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
