package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumhub/forum-server-go/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:     "test-secret",
		CookieName: "forum_session",
		TTL:        time.Hour,
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id := uuid.NewString()
	identity := &Identity{ID: uuid.New(), Name: "Ada"}

	require.NoError(t, store.Save(ctx, id, &Data{Identity: identity}, time.Hour))

	data, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, data.Identity)
	assert.Equal(t, identity.ID, data.Identity.ID)
	assert.Equal(t, "Ada", data.Identity.Name)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid", &Data{}, time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := signToken("sid-123", "secret", time.Hour)
	require.NoError(t, err)

	id, err := verifyToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "sid-123", id)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := signToken("sid-123", "secret", time.Hour)
	require.NoError(t, err)

	_, err = verifyToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	_, err := verifyToken("not-a-token", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// signInAndCookie runs a request that signs in and returns the session cookie.
func signInAndCookie(t *testing.T, manager *Manager, identity Identity) *http.Cookie {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(manager.Middleware())
	router.POST("/login", func(c *gin.Context) {
		require.NoError(t, FromContext(c).SignIn(identity))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestScopeSignInPersistsIdentity(t *testing.T) {
	manager := NewManager(NewMemoryStore(), testSessionConfig())
	identity := Identity{ID: uuid.New(), Name: "Grace"}
	cookie := signInAndCookie(t, manager, identity)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(manager.Middleware())
	router.GET("/me", func(c *gin.Context) {
		got := FromContext(c).Identity()
		require.NotNil(t, got)
		assert.Equal(t, identity.ID, got.ID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScopeTamperedCookieIsAnonymous(t *testing.T) {
	manager := NewManager(NewMemoryStore(), testSessionConfig())
	cookie := signInAndCookie(t, manager, Identity{ID: uuid.New(), Name: "Eve"})
	cookie.Value += "tampered"

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(manager.Middleware())
	router.GET("/me", func(c *gin.Context) {
		assert.Nil(t, FromContext(c).Identity())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFlashIsConsumedOnce(t *testing.T) {
	manager := NewManager(NewMemoryStore(), testSessionConfig())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(manager.Middleware())
	router.POST("/flash", func(c *gin.Context) {
		require.NoError(t, FromContext(c).SetFlash("saved"))
		c.Status(http.StatusNoContent)
	})
	router.GET("/read", func(c *gin.Context) {
		c.String(http.StatusOK, FromContext(c).PopFlash())
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flash", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	// First read sees the notice
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(cookies[0])
	router.ServeHTTP(w, req)
	assert.Equal(t, "saved", w.Body.String())

	// Second read does not
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(cookies[0])
	router.ServeHTTP(w, req)
	assert.Equal(t, "", w.Body.String())
}

func TestSignOutClearsSession(t *testing.T) {
	manager := NewManager(NewMemoryStore(), testSessionConfig())
	cookie := signInAndCookie(t, manager, Identity{ID: uuid.New(), Name: "Linus"})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(manager.Middleware())
	router.POST("/logout", func(c *gin.Context) {
		require.NoError(t, FromContext(c).SignOut())
		c.Status(http.StatusNoContent)
	})
	router.GET("/me", func(c *gin.Context) {
		assert.Nil(t, FromContext(c).Identity())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	// The old cookie no longer resolves to a session
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
