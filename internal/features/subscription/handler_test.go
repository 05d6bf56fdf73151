package subscription

import (
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/internal/features/auth"
	"github.com/forumhub/forum-server-go/internal/features/forum"
	"github.com/forumhub/forum-server-go/internal/features/user"
	"github.com/forumhub/forum-server-go/pkg/config"
	"github.com/forumhub/forum-server-go/pkg/session"
)

func setupTestApp(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &forum.Forum{}, &Subscription{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager := session.NewManager(session.NewMemoryStore(), config.SessionConfig{
		Secret:     "test-secret",
		CookieName: "forum_session",
		TTL:        time.Hour,
	})

	router := gin.New()
	router.SetHTMLTemplate(testTemplates())
	router.Use(manager.Middleware())

	root := router.Group("")
	auth.RegisterRoutes(root, auth.NewHandler(db, log))
	RegisterRoutes(root, db, NewHandler(db, log))

	return router, db
}

func testTemplates() *template.Template {
	tmpl := template.New("")
	names := []string{
		"subscriptions_index.html", "subscriptions_show.html",
		"subscriptions_new.html", "subscriptions_edit.html",
		"not_found.html", "login.html", "register.html",
	}
	for _, name := range names {
		template.Must(tmpl.New(name).Parse(`{{.notice}}`))
	}
	return tmpl
}

func createAccount(t *testing.T, db *gorm.DB, name, email string) *user.User {
	t.Helper()
	account, err := user.Create(db, name, email, "longenough")
	require.NoError(t, err)
	return account
}

func logonCookie(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()

	form := url.Values{}
	form.Set("session[email]", email)
	form.Set("session[password]", "longenough")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0].Name + "=" + cookies[0].Value
}

func createForum(t *testing.T, db *gorm.DB, title string) *forum.Forum {
	t.Helper()
	f := &forum.Forum{Title: title}
	require.NoError(t, db.Create(f).Error)
	return f
}

func subscribe(t *testing.T, db *gorm.DB, userID, forumID uuid.UUID, priority int) *Subscription {
	t.Helper()
	s := &Subscription{UserID: userID, ForumID: forumID, Priority: priority}
	require.NoError(t, Create(db, s))
	return s
}

func TestIndexRequiresLogon(t *testing.T) {
	router, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/forums", rec.Header().Get("Location"))
}

func TestIndexRequiresLogonJSON(t *testing.T) {
	router, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), LogonNotice)
}

func TestIndexListsOwnForumsByPriority(t *testing.T) {
	router, db := setupTestApp(t)
	reader := createAccount(t, db, "Reader", "reader@example.com")
	other := createAccount(t, db, "Other", "other@example.com")

	urgent := createForum(t, db, "Urgent")
	casual := createForum(t, db, "Casual")
	foreign := createForum(t, db, "Foreign")

	subscribe(t, db, reader.ID, casual.ID, 5)
	subscribe(t, db, reader.ID, urgent.ID, 1)
	subscribe(t, db, other.ID, foreign.ID, 0)

	cookie := logonCookie(t, router, "reader@example.com")

	req := httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []struct {
			Title string `json:"title"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2, "only the caller's forums should be listed")
	assert.Equal(t, "Urgent", envelope.Data[0].Title)
	assert.Equal(t, "Casual", envelope.Data[1].Title)
}

func TestNewRedirectsWhenAlreadySubscribed(t *testing.T) {
	router, db := setupTestApp(t)
	reader := createAccount(t, db, "Reader", "reader@example.com")
	f := createForum(t, db, "General")
	subscribe(t, db, reader.ID, f.ID, 0)

	cookie := logonCookie(t, router, "reader@example.com")

	req := httptest.NewRequest(http.MethodGet, "/subscriptions/new?forum_id="+f.ID.String(), nil)
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/forums", rec.Header().Get("Location"))
}

func TestNewUnknownForumIs404(t *testing.T) {
	router, db := setupTestApp(t)
	createAccount(t, db, "Reader", "reader@example.com")

	cookie := logonCookie(t, router, "reader@example.com")

	req := httptest.NewRequest(http.MethodGet, "/subscriptions/new?forum_id="+uuid.NewString(), nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSubscriptionUnknownForum(t *testing.T) {
	router, db := setupTestApp(t)
	createAccount(t, db, "Reader", "reader@example.com")

	cookie := logonCookie(t, router, "reader@example.com")

	body := `{"subscription": {"forum_id": "` + uuid.NewString() + `", "priority": 1}}`
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var count int64
	require.NoError(t, db.Model(&Subscription{}).Count(&count).Error)
	assert.Zero(t, count, "nothing persists when the forum does not exist")
}

func TestUpdateSubscriptionUnknownForum(t *testing.T) {
	router, db := setupTestApp(t)
	reader := createAccount(t, db, "Reader", "reader@example.com")
	f := createForum(t, db, "General")
	s := subscribe(t, db, reader.ID, f.ID, 0)

	cookie := logonCookie(t, router, "reader@example.com")

	body := `{"subscription": {"forum_id": "` + uuid.NewString() + `", "priority": 1}}`
	req := httptest.NewRequest(http.MethodPatch, "/subscriptions/"+s.ID.String(), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var reloaded Subscription
	require.NoError(t, db.First(&reloaded, "id = ?", s.ID).Error)
	assert.Equal(t, f.ID, reloaded.ForumID)
}

func TestCreateSubscription(t *testing.T) {
	router, db := setupTestApp(t)
	reader := createAccount(t, db, "Reader", "reader@example.com")
	f := createForum(t, db, "General")

	cookie := logonCookie(t, router, "reader@example.com")

	form := url.Values{}
	form.Set("subscription[forum_id]", f.ID.String())
	form.Set("subscription[priority]", "3")

	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)

	var created Subscription
	require.NoError(t, db.First(&created, "user_id = ?", reader.ID).Error)
	assert.Equal(t, f.ID, created.ForumID)
	assert.Equal(t, 3, created.Priority)
	assert.Equal(t, "/subscriptions/"+created.ID.String(), rec.Header().Get("Location"))
}

func TestCreateForcesUserFromSession(t *testing.T) {
	router, db := setupTestApp(t)
	reader := createAccount(t, db, "Reader", "reader@example.com")
	other := createAccount(t, db, "Other", "other@example.com")
	f := createForum(t, db, "General")

	cookie := logonCookie(t, router, "reader@example.com")

	body := `{"subscription": {"forum_id": "` + f.ID.String() + `", "priority": 1, "user_id": "` + other.ID.String() + `"}}`
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created Subscription
	require.NoError(t, db.First(&created, "forum_id = ?", f.ID).Error)
	assert.Equal(t, reader.ID, created.UserID, "the submitted user_id must be ignored")
}

func TestCreateValidationFailureJSON(t *testing.T) {
	router, db := setupTestApp(t)
	createAccount(t, db, "Reader", "reader@example.com")
	f := createForum(t, db, "General")

	cookie := logonCookie(t, router, "reader@example.com")

	body := `{"subscription": {"forum_id": "` + f.ID.String() + `", "priority": -2}}`
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope struct {
		Success bool              `json:"success"`
		Error   map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Error, "priority")

	var count int64
	require.NoError(t, db.Model(&Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateDuplicateSubscription(t *testing.T) {
	router, db := setupTestApp(t)
	reader := createAccount(t, db, "Reader", "reader@example.com")
	f := createForum(t, db, "General")
	subscribe(t, db, reader.ID, f.ID, 0)

	cookie := logonCookie(t, router, "reader@example.com")

	body := `{"subscription": {"forum_id": "` + f.ID.String() + `", "priority": 1}}`
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var count int64
	require.NoError(t, db.Model(&Subscription{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestShowSomeoneElsesSubscriptionIs404(t *testing.T) {
	router, db := setupTestApp(t)
	owner := createAccount(t, db, "Owner", "owner@example.com")
	createAccount(t, db, "Snoop", "snoop@example.com")
	f := createForum(t, db, "General")
	s := subscribe(t, db, owner.ID, f.ID, 0)

	cookie := logonCookie(t, router, "snoop@example.com")

	req := httptest.NewRequest(http.MethodGet, "/subscriptions/"+s.ID.String(), nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateSubscription(t *testing.T) {
	router, db := setupTestApp(t)
	reader := createAccount(t, db, "Reader", "reader@example.com")
	f := createForum(t, db, "General")
	s := subscribe(t, db, reader.ID, f.ID, 0)

	cookie := logonCookie(t, router, "reader@example.com")

	body := `{"subscription": {"priority": 7}}`
	req := httptest.NewRequest(http.MethodPatch, "/subscriptions/"+s.ID.String(), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded Subscription
	require.NoError(t, db.First(&reloaded, "id = ?", s.ID).Error)
	assert.Equal(t, 7, reloaded.Priority)
	assert.Equal(t, f.ID, reloaded.ForumID, "forum stays when not resubmitted")
}

func TestDestroySubscription(t *testing.T) {
	router, db := setupTestApp(t)
	reader := createAccount(t, db, "Reader", "reader@example.com")
	f := createForum(t, db, "General")
	s := subscribe(t, db, reader.ID, f.ID, 0)

	cookie := logonCookie(t, router, "reader@example.com")

	req := httptest.NewRequest(http.MethodDelete, "/subscriptions/"+s.ID.String(), nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, db.Model(&Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDestroySubscriptionHTMLRedirects(t *testing.T) {
	router, db := setupTestApp(t)
	reader := createAccount(t, db, "Reader", "reader@example.com")
	f := createForum(t, db, "General")
	s := subscribe(t, db, reader.ID, f.ID, 0)

	cookie := logonCookie(t, router, "reader@example.com")

	form := url.Values{}
	form.Set("_method", "delete")

	req := httptest.NewRequest(http.MethodDelete, "/subscriptions/"+s.ID.String(), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/subscriptions", rec.Header().Get("Location"))
}
