package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"village/internal/database"
	"village/internal/models"
	"village/internal/security"
	"village/internal/service"
	"village/internal/storage"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWith(t, nil)
}

// newTestAPIWith lets a test adjust the router config before it is built
func newTestAPIWith(t *testing.T, adjust func(*RouterConfig)) *testAPI {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(originalOutput) })

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	services := service.New(db, service.Options{
		Tokens: security.NewTokenIssuer("test-secret", time.Hour),
	})
	cfg := RouterConfig{
		Services:          services,
		CSRF:              security.NewCSRFGenerator("test-csrf-secret"),
		LoginLimiter:      security.NewRateLimiter(1000, time.Minute),
		ChildLoginLimiter: security.NewRateLimiter(5, time.Minute),
		Ping:              db.PingContext,
	}
	if adjust != nil {
		adjust(&cfg)
	}
	return &testAPI{t: t, handler: NewRouter(cfg)}
}

// client carries the cookies and CSRF token of one signed-in browser
type client struct {
	api     *testAPI
	cookies map[string]*http.Cookie
	csrf    string
	bearer  string
	// forwardedFor is sent as X-Forwarded-For when set
	forwardedFor string
}

func (a *testAPI) anonymous() *client {
	return &client{api: a, cookies: map[string]*http.Cookie{}}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.api.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.api.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	if c.csrf != "" {
		req.Header.Set(CSRFHeaderName, c.csrf)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if c.forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", c.forwardedFor)
	}

	rec := httptest.NewRecorder()
	c.api.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
}

// register signs up a parent and returns a client holding their session
func (a *testAPI) register(email, name string) *client {
	a.t.Helper()
	c := a.anonymous()
	rec := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "password123",
		"name":     name,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var session sessionResponse
	decodeData(a.t, rec, &session)
	require.NotEmpty(a.t, session.CSRFToken)
	require.Contains(a.t, c.cookies, SessionCookieName)
	c.csrf = session.CSRFToken
	return c
}

func (c *client) primaryFamily() models.Family {
	c.api.t.Helper()
	rec := c.do(http.MethodGet, "/api/families", nil)
	require.Equal(c.api.t, http.StatusOK, rec.Code)
	var families []models.Family
	decodeData(c.api.t, rec, &families)
	require.NotEmpty(c.api.t, families)
	return families[0]
}

func (c *client) createChild(familyID int64, name string) models.Child {
	c.api.t.Helper()
	rec := c.do(http.MethodPost, fmt.Sprintf("/api/families/%d/children", familyID), map[string]string{
		"name":        name,
		"grade_level": "3rd",
	})
	require.Equal(c.api.t, http.StatusCreated, rec.Code, rec.Body.String())
	var child models.Child
	decodeData(c.api.t, rec, &child)
	return child
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)
	c := api.anonymous()

	rec := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	MarkReady()
	rec = c.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var status StartupStatus
	decodeData(t, rec, &status)
	assert.True(t, status.Ready)
	assert.Equal(t, 100, status.Progress)
}

func TestRegisterAndSession(t *testing.T) {
	api := newTestAPI(t)
	parent := api.register("parent@example.com", "Pat Parent")

	rec := parent.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me meResponse
	decodeData(t, rec, &me)
	assert.Equal(t, "parent@example.com", me.User.Email)
	assert.True(t, me.User.IsAdmin, "first user is the administrator")
	assert.Len(t, me.Families, 1)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = parent.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, parent.cookies, SessionCookieName)

	rec = parent.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidationAndConflicts(t *testing.T) {
	api := newTestAPI(t)
	c := api.anonymous()

	rec := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "short@example.com", "password": "short", "name": "Sam",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	api.register("taken@example.com", "First")
	rec = c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "TAKEN@example.com", "password": "password123", "name": "Second",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "taken@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCSRFRequiredForCookieSessions(t *testing.T) {
	api := newTestAPI(t)
	parent := api.register("csrf@example.com", "Casey")
	token := parent.csrf

	parent.csrf = ""
	rec := parent.do(http.MethodPost, "/api/families", map[string]string{"name": "Second Family"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	parent.csrf = "not-a-token"
	rec = parent.do(http.MethodPost, "/api/families", map[string]string{"name": "Second Family"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	parent.csrf = token
	rec = parent.do(http.MethodPost, "/api/families", map[string]string{"name": "Second Family"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Safe methods never need the header
	parent.csrf = ""
	rec = parent.do(http.MethodGet, "/api/families", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerTokenAuth(t *testing.T) {
	api := newTestAPI(t)
	api.register("token@example.com", "Toni")

	c := api.anonymous()
	rec := c.do(http.MethodPost, "/api/auth/token", map[string]string{
		"email": "token@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok tokenResponse
	decodeData(t, rec, &tok)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.NotContains(t, c.cookies, SessionCookieName, "token exchange must not start a cookie session")

	c.bearer = tok.Token
	rec = c.do(http.MethodPost, "/api/families", map[string]string{"name": "API Family"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	c.bearer = tok.Token + "x"
	rec = c.do(http.MethodGet, "/api/families", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnauthenticatedRequests(t *testing.T) {
	api := newTestAPI(t)
	c := api.anonymous()

	for _, path := range []string{"/api/families", "/api/children", "/api/dashboard", "/api/auth/me"} {
		rec := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	c.cookies[SessionCookieName] = &http.Cookie{Name: SessionCookieName, Value: "stale"}
	rec := c.do(http.MethodGet, "/api/families", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, c.cookies, SessionCookieName, "stale cookie is cleared")
}

func TestFamilyIsolation(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner@example.com", "Olive")
	other := api.register("other@example.com", "Oscar")

	child := owner.createChild(owner.primaryFamily().ID, "Ada")

	rec := other.do(http.MethodGet, fmt.Sprintf("/api/children/%d", child.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = other.do(http.MethodGet, fmt.Sprintf("/api/children/%d/courses", child.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = owner.do(http.MethodGet, "/api/children/999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = owner.do(http.MethodGet, "/api/children/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	admin := api.register("admin@example.com", "Ada Admin")
	parent := api.register("plain@example.com", "Paul")

	rec := admin.do(http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats map[string]int
	decodeData(t, rec, &stats)
	assert.Equal(t, 2, stats["users"])

	rec = parent.do(http.MethodGet, "/api/admin/stats", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	closed := false
	rec = admin.do(http.MethodPut, "/api/admin/registration", map[string]*bool{"open": &closed})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.anonymous().do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "late@example.com", "password": "password123", "name": "Late",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCourseLifecycle(t *testing.T) {
	api := newTestAPI(t)
	parent := api.register("courses@example.com", "Cora")
	child := parent.createChild(parent.primaryFamily().ID, "Ben")

	rec := parent.do(http.MethodPost, fmt.Sprintf("/api/children/%d/courses", child.ID), map[string]interface{}{
		"name":           "Math",
		"subject":        "Mathematics",
		"total_lessons":  10,
		"current_lesson": 1,
		"start_date":     "2024-09-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var course models.Course
	decodeData(t, rec, &course)

	rec = parent.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/advance", course.ID), map[string]int{"count": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &course)
	assert.Equal(t, 3, course.CurrentLesson)

	rec = parent.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/advance", course.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &course)
	assert.Equal(t, 4, course.CurrentLesson)

	rec = parent.do(http.MethodPost, fmt.Sprintf("/api/children/%d/courses", child.ID), map[string]interface{}{
		"name":          "",
		"total_lessons": 10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = parent.do(http.MethodDelete, fmt.Sprintf("/api/courses/%d", course.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = parent.do(http.MethodGet, fmt.Sprintf("/api/courses/%d", course.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChildLoginAndReading(t *testing.T) {
	api := newTestAPI(t)
	parent := api.register("kids@example.com", "Kim")
	family := parent.primaryFamily()
	child := parent.createChild(family.ID, "Dot")
	require.NotEmpty(t, child.Username)
	require.NotEmpty(t, child.PIN)

	kid := api.anonymous()
	rec := kid.do(http.MethodPost, "/api/child/login", map[string]string{
		"family_code": family.FamilyCode,
		"username":    child.Username,
		"pin":         "0000000",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = kid.do(http.MethodPost, "/api/child/login", map[string]string{
		"family_code": family.FamilyCode,
		"username":    child.Username,
		"pin":         child.PIN,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, kid.cookies, ChildSessionCookieName)
	var session childSessionResponse
	decodeData(t, rec, &session)
	assert.Empty(t, session.Child.PIN)
	kid.csrf = session.CSRFToken

	rec = kid.do(http.MethodGet, "/api/child/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), child.PIN)

	// A child session is not a parent session
	rec = kid.do(http.MethodGet, "/api/families", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	book := map[string]interface{}{"title": "Matilda", "minutes": 20, "pages": 15}
	token := kid.csrf
	kid.csrf = ""
	rec = kid.do(http.MethodPost, "/api/child/reading", book)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	kid.csrf = token
	rec = kid.do(http.MethodPost, "/api/child/reading", book)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = parent.do(http.MethodGet, fmt.Sprintf("/api/children/%d/reading/totals", child.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var totals models.ReadingTotals
	decodeData(t, rec, &totals)
	assert.Equal(t, 20, totals.Minutes)
	assert.Equal(t, 15, totals.Pages)
}

func TestChildLoginLockout(t *testing.T) {
	api := newTestAPI(t)
	parent := api.register("lock@example.com", "Lee")
	family := parent.primaryFamily()
	child := parent.createChild(family.ID, "Dot")
	sibling := parent.createChild(family.ID, "Sam")

	login := func(username, pin, from string) *httptest.ResponseRecorder {
		c := api.anonymous()
		c.forwardedFor = from
		return c.do(http.MethodPost, "/api/child/login", map[string]string{
			"family_code": family.FamilyCode,
			"username":    username,
			"pin":         pin,
		})
	}

	for i := 0; i < 5; i++ {
		rec := login(child.Username, "0000000", fmt.Sprintf("198.51.100.%d", i))
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	rec := login(child.Username, child.PIN, "198.51.100.99")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "a new client address does not reset the account")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = login(sibling.Username, sibling.PIN, "198.51.100.1")
	assert.Equal(t, http.StatusOK, rec.Code, "other accounts are unaffected")
}

func TestRateLimitClientAddress(t *testing.T) {
	attempts := func(api *testAPI) []int {
		var codes []int
		for i := 0; i < 3; i++ {
			c := api.anonymous()
			c.forwardedFor = fmt.Sprintf("203.0.113.%d", i)
			rec := c.do(http.MethodPost, "/api/auth/login", credentials{Email: "nobody@example.com", Password: "wrong-password"})
			codes = append(codes, rec.Code)
		}
		return codes
	}

	t.Run("forwarding headers ignored by default", func(t *testing.T) {
		api := newTestAPIWith(t, func(cfg *RouterConfig) {
			cfg.LoginLimiter = security.NewRateLimiter(2, time.Minute)
		})
		assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, attempts(api))
	})

	t.Run("trusted proxy", func(t *testing.T) {
		api := newTestAPIWith(t, func(cfg *RouterConfig) {
			cfg.LoginLimiter = security.NewRateLimiter(2, time.Minute)
			cfg.TrustProxy = true
		})
		assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized}, attempts(api))
	})
}

func TestFilesServedWithStoredType(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)
	api := newTestAPIWith(t, func(cfg *RouterConfig) {
		cfg.Files = store.Handler()
	})

	key := storage.NewKey(3, "image/png")
	markup := "<html><script>alert(1)</script></html>"
	require.NoError(t, store.Put(context.Background(), key, strings.NewReader(markup), int64(len(markup)), "image/png"))

	c := api.anonymous()
	rec := c.do(http.MethodGet, "/files/"+key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = c.do(http.MethodGet, "/files/portfolio/3/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAchievementCatalogIsPublic(t *testing.T) {
	api := newTestAPI(t)
	c := api.anonymous()

	rec := c.do(http.MethodGet, "/api/achievements?category=mastery", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "first_perfect")
	assert.NotContains(t, rec.Body.String(), "first_lesson")

	rec = c.do(http.MethodGet, "/api/achievements?category=sports", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = c.do(http.MethodGet, "/api/achievements/first_lesson", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/api/achievements/no_such_badge", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
