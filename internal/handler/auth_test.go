package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/avetisk/fullstack-auth/internal/config"
	"github.com/avetisk/fullstack-auth/internal/handler"
	"github.com/avetisk/fullstack-auth/internal/middleware"
	"github.com/avetisk/fullstack-auth/internal/model"
	"github.com/avetisk/fullstack-auth/internal/repository"
	"github.com/avetisk/fullstack-auth/internal/router"
	"github.com/avetisk/fullstack-auth/internal/service"
	"github.com/avetisk/fullstack-auth/internal/token"
)

// memory-backed stores standing in for MySQL; locking mirrors the unique
// index and atomic delete the real schema provides.

type memUsers struct {
	mu      sync.Mutex
	nextID  uint64
	byEmail map[string]model.User
}

func (m *memUsers) Create(_ context.Context, email, passwordHash string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return model.User{}, repository.ErrEmailExists
	}
	m.nextID++
	u := model.User{ID: m.nextID, Email: email, PasswordHash: passwordHash}
	m.byEmail[email] = u
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byEmail[email]
	return ok, nil
}

type memTokens struct {
	mu   sync.Mutex
	rows map[string]model.RefreshToken
}

func (m *memTokens) Store(_ context.Context, userID uint64, value string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[value] = model.RefreshToken{Token: value, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (m *memTokens) FindByToken(_ context.Context, value string) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.rows[value]; ok {
		return t, nil
	}
	return model.RefreshToken{}, repository.ErrNotFound
}

func (m *memTokens) DeleteByToken(_ context.Context, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[value]; !ok {
		return false, nil
	}
	delete(m.rows, value)
	return true, nil
}

func (m *memTokens) DeleteByUserID(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for v, t := range m.rows {
		if t.UserID == userID {
			delete(m.rows, v)
		}
	}
	return nil
}

// newTestApp wires the full pipeline the way cmd/server does, minus Redis
// and the broker.
func newTestApp(t *testing.T) *echo.Echo {
	t.Helper()

	users := &memUsers{byEmail: map[string]model.User{}}
	tokens := &memTokens{rows: map[string]model.RefreshToken{}}
	signer := token.NewSigner("test-secret", 15*time.Minute)
	sessions := service.NewSessionService(users, tokens, signer, nil, bcrypt.MinCost, 7*24*time.Hour)

	gate := middleware.ResolveIdentity(signer, users, service.AccessCookieName)
	limiter := middleware.RateLimit(config.RateLimitConfig{Enabled: false}, nil)

	e := echo.New()
	router.Register(e, handler.NewAuthHandler(sessions), gate, limiter)
	return e
}

func doJSON(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set in response", name)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	e := newTestApp(t)

	// signup sets both cookies on their scoped paths
	rec := doJSON(e, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Success", body["message"])
	assert.Equal(t, "a@x.com", body["email"])

	access := cookieByName(t, rec, service.AccessCookieName)
	refresh := cookieByName(t, rec, service.RefreshCookieName)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, "/api/auth/refresh", refresh.Path)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, 15*60, access.MaxAge)
	assert.Equal(t, 7*24*3600, refresh.MaxAge)

	// authenticated probe with the access cookie
	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "Authenticated", body["message"])
	assert.Equal(t, "a@x.com", body["email"])

	// no cookie -> rejected by the authorization stage
	rec = doJSON(e, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// tampered cookie degrades to unauthenticated, then 401
	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", &http.Cookie{Name: service.AccessCookieName, Value: access.Value + "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// refresh rotates to a different value
	rec = doJSON(e, http.MethodPost, "/api/auth/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := cookieByName(t, rec, service.RefreshCookieName)
	assert.NotEqual(t, refresh.Value, rotated.Value)

	// replaying the original refresh cookie fails
	rec = doJSON(e, http.MethodPost, "/api/auth/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_NoCookie(t *testing.T) {
	t.Parallel()

	e := newTestApp(t)
	rec := doJSON(e, http.MethodPost, "/api/auth/refresh", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No refresh token provided", decodeBody(t, rec)["message"])
}

func TestSignup_Duplicate(t *testing.T) {
	t.Parallel()

	e := newTestApp(t)
	rec := doJSON(e, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	e := newTestApp(t)
	rec := doJSON(e, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// wrong password and unknown email are not distinguishable
	recWrong := doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"bad"}`)
	recGhost := doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"ghost@x.com","password":"pw1"}`)
	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, http.StatusUnauthorized, recGhost.Code)
	assert.Equal(t, decodeBody(t, recWrong)["message"], decodeBody(t, recGhost)["message"])
}

func TestLogout_ClearsCookiesAndRevokesTokens(t *testing.T) {
	t.Parallel()

	e := newTestApp(t)
	rec := doJSON(e, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	access := cookieByName(t, rec, service.AccessCookieName)
	refresh := cookieByName(t, rec, service.RefreshCookieName)

	rec = doJSON(e, http.MethodPost, "/api/auth/logout", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Logged out successfully", body["message"])
	assert.Equal(t, "a@x.com", body["email"])

	clearedAccess := cookieByName(t, rec, service.AccessCookieName)
	clearedRefresh := cookieByName(t, rec, service.RefreshCookieName)
	assert.Empty(t, clearedAccess.Value)
	assert.Empty(t, clearedRefresh.Value)
	// Max-Age=0 on the wire; net/http parses that back as -1
	assert.Negative(t, clearedAccess.MaxAge)
	assert.Negative(t, clearedRefresh.MaxAge)
	assert.Equal(t, "/", clearedAccess.Path)
	assert.Equal(t, "/api/auth/refresh", clearedRefresh.Path)

	// the pre-logout refresh token is gone
	rec = doJSON(e, http.MethodPost, "/api/auth/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// logout without a session is rejected, not an error
	rec = doJSON(e, http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicEndpoints(t *testing.T) {
	t.Parallel()

	e := newTestApp(t)

	rec := doJSON(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/user", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var u struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, 1, u.ID)

	rec = doJSON(e, http.MethodGet, "/api/message", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
