package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/OhMinsSup/solid-server-go/internal/config"
	"github.com/OhMinsSup/solid-server-go/internal/model"
	"github.com/OhMinsSup/solid-server-go/internal/repository"
	"github.com/OhMinsSup/solid-server-go/internal/token"
)

const gateSecret = "gate-secret"

type gateAuthStore struct {
	recs    map[uint64]model.UserAuthentication
	touches []uint64
}

func (f *gateAuthStore) FindByID(_ context.Context, id uint64) (model.UserAuthentication, error) {
	rec, ok := f.recs[id]
	if !ok {
		return model.UserAuthentication{}, repository.ErrNotFound
	}
	return rec, nil
}

func (f *gateAuthStore) Touch(_ context.Context, id uint64, now time.Time) error {
	f.touches = append(f.touches, id)
	rec := f.recs[id]
	rec.LastValidatedAt = now
	f.recs[id] = rec
	return nil
}

type gateUserStore struct {
	users map[uint64]model.SessionUser
}

func (f *gateUserStore) FindSessionUser(_ context.Context, id uint64) (model.SessionUser, error) {
	u, ok := f.users[id]
	if !ok {
		return model.SessionUser{}, repository.ErrNotFound
	}
	return u, nil
}

func gateConfig() config.Config {
	return config.Config{
		JWTSecret:           gateSecret,
		SessionTTLDays:      7,
		RevalidateWindowMin: 5,
		AuthBypassPaths:     []string{"/api/v1/auth/logout"},
	}
}

// session seeds one user with a live record and returns a matching token.
func session(t *testing.T, auths *gateAuthStore, users *gateUserStore, lastValidated time.Time) string {
	t.Helper()
	now := time.Now().UTC()
	auths.recs[1] = model.UserAuthentication{
		ID: 1, UserID: 10,
		CreatedAt:       now.Add(-time.Hour),
		LastValidatedAt: lastValidated,
		ExpiresAt:       now.Add(6 * 24 * time.Hour),
	}
	users.users[10] = model.SessionUser{ID: 10, Email: "a@x.com", Username: "alice"}

	raw, err := token.Sign([]byte(gateSecret), 1, 10, time.Hour)
	require.NoError(t, err)
	return raw
}

type gateResult struct {
	rec        *httptest.ResponseRecorder
	nextCalled bool
	identity   *model.SessionUser
}

func runGate(t *testing.T, auths *gateAuthStore, users *gateUserStore, req *http.Request) gateResult {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	res := gateResult{rec: rec}
	h := SessionGate(gateConfig(), auths, users)(func(c echo.Context) error {
		res.nextCalled = true
		res.identity = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return res
}

func rejectCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestGate_BypassSkipsTokenEntirely(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer total-garbage")

	res := runGate(t, &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}, &gateUserStore{}, req)
	require.True(t, res.nextCalled)
	require.Nil(t, res.identity)
}

func TestGate_NoTokenPassesAnonymously(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)

	res := runGate(t, auths, &gateUserStore{}, req)
	require.True(t, res.nextCalled)
	require.Nil(t, res.identity)
	require.Empty(t, auths.touches)
}

func TestGate_ValidCookieTokenResolvesIdentity(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}
	raw := session(t, auths, users, time.Now().UTC())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: raw})

	res := runGate(t, auths, users, req)
	require.True(t, res.nextCalled)
	require.NotNil(t, res.identity)
	require.Equal(t, uint64(10), res.identity.ID)
	require.Equal(t, "alice", res.identity.Username)
}

func TestGate_BearerHeaderFallback(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}
	raw := session(t, auths, users, time.Now().UTC())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	res := runGate(t, auths, users, req)
	require.True(t, res.nextCalled)
	require.NotNil(t, res.identity)
}

func TestGate_CookieTakesPrecedenceOverHeader(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}
	raw := session(t, auths, users, time.Now().UTC())

	// Garbage cookie must win over a valid header.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "garbage"})
	req.Header.Set("Authorization", "Bearer "+raw)

	res := runGate(t, auths, users, req)
	require.False(t, res.nextCalled)
	require.Equal(t, http.StatusUnauthorized, res.rec.Code)
	require.Equal(t, "INVALID_TOKEN", rejectCode(t, res.rec))
}

func TestGate_ExpiredTokenIsTokenExpired(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}
	session(t, auths, users, time.Now().UTC())

	raw, err := token.Sign([]byte(gateSecret), 1, 10, -time.Second)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	res := runGate(t, auths, users, req)
	require.False(t, res.nextCalled)
	require.Equal(t, http.StatusUnauthorized, res.rec.Code)
	require.Equal(t, "TOKEN_EXPIRED", rejectCode(t, res.rec))
	require.Empty(t, auths.touches, "rejection must not write")
}

func TestGate_TamperedTokenIsInvalid(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}
	raw := session(t, auths, users, time.Now().UTC())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw+"x")

	res := runGate(t, auths, users, req)
	require.False(t, res.nextCalled)
	require.Equal(t, "INVALID_TOKEN", rejectCode(t, res.rec))
}

func TestGate_MissingRecordIsInvalid(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}

	raw, err := token.Sign([]byte(gateSecret), 99, 10, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	res := runGate(t, auths, users, req)
	require.False(t, res.nextCalled)
	require.Equal(t, "INVALID_TOKEN", rejectCode(t, res.rec))
}

func TestGate_ExpiredRecordIsInvalidNotExpired(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}
	raw := session(t, auths, users, time.Now().UTC())

	// Token remains structurally valid and unexpired; only the record lapses.
	rec := auths.recs[1]
	rec.ExpiresAt = time.Now().UTC().Add(-time.Second)
	auths.recs[1] = rec

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	res := runGate(t, auths, users, req)
	require.False(t, res.nextCalled)
	require.Equal(t, "INVALID_TOKEN", rejectCode(t, res.rec))
	require.Empty(t, auths.touches)
}

func TestGate_OrphanedRecordIsInvalid(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}
	raw := session(t, auths, users, time.Now().UTC())
	delete(users.users, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	res := runGate(t, auths, users, req)
	require.False(t, res.nextCalled)
	require.Equal(t, "INVALID_TOKEN", rejectCode(t, res.rec))
}

func TestGate_FreshSessionIsNotTouched(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}
	raw := session(t, auths, users, time.Now().UTC().Add(-time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	res := runGate(t, auths, users, req)
	require.True(t, res.nextCalled)
	require.Empty(t, auths.touches)
}

func TestGate_StaleSessionTouchedOnce(t *testing.T) {
	t.Parallel()

	auths := &gateAuthStore{recs: map[uint64]model.UserAuthentication{}}
	users := &gateUserStore{users: map[uint64]model.SessionUser{}}
	raw := session(t, auths, users, time.Now().UTC().Add(-10*time.Minute))

	// First request over the window writes once.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	res := runGate(t, auths, users, req)
	require.True(t, res.nextCalled)
	require.Len(t, auths.touches, 1)

	// A second request inside the refreshed window must not write again.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	res = runGate(t, auths, users, req)
	require.True(t, res.nextCalled)
	require.Len(t, auths.touches, 1)
}
