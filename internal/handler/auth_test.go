package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/OhMinsSup/solid-server-go/internal/auth"
	"github.com/OhMinsSup/solid-server-go/internal/config"
	"github.com/OhMinsSup/solid-server-go/internal/middleware"
	"github.com/OhMinsSup/solid-server-go/internal/model"
	"github.com/OhMinsSup/solid-server-go/internal/repository"
	"github.com/OhMinsSup/solid-server-go/internal/token"
)

const handlerSecret = "handler-secret"

type memAuthStore struct {
	nextID  uint64
	records map[uint64]model.UserAuthentication
	deleted []uint64
}

func newMemAuthStore() *memAuthStore {
	return &memAuthStore{nextID: 1, records: map[uint64]model.UserAuthentication{}}
}

func (m *memAuthStore) Create(_ context.Context, userID uint64, now, expiresAt time.Time) (model.UserAuthentication, error) {
	rec := model.UserAuthentication{ID: m.nextID, UserID: userID, CreatedAt: now, LastValidatedAt: now, ExpiresAt: expiresAt}
	m.records[rec.ID] = rec
	m.nextID++
	return rec, nil
}

func (m *memAuthStore) Delete(_ context.Context, id uint64) error {
	delete(m.records, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type memUserStore struct {
	nextID uint64
	users  map[string]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{nextID: 1, users: map[string]model.User{}}
}

func (m *memUserStore) FindConflict(_ context.Context, email, username string) (string, error) {
	for _, u := range m.users {
		if u.Email == email {
			return "email", nil
		}
		if u.Username == username {
			return "username", nil
		}
	}
	return "", nil
}

func (m *memUserStore) CreateWithProfile(_ context.Context, email, username, passwordHash, _ string) (uint64, error) {
	u := model.User{ID: m.nextID, Email: email, Username: username, PasswordHash: passwordHash}
	m.users[email] = u
	m.nextID++
	return u.ID, nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := m.users[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func newTestAuthHandler(auths *memAuthStore, users *memUserStore) *AuthHandler {
	cfg := config.Config{JWTSecret: handlerSecret, SessionTTLDays: 7, RevalidateWindowMin: 5, BcryptCost: bcrypt.MinCost}
	issuer := auth.NewIssuer(auths, []byte(handlerSecret), cfg.SessionTTL())
	return NewAuthHandler(cfg, auth.NewService(users, issuer, bcrypt.MinCost), auths)
}

func postJSON(t *testing.T, h echo.HandlerFunc, path, body string, mod func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if mod != nil {
		mod(req)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func payload(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestSignup_SetsCookieAndReturnsSession(t *testing.T) {
	t.Parallel()

	h := newTestAuthHandler(newMemAuthStore(), newMemUserStore())
	rec := postJSON(t, h.Signup, "/api/v1/auth/signup",
		`{"email":"a@x.com","username":"alice","password":"pw123456","name":"Alice"}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := payload(t, rec)
	require.NotZero(t, body["userId"])
	require.NotEmpty(t, body["accessToken"])

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, middleware.AccessTokenCookie, cookies[0].Name)
	require.Equal(t, body["accessToken"], cookies[0].Value)
}

func TestSignup_DuplicateEmailReportsField(t *testing.T) {
	t.Parallel()

	h := newTestAuthHandler(newMemAuthStore(), newMemUserStore())
	first := `{"email":"a@x.com","username":"alice","password":"pw123456","name":"Alice"}`
	second := `{"email":"a@x.com","username":"alice2","password":"pw123456","name":"Alice"}`

	require.Equal(t, http.StatusCreated, postJSON(t, h.Signup, "/api/v1/auth/signup", first, nil).Code)

	rec := postJSON(t, h.Signup, "/api/v1/auth/signup", second, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := payload(t, rec)
	require.Equal(t, "ALREADY_EXISTS", body["code"])
	require.Equal(t, "email", body["field"])
}

func TestSignin_UnregisteredEmailIsNotFound(t *testing.T) {
	t.Parallel()

	h := newTestAuthHandler(newMemAuthStore(), newMemUserStore())
	rec := postJSON(t, h.Signin, "/api/v1/auth/signin",
		`{"email":"nobody@x.com","password":"pw123456"}`, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", payload(t, rec)["code"])
}

func TestSignin_WrongPasswordIsBadRequest(t *testing.T) {
	t.Parallel()

	auths := newMemAuthStore()
	users := newMemUserStore()
	h := newTestAuthHandler(auths, users)

	require.Equal(t, http.StatusCreated, postJSON(t, h.Signup, "/api/v1/auth/signup",
		`{"email":"a@x.com","username":"alice","password":"correct1","name":"Alice"}`, nil).Code)
	created := len(auths.records)

	rec := postJSON(t, h.Signin, "/api/v1/auth/signin",
		`{"email":"a@x.com","password":"wrong"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := payload(t, rec)
	require.Equal(t, "BAD_REQUEST", body["code"])
	require.Equal(t, "password", body["field"])
	require.Len(t, auths.records, created, "failed signin must not create a session")
}

func TestLogout_DeletesRecordAndClearsCookie(t *testing.T) {
	t.Parallel()

	auths := newMemAuthStore()
	users := newMemUserStore()
	h := newTestAuthHandler(auths, users)

	signup := postJSON(t, h.Signup, "/api/v1/auth/signup",
		`{"email":"a@x.com","username":"alice","password":"pw123456","name":"Alice"}`, nil)
	tok := payload(t, signup)["accessToken"].(string)
	claims, err := token.Verify([]byte(handlerSecret), tok)
	require.NoError(t, err)

	rec := postJSON(t, h.Logout, "/api/v1/auth/logout", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []uint64{claims.AuthID}, auths.deleted)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Empty(t, cookies[0].Value)
}

func TestLogout_GarbageTokenStillSucceeds(t *testing.T) {
	t.Parallel()

	auths := newMemAuthStore()
	h := newTestAuthHandler(auths, newMemUserStore())

	rec := postJSON(t, h.Logout, "/api/v1/auth/logout", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer garbage")
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, auths.deleted)
}
