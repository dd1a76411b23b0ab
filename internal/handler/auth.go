package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/OhMinsSup/solid-server-go/internal/auth"
	"github.com/OhMinsSup/solid-server-go/internal/config"
	"github.com/OhMinsSup/solid-server-go/internal/middleware"
	"github.com/OhMinsSup/solid-server-go/internal/token"
)

// SessionKiller is how logout invalidates the presented session: deleting
// the record behind the token. Satisfied by *repository.AuthRepo.
type SessionKiller interface {
	Delete(ctx context.Context, id uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Sessions *auth.Service
	Auths    SessionKiller
}

func NewAuthHandler(cfg config.Config, sessions *auth.Service, auths SessionKiller) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Sessions: sessions, Auths: auths}
}

// ----- DTOs -----

type signupReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
type signinReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup: create user + profile, issue a session, set the cookie.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "invalid body", "field": nil})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "email/username/password/name required", "field": nil})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Sessions.Signup(ctx, auth.SignupInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailConflict):
			return c.JSON(http.StatusConflict, echo.Map{"code": "ALREADY_EXISTS", "message": "email already registered", "field": "email"})
		case errors.Is(err, auth.ErrUsernameConflict):
			return c.JSON(http.StatusConflict, echo.Map{"code": "ALREADY_EXISTS", "message": "username already taken", "field": "username"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "signup failed", "field": nil})
	}

	h.setSessionCookie(c, sess.AccessToken)
	return c.JSON(http.StatusCreated, sess)
}

// Signin: verify credentials and issue a fresh session.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "invalid body", "field": nil})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "email/password required", "field": nil})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Sessions.Signin(ctx, auth.SigninInput{Email: req.Email, Password: req.Password})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailNotRegistered):
			return c.JSON(http.StatusNotFound, echo.Map{"code": "NOT_FOUND", "message": "email not registered", "field": "email"})
		case errors.Is(err, auth.ErrIncorrectPassword):
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "incorrect password", "field": "password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "signin failed", "field": nil})
	}

	h.setSessionCookie(c, sess.AccessToken)
	return c.JSON(http.StatusOK, sess)
}

// Logout sits on the gate's bypass list, so it must cope with any token
// state. When the presented token still verifies, the backing record is
// deleted, invalidating every copy of the token; either way the cookie is
// cleared and the call succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := middleware.ExtractToken(c); raw != "" {
		if claims, err := token.Verify([]byte(h.Cfg.JWTSecret), raw); err == nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			if err := h.Auths.Delete(ctx, claims.AuthID); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "logout failed", "field": nil})
			}
		}
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity the gate resolved for this request.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, tok string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tok,
		Path:     "/",
		Expires:  time.Now().UTC().Add(h.Cfg.SessionTTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
