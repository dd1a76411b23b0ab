package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/OhMinsSup/solid-server-go/internal/config"
	"github.com/OhMinsSup/solid-server-go/internal/model"
	"github.com/OhMinsSup/solid-server-go/internal/repository"
	"github.com/OhMinsSup/solid-server-go/internal/token"
)

// AccessTokenCookie is the cookie field the gate reads the token from
// before falling back to the Authorization header.
const AccessTokenCookie = "access_token"

// identityKey is the echo context key the resolved identity is stored
// under. Read it through CurrentUser.
const identityKey = "auth_user"

// AuthStore is the slice of authentication-record persistence the gate
// needs. Satisfied by *repository.AuthRepo.
type AuthStore interface {
	FindByID(ctx context.Context, id uint64) (model.UserAuthentication, error)
	Touch(ctx context.Context, id uint64, now time.Time) error
}

// IdentityStore resolves the record's owner with profile data. Satisfied
// by *repository.UserRepo.
type IdentityStore interface {
	FindSessionUser(ctx context.Context, id uint64) (model.SessionUser, error)
}

// SessionGate returns the middleware that authenticates every inbound
// request. Per request it runs a fixed, short-circuiting sequence:
//
//  1. bypass paths are accepted unconditionally, token unexamined
//  2. token extraction: cookie first, then "Authorization: Bearer";
//     with no token the request proceeds anonymously — routes that need
//     an identity must additionally apply RequireUser (a route that
//     forgets it silently serves anonymous traffic, so keep the route
//     table honest)
//  3. signature/shape verification        -> 401 INVALID_TOKEN
//  4. signed expiry claim                 -> 401 TOKEN_EXPIRED
//  5. authentication record lookup        -> 401 INVALID_TOKEN when gone
//  6. record-level expiry                 -> 401 INVALID_TOKEN
//  7. user lookup (profile + tech stacks) -> 401 INVALID_TOKEN when gone
//  8. debounced re-validation: last_validated_at is rewritten only when
//     older than the configured window, bounding writes to one per
//     window per session however hot the traffic
//  9. identity attached to the context
//
// Token expiry is checked strictly before record expiry and the two
// reject reasons stay distinguishable so clients can tell "re-login"
// from "stale session". Rejections are terminal; the gate never writes
// on a rejected request. Storage failures are internal errors, never
// authentication failures.
func SessionGate(cfg config.Config, auths AuthStore, users IdentityStore) echo.MiddlewareFunc {
	bypass := make(map[string]bool, len(cfg.AuthBypassPaths))
	for _, p := range cfg.AuthBypassPaths {
		bypass[p] = true
	}
	secret := []byte(cfg.JWTSecret)
	window := cfg.RevalidateWindow()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if bypass[c.Request().URL.Path] {
				return next(c)
			}

			raw := ExtractToken(c)
			if raw == "" {
				// Anonymous pass-through.
				return next(c)
			}

			claims, err := token.Verify(secret, raw)
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"code": "TOKEN_EXPIRED", "message": "expired token", "field": nil,
					})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"code": "INVALID_TOKEN", "message": "invalid token", "field": nil,
				})
			}

			ctx := c.Request().Context()
			now := time.Now().UTC()

			rec, err := auths.FindByID(ctx, claims.AuthID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"code": "INVALID_TOKEN", "message": "invalid token", "field": nil,
					})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"code": "INTERNAL_ERROR", "message": "session lookup failed", "field": nil,
				})
			}
			if now.After(rec.ExpiresAt) {
				// Record-level expiry is invalidity, not token expiry.
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"code": "INVALID_TOKEN", "message": "invalid token", "field": nil,
				})
			}

			user, err := users.FindSessionUser(ctx, rec.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					// Orphaned record.
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"code": "INVALID_TOKEN", "message": "invalid token", "field": nil,
					})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"code": "INTERNAL_ERROR", "message": "user lookup failed", "field": nil,
				})
			}

			if now.Sub(rec.LastValidatedAt) > window {
				if err := auths.Touch(ctx, rec.ID, now); err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{
						"code": "INTERNAL_ERROR", "message": "session refresh failed", "field": nil,
					})
				}
			}

			c.Set(identityKey, &user)
			return next(c)
		}
	}
}

// ExtractToken reads the bearer credential from the access-token cookie,
// falling back to the Authorization header. Returns "" when neither is
// present.
func ExtractToken(c echo.Context) string {
	if ck, err := c.Cookie(AccessTokenCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// CurrentUser returns the identity the gate attached, or nil when the
// request is anonymous.
func CurrentUser(c echo.Context) *model.SessionUser {
	if u, ok := c.Get(identityKey).(*model.SessionUser); ok {
		return u
	}
	return nil
}
