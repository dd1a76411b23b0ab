package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireUser is the stricter guard layered on routes that need an
// authenticated caller. SessionGate lets anonymous requests through by
// design, so any route that reads the current user must also apply this
// middleware. It rejects with 401 when no identity was resolved.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"code": "INVALID_TOKEN", "message": "login required", "field": nil,
				})
			}
			return next(c)
		}
	}
}
