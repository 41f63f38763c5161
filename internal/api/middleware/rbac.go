package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deadwick/feedback-service/internal/core/authz"
)

// Require enforces the authorization gate for action. A denied anonymous
// caller gets 401; a denied signed-in caller gets 403.
func Require(action authz.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := CurrentSession(c)
			if authz.Authorize(s, action) == authz.Allow {
				return next(c)
			}
			if !s.Authenticated() {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}
