package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deadwick/feedback-service/internal/api/middleware"
	"github.com/deadwick/feedback-service/internal/core/domain"
)

// ctxSession returns the session snapshot injected by the Auth middleware.
// Routes mounted without Auth always see an anonymous session.
func ctxSession(c echo.Context) domain.Session {
	return middleware.CurrentSession(c)
}

// ctxSessionID returns the server-side session id, empty for anonymous callers.
func ctxSessionID(c echo.Context) string {
	sid, _ := c.Get(middleware.ContextSessionID).(string)
	return sid
}
