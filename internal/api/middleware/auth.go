package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/deadwick/feedback-service/internal/core/domain"
	"github.com/deadwick/feedback-service/internal/core/service"
	"github.com/deadwick/feedback-service/internal/core/session"
)

// Context keys shared with the handler package.
const (
	ContextSession   = "session"
	ContextSessionID = "sid"
)

// TokenParser validates a bearer token and returns its claims.
type TokenParser interface {
	Parse(token string) (*service.SessionClaims, error)
}

// SessionOpener returns the persisted-session slot for a session id.
type SessionOpener func(sid string) session.Persister

// Auth restores the caller's server-side session and stores a snapshot in
// the context. A missing, malformed or stale token leaves the request
// anonymous; gated routes reject it through Require.
func Auth(tokens TokenParser, open SessionOpener, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextSession, domain.Session{})

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Debug().Msg("ignoring malformed authorization header")
				return next(c)
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("ignoring invalid bearer token")
				return next(c)
			}

			store := session.New(nil, open(claims.SessionID), log)
			if store.Restore(c.Request().Context()) == nil {
				log.Debug().Str("sid", claims.SessionID).Msg("session expired or logged out")
				return next(c)
			}

			c.Set(ContextSession, store.Current())
			c.Set(ContextSessionID, claims.SessionID)
			return next(c)
		}
	}
}

// CurrentSession returns the session snapshot stored by Auth, or an
// anonymous session when Auth did not run.
func CurrentSession(c echo.Context) domain.Session {
	s, _ := c.Get(ContextSession).(domain.Session)
	return s
}
