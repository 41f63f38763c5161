package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/deadwick/feedback-service/internal/api/metrics"
	"github.com/deadwick/feedback-service/internal/api/middleware"
	"github.com/deadwick/feedback-service/internal/core/domain"
	"github.com/deadwick/feedback-service/internal/core/ports"
	"github.com/deadwick/feedback-service/internal/core/session"
)

// TokenIssuer signs bearer tokens bound to a session id.
type TokenIssuer interface {
	Issue(sessionID string, identity domain.Identity) (string, time.Time, error)
}

type AuthHandler struct {
	identity ports.IdentityService
	tokens   TokenIssuer
	sessions middleware.SessionOpener
	log      zerolog.Logger
}

func NewAuthHandler(identity ports.IdentityService, tokens TokenIssuer, sessions middleware.SessionOpener, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, tokens: tokens, sessions: sessions, log: log}
}

// Register creates a new plain user account. It does not start a session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  identityResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	identity, err := h.identity.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.log.Info().Str("user_id", identity.ID).Msg("account registered")
	return c.JSON(http.StatusCreated, toIdentityResponse(*identity))
}

// Login verifies credentials, opens a server-side session and returns a
// bearer token bound to it.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	ctx := c.Request().Context()
	sid := uuid.NewString()
	store := session.New(h.identity, h.sessions(sid), h.log)

	identity, err := store.Login(ctx, req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	token, expiresAt, err := h.tokens.Issue(sid, *identity)
	if err != nil {
		_ = store.Logout(ctx)
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toIdentityResponse(*identity),
	})
}

// Logout ends the caller's server-side session. The bearer token stops
// working immediately.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  errorResponse
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sid := ctxSessionID(c)
	if sid == "" {
		return c.NoContent(http.StatusNoContent)
	}

	ctx := c.Request().Context()
	store := session.New(h.identity, h.sessions(sid), h.log)
	store.Restore(ctx)
	if err := store.Logout(ctx); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's identity.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  identityResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	s := ctxSession(c)
	if !s.Authenticated() {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	}
	return c.JSON(http.StatusOK, toIdentityResponse(*s.Identity))
}
