package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/deadwick/feedback-service/internal/api/handler"
	"github.com/deadwick/feedback-service/internal/api/middleware"
	"github.com/deadwick/feedback-service/internal/core/authz"
)

// Deps are the constructed collaborators the router mounts.
type Deps struct {
	Log      zerolog.Logger
	Auth     *handler.AuthHandler
	Feedback *handler.FeedbackHandler
	Tokens   middleware.TokenParser
	Sessions middleware.SessionOpener
	Health   map[string]handler.PingFunc
	// MediaDir is served under /media when images are stored locally.
	MediaDir string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("feedback"))

	// --- Ops ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if d.MediaDir != "" {
		e.Static("/media", d.MediaDir)
	}

	// --- API v1 ---
	v1 := e.Group("/v1", middleware.Auth(d.Tokens, d.Sessions, d.Log))

	v1.POST("/auth/register", d.Auth.Register)
	v1.POST("/auth/login", d.Auth.Login)
	v1.POST("/auth/logout", d.Auth.Logout, middleware.Require(authz.ViewOwnSubmissions))
	v1.GET("/auth/me", d.Auth.Me, middleware.Require(authz.ViewOwnSubmissions))

	v1.GET("/feedback", d.Feedback.List, middleware.Require(authz.ViewPublic))
	v1.POST("/feedback", d.Feedback.Submit, middleware.Require(authz.SubmitFeedback))
	v1.GET("/me/feedback", d.Feedback.Mine, middleware.Require(authz.ViewOwnSubmissions))

	admin := v1.Group("/admin")
	admin.GET("/feedback", d.Feedback.List, middleware.Require(authz.ListAllFeedback))
	admin.DELETE("/feedback/:id", d.Feedback.Delete, middleware.Require(authz.DeleteFeedback))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
