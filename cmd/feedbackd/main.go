// Command feedbackd serves the feedback API.
//
// @title                       Feedback Service API
// @version                     1.0
// @description                 Session-gated feedback submission and moderation.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "github.com/deadwick/feedback-service/docs"
	"github.com/deadwick/feedback-service/internal/api"
	"github.com/deadwick/feedback-service/internal/api/handler"
	"github.com/deadwick/feedback-service/internal/core/service"
	"github.com/deadwick/feedback-service/internal/infrastructure/queue"
	"github.com/deadwick/feedback-service/internal/infrastructure/seed"
	"github.com/deadwick/feedback-service/internal/pkg/config"
	"github.com/deadwick/feedback-service/pkg/logger"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.New(logger.Options{})
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "feedbackd",
		Env:     cfg.Env,
	})

	b, err := openBackends(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open backends")
	}
	defer b.close()

	authService := service.NewAuthService(b.users)
	if cfg.SeedUsersPath != "" {
		n, err := seed.FromFile(ctx, cfg.SeedUsersPath, authService, logger.Component("seed"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed accounts")
		}
		log.Info().Int("created", n).Msg("seed file applied")
	}

	media := service.NewMediaService(b.blobs, cfg.Blob.MaxUploadBytes, logger.Component("media"))

	// Cleanup outlives the signal context so removals enqueued by requests
	// still in flight during shutdown are processed.
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	cleanup := queue.NewCleanupDispatcher(cfg.CleanupWorkers, media, logger.Component("cleanup"))
	cleanup.Start(cleanupCtx)

	feedback := service.NewFeedbackService(b.feedback, media, logger.Component("feedback"),
		service.WithCleaner(cleanup),
		service.WithAudit(b.audit),
	)

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	httpLog := logger.Component("http")

	e := api.NewRouter(api.Deps{
		Log:      httpLog,
		Auth:     handler.NewAuthHandler(authService, tokens, b.sessions, logger.Component("auth")),
		Feedback: handler.NewFeedbackHandler(feedback, cfg.Blob.MaxUploadBytes),
		Tokens:   tokens,
		Sessions: b.sessions,
		Health:   b.health,
		MediaDir: b.mediaDir,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Str("blob", cfg.Blob.Backend).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	gracefulStop(e, stopCleanup, cleanup, 10*time.Second, log)
	log.Info().Msg("stopped")
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// gracefulStop lets in-flight requests finish first, then stops the cleanup
// workers and waits for them to drain whatever those requests enqueued.
func gracefulStop(srv shutdowner, stopCleanup context.CancelFunc, cleanup *queue.CleanupDispatcher, timeout time.Duration, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	stopCleanup()
	cleanup.Wait()
}
