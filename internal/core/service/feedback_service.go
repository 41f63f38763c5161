package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deadwick/feedback-service/internal/core/authz"
	"github.com/deadwick/feedback-service/internal/core/domain"
	"github.com/deadwick/feedback-service/internal/core/ports"
)

// MediaUploader is the attachment side of the pipeline.
type MediaUploader interface {
	Validate(data []byte, originalName string) error
	Upload(ctx context.Context, data []byte, originalName string) (string, error)
	Remove(ctx context.Context, url string) error
}

// Option configures a FeedbackService.
type Option func(*FeedbackService)

// WithCleaner routes best-effort blob removals through r (for example an
// async worker pool) instead of calling the uploader directly.
func WithCleaner(r ports.BlobRemover) Option {
	return func(s *FeedbackService) { s.cleaner = r }
}

// WithAudit records moderation events after each successful transition.
func WithAudit(a ports.AuditRepository) Option {
	return func(s *FeedbackService) { s.audit = a }
}

// FeedbackService orchestrates create/list/delete of feedback records.
type FeedbackService struct {
	repo    ports.FeedbackRepository
	media   MediaUploader
	cleaner ports.BlobRemover
	audit   ports.AuditRepository
	log     zerolog.Logger
}

func NewFeedbackService(repo ports.FeedbackRepository, media MediaUploader, log zerolog.Logger, opts ...Option) *FeedbackService {
	s := &FeedbackService{repo: repo, media: media, cleaner: media, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates, uploads the optional image, then persists the record.
// The upload always completes before the record exists, so a stored record
// never points at a missing image.
func (s *FeedbackService) Submit(ctx context.Context, session domain.Session, in ports.SubmitFeedbackInput) (*domain.FeedbackRecord, error) {
	// 1. Gate.
	if !authz.Allowed(session, authz.SubmitFeedback) {
		return nil, fmt.Errorf("submit feedback: %w", domain.ErrAuthorization)
	}
	author := session.Identity

	// 2. Validate before any side effect.
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("submit feedback: %w: message is required", domain.ErrValidation)
	}
	if !domain.ValidRating(in.Rating) {
		return nil, fmt.Errorf("submit feedback: %w: rating must be between %d and %d",
			domain.ErrValidation, domain.MinRating, domain.MaxRating)
	}
	if in.Image != nil {
		if err := s.media.Validate(in.Image.Data, in.Image.OriginalName); err != nil {
			return nil, fmt.Errorf("submit feedback: %w", err)
		}
	}

	// 3. Upload first; a failed upload writes nothing.
	var imageRef string
	if in.Image != nil {
		url, err := s.media.Upload(ctx, in.Image.Data, in.Image.OriginalName)
		if err != nil {
			s.log.Error().Err(err).Str("author_id", author.ID).Msg("image upload failed")
			return nil, fmt.Errorf("submit feedback: %w", err)
		}
		imageRef = url
	}

	// 4. Persist. The store assigns ID and CreatedAt.
	stored, err := s.repo.Insert(ctx, &domain.FeedbackRecord{
		AuthorID:    author.ID,
		DisplayName: author.DisplayName,
		Message:     message,
		Rating:      in.Rating,
		ImageRef:    imageRef,
	})
	if err != nil {
		s.log.Error().Err(err).Str("author_id", author.ID).Msg("failed to persist feedback")
		if imageRef != "" {
			s.discard(ctx, imageRef, "orphaned upload")
		}
		return nil, fmt.Errorf("submit feedback: %w: %w", domain.ErrPersistence, err)
	}

	if stored.DisplayName == "" {
		stored.DisplayName = author.DisplayName
	}
	stored.DisplayName = domain.ResolveDisplayName(stored.DisplayName)

	s.record(ctx, stored.ID, domain.StatusActive, *author, stored.HasImage())
	s.log.Info().
		Str("feedback_id", stored.ID).
		Str("author_id", author.ID).
		Int("rating", stored.Rating).
		Bool("has_image", stored.HasImage()).
		Msg("feedback submitted")

	return stored, nil
}

// List returns every record newest first. Reading the feed is unrestricted.
func (s *FeedbackService) List(ctx context.Context) ([]domain.FeedbackRecord, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w: %w", domain.ErrPersistence, err)
	}

	out := make([]domain.FeedbackRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		rec := *r
		rec.Rating = domain.NormalizeRating(rec.Rating)
		rec.DisplayName = domain.ResolveDisplayName(rec.DisplayName)
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListOwn returns the caller's own records, newest first.
func (s *FeedbackService) ListOwn(ctx context.Context, session domain.Session) ([]domain.FeedbackRecord, error) {
	if !authz.Allowed(session, authz.ViewOwnSubmissions) {
		return nil, fmt.Errorf("list own feedback: %w", domain.ErrAuthorization)
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	own := make([]domain.FeedbackRecord, 0)
	for _, rec := range all {
		if rec.AuthorID == session.Identity.ID {
			own = append(own, rec)
		}
	}
	return own, nil
}

// Delete permanently removes a record. Blob removal is best-effort and never
// blocks deleting the record; the record is the source of truth.
func (s *FeedbackService) Delete(ctx context.Context, session domain.Session, id string) error {
	if !authz.Allowed(session, authz.DeleteFeedback) {
		return fmt.Errorf("delete feedback: %w", domain.ErrAuthorization)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("delete feedback: %w: id is required", domain.ErrValidation)
	}

	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.persistenceErr("delete feedback", err)
	}

	if rec.HasImage() {
		s.discard(ctx, rec.ImageRef, "delete")
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.log.Error().Err(err).Str("feedback_id", id).Msg("failed to delete feedback")
		return s.persistenceErr("delete feedback", err)
	}

	s.record(ctx, id, domain.StatusDeleted, *session.Identity, rec.HasImage())
	s.log.Info().Str("feedback_id", id).Str("actor_id", session.Identity.ID).Msg("feedback deleted")
	return nil
}

// discard issues a best-effort blob removal. Failures are logged only.
func (s *FeedbackService) discard(ctx context.Context, url, reason string) {
	if err := s.cleaner.Remove(ctx, url); err != nil {
		s.log.Warn().Err(err).Str("image_ref", url).Str("reason", reason).Msg("blob removal failed")
	}
}

// record appends to the audit trail (non-fatal on failure).
func (s *FeedbackService) record(ctx context.Context, id string, status domain.FeedbackStatus, actor domain.Identity, hadImage bool) {
	if s.audit == nil {
		return
	}
	event := &domain.ModerationEvent{
		FeedbackID: id,
		Status:     status,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		HadImage:   hadImage,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.audit.InsertEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("feedback_id", id).Msg("failed to insert audit event")
	}
}

func (s *FeedbackService) persistenceErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
