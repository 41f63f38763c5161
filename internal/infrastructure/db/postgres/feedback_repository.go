package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert stores the record under a fresh UUID. created_at comes from the
// database clock so ordering is consistent across replicas of the service.
func (r *FeedbackRepository) Insert(ctx context.Context, rec *domain.FeedbackRecord) (*domain.FeedbackRecord, error) {
	const q = `
		INSERT INTO feedback (id, author_id, message, rating, image_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	stored := *rec
	stored.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, q,
		stored.ID,
		stored.AuthorID,
		stored.Message,
		nullInt(stored.Rating),
		nullString(stored.ImageRef),
	).Scan(&stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return &stored, nil
}

func (r *FeedbackRepository) ListAll(ctx context.Context) ([]*domain.FeedbackRecord, error) {
	const q = `
		SELECT f.id, f.author_id, COALESCE(u.display_name, ''), f.message,
		       COALESCE(f.rating, 0), COALESCE(f.image_ref, ''), f.created_at
		FROM feedback f
		LEFT JOIN users u ON u.id = f.author_id
		ORDER BY f.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []*domain.FeedbackRecord
	for rows.Next() {
		var rec domain.FeedbackRecord
		if err := rows.Scan(&rec.ID, &rec.AuthorID, &rec.DisplayName, &rec.Message,
			&rec.Rating, &rec.ImageRef, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FeedbackRepository) FindByID(ctx context.Context, id string) (*domain.FeedbackRecord, error) {
	const q = `
		SELECT id, author_id, message, COALESCE(rating, 0), COALESCE(image_ref, ''), created_at
		FROM feedback WHERE id = $1
	`
	var rec domain.FeedbackRecord
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.AuthorID, &rec.Message, &rec.Rating, &rec.ImageRef, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	return &rec, nil
}

func (r *FeedbackRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
