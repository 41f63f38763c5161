package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

const collectionFeedback = "feedback"

type FeedbackRepository struct {
	col *mongo.Collection
}

func NewFeedbackRepository(db *mongo.Database) *FeedbackRepository {
	return &FeedbackRepository{col: db.Collection(collectionFeedback)}
}

type feedbackDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	AuthorID  string             `bson:"author_id"`
	Message   string             `bson:"message"`
	Rating    int                `bson:"rating,omitempty"`
	ImageRef  string             `bson:"image_ref,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`

	// Populated by the $lookup stage in ListAll.
	Author []struct {
		DisplayName string `bson:"display_name"`
	} `bson:"author,omitempty"`
}

func (d feedbackDoc) toDomain() *domain.FeedbackRecord {
	rec := &domain.FeedbackRecord{
		ID:        d.ID.Hex(),
		AuthorID:  d.AuthorID,
		Message:   d.Message,
		Rating:    d.Rating,
		ImageRef:  d.ImageRef,
		CreatedAt: d.CreatedAt,
	}
	if len(d.Author) > 0 {
		rec.DisplayName = d.Author[0].DisplayName
	}
	return rec
}

// Insert stores a new record; the store assigns the ID and creation time.
func (r *FeedbackRepository) Insert(ctx context.Context, rec *domain.FeedbackRecord) (*domain.FeedbackRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := feedbackDoc{
		ID:        primitive.NewObjectID(),
		AuthorID:  rec.AuthorID,
		Message:   rec.Message,
		Rating:    rec.Rating,
		ImageRef:  rec.ImageRef,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}

	stored := doc.toDomain()
	stored.DisplayName = rec.DisplayName
	return stored, nil
}

// ListAll returns all records newest first with the author's display name
// joined from the users collection.
func (r *FeedbackRepository) ListAll(ctx context.Context) ([]*domain.FeedbackRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "author_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "author.password_hash", Value: 0},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer cur.Close(ctx)

	var docs []feedbackDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}

	out := make([]*domain.FeedbackRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *FeedbackRepository) FindByID(ctx context.Context, id string) (*domain.FeedbackRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d feedbackDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d.toDomain(), nil
}

func (r *FeedbackRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes the listing and per-author queries use.
func (r *FeedbackRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
