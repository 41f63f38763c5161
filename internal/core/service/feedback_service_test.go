package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/deadwick/feedback-service/internal/core/domain"
	"github.com/deadwick/feedback-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubFeedbackRepo struct {
	mu        sync.Mutex
	records   map[string]*domain.FeedbackRecord
	names     map[string]string // author id -> display name (the join)
	seq       int
	clock     time.Time
	insertErr error
	listErr   error
	deleteErr error
	inserts   int
	deletes   int
}

func newStubFeedbackRepo() *stubFeedbackRepo {
	return &stubFeedbackRepo{
		records: make(map[string]*domain.FeedbackRecord),
		names:   make(map[string]string),
		clock:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *stubFeedbackRepo) Insert(_ context.Context, rec *domain.FeedbackRecord) (*domain.FeedbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.seq++
	r.clock = r.clock.Add(time.Minute)
	clone := *rec
	clone.ID = fmt.Sprintf("fb-%d", r.seq)
	clone.CreatedAt = r.clock
	clone.DisplayName = ""
	r.records[clone.ID] = &clone
	out := clone
	out.DisplayName = r.names[clone.AuthorID]
	return &out, nil
}

func (r *stubFeedbackRepo) ListAll(_ context.Context) ([]*domain.FeedbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	// Deliberately unordered (map iteration); the service must sort.
	out := make([]*domain.FeedbackRecord, 0, len(r.records))
	for _, rec := range r.records {
		clone := *rec
		clone.DisplayName = r.names[rec.AuthorID]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubFeedbackRepo) FindByID(_ context.Context, id string) (*domain.FeedbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (r *stubFeedbackRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

// seed stores a record directly, bypassing the pipeline.
func (r *stubFeedbackRepo) seed(rec domain.FeedbackRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := rec
	r.records[rec.ID] = &clone
}

// ---------------------------------------------------------------------------
// Stub media + audit
// ---------------------------------------------------------------------------

type stubMedia struct {
	uploadErr error
	removeErr error
	uploads   int
	removes   []string
	validates int
}

func (m *stubMedia) Validate(data []byte, _ string) error {
	m.validates++
	if len(data) == 0 {
		return fmt.Errorf("%w: image is empty", domain.ErrValidation)
	}
	return nil
}

func (m *stubMedia) Upload(_ context.Context, _ []byte, name string) (string, error) {
	m.uploads++
	if m.uploadErr != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorage, m.uploadErr)
	}
	return fmt.Sprintf("https://cdn.example.com/media/%d-%s", m.uploads, name), nil
}

func (m *stubMedia) Remove(_ context.Context, url string) error {
	m.removes = append(m.removes, url)
	if m.removeErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, m.removeErr)
	}
	return nil
}

type stubAudit struct {
	events []*domain.ModerationEvent
	err    error
}

func (a *stubAudit) InsertEvent(_ context.Context, e *domain.ModerationEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, e)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	userSession = domain.Session{Identity: &domain.Identity{
		ID: "u1", Email: "arjun@example.com", Role: domain.RoleUser, DisplayName: "Arjun Kumar",
	}}
	adminSession = domain.Session{Identity: &domain.Identity{
		ID: "a1", Email: "admin@example.com", Role: domain.RoleAdmin, DisplayName: "Admin",
	}}
	anonSession = domain.Session{}
)

func newPipeline(repo *stubFeedbackRepo, media *stubMedia, opts ...Option) *FeedbackService {
	return NewFeedbackService(repo, media, zerolog.Nop(), opts...)
}

func withImage(name string) *ports.MediaInput {
	return &ports.MediaInput{Data: pngBytes, OriginalName: name}
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func TestFeedbackService_Submit_Success(t *testing.T) {
	repo := newStubFeedbackRepo()
	repo.names["u1"] = "Arjun Kumar"
	media := &stubMedia{}
	audit := &stubAudit{}
	svc := newPipeline(repo, media, WithAudit(audit))

	rec, err := svc.Submit(context.Background(), userSession, ports.SubmitFeedbackInput{
		Message: "  Works flawlessly.  ",
		Rating:  4,
		Image:   withImage("shot.png"),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("store-assigned fields missing: %+v", rec)
	}
	if rec.Message != "Works flawlessly." || rec.Rating != 4 || rec.AuthorID != "u1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.ImageRef == "" {
		t.Fatalf("expected image ref")
	}
	if rec.DisplayName != "Arjun Kumar" {
		t.Fatalf("unexpected display name %q", rec.DisplayName)
	}
	if media.uploads != 1 || repo.inserts != 1 {
		t.Fatalf("expected 1 upload + 1 insert, got %d + %d", media.uploads, repo.inserts)
	}
	if len(audit.events) != 1 || audit.events[0].Status != domain.StatusActive {
		t.Fatalf("expected one active audit event, got %+v", audit.events)
	}
}

func TestFeedbackService_Submit_RequiresIdentity(t *testing.T) {
	repo := newStubFeedbackRepo()
	media := &stubMedia{}
	svc := newPipeline(repo, media)

	_, err := svc.Submit(context.Background(), anonSession, ports.SubmitFeedbackInput{Message: "hi", Rating: 5})
	if !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("expected ErrAuthorization, got %v", err)
	}
	if repo.inserts != 0 || media.uploads != 0 {
		t.Fatalf("no side effects expected")
	}
}

func TestFeedbackService_Submit_EmptyMessageHasNoSideEffects(t *testing.T) {
	repo := newStubFeedbackRepo()
	media := &stubMedia{}
	svc := newPipeline(repo, media)

	for _, msg := range []string{"", "   \n\t"} {
		_, err := svc.Submit(context.Background(), userSession, ports.SubmitFeedbackInput{
			Message: msg,
			Rating:  5,
			Image:   withImage("a.png"),
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("message %q: expected ErrValidation, got %v", msg, err)
		}
	}
	if repo.inserts != 0 || media.uploads != 0 || len(media.removes) != 0 {
		t.Fatalf("expected zero collaborator calls, got inserts=%d uploads=%d removes=%d",
			repo.inserts, media.uploads, len(media.removes))
	}
}

func TestFeedbackService_Submit_RatingOutOfRange(t *testing.T) {
	repo := newStubFeedbackRepo()
	media := &stubMedia{}
	svc := newPipeline(repo, media)

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.Submit(context.Background(), userSession, ports.SubmitFeedbackInput{Message: "ok", Rating: rating})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("rating %d: expected ErrValidation, got %v", rating, err)
		}
	}
	if repo.inserts != 0 {
		t.Fatalf("invalid ratings must not reach persistence")
	}
}

func TestFeedbackService_Submit_InvalidImageHasNoSideEffects(t *testing.T) {
	repo := newStubFeedbackRepo()
	media := &stubMedia{}
	svc := newPipeline(repo, media)

	_, err := svc.Submit(context.Background(), userSession, ports.SubmitFeedbackInput{
		Message: "ok",
		Rating:  3,
		Image:   &ports.MediaInput{OriginalName: "empty.png"},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if media.uploads != 0 || repo.inserts != 0 {
		t.Fatalf("no side effects expected")
	}
}

func TestFeedbackService_Submit_UploadFailureWritesNothing(t *testing.T) {
	repo := newStubFeedbackRepo()
	media := &stubMedia{uploadErr: errors.New("network unreachable")}
	svc := newPipeline(repo, media)

	before, _ := svc.List(context.Background())

	_, err := svc.Submit(context.Background(), userSession, ports.SubmitFeedbackInput{
		Message: "with picture",
		Rating:  5,
		Image:   withImage("a.png"),
	})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if repo.inserts != 0 {
		t.Fatalf("record written despite failed upload")
	}

	after, _ := svc.List(context.Background())
	if len(before) != len(after) {
		t.Fatalf("listing changed: %d -> %d", len(before), len(after))
	}
}

func TestFeedbackService_Submit_PersistenceFailureDiscardsUpload(t *testing.T) {
	repo := newStubFeedbackRepo()
	repo.insertErr = errors.New("connection reset")
	media := &stubMedia{}
	svc := newPipeline(repo, media)

	_, err := svc.Submit(context.Background(), userSession, ports.SubmitFeedbackInput{
		Message: "hello",
		Rating:  2,
		Image:   withImage("a.png"),
	})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if media.uploads != 1 {
		t.Fatalf("upload must happen before persistence")
	}
	if len(media.removes) != 1 {
		t.Fatalf("expected best-effort removal of the orphaned upload, got %v", media.removes)
	}
}

func TestFeedbackService_Submit_AuditFailureIsNonFatal(t *testing.T) {
	svc := newPipeline(newStubFeedbackRepo(), &stubMedia{}, WithAudit(&stubAudit{err: errors.New("audit down")}))

	if _, err := svc.Submit(context.Background(), userSession, ports.SubmitFeedbackInput{Message: "ok", Rating: 5}); err != nil {
		t.Fatalf("audit failure must not fail submit: %v", err)
	}
}

func TestFeedbackService_Submit_ConcurrentSubmissions(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newPipeline(repo, &stubMedia{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), userSession, ports.SubmitFeedbackInput{
				Message: fmt.Sprintf("message %d", i),
				Rating:  1 + i%5,
			})
			if err != nil {
				t.Errorf("submit %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 20 {
		t.Fatalf("expected 20 records, got %d", len(list))
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestFeedbackService_List_NewestFirstAndAnonymous(t *testing.T) {
	repo := newStubFeedbackRepo()
	repo.names["u1"] = "Priya Sharma"
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	repo.seed(domain.FeedbackRecord{ID: "b", AuthorID: "u1", Message: "middle", Rating: 4, CreatedAt: base.Add(2 * time.Hour)})
	repo.seed(domain.FeedbackRecord{ID: "c", AuthorID: "ghost", Message: "newest", Rating: 3, CreatedAt: base.Add(3 * time.Hour)})
	repo.seed(domain.FeedbackRecord{ID: "a", AuthorID: "u1", Message: "oldest", Rating: 5, CreatedAt: base.Add(time.Hour)})

	svc := newPipeline(repo, &stubMedia{})
	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []string{"c", "b", "a"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, list[i].ID)
		}
	}
	if list[0].DisplayName != domain.AnonymousName {
		t.Fatalf("expected %q, got %q", domain.AnonymousName, list[0].DisplayName)
	}
	if list[1].DisplayName != "Priya Sharma" {
		t.Fatalf("unexpected display name %q", list[1].DisplayName)
	}
}

func TestFeedbackService_List_MissingRatingDefaultsToFive(t *testing.T) {
	repo := newStubFeedbackRepo()
	repo.seed(domain.FeedbackRecord{ID: "x", AuthorID: "u1", Message: "legacy", CreatedAt: time.Now()})

	list, err := newPipeline(repo, &stubMedia{}).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list[0].Rating != domain.DefaultRating {
		t.Fatalf("expected rating %d, got %d", domain.DefaultRating, list[0].Rating)
	}
}

func TestFeedbackService_List_PersistenceError(t *testing.T) {
	repo := newStubFeedbackRepo()
	repo.listErr = errors.New("timeout")

	if _, err := newPipeline(repo, &stubMedia{}).List(context.Background()); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestFeedbackService_ListOwn(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newPipeline(repo, &stubMedia{})
	ctx := context.Background()

	_, _ = svc.Submit(ctx, userSession, ports.SubmitFeedbackInput{Message: "mine", Rating: 5})
	_, _ = svc.Submit(ctx, adminSession, ports.SubmitFeedbackInput{Message: "theirs", Rating: 5})

	own, err := svc.ListOwn(ctx, userSession)
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own) != 1 || own[0].Message != "mine" {
		t.Fatalf("unexpected own list: %+v", own)
	}

	if _, err := svc.ListOwn(ctx, anonSession); !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("expected ErrAuthorization, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestFeedbackService_Delete_UserDenied(t *testing.T) {
	repo := newStubFeedbackRepo()
	repo.seed(domain.FeedbackRecord{ID: "x", AuthorID: "u1", Message: "m", Rating: 5, CreatedAt: time.Now()})
	svc := newPipeline(repo, &stubMedia{})

	for _, sess := range []domain.Session{userSession, anonSession} {
		if err := svc.Delete(context.Background(), sess, "x"); !errors.Is(err, domain.ErrAuthorization) {
			t.Fatalf("expected ErrAuthorization, got %v", err)
		}
	}
	if repo.deletes != 0 {
		t.Fatalf("denied delete reached persistence")
	}
}

func TestFeedbackService_Delete_BlobFailureDoesNotBlock(t *testing.T) {
	repo := newStubFeedbackRepo()
	media := &stubMedia{removeErr: errors.New("permission denied")}
	audit := &stubAudit{}
	svc := newPipeline(repo, media, WithAudit(audit))
	ctx := context.Background()

	rec, err := svc.Submit(ctx, userSession, ports.SubmitFeedbackInput{Message: "pic", Rating: 5, Image: withImage("a.png")})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Delete(ctx, adminSession, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(media.removes) != 1 || media.removes[0] != rec.ImageRef {
		t.Fatalf("expected blob removal attempt for %s, got %v", rec.ImageRef, media.removes)
	}

	list, _ := svc.List(ctx)
	for _, r := range list {
		if r.ID == rec.ID {
			t.Fatalf("deleted record still listed")
		}
	}
	last := audit.events[len(audit.events)-1]
	if last.Status != domain.StatusDeleted || last.ActorID != "a1" || !last.HadImage {
		t.Fatalf("unexpected audit event %+v", last)
	}
}

func TestFeedbackService_Delete_WithoutImageSkipsBlob(t *testing.T) {
	repo := newStubFeedbackRepo()
	media := &stubMedia{}
	svc := newPipeline(repo, media)

	rec, _ := svc.Submit(context.Background(), userSession, ports.SubmitFeedbackInput{Message: "text only", Rating: 5})
	if err := svc.Delete(context.Background(), adminSession, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(media.removes) != 0 {
		t.Fatalf("no blob removal expected, got %v", media.removes)
	}
}

func TestFeedbackService_Delete_NotFound(t *testing.T) {
	svc := newPipeline(newStubFeedbackRepo(), &stubMedia{})

	if err := svc.Delete(context.Background(), adminSession, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFeedbackService_Delete_PersistenceFailureKeepsRecord(t *testing.T) {
	repo := newStubFeedbackRepo()
	svc := newPipeline(repo, &stubMedia{})
	ctx := context.Background()

	rec, _ := svc.Submit(ctx, userSession, ports.SubmitFeedbackInput{Message: "stay", Rating: 5})
	repo.deleteErr = errors.New("primary stepped down")

	if err := svc.Delete(ctx, adminSession, rec.ID); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	list, _ := svc.List(ctx)
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("record must survive a failed delete: %+v", list)
	}
}

func TestFeedbackService_Delete_UsesCleaner(t *testing.T) {
	repo := newStubFeedbackRepo()
	media := &stubMedia{}
	cleaner := &stubMedia{}
	svc := newPipeline(repo, media, WithCleaner(cleaner))
	ctx := context.Background()

	rec, _ := svc.Submit(ctx, userSession, ports.SubmitFeedbackInput{Message: "pic", Rating: 5, Image: withImage("a.png")})
	if err := svc.Delete(ctx, adminSession, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(cleaner.removes) != 1 || len(media.removes) != 0 {
		t.Fatalf("removal must go through the cleaner")
	}
}

// ---------------------------------------------------------------------------
// Scenario
// ---------------------------------------------------------------------------

func TestFeedbackService_AdminScenario(t *testing.T) {
	repo := newStubFeedbackRepo()
	repo.names["a1"] = "Admin"
	svc := newPipeline(repo, &stubMedia{})
	ctx := context.Background()

	_, _ = svc.Submit(ctx, userSession, ports.SubmitFeedbackInput{Message: "earlier", Rating: 4})

	if _, err := svc.Submit(ctx, adminSession, ports.SubmitFeedbackInput{Message: "meh", Rating: 0}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("rating=0: expected ErrValidation, got %v", err)
	}

	rec, err := svc.Submit(ctx, adminSession, ports.SubmitFeedbackInput{Message: "great", Rating: 5})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list[0].ID != rec.ID || list[0].Message != "great" || list[0].Rating != 5 {
		t.Fatalf("expected new record first, got %+v", list[0])
	}
	if list[0].ImageRef != "" {
		t.Fatalf("expected no image, got %q", list[0].ImageRef)
	}
}
