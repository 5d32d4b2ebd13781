package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/selector"
)

func testLogger(t interface {
	Helper()
	Fatalf(format string, args ...any)
}) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type stubUserRepo struct {
	active   []uuid.UUID
	eligible []uuid.UUID
	users    map[uuid.UUID]*domain.User
	err      error
}

func (s *stubUserRepo) Create(_ dbctx.Context, users []*domain.User) ([]*domain.User, error) {
	return users, s.err
}

func (s *stubUserRepo) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*domain.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubUserRepo) GetActive(_ dbctx.Context) ([]*domain.User, error) { return nil, s.err }

func (s *stubUserRepo) ActiveIDs(_ dbctx.Context) ([]uuid.UUID, error) {
	return s.active, s.err
}

func (s *stubUserRepo) EligibleForTraining(_ dbctx.Context, _ int) ([]uuid.UUID, error) {
	return s.eligible, s.err
}

type stubMovieRepo struct {
	movies  []*domain.Movie
	popular []*domain.Movie
	err     error
}

func (s *stubMovieRepo) Upsert(_ dbctx.Context, movies []*domain.Movie) ([]*domain.Movie, error) {
	return movies, s.err
}

func (s *stubMovieRepo) GetByIDs(_ dbctx.Context, ids []int64) ([]*domain.Movie, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*domain.Movie
	for _, id := range ids {
		for _, m := range s.movies {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (s *stubMovieRepo) GetAll(_ dbctx.Context) ([]*domain.Movie, error) {
	return s.movies, s.err
}

func (s *stubMovieRepo) AllIDs(_ dbctx.Context) ([]int64, error) {
	if s.err != nil {
		return nil, s.err
	}
	ids := make([]int64, 0, len(s.movies))
	for _, m := range s.movies {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (s *stubMovieRepo) GetPopular(_ dbctx.Context, _ int, limit int) ([]*domain.Movie, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.popular) > limit {
		return s.popular[:limit], nil
	}
	return s.popular, nil
}

func (s *stubMovieRepo) Search(_ dbctx.Context, _ string, _ int) ([]*domain.Movie, error) {
	return nil, s.err
}

type stubRatingRepo struct {
	ratings []*domain.Rating
	counts  map[uuid.UUID]int64
	err     error
}

func (s *stubRatingRepo) UpsertScore(_ dbctx.Context, userID uuid.UUID, movieID int64, score int) (*domain.Rating, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Rating{UserID: userID, MovieID: movieID, Score: score}, nil
}

func (s *stubRatingRepo) ListByUsers(_ dbctx.Context, userIDs []uuid.UUID) ([]*domain.Rating, error) {
	if s.err != nil {
		return nil, s.err
	}
	allowed := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = true
	}
	var out []*domain.Rating
	for _, r := range s.ratings {
		if allowed[r.UserID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRatingRepo) CountByUser(_ dbctx.Context, userID uuid.UUID) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[userID], nil
}

func (s *stubRatingRepo) RatedMovieIDs(_ dbctx.Context, _ uuid.UUID) ([]int64, error) {
	return nil, s.err
}

func (s *stubRatingRepo) Delete(_ dbctx.Context, _ uuid.UUID, _ int64) error { return s.err }

type stubRecRepo struct {
	replaced map[uuid.UUID][]*domain.UserRecommendation
	failFor  map[uuid.UUID]error
	stored   map[uuid.UUID][]*domain.UserRecommendation
	err      error
}

func newStubRecRepo() *stubRecRepo {
	return &stubRecRepo{
		replaced: map[uuid.UUID][]*domain.UserRecommendation{},
		failFor:  map[uuid.UUID]error{},
		stored:   map[uuid.UUID][]*domain.UserRecommendation{},
	}
}

func (s *stubRecRepo) ReplaceForUser(_ dbctx.Context, userID uuid.UUID, recs []*domain.UserRecommendation) error {
	if s.err != nil {
		return s.err
	}
	if err, ok := s.failFor[userID]; ok {
		return err
	}
	s.replaced[userID] = recs
	s.stored[userID] = recs
	return nil
}

func (s *stubRecRepo) ListByUser(_ dbctx.Context, userID uuid.UUID, limit int) ([]*domain.UserRecommendation, error) {
	if s.err != nil {
		return nil, s.err
	}
	recs := s.stored[userID]
	if len(recs) > limit {
		return recs[:limit], nil
	}
	return recs, nil
}

func (s *stubRecRepo) DeleteByUser(_ dbctx.Context, userID uuid.UUID) (int64, error) {
	n := int64(len(s.stored[userID]))
	delete(s.stored, userID)
	return n, s.err
}

type stubFallback struct {
	candidates []selector.Candidate
	err        error
	calls      int
}

func (f *stubFallback) TopMovies(_ context.Context, limit int) ([]selector.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.candidates) > limit {
		return f.candidates[:limit], nil
	}
	return f.candidates, nil
}

func testRating(userID uuid.UUID, movieID int64, score int) *domain.Rating {
	return &domain.Rating{
		ID:        uuid.New(),
		UserID:    userID,
		MovieID:   movieID,
		Score:     score,
		CreatedAt: time.Now(),
	}
}
