package selector

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/dataset"
	"github.com/filmgraph/filmgraph-backend/internal/recs/scorer"
)

type stubScorer struct {
	scores []float64
	err    error
}

func (s *stubScorer) Name() string { return "stub" }

func (s *stubScorer) Fit(_ context.Context, _ *dataset.Dataset, _ scorer.TrainOptions) error {
	return nil
}

func (s *stubScorer) Predict(_ int, itemIndices []int, _ *dataset.Dataset, _ int) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(itemIndices))
	copy(out, s.scores)
	return out, nil
}

func (s *stubScorer) Marshal() ([]byte, error) { return nil, nil }

type stubFallback struct {
	candidates []Candidate
	err        error
	calls      int
}

func (f *stubFallback) TopMovies(_ context.Context, limit int) ([]Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.candidates) > limit {
		return f.candidates[:limit], nil
	}
	return f.candidates, nil
}

// testDataset builds a one-user dataset over movies "1".."5" where the user
// rated the movies named in rated.
func testDataset(t *testing.T, rated ...string) *dataset.Dataset {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	movies := make([]*domain.Movie, 0, 5)
	for id := int64(1); id <= 5; id++ {
		movies = append(movies, &domain.Movie{ID: id, Genres: []byte(`["Drama"]`)})
	}
	interactions := make([]dataset.Interaction, 0, len(rated))
	for _, id := range rated {
		interactions = append(interactions, dataset.Interaction{UserID: "u1", MovieID: id, Weight: 0.5})
	}
	ds, err := dataset.NewBuilder(log).Build(movies, interactions, []string{"u1"})
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}
	return ds
}

func newSelector(t *testing.T) *Selector {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(log)
}

func TestSelectMasksRatedMovies(t *testing.T) {
	sel := newSelector(t)
	ds := testDataset(t, "1", "2", "3")
	sc := &stubScorer{scores: []float64{0.9, 0.8, 0.7, 0.6, 0.5}}

	result, err := sel.Select(context.Background(), "u1", ds, sc, &stubFallback{}, 10, 1)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if result.Path != PathScored {
		t.Fatalf("path = %q, want scored", result.Path)
	}

	allowed := map[string]bool{"4": true, "5": true}
	if len(result.Candidates) != 2 {
		t.Fatalf("candidates = %v, want exactly the 2 unrated movies", result.Candidates)
	}
	for _, c := range result.Candidates {
		if !allowed[c.MovieID] {
			t.Fatalf("rated movie %q recommended back", c.MovieID)
		}
	}
}

func TestSelectColdStartUser(t *testing.T) {
	sel := newSelector(t)
	ds := testDataset(t, "1")
	fb := &stubFallback{candidates: []Candidate{{MovieID: "7", Score: 0.9}}}

	result, err := sel.Select(context.Background(), "stranger", ds, &stubScorer{}, fb, 10, 1)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if result.Path != PathColdStart {
		t.Fatalf("path = %q, want cold_start", result.Path)
	}
	if fb.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fb.calls)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].MovieID != "7" {
		t.Fatalf("candidates = %v, want the fallback's", result.Candidates)
	}
}

func TestSelectExhaustedUniverseFallsBack(t *testing.T) {
	sel := newSelector(t)
	ds := testDataset(t, "1", "2", "3", "4", "5")
	fb := &stubFallback{candidates: []Candidate{{MovieID: "9", Score: 0.4}}}
	sc := &stubScorer{scores: []float64{0.1, 0.2, 0.3, 0.4, 0.5}}

	result, err := sel.Select(context.Background(), "u1", ds, sc, fb, 10, 1)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if result.Path != PathFallback {
		t.Fatalf("path = %q, want fallback", result.Path)
	}
	if fb.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fb.calls)
	}
}

func TestSelectSanitizesScores(t *testing.T) {
	sel := newSelector(t)
	ds := testDataset(t, "1")
	sc := &stubScorer{scores: []float64{0, math.NaN(), math.Inf(1), 1.7, -0.4}}

	result, err := sel.Select(context.Background(), "u1", ds, sc, &stubFallback{}, 10, 1)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for _, c := range result.Candidates {
		if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
			t.Fatalf("unsanitized score for movie %q: %v", c.MovieID, c.Score)
		}
		if c.Score < 0 || c.Score > 1 {
			t.Fatalf("score out of range for movie %q: %v", c.MovieID, c.Score)
		}
	}
}

func TestSelectRanksDescendingWithStableTies(t *testing.T) {
	sel := newSelector(t)
	ds := testDataset(t, "1")
	// Movies "2".."5" valid, with a tie between indices 2 and 3.
	sc := &stubScorer{scores: []float64{0.1, 0.3, 0.5, 0.5, 0.9}}

	result, err := sel.Select(context.Background(), "u1", ds, sc, &stubFallback{}, 3, 1)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(result.Candidates) != 3 {
		t.Fatalf("candidates = %v, want 3", result.Candidates)
	}
	// Index 4 ("5") scores highest; the 0.5 tie resolves by ascending index.
	want := []string{"5", "3", "4"}
	for i, id := range want {
		if result.Candidates[i].MovieID != id {
			t.Fatalf("rank %d = %q, want %q (got %v)", i, result.Candidates[i].MovieID, id, result.Candidates)
		}
	}
}

func TestSelectTruncatesToTopN(t *testing.T) {
	sel := newSelector(t)
	ds := testDataset(t, "1")
	sc := &stubScorer{scores: []float64{0.1, 0.2, 0.3, 0.4, 0.5}}

	result, err := sel.Select(context.Background(), "u1", ds, sc, &stubFallback{}, 2, 1)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("candidates = %v, want 2", result.Candidates)
	}
}

func TestSelectPredictErrorPropagates(t *testing.T) {
	sel := newSelector(t)
	ds := testDataset(t, "1")
	wantErr := errors.New("boom")
	sc := &stubScorer{err: wantErr}

	_, err := sel.Select(context.Background(), "u1", ds, sc, &stubFallback{}, 5, 1)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestSelectFallbackErrorPropagates(t *testing.T) {
	sel := newSelector(t)
	ds := testDataset(t, "1")
	fb := &stubFallback{err: errors.New("redis down")}

	_, err := sel.Select(context.Background(), "stranger", ds, &stubScorer{}, fb, 5, 1)
	if err == nil {
		t.Fatal("expected cold-start fallback error to propagate")
	}
}
