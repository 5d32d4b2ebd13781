package selector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/dataset"
	"github.com/filmgraph/filmgraph-backend/internal/recs/scorer"
)

// Path records which branch produced a candidate set.
type Path string

const (
	PathScored    Path = "scored"
	PathColdStart Path = "cold_start"
	PathFallback  Path = "fallback"
)

// Candidate is one recommended movie with its sanitized score.
type Candidate struct {
	MovieID string
	Score   float64
}

// Result carries the chosen candidates and the path that produced them.
type Result struct {
	Candidates []Candidate
	Path       Path
}

// Fallback supplies candidates when the model cannot score a user: unknown
// users and users whose every known movie is already rated.
type Fallback interface {
	TopMovies(ctx context.Context, limit int) ([]Candidate, error)
}

// Selector ranks model predictions for known users and delegates to the
// fallback for everyone else.
type Selector struct {
	log *logger.Logger
}

func New(baseLog *logger.Logger) *Selector {
	return &Selector{log: baseLog.With("component", "Selector")}
}

// Select produces up to topN candidates for userID. A user absent from the
// dataset mappings is a cold start and gets fallback candidates. A known
// user is scored over the full movie universe with already-rated movies
// masked out before ranking.
func (s *Selector) Select(
	ctx context.Context,
	userID string,
	ds *dataset.Dataset,
	sc scorer.Scorer,
	fallback Fallback,
	topN int,
	threads int,
) (*Result, error) {
	if topN <= 0 {
		return &Result{Candidates: nil, Path: PathScored}, nil
	}

	userIndex, ok := ds.Mappings.UserIndexOf(userID)
	if !ok {
		s.log.Info("User not in trained mappings, serving cold-start candidates", "user_id", userID)
		candidates, err := fallback.TopMovies(ctx, topN)
		if err != nil {
			return nil, fmt.Errorf("cold-start fallback for user %s: %w", userID, err)
		}
		return &Result{Candidates: sanitize(candidates), Path: PathColdStart}, nil
	}

	numMovies := ds.Mappings.NumMovies()
	itemIndices := make([]int, numMovies)
	for i := range itemIndices {
		itemIndices[i] = i
	}

	scores, err := sc.Predict(userIndex, itemIndices, ds, threads)
	if err != nil {
		return nil, fmt.Errorf("predict for user %s: %w", userID, err)
	}
	if len(scores) != numMovies {
		return nil, fmt.Errorf("predict for user %s: got %d scores for %d movies", userID, len(scores), numMovies)
	}

	// Mask already-rated movies so they can never be recommended back.
	for _, idx := range ds.RatedMovieIndices(userIndex) {
		scores[idx] = math.Inf(-1)
	}

	type ranked struct {
		index int
		score float64
	}
	valid := make([]ranked, 0, numMovies)
	for i, v := range scores {
		if math.IsInf(v, -1) {
			continue
		}
		valid = append(valid, ranked{index: i, score: v})
	}

	if len(valid) == 0 {
		s.log.Warn("User has rated the entire movie universe, serving fallback candidates", "user_id", userID)
		candidates, err := fallback.TopMovies(ctx, topN)
		if err != nil {
			return nil, fmt.Errorf("exhausted-universe fallback for user %s: %w", userID, err)
		}
		return &Result{Candidates: sanitize(candidates), Path: PathFallback}, nil
	}

	// Highest score first; equal scores break ties by ascending movie index
	// so results are deterministic.
	sort.SliceStable(valid, func(a, b int) bool {
		if valid[a].score != valid[b].score {
			return valid[a].score > valid[b].score
		}
		return valid[a].index < valid[b].index
	})

	if len(valid) > topN {
		valid = valid[:topN]
	}

	candidates := make([]Candidate, 0, len(valid))
	for _, r := range valid {
		movieID, ok := ds.Mappings.MovieIDAt(r.index)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			MovieID: movieID,
			Score:   sanitizeScore(r.score),
		})
	}
	return &Result{Candidates: candidates, Path: PathScored}, nil
}

// sanitize clamps candidate scores into a storable range.
func sanitize(candidates []Candidate) []Candidate {
	for i := range candidates {
		candidates[i].Score = sanitizeScore(candidates[i].Score)
	}
	return candidates
}

// sanitizeScore maps NaN and infinities to 0 and clamps to [0, 1].
func sanitizeScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
