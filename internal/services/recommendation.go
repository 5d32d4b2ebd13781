package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/filmgraph/filmgraph-backend/internal/data/repos"
	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/selector"
)

// BatchResult summarizes a batch generation run.
type BatchResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}

// RecommendationService generates and serves per-user recommendations.
type RecommendationService interface {
	// GenerateForUser computes and stores recommendations for one user,
	// replacing whatever was stored before.
	GenerateForUser(ctx context.Context, model *Model, userID uuid.UUID) (selector.Path, error)
	// GenerateAll runs GenerateForUser for every active user. One user's
	// failure never aborts the batch.
	GenerateAll(ctx context.Context, model *Model) (*BatchResult, error)
	// GetForUser returns stored recommendations, best first.
	GetForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.UserRecommendation, error)
}

type recommendationService struct {
	log           *logger.Logger
	userRepo      repos.UserRepo
	ratingRepo    repos.RatingRepo
	recRepo       repos.RecommendationRepo
	selector      *selector.Selector
	fallback      selector.Fallback
	topN          int
	threads       int
	minRatingsRec int
}

func NewRecommendationService(
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	ratingRepo repos.RatingRepo,
	recRepo repos.RecommendationRepo,
	sel *selector.Selector,
	fallback selector.Fallback,
	topN int,
	threads int,
	minRatingsRec int,
) RecommendationService {
	return &recommendationService{
		log:           baseLog.With("service", "RecommendationService"),
		userRepo:      userRepo,
		ratingRepo:    ratingRepo,
		recRepo:       recRepo,
		selector:      sel,
		fallback:      fallback,
		topN:          topN,
		threads:       threads,
		minRatingsRec: minRatingsRec,
	}
}

func (s *recommendationService) GenerateForUser(ctx context.Context, model *Model, userID uuid.UUID) (selector.Path, error) {
	if model == nil {
		return "", fmt.Errorf("no model available")
	}
	dbc := dbctx.Context{Ctx: ctx}

	result, err := s.selectForUser(ctx, model, userID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	recs := make([]*domain.UserRecommendation, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		movieID, err := strconv.ParseInt(c.MovieID, 10, 64)
		if err != nil {
			s.log.Warn("Skipping candidate with malformed movie id", "movie_id", c.MovieID, "user_id", userID)
			continue
		}
		recs = append(recs, &domain.UserRecommendation{
			UserID:      userID,
			MovieID:     movieID,
			Score:       c.Score,
			GeneratedAt: now,
		})
	}

	if err := s.recRepo.ReplaceForUser(dbc, userID, recs); err != nil {
		return "", fmt.Errorf("store recommendations for user %s: %w", userID, err)
	}
	return result.Path, nil
}

// selectForUser picks the path: users with too few ratings go straight to
// the popularity fallback regardless of whether the model knows them.
func (s *recommendationService) selectForUser(ctx context.Context, model *Model, userID uuid.UUID) (*selector.Result, error) {
	count, err := s.ratingRepo.CountByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("count ratings for user %s: %w", userID, err)
	}
	if count < int64(s.minRatingsRec) {
		candidates, err := s.fallback.TopMovies(ctx, s.topN)
		if err != nil {
			return nil, fmt.Errorf("cold-start candidates for user %s: %w", userID, err)
		}
		return &selector.Result{Candidates: candidates, Path: selector.PathColdStart}, nil
	}
	return s.selector.Select(ctx, userID.String(), model.Dataset, model.Scorer, s.fallback, s.topN, s.threads)
}

func (s *recommendationService) GenerateAll(ctx context.Context, model *Model) (*BatchResult, error) {
	userIDs, err := s.userRepo.ActiveIDs(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("load active users: %w", err)
	}

	result := &BatchResult{}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++
		path, err := s.GenerateForUser(ctx, model, userID)
		if err != nil {
			s.log.Error("Recommendation generation failed for user", "user_id", userID, "error", err)
			continue
		}
		result.Succeeded++
		s.log.Debug("Generated recommendations", "user_id", userID, "path", path)
	}

	s.log.Info("Batch recommendation run finished",
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
	)
	return result, nil
}

func (s *recommendationService) GetForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.UserRecommendation, error) {
	if limit <= 0 {
		limit = s.topN
	}
	return s.recRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
}
