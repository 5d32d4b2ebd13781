package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/filmgraph/filmgraph-backend/internal/data/repos"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/cache"
	"github.com/filmgraph/filmgraph-backend/internal/recs/dataset"
	"github.com/filmgraph/filmgraph-backend/internal/recs/scorer"
)

// Model is a ready-to-serve scorer plus the dataset it was fitted on.
type Model struct {
	Scorer    scorer.Scorer
	Dataset   *dataset.Dataset
	TrainedAt time.Time
}

// TrainerService produces a usable model, from the disk cache when possible
// and by retraining otherwise.
type TrainerService interface {
	// EnsureModel returns a fitted model. force skips and invalidates the
	// cache so the model is retrained from current data.
	EnsureModel(ctx context.Context, force bool) (*Model, error)
}

type trainerService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	movieRepo  repos.MovieRepo
	ratingRepo repos.RatingRepo
	builder    *dataset.Builder
	cache      *cache.Cache
	newScorer  func() scorer.Scorer
	factory    scorer.Factory
	opts       scorer.TrainOptions
	minRatings int
}

func NewTrainerService(
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	movieRepo repos.MovieRepo,
	ratingRepo repos.RatingRepo,
	builder *dataset.Builder,
	modelCache *cache.Cache,
	newScorer func() scorer.Scorer,
	factory scorer.Factory,
	opts scorer.TrainOptions,
	minRatings int,
) TrainerService {
	return &trainerService{
		log:        baseLog.With("service", "TrainerService"),
		userRepo:   userRepo,
		movieRepo:  movieRepo,
		ratingRepo: ratingRepo,
		builder:    builder,
		cache:      modelCache,
		newScorer:  newScorer,
		factory:    factory,
		opts:       opts,
		minRatings: minRatings,
	}
}

func (s *trainerService) EnsureModel(ctx context.Context, force bool) (*Model, error) {
	if force {
		s.log.Info("Forced retrain requested, invalidating model cache")
		s.cache.Invalidate()
	} else {
		if model, err := s.loadCached(); err == nil {
			return model, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("Cached model unusable, retraining", "error", err)
			s.cache.Invalidate()
		}
	}
	return s.train(ctx)
}

func (s *trainerService) loadCached() (*Model, error) {
	snap, err := s.cache.Load()
	if err != nil {
		return nil, err
	}
	sc, err := s.factory(snap.ModelBlob)
	if err != nil {
		return nil, fmt.Errorf("restore scorer from snapshot: %w", err)
	}
	return &Model{Scorer: sc, Dataset: snap.Dataset(), TrainedAt: snap.TrainedAt}, nil
}

func (s *trainerService) train(ctx context.Context) (*Model, error) {
	dbc := dbctx.Context{Ctx: ctx}

	eligibleIDs, err := s.userRepo.EligibleForTraining(dbc, s.minRatings)
	if err != nil {
		return nil, fmt.Errorf("load eligible users: %w", err)
	}

	movies, err := s.movieRepo.GetAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("load movie universe: %w", err)
	}

	ratings, err := s.ratingRepo.ListByUsers(dbc, eligibleIDs)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	eligible := make([]string, 0, len(eligibleIDs))
	for _, id := range eligibleIDs {
		eligible = append(eligible, id.String())
	}
	interactions := make([]dataset.Interaction, 0, len(ratings))
	for _, r := range ratings {
		interactions = append(interactions, dataset.Interaction{
			UserID:  r.UserID.String(),
			MovieID: strconv.FormatInt(r.MovieID, 10),
			Weight:  dataset.NormalizeScore(r.Score),
		})
	}

	ds, err := s.builder.Build(movies, interactions, eligible)
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}

	sc := s.newScorer()
	start := time.Now()
	if err := sc.Fit(ctx, ds, s.opts); err != nil {
		return nil, fmt.Errorf("fit %s scorer: %w", sc.Name(), err)
	}
	trainedAt := time.Now().UTC()
	s.log.Info("Fitted model",
		"scorer", sc.Name(),
		"users", ds.Mappings.NumUsers(),
		"movies", ds.Mappings.NumMovies(),
		"interactions", ds.Interactions.NNZ(),
		"duration", time.Since(start),
	)

	blob, err := sc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal %s scorer: %w", sc.Name(), err)
	}
	snap := &cache.Snapshot{
		ScorerName:   sc.Name(),
		ModelBlob:    blob,
		Mappings:     ds.Mappings,
		FeatureNames: ds.FeatureNames,
		FeatureIndex: ds.FeatureIndex,
		Interactions: ds.Interactions,
		ItemFeatures: ds.ItemFeatures,
		UserFeatures: ds.UserFeatures,
		TrainedAt:    trainedAt,
	}
	if err := s.cache.Save(snap); err != nil {
		// Serving from the fresh in-memory model still works.
		s.log.Error("Failed to persist model snapshot", "error", err)
	}

	return &Model{Scorer: sc, Dataset: ds, TrainedAt: trainedAt}, nil
}
