package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/filmgraph/filmgraph-backend/internal/data/repos"
	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	apperrors "github.com/filmgraph/filmgraph-backend/internal/pkg/errors"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

// RatingService validates and stores user ratings.
type RatingService interface {
	// Rate records a score for a movie, overwriting an earlier score from
	// the same user.
	Rate(ctx context.Context, userID uuid.UUID, movieID int64, score int) (*domain.Rating, error)
	Unrate(ctx context.Context, userID uuid.UUID, movieID int64) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error)
}

type ratingService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	movieRepo  repos.MovieRepo
	ratingRepo repos.RatingRepo
}

func NewRatingService(
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	movieRepo repos.MovieRepo,
	ratingRepo repos.RatingRepo,
) RatingService {
	return &ratingService{
		log:        baseLog.With("service", "RatingService"),
		userRepo:   userRepo,
		movieRepo:  movieRepo,
		ratingRepo: ratingRepo,
	}
}

func (s *ratingService) Rate(ctx context.Context, userID uuid.UUID, movieID int64, score int) (*domain.Rating, error) {
	if score < 1 || score > 10 {
		return nil, fmt.Errorf("%w: score must be between 1 and 10, got %d", apperrors.ErrInvalidArgument, score)
	}
	dbc := dbctx.Context{Ctx: ctx}

	users, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}

	movies, err := s.movieRepo.GetByIDs(dbc, []int64{movieID})
	if err != nil {
		return nil, fmt.Errorf("load movie %d: %w", movieID, err)
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("movie %d: %w", movieID, apperrors.ErrNotFound)
	}

	rating, err := s.ratingRepo.UpsertScore(dbc, userID, movieID, score)
	if err != nil {
		return nil, fmt.Errorf("store rating: %w", err)
	}
	return rating, nil
}

func (s *ratingService) Unrate(ctx context.Context, userID uuid.UUID, movieID int64) error {
	return s.ratingRepo.Delete(dbctx.Context{Ctx: ctx}, userID, movieID)
}

func (s *ratingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error) {
	return s.ratingRepo.ListByUsers(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
}
