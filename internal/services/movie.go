package services

import (
	"context"
	"fmt"

	"github.com/filmgraph/filmgraph-backend/internal/data/repos"
	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	apperrors "github.com/filmgraph/filmgraph-backend/internal/pkg/errors"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

// MovieService exposes catalog reads.
type MovieService interface {
	GetByID(ctx context.Context, movieID int64) (*domain.Movie, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.Movie, error)
	Popular(ctx context.Context, limit int) ([]*domain.Movie, error)
}

type movieService struct {
	log        *logger.Logger
	movieRepo  repos.MovieRepo
	minRatings int
}

func NewMovieService(baseLog *logger.Logger, movieRepo repos.MovieRepo, minRatings int) MovieService {
	return &movieService{
		log:        baseLog.With("service", "MovieService"),
		movieRepo:  movieRepo,
		minRatings: minRatings,
	}
}

func (s *movieService) GetByID(ctx context.Context, movieID int64) (*domain.Movie, error) {
	movies, err := s.movieRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []int64{movieID})
	if err != nil {
		return nil, fmt.Errorf("load movie %d: %w", movieID, err)
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("movie %d: %w", movieID, apperrors.ErrNotFound)
	}
	return movies[0], nil
}

func (s *movieService) Search(ctx context.Context, query string, limit int) ([]*domain.Movie, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query required", apperrors.ErrInvalidArgument)
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.movieRepo.Search(dbctx.Context{Ctx: ctx}, query, limit)
}

func (s *movieService) Popular(ctx context.Context, limit int) ([]*domain.Movie, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.movieRepo.GetPopular(dbctx.Context{Ctx: ctx}, s.minRatings, limit)
}
