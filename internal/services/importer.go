package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/filmgraph/filmgraph-backend/internal/clients/tmdb"
	"github.com/filmgraph/filmgraph-backend/internal/data/repos"
	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

const (
	importConcurrency  = 4
	importCastLimit    = 10
	importKeywordLimit = 20
)

// MovieImportService pulls movies from TMDb into the local catalog.
type MovieImportService interface {
	// ImportPopular imports the given number of popular-chart pages and
	// returns how many movies were upserted.
	ImportPopular(ctx context.Context, pages int) (int, error)
}

type movieImportService struct {
	log       *logger.Logger
	client    *tmdb.Client
	movieRepo repos.MovieRepo
}

func NewMovieImportService(baseLog *logger.Logger, client *tmdb.Client, movieRepo repos.MovieRepo) MovieImportService {
	return &movieImportService{
		log:       baseLog.With("service", "MovieImportService"),
		client:    client,
		movieRepo: movieRepo,
	}
}

func (s *movieImportService) ImportPopular(ctx context.Context, pages int) (int, error) {
	if s.client == nil {
		return 0, fmt.Errorf("tmdb client not configured")
	}
	if pages < 1 {
		pages = 1
	}

	var (
		mu     sync.Mutex
		movies []*domain.Movie
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)

	for page := 1; page <= pages; page++ {
		paged, err := s.client.PopularMovies(ctx, page)
		if err != nil {
			return 0, fmt.Errorf("fetch popular page %d: %w", page, err)
		}
		for _, r := range paged.Results {
			tmdbID := r.ID
			g.Go(func() error {
				m, err := s.fetchMovie(gctx, tmdbID)
				if err != nil {
					// A single bad movie should not sink the import.
					s.log.Warn("Skipping movie during import", "tmdb_id", tmdbID, "error", err)
					return nil
				}
				mu.Lock()
				movies = append(movies, m)
				mu.Unlock()
				return nil
			})
		}
		if paged.TotalPages > 0 && page >= paged.TotalPages {
			break
		}
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	if len(movies) == 0 {
		s.log.Warn("Import produced no movies")
		return 0, nil
	}

	if _, err := s.movieRepo.Upsert(dbctx.Context{Ctx: ctx}, movies); err != nil {
		return 0, fmt.Errorf("upsert imported movies: %w", err)
	}
	s.log.Info("Imported movies from TMDb", "count", len(movies), "pages", pages)
	return len(movies), nil
}

// fetchMovie assembles one catalog record from the detail, credits, and
// keyword endpoints.
func (s *movieImportService) fetchMovie(ctx context.Context, tmdbID int64) (*domain.Movie, error) {
	details, err := s.client.Details(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	credits, err := s.client.MovieCredits(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	keywords, err := s.client.MovieKeywords(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	genres := make([]string, 0, len(details.Genres))
	for _, g := range details.Genres {
		genres = append(genres, g.Name)
	}
	countries := make([]string, 0, len(details.ProductionCountries))
	for _, c := range details.ProductionCountries {
		countries = append(countries, c.Name)
	}
	languages := make([]string, 0, len(details.SpokenLanguages))
	for _, l := range details.SpokenLanguages {
		languages = append(languages, l.Name)
	}

	m := &domain.Movie{
		TMDBID:              tmdbID,
		Title:               details.Title,
		Overview:            details.Overview,
		PosterPath:          details.PosterPath,
		BackdropPath:        details.BackdropPath,
		VoteAverage:         details.VoteAverage,
		VoteCount:           details.VoteCount,
		Popularity:          details.Popularity,
		Genres:              toJSON(genres),
		Directors:           toJSON(credits.Directors()),
		Cast:                toJSON(credits.CastNames(importCastLimit)),
		Keywords:            toJSON(keywords.Names(importKeywordLimit)),
		ProductionCountries: toJSON(countries),
		SpokenLanguages:     toJSON(languages),
	}
	if details.ReleaseDate != "" {
		if t, err := time.Parse("2006-01-02", details.ReleaseDate); err == nil {
			m.ReleaseDate = &t
		}
	}
	return m, nil
}

func toJSON(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}
