package movies

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

type MovieRepo interface {
	// Upsert inserts movies or, when the tmdb_id already exists, refreshes the
	// imported metadata columns in place.
	Upsert(dbc dbctx.Context, movies []*domain.Movie) ([]*domain.Movie, error)
	GetByIDs(dbc dbctx.Context, movieIDs []int64) ([]*domain.Movie, error)
	GetAll(dbc dbctx.Context) ([]*domain.Movie, error)
	AllIDs(dbc dbctx.Context) ([]int64, error)
	// GetPopular returns movies with at least minRatings ratings, ordered by
	// rating count desc then vote average desc.
	GetPopular(dbc dbctx.Context, minRatings int, limit int) ([]*domain.Movie, error)
	Search(dbc dbctx.Context, query string, limit int) ([]*domain.Movie, error)
}

type movieRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMovieRepo(db *gorm.DB, baseLog *logger.Logger) MovieRepo {
	return &movieRepo{db: db, log: baseLog.With("repo", "MovieRepo")}
}

func (r *movieRepo) Upsert(dbc dbctx.Context, movies []*domain.Movie) ([]*domain.Movie, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(movies) == 0 {
		return []*domain.Movie{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tmdb_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "overview", "release_date", "poster_path", "backdrop_path",
				"vote_average", "vote_count", "popularity",
				"genres", "directors", "cast_members", "keywords",
				"production_countries", "spoken_languages", "updated_at",
			}),
		}).
		Create(&movies).Error; err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *movieRepo) GetByIDs(dbc dbctx.Context, movieIDs []int64) ([]*domain.Movie, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.Movie
	if len(movieIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", movieIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *movieRepo) GetAll(dbc dbctx.Context) ([]*domain.Movie, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.Movie
	if err := transaction.WithContext(dbc.Ctx).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *movieRepo) AllIDs(dbc dbctx.Context) ([]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.Movie{}).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *movieRepo) GetPopular(dbc dbctx.Context, minRatings int, limit int) ([]*domain.Movie, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.Movie
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.Movie{}).
		Joins("JOIN rating ON rating.movie_id = movie.id").
		Group("movie.id").
		Having("COUNT(rating.id) >= ?", minRatings).
		Order("COUNT(rating.id) DESC, movie.vote_average DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *movieRepo) Search(dbc dbctx.Context, query string, limit int) ([]*domain.Movie, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.Movie
	if query == "" {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("title ILIKE ?", "%"+query+"%").
		Order("popularity DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
