package movies

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

type RatingRepo interface {
	// UpsertScore creates or overwrites the single rating row for (user, movie).
	UpsertScore(dbc dbctx.Context, userID uuid.UUID, movieID int64, score int) (*domain.Rating, error)
	ListByUsers(dbc dbctx.Context, userIDs []uuid.UUID) ([]*domain.Rating, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	RatedMovieIDs(dbc dbctx.Context, userID uuid.UUID) ([]int64, error)
	Delete(dbc dbctx.Context, userID uuid.UUID, movieID int64) error
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return &ratingRepo{db: db, log: baseLog.With("repo", "RatingRepo")}
}

func (r *ratingRepo) UpsertScore(dbc dbctx.Context, userID uuid.UUID, movieID int64, score int) (*domain.Rating, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	rating := &domain.Rating{
		ID:      uuid.New(),
		UserID:  userID,
		MovieID: movieID,
		Score:   score,
	}
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).
		Create(rating).Error; err != nil {
		return nil, err
	}
	return rating, nil
}

func (r *ratingRepo) ListByUsers(dbc dbctx.Context, userIDs []uuid.UUID) ([]*domain.Rating, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.Rating
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id IN ?", userIDs).
		Order("user_id ASC, movie_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ratingRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.Rating{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ratingRepo) RatedMovieIDs(dbc dbctx.Context, userID uuid.UUID) ([]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.Rating{}).
		Where("user_id = ?", userID).
		Order("movie_id ASC").
		Pluck("movie_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ratingRepo) Delete(dbc dbctx.Context, userID uuid.UUID, movieID int64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&domain.Rating{}).Error
}
