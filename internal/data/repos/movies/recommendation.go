package movies

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

type RecommendationRepo interface {
	// ReplaceForUser deletes the user's stored recommendations and inserts the
	// new set inside one transaction, so readers never observe a partial set.
	ReplaceForUser(dbc dbctx.Context, userID uuid.UUID, recs []*domain.UserRecommendation) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.UserRecommendation, error)
	DeleteByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) ReplaceForUser(dbc dbctx.Context, userID uuid.UUID, recs []*domain.UserRecommendation) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).
			Delete(&domain.UserRecommendation{}).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.Create(&recs).Error
	})
}

func (r *recommendationRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.UserRecommendation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.UserRecommendation
	q := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("score DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recommendationRepo) DeleteByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Delete(&domain.UserRecommendation{})
	return res.RowsAffected, res.Error
}
