package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*domain.User) ([]*domain.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*domain.User, error)
	GetActive(dbc dbctx.Context) ([]*domain.User, error)
	ActiveIDs(dbc dbctx.Context) ([]uuid.UUID, error)
	// EligibleForTraining returns the ids of active users with at least
	// minRatings rating rows, ordered by id.
	EligibleForTraining(dbc dbctx.Context, minRatings int) ([]uuid.UUID, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(dbc dbctx.Context, users []*domain.User) ([]*domain.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(users) == 0 {
		return []*domain.User{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*domain.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userRepo) GetActive(dbc dbctx.Context) ([]*domain.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.User
	if err := transaction.WithContext(dbc.Ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userRepo) ActiveIDs(dbc dbctx.Context) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.User{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRepo) EligibleForTraining(dbc dbctx.Context, minRatings int) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.User{}).
		Joins(`JOIN rating ON rating.user_id = "user".id`).
		Where(`"user".is_active = ?`, true).
		Group(`"user".id`).
		Having("COUNT(rating.id) >= ?", minRatings).
		Order(`"user".id ASC`).
		Pluck(`"user".id`, &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
