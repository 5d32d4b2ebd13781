package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRecommendation is one persisted recommendation row. Scores are always
// in [0,1]; the generation job replaces a user's full set atomically.
type UserRecommendation struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recommendation_user_movie;index" json:"user_id"`
	MovieID     int64     `gorm:"not null;uniqueIndex:idx_recommendation_user_movie;index" json:"movie_id"`
	Score       float64   `gorm:"not null;column:score;index" json:"score"`
	GeneratedAt time.Time `gorm:"not null;default:now();column:generated_at" json:"generated_at"`
}

func (UserRecommendation) TableName() string { return "user_recommendation" }
