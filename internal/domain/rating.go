package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating is one user's score for one movie, 1..10. The composite unique index
// makes duplicate submissions an upsert, never a second row.
type Rating struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_movie;index" json:"user_id"`
	MovieID   int64     `gorm:"not null;uniqueIndex:idx_rating_user_movie;index" json:"movie_id"`
	Score     int       `gorm:"not null;column:score" json:"score"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Rating) TableName() string { return "rating" }
