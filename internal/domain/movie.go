package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Movie mirrors the TMDb movie payloads we import. The list-valued metadata
// columns hold JSON arrays whose elements are either {"name": ...} objects or
// plain strings; the feature extractor tolerates both shapes.
type Movie struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TMDBID       int64      `gorm:"column:tmdb_id;uniqueIndex;not null" json:"tmdb_id"`
	Title        string     `gorm:"not null;column:title" json:"title"`
	Overview     string     `gorm:"column:overview" json:"overview"`
	ReleaseDate  *time.Time `gorm:"column:release_date" json:"release_date,omitempty"`
	PosterPath   string     `gorm:"column:poster_path" json:"poster_path"`
	BackdropPath string     `gorm:"column:backdrop_path" json:"backdrop_path"`
	VoteAverage  float64    `gorm:"not null;default:0;column:vote_average" json:"vote_average"`
	VoteCount    int64      `gorm:"not null;default:0;column:vote_count" json:"vote_count"`
	Popularity   float64    `gorm:"not null;default:0;column:popularity" json:"popularity"`

	Genres              datatypes.JSON `gorm:"column:genres;type:jsonb" json:"genres"`
	Directors           datatypes.JSON `gorm:"column:directors;type:jsonb" json:"directors"`
	Cast                datatypes.JSON `gorm:"column:cast_members;type:jsonb" json:"cast"`
	Keywords            datatypes.JSON `gorm:"column:keywords;type:jsonb" json:"keywords"`
	ProductionCountries datatypes.JSON `gorm:"column:production_countries;type:jsonb" json:"production_countries"`
	SpokenLanguages     datatypes.JSON `gorm:"column:spoken_languages;type:jsonb" json:"spoken_languages"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Movie) TableName() string { return "movie" }
