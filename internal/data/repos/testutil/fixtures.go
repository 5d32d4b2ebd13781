package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.User {
	tb.Helper()
	u := &domain.User{
		ID:       uuid.New(),
		Email:    email,
		Username: email,
		Password: "pw",
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedMovie(tb testing.TB, ctx context.Context, tx *gorm.DB, tmdbID int64, title string) *domain.Movie {
	tb.Helper()
	m := &domain.Movie{
		TMDBID:   tmdbID,
		Title:    title,
		Genres:   datatypes.JSON([]byte(`["Drama"]`)),
		Cast:     datatypes.JSON([]byte(`[]`)),
		Keywords: datatypes.JSON([]byte(`[]`)),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed movie: %v", err)
	}
	return m
}

func SeedRating(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, movieID int64, score int) *domain.Rating {
	tb.Helper()
	r := &domain.Rating{
		ID:      uuid.New(),
		UserID:  userID,
		MovieID: movieID,
		Score:   score,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed rating: %v", err)
	}
	return r
}

// SeedRatedUser creates a user plus n ratings across n fresh movies.
func SeedRatedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, n int) *domain.User {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email)
	for i := 0; i < n; i++ {
		m := SeedMovie(tb, ctx, tx, nextTMDBID(), fmt.Sprintf("movie-%s-%d", email, i))
		SeedRating(tb, ctx, tx, u.ID, m.ID, 7)
	}
	return u
}

var tmdbIDCounter int64 = 1_000_000

// nextTMDBID keeps seeded tmdb ids unique across fixtures in one test run.
func nextTMDBID() int64 {
	tmdbIDCounter++
	return tmdbIDCounter
}
