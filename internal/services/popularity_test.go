package services

import (
	"context"
	"testing"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
)

func TestPopularityTopMoviesFromDatabase(t *testing.T) {
	movieRepo := &stubMovieRepo{popular: []*domain.Movie{
		{ID: 7, Title: "Most Rated", VoteAverage: 8.5},
		{ID: 3, Title: "Second", VoteAverage: 0},
		{ID: 9, Title: "Third", VoteAverage: 12},
	}}
	// Nil redis client means every read goes straight to the database.
	svc := NewPopularityService(testLogger(t), nil, "chart", movieRepo, 1)

	got, err := svc.TopMovies(context.Background(), 3)
	if err != nil {
		t.Fatalf("TopMovies: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("TopMovies: want 3 candidates, got %d", len(got))
	}
	if got[0].MovieID != "7" || got[1].MovieID != "3" || got[2].MovieID != "9" {
		t.Fatalf("TopMovies order: got %s, %s, %s", got[0].MovieID, got[1].MovieID, got[2].MovieID)
	}
	if got[0].Score != 0.85 {
		t.Fatalf("score should be vote average over ten, got %v", got[0].Score)
	}
	if got[1].Score != 0 {
		t.Fatalf("unset vote average should score 0, got %v", got[1].Score)
	}
	if got[2].Score != 1 {
		t.Fatalf("scores clamp to 1, got %v", got[2].Score)
	}
}

func TestPopularityTopMoviesHonorsLimit(t *testing.T) {
	movieRepo := &stubMovieRepo{popular: []*domain.Movie{
		{ID: 1, VoteAverage: 9},
		{ID: 2, VoteAverage: 8},
	}}
	svc := NewPopularityService(testLogger(t), nil, "chart", movieRepo, 1)

	got, err := svc.TopMovies(context.Background(), 1)
	if err != nil {
		t.Fatalf("TopMovies: %v", err)
	}
	if len(got) != 1 || got[0].MovieID != "1" {
		t.Fatalf("TopMovies limit: got %d candidates", len(got))
	}

	if got, err := svc.TopMovies(context.Background(), 0); err != nil || got != nil {
		t.Fatalf("TopMovies zero limit: err=%v len=%d", err, len(got))
	}
}

func TestPopularityRefreshChartRequiresRedis(t *testing.T) {
	svc := NewPopularityService(testLogger(t), nil, "chart", &stubMovieRepo{}, 1)
	if err := svc.RefreshChart(context.Background()); err == nil {
		t.Fatalf("RefreshChart without redis should fail")
	}
}
