package movies

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/filmgraph/filmgraph-backend/internal/data/repos/testutil"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
)

func TestRatingRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRatingRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "ratingrepo@example.com")
	m1 := testutil.SeedMovie(t, ctx, tx, 9_910_001, "Rated Once")
	m2 := testutil.SeedMovie(t, ctx, tx, 9_910_002, "Rated Too")

	if _, err := repo.UpsertScore(dbc, u.ID, m1.ID, 6); err != nil {
		t.Fatalf("UpsertScore insert: %v", err)
	}
	if _, err := repo.UpsertScore(dbc, u.ID, m2.ID, 4); err != nil {
		t.Fatalf("UpsertScore insert second movie: %v", err)
	}

	// Rating the same movie again overwrites the score, never adds a row.
	if _, err := repo.UpsertScore(dbc, u.ID, m1.ID, 9); err != nil {
		t.Fatalf("UpsertScore overwrite: %v", err)
	}
	count, err := repo.CountByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountByUser after overwrite: want 2, got %d", count)
	}

	rows, err := repo.ListByUsers(dbc, []uuid.UUID{u.ID})
	if err != nil {
		t.Fatalf("ListByUsers: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListByUsers: want 2 rows, got %d", len(rows))
	}
	scores := map[int64]int{}
	for _, row := range rows {
		scores[row.MovieID] = row.Score
	}
	if scores[m1.ID] != 9 || scores[m2.ID] != 4 {
		t.Fatalf("ListByUsers scores: got %v", scores)
	}

	ids, err := repo.RatedMovieIDs(dbc, u.ID)
	if err != nil {
		t.Fatalf("RatedMovieIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] > ids[1] {
		t.Fatalf("RatedMovieIDs: want 2 ascending ids, got %v", ids)
	}

	if err := repo.Delete(dbc, u.ID, m1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	count, err = repo.CountByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("CountByUser after delete: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountByUser after delete: want 1, got %d", count)
	}

	if rows, err := repo.ListByUsers(dbc, nil); err != nil || len(rows) != 0 {
		t.Fatalf("ListByUsers empty input: err=%v len=%d", err, len(rows))
	}
}
