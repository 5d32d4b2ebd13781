package movies

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/filmgraph/filmgraph-backend/internal/data/repos/testutil"
	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
)

func TestRecommendationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "recrepo@example.com")
	m1 := testutil.SeedMovie(t, ctx, tx, 9_920_001, "Pick One")
	m2 := testutil.SeedMovie(t, ctx, tx, 9_920_002, "Pick Two")
	m3 := testutil.SeedMovie(t, ctx, tx, 9_920_003, "Pick Three")

	now := time.Now().UTC()
	makeRec := func(movieID int64, score float64) *domain.UserRecommendation {
		return &domain.UserRecommendation{
			ID:          uuid.New(),
			UserID:      u.ID,
			MovieID:     movieID,
			Score:       score,
			GeneratedAt: now,
		}
	}

	first := []*domain.UserRecommendation{
		makeRec(m1.ID, 0.3),
		makeRec(m2.ID, 0.9),
		makeRec(m3.ID, 0.6),
	}
	if err := repo.ReplaceForUser(dbc, u.ID, first); err != nil {
		t.Fatalf("ReplaceForUser insert: %v", err)
	}

	rows, err := repo.ListByUser(dbc, u.ID, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("ListByUser: want 3 rows, got %d", len(rows))
	}
	if rows[0].MovieID != m2.ID || rows[1].MovieID != m3.ID || rows[2].MovieID != m1.ID {
		t.Fatalf("ListByUser ordering: got %d, %d, %d", rows[0].MovieID, rows[1].MovieID, rows[2].MovieID)
	}

	if rows, err := repo.ListByUser(dbc, u.ID, 2); err != nil || len(rows) != 2 {
		t.Fatalf("ListByUser limit: err=%v len=%d", err, len(rows))
	}

	// A regeneration replaces the whole set, it never accumulates.
	second := []*domain.UserRecommendation{makeRec(m1.ID, 0.8)}
	if err := repo.ReplaceForUser(dbc, u.ID, second); err != nil {
		t.Fatalf("ReplaceForUser replace: %v", err)
	}
	rows, err = repo.ListByUser(dbc, u.ID, 0)
	if err != nil {
		t.Fatalf("ListByUser after replace: %v", err)
	}
	if len(rows) != 1 || rows[0].MovieID != m1.ID {
		t.Fatalf("ListByUser after replace: want only movie %d, got %d rows", m1.ID, len(rows))
	}

	if err := repo.ReplaceForUser(dbc, u.ID, nil); err != nil {
		t.Fatalf("ReplaceForUser clear: %v", err)
	}
	if rows, err := repo.ListByUser(dbc, u.ID, 0); err != nil || len(rows) != 0 {
		t.Fatalf("ListByUser after clear: err=%v len=%d", err, len(rows))
	}

	testRecs := []*domain.UserRecommendation{makeRec(m2.ID, 0.5), makeRec(m3.ID, 0.4)}
	if err := repo.ReplaceForUser(dbc, u.ID, testRecs); err != nil {
		t.Fatalf("ReplaceForUser reseed: %v", err)
	}
	deleted, err := repo.DeleteByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("DeleteByUser: want 2 rows deleted, got %d", deleted)
	}
}
