package scorer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/filmgraph/filmgraph-backend/internal/recs/dataset"
)

// testDataset: 2 users, 3 movies.
//
//	u0 rated m0=1.0, m1=0.5
//	u1 rated m1=0.5
func testDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Interactions: dataset.NewCSR(2, 3, []dataset.Entry{
			{Row: 0, Col: 0, Val: 1.0},
			{Row: 0, Col: 1, Val: 0.5},
			{Row: 1, Col: 1, Val: 0.5},
		}),
	}
}

func TestBaselineFitPredict(t *testing.T) {
	b := NewBaseline()
	ds := testDataset()
	if err := b.Fit(context.Background(), ds, TrainOptions{}); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// Global mean = (1.0 + 0.5 + 0.5) / 3.
	wantMean := 2.0 / 3.0
	if math.Abs(b.GlobalMean-wantMean) > 1e-12 {
		t.Fatalf("GlobalMean = %v, want %v", b.GlobalMean, wantMean)
	}

	scores, err := b.Predict(0, []int{0, 1, 2}, ds, 1)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("scores = %v, want 3 values", scores)
	}
	// u0 likes m0 more than m1, and the unrated m2 has no item bias.
	if scores[0] <= scores[1] {
		t.Fatalf("expected m0 > m1 for u0, got %v", scores)
	}
}

func TestBaselinePredictBeforeFit(t *testing.T) {
	b := NewBaseline()
	if _, err := b.Predict(0, []int{0}, nil, 1); err == nil {
		t.Fatal("expected error predicting before fit")
	}
}

func TestBaselineFitEmptyDataset(t *testing.T) {
	b := NewBaseline()
	err := b.Fit(context.Background(), &dataset.Dataset{Interactions: dataset.NewCSR(2, 2, nil)}, TrainOptions{})
	if !errors.Is(err, dataset.ErrNoTrainingData) {
		t.Fatalf("err = %v, want ErrNoTrainingData", err)
	}
}

func TestBaselinePredictRangeChecks(t *testing.T) {
	b := NewBaseline()
	ds := testDataset()
	if err := b.Fit(context.Background(), ds, TrainOptions{}); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if _, err := b.Predict(9, []int{0}, ds, 1); err == nil {
		t.Fatal("expected user index range error")
	}
	if _, err := b.Predict(0, []int{99}, ds, 1); err == nil {
		t.Fatal("expected item index range error")
	}
}

func TestBaselineMarshalRoundtrip(t *testing.T) {
	b := NewBaseline()
	ds := testDataset()
	if err := b.Fit(context.Background(), ds, TrainOptions{}); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	blob, err := b.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	restored, err := UnmarshalBaseline(blob)
	if err != nil {
		t.Fatalf("UnmarshalBaseline: %v", err)
	}

	want, err := b.Predict(1, []int{0, 1, 2}, ds, 1)
	if err != nil {
		t.Fatalf("Predict original: %v", err)
	}
	got, err := restored.Predict(1, []int{0, 1, 2}, ds, 1)
	if err != nil {
		t.Fatalf("Predict restored: %v", err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("restored scores differ at %d: %v vs %v", i, want[i], got[i])
		}
	}
}

func TestUnmarshalBaselineCorrupt(t *testing.T) {
	if _, err := UnmarshalBaseline([]byte("junk")); err == nil {
		t.Fatal("expected decode error for corrupt blob")
	}
}
