package scorer

import (
	"context"

	"github.com/filmgraph/filmgraph-backend/internal/recs/dataset"
)

// TrainOptions carries the hyperparameters handed to the trainable scorer.
// The orchestration layer treats them as opaque; individual scorers use the
// subset they understand.
type TrainOptions struct {
	Components   int
	LearningRate float64
	ItemAlpha    float64
	UserAlpha    float64
	Epochs       int
	Threads      int
	Loss         string
}

// Scorer is a black-box trainable affinity model. Fit learns from a built
// dataset; Predict scores one user against a set of item internal indices.
// Implementations must be safe to Marshal after Fit so the trained state can
// live inside a cache snapshot.
type Scorer interface {
	Name() string
	Fit(ctx context.Context, ds *dataset.Dataset, opts TrainOptions) error
	Predict(userIndex int, itemIndices []int, ds *dataset.Dataset, threads int) ([]float64, error)
	Marshal() ([]byte, error)
}

// Factory restores a scorer from its marshaled state. The cache stores the
// blob opaquely; whoever loads a snapshot chooses the factory matching the
// scorer that produced it.
type Factory func(blob []byte) (Scorer, error)
