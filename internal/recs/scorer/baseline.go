package scorer

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/filmgraph/filmgraph-backend/internal/recs/dataset"
)

// Baseline is a bias model: predicted affinity is the global mean interaction
// weight plus per-user and per-item deviations. It is not a factorization
// trainer; it exists so the pipeline runs end to end when no external
// factorization backend is plugged in, and as the reference implementation of
// the Scorer contract.
type Baseline struct {
	GlobalMean float64
	UserBias   []float64
	ItemBias   []float64
}

var errNotFitted = errors.New("baseline scorer not fitted")

func NewBaseline() *Baseline {
	return &Baseline{}
}

func (b *Baseline) Name() string { return "baseline.bias" }

func (b *Baseline) Fit(_ context.Context, ds *dataset.Dataset, _ TrainOptions) error {
	if ds == nil || ds.Interactions == nil || ds.Interactions.NNZ() == 0 {
		return fmt.Errorf("fit baseline: %w", dataset.ErrNoTrainingData)
	}
	m := ds.Interactions

	var sum float64
	for _, v := range m.Data {
		sum += v
	}
	b.GlobalMean = sum / float64(m.NNZ())

	b.UserBias = make([]float64, m.NumRows)
	for u := 0; u < m.NumRows; u++ {
		cols, vals := m.Row(u)
		if len(cols) == 0 {
			continue
		}
		var s float64
		for _, v := range vals {
			s += v
		}
		b.UserBias[u] = s/float64(len(cols)) - b.GlobalMean
	}

	b.ItemBias = make([]float64, m.NumCols)
	counts := make([]int, m.NumCols)
	sums := make([]float64, m.NumCols)
	for u := 0; u < m.NumRows; u++ {
		cols, vals := m.Row(u)
		for k, c := range cols {
			counts[c]++
			sums[c] += vals[k]
		}
	}
	for i := 0; i < m.NumCols; i++ {
		if counts[i] > 0 {
			b.ItemBias[i] = sums[i]/float64(counts[i]) - b.GlobalMean
		}
	}
	return nil
}

func (b *Baseline) Predict(userIndex int, itemIndices []int, _ *dataset.Dataset, _ int) ([]float64, error) {
	if b.UserBias == nil || b.ItemBias == nil {
		return nil, errNotFitted
	}
	if userIndex < 0 || userIndex >= len(b.UserBias) {
		return nil, fmt.Errorf("user index %d out of range [0,%d)", userIndex, len(b.UserBias))
	}
	out := make([]float64, len(itemIndices))
	for k, i := range itemIndices {
		if i < 0 || i >= len(b.ItemBias) {
			return nil, fmt.Errorf("item index %d out of range [0,%d)", i, len(b.ItemBias))
		}
		out[k] = b.GlobalMean + b.UserBias[userIndex] + b.ItemBias[i]
	}
	return out, nil
}

func (b *Baseline) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, fmt.Errorf("marshal baseline: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBaseline is the Factory for Baseline snapshots.
func UnmarshalBaseline(blob []byte) (Scorer, error) {
	var b Baseline
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&b); err != nil {
		return nil, fmt.Errorf("unmarshal baseline: %w", err)
	}
	return &b, nil
}
