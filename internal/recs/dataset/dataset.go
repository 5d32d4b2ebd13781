package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/feature"
)

// Interaction is one (user, movie, weight) triple. Weights are normalized
// rating scores in [0,1].
type Interaction struct {
	UserID  string
	MovieID string
	Weight  float64
}

// NormalizeScore maps a raw 1..10 rating onto the [0,1] interaction weight.
func NormalizeScore(score int) float64 {
	return math.Max(0, math.Min(1, float64(score)/10))
}

// Dataset is everything a factorization scorer consumes for one training
// cycle: the id bijections, the canonical feature ordering and both sparse
// matrices. It is built atomically; a partially-constructed Dataset never
// escapes the builder.
type Dataset struct {
	Mappings     *Mappings
	FeatureNames []string
	FeatureIndex map[string]int
	Interactions *CSR
	ItemFeatures *CSR
	UserFeatures *CSR
}

// Builder assembles Datasets from storage-level records.
type Builder struct {
	extractor *feature.Extractor
	log       *logger.Logger
}

func NewBuilder(baseLog *logger.Logger) *Builder {
	return &Builder{
		extractor: feature.NewExtractor(baseLog),
		log:       baseLog.With("component", "DatasetBuilder"),
	}
}

// Build constructs the interaction and item-feature matrices.
//
// The interaction matrix spans eligible users by the full movie universe,
// meaning every movie in storage whether rated or not, so cold movies stay
// recommendable. Interactions from users outside the eligible set contribute
// no rows. Duplicate (user, movie) pairs overwrite, never sum.
func (b *Builder) Build(movies []*domain.Movie, interactions []Interaction, eligibleUserIDs []string) (*Dataset, error) {
	if len(eligibleUserIDs) == 0 {
		return nil, fmt.Errorf("%w: no eligible users", ErrNoTrainingData)
	}

	movieIDs := make([]string, 0, len(movies))
	byID := make(map[string]*domain.Movie, len(movies))
	for _, m := range movies {
		id := strconv.FormatInt(m.ID, 10)
		movieIDs = append(movieIDs, id)
		byID[id] = m
	}

	mappings, err := BuildMappings(eligibleUserIDs, movieIDs)
	if err != nil {
		return nil, err
	}
	if mappings.NumMovies() != len(byID) {
		return nil, fmt.Errorf("%w: mapped %d movies, universe has %d",
			ErrMappingIncomplete, mappings.NumMovies(), len(byID))
	}

	// Canonical feature ordering: the global sorted union of every movie's
	// tokens. Deterministic for a fixed universe.
	tokensByMovie := make(map[string][]string, len(byID))
	union := map[string]struct{}{}
	for id, m := range byID {
		tokens := b.extractor.Extract(m)
		tokensByMovie[id] = tokens
		for _, t := range tokens {
			union[t] = struct{}{}
		}
	}
	featureNames := make([]string, 0, len(union))
	for t := range union {
		featureNames = append(featureNames, t)
	}
	sort.Strings(featureNames)
	featureIndex := BuildFeatureIndex(featureNames)

	b.log.Info("Collected item feature names", "count", len(featureNames))

	var interactionEntries []Entry
	for _, in := range interactions {
		uIdx, ok := mappings.UserIndexOf(in.UserID)
		if !ok {
			continue
		}
		mIdx, ok := mappings.MovieIndexOf(in.MovieID)
		if !ok {
			b.log.Warn("Interaction references movie outside universe, skipping",
				"movie_id", in.MovieID)
			continue
		}
		w := math.Max(0, math.Min(1, in.Weight))
		interactionEntries = append(interactionEntries, Entry{Row: uIdx, Col: mIdx, Val: w})
	}

	interactionMatrix := NewCSR(mappings.NumUsers(), mappings.NumMovies(), interactionEntries)
	if interactionMatrix.NNZ() == 0 {
		return nil, fmt.Errorf("%w: interaction matrix is empty", ErrNoTrainingData)
	}
	b.log.Info("Built interaction matrix",
		"rows", interactionMatrix.NumRows,
		"cols", interactionMatrix.NumCols,
		"nnz", interactionMatrix.NNZ(),
	)

	var featureEntries []Entry
	for id, tokens := range tokensByMovie {
		row, _ := mappings.MovieIndexOf(id)
		for _, t := range tokens {
			col, ok := featureIndex[t]
			if !ok {
				continue
			}
			featureEntries = append(featureEntries, Entry{Row: row, Col: col, Val: 1})
		}
	}
	itemFeatures := NewCSR(mappings.NumMovies(), len(featureNames), featureEntries)
	if itemFeatures.NNZ() == 0 {
		// Training proceeds, but the content-based signal will be absent.
		b.log.Warn("Item feature matrix has zero non-zero entries")
	}

	return &Dataset{
		Mappings:     mappings,
		FeatureNames: featureNames,
		FeatureIndex: featureIndex,
		Interactions: interactionMatrix,
		ItemFeatures: itemFeatures,
		UserFeatures: NewIdentityCSR(mappings.NumUsers()),
	}, nil
}

// RatedMovieIndices returns the internal indices of movies the user
// interacted with during training, or nil when the user has no row.
func (d *Dataset) RatedMovieIndices(userIndex int) []int {
	cols, _ := d.Interactions.Row(userIndex)
	return cols
}

// BuildFeatureIndex rebuilds the token-to-column map from a feature-name
// list. Used when loading snapshots written before the map was persisted.
func BuildFeatureIndex(featureNames []string) map[string]int {
	idx := make(map[string]int, len(featureNames))
	for i, t := range featureNames {
		idx[t] = i
	}
	return idx
}
