package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/dataset"
)

// ErrCacheMiss means no usable snapshot exists. Corrupt snapshots are purged
// and reported as a miss, never as a fatal error: an unreadable cache must
// not block retraining.
var ErrCacheMiss = errors.New("model cache miss")

const (
	modelFileName = "model.gob"
	dataFileName  = "data.gob"
)

// Snapshot is the atomic persisted unit: the trained scorer's opaque state
// plus everything needed to reuse it without retraining.
type Snapshot struct {
	ScorerName   string
	ModelBlob    []byte
	Mappings     *dataset.Mappings
	FeatureNames []string
	FeatureIndex map[string]int
	Interactions *dataset.CSR
	ItemFeatures *dataset.CSR
	UserFeatures *dataset.CSR
	TrainedAt    time.Time
}

// Dataset reassembles the dataset view of the snapshot.
func (s *Snapshot) Dataset() *dataset.Dataset {
	return &dataset.Dataset{
		Mappings:     s.Mappings,
		FeatureNames: s.FeatureNames,
		FeatureIndex: s.FeatureIndex,
		Interactions: s.Interactions,
		ItemFeatures: s.ItemFeatures,
		UserFeatures: s.UserFeatures,
	}
}

// Cache persists snapshots as a model blob and a data blob under one
// directory. The pair is written and removed together; a half-readable pair
// is treated as corrupt.
type Cache struct {
	dir string
	log *logger.Logger
}

func New(dir string, baseLog *logger.Logger) *Cache {
	return &Cache{dir: dir, log: baseLog.With("component", "ModelCache")}
}

func (c *Cache) modelPath() string { return filepath.Join(c.dir, modelFileName) }
func (c *Cache) dataPath() string  { return filepath.Join(c.dir, dataFileName) }

// Load reads the snapshot pair. Any read or decode failure purges both blobs
// and returns ErrCacheMiss. Snapshots from before the feature-index map was
// persisted get the map rebuilt from the cached feature-name list.
func (c *Cache) Load() (*Snapshot, error) {
	modelBlob, err := os.ReadFile(c.modelPath())
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("Unreadable model blob, purging cache", "error", err)
			c.Invalidate()
		}
		return nil, ErrCacheMiss
	}
	dataBlob, err := os.ReadFile(c.dataPath())
	if err != nil {
		c.log.Warn("Model blob present but data blob unreadable, purging cache", "error", err)
		c.Invalidate()
		return nil, ErrCacheMiss
	}

	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(dataBlob)).Decode(&snap); err != nil {
		c.log.Warn("Corrupt data blob, purging cache", "error", err)
		c.Invalidate()
		return nil, ErrCacheMiss
	}
	if len(modelBlob) == 0 || snap.Mappings == nil || snap.Interactions == nil {
		c.log.Warn("Incomplete snapshot, purging cache")
		c.Invalidate()
		return nil, ErrCacheMiss
	}
	snap.ModelBlob = modelBlob

	if snap.FeatureIndex == nil {
		c.log.Warn("Feature index map absent from snapshot, rebuilding from feature names")
		snap.FeatureIndex = dataset.BuildFeatureIndex(snap.FeatureNames)
	}

	c.log.Info("Loaded model snapshot from disk cache",
		"trained_at", snap.TrainedAt,
		"users", snap.Mappings.NumUsers(),
		"movies", snap.Mappings.NumMovies(),
	)
	return &snap, nil
}

// Save writes both blobs. If either write fails the cache is invalidated
// entirely rather than left half-written.
func (c *Cache) Save(snap *Snapshot) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := os.WriteFile(c.modelPath(), snap.ModelBlob, 0o644); err != nil {
		c.Invalidate()
		return fmt.Errorf("write model blob: %w", err)
	}

	// The model blob lives in its own file; don't duplicate it in the data
	// blob.
	data := *snap
	data.ModelBlob = nil

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&data); err != nil {
		c.Invalidate()
		return fmt.Errorf("encode data blob: %w", err)
	}
	if err := os.WriteFile(c.dataPath(), buf.Bytes(), 0o644); err != nil {
		c.Invalidate()
		return fmt.Errorf("write data blob: %w", err)
	}

	c.log.Info("Saved model snapshot", "model_path", c.modelPath(), "data_path", c.dataPath())
	return nil
}

// Invalidate removes both blobs. Missing files are fine.
func (c *Cache) Invalidate() {
	for _, path := range []string{c.modelPath(), c.dataPath()} {
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				c.log.Error("Failed to remove cached file", "path", path, "error", err)
			}
			continue
		}
		c.log.Info("Removed cached file", "path", path)
	}
}
