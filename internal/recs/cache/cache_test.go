package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/dataset"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(t.TempDir(), log)
}

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	mappings, err := dataset.BuildMappings([]string{"u1", "u2"}, []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("mappings: %v", err)
	}
	names := []string{"genre:drama", "movie_id_:1"}
	return &Snapshot{
		ScorerName:   "baseline",
		ModelBlob:    []byte("model-bytes"),
		Mappings:     mappings,
		FeatureNames: names,
		FeatureIndex: dataset.BuildFeatureIndex(names),
		Interactions: dataset.NewCSR(2, 3, []dataset.Entry{{Row: 0, Col: 1, Val: 0.5}}),
		ItemFeatures: dataset.NewCSR(3, 2, []dataset.Entry{{Row: 0, Col: 0, Val: 1}}),
		UserFeatures: dataset.NewIdentityCSR(2),
		TrainedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	c := testCache(t)
	snap := testSnapshot(t)

	if err := c.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !bytes.Equal(got.ModelBlob, snap.ModelBlob) {
		t.Fatalf("model blob = %q, want %q", got.ModelBlob, snap.ModelBlob)
	}
	if got.ScorerName != "baseline" {
		t.Fatalf("scorer name = %q", got.ScorerName)
	}
	if got.Mappings.NumUsers() != 2 || got.Mappings.NumMovies() != 3 {
		t.Fatalf("mappings sizes = (%d,%d)", got.Mappings.NumUsers(), got.Mappings.NumMovies())
	}
	if got.Interactions.At(0, 1) != 0.5 {
		t.Fatalf("interactions lost: At(0,1)=%v", got.Interactions.At(0, 1))
	}
	if !got.TrainedAt.Equal(snap.TrainedAt) {
		t.Fatalf("trained at = %v, want %v", got.TrainedAt, snap.TrainedAt)
	}
}

func TestLoadMissIsNotAnError(t *testing.T) {
	c := testCache(t)
	_, err := c.Load()
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
}

func TestCorruptDataBlobPurgesBoth(t *testing.T) {
	c := testCache(t)
	if err := c.Save(testSnapshot(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(c.dataPath(), []byte("not gob"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	_, err := c.Load()
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
	if _, err := os.Stat(c.modelPath()); !os.IsNotExist(err) {
		t.Fatal("model blob must be purged alongside the corrupt data blob")
	}
	if _, err := os.Stat(c.dataPath()); !os.IsNotExist(err) {
		t.Fatal("corrupt data blob must be purged")
	}
}

func TestMissingDataBlobPurgesModel(t *testing.T) {
	c := testCache(t)
	if err := c.Save(testSnapshot(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.Remove(c.dataPath()); err != nil {
		t.Fatalf("remove: %v", err)
	}

	_, err := c.Load()
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
	if _, err := os.Stat(c.modelPath()); !os.IsNotExist(err) {
		t.Fatal("orphaned model blob must be purged")
	}
}

func TestLoadRebuildsMissingFeatureIndex(t *testing.T) {
	c := testCache(t)
	snap := testSnapshot(t)
	snap.FeatureIndex = nil
	if err := c.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.FeatureIndex == nil {
		t.Fatal("feature index not rebuilt")
	}
	for i, name := range got.FeatureNames {
		if got.FeatureIndex[name] != i {
			t.Fatalf("rebuilt index maps %q to %d, want %d", name, got.FeatureIndex[name], i)
		}
	}
}

func TestInvalidateRemovesBothBlobs(t *testing.T) {
	c := testCache(t)
	if err := c.Save(testSnapshot(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c.Invalidate()

	if _, err := os.Stat(c.modelPath()); !os.IsNotExist(err) {
		t.Fatal("model blob survived Invalidate")
	}
	if _, err := os.Stat(c.dataPath()); !os.IsNotExist(err) {
		t.Fatal("data blob survived Invalidate")
	}
	// Invalidating an already-empty cache is fine.
	c.Invalidate()
}

func TestDataBlobOmitsModelBytes(t *testing.T) {
	c := testCache(t)
	if err := c.Save(testSnapshot(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(c.dir, dataFileName))
	if err != nil {
		t.Fatalf("read data blob: %v", err)
	}
	var decoded Snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.ModelBlob) != 0 {
		t.Fatal("model bytes must live only in the model blob file")
	}
}
