package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port default: got %q", cfg.Port)
	}
	if cfg.TopN != 10 {
		t.Fatalf("TopN default: got %d", cfg.TopN)
	}
	if cfg.Training.MinUserRatingsForTraining != 5 {
		t.Fatalf("MinUserRatingsForTraining default: got %d", cfg.Training.MinUserRatingsForTraining)
	}
	if cfg.Training.Loss != "warp" {
		t.Fatalf("Loss default: got %q", cfg.Training.Loss)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RECOMMENDATIONS_TOP_N", "25")
	t.Setenv("MODEL_LEARNING_RATE", "0.1")
	t.Setenv("MIN_USER_RATINGS_FOR_RECOMMENDATION", "3")

	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port: got %q", cfg.Port)
	}
	if cfg.TopN != 25 {
		t.Fatalf("TopN: got %d", cfg.TopN)
	}
	if cfg.Training.LearningRate != 0.1 {
		t.Fatalf("LearningRate: got %v", cfg.Training.LearningRate)
	}
	if cfg.Training.MinUserRatingsForRecommendation != 3 {
		t.Fatalf("MinUserRatingsForRecommendation: got %d", cfg.Training.MinUserRatingsForRecommendation)
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	t.Setenv("PORT", "9090")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("port: \"7000\"\ntraining:\n  epochs: 10\n  loss: bpr\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// The file wins over the environment.
	if cfg.Port != "7000" {
		t.Fatalf("Port: got %q", cfg.Port)
	}
	if cfg.Training.Epochs != 10 || cfg.Training.Loss != "bpr" {
		t.Fatalf("training overlay: epochs=%d loss=%q", cfg.Training.Epochs, cfg.Training.Loss)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"zero top n", "RECOMMENDATIONS_TOP_N", "0"},
		{"zero training threshold", "MIN_USER_RATINGS_FOR_TRAINING", "0"},
		{"zero epochs", "MODEL_EPOCHS", "0"},
		{"zero threads", "MODEL_THREADS", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(testLogger(t)); err == nil {
				t.Fatalf("Load accepted %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestTrainOptions(t *testing.T) {
	cfg := &Config{Training: TrainingConfig{
		Components:   16,
		LearningRate: 0.05,
		Epochs:       20,
		Threads:      4,
		Loss:         "warp",
	}}
	opts := cfg.TrainOptions()
	if opts.Components != 16 || opts.Epochs != 20 || opts.Threads != 4 || opts.Loss != "warp" {
		t.Fatalf("TrainOptions mismatch: %+v", opts)
	}
}
