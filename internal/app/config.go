package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/scorer"
	"github.com/filmgraph/filmgraph-backend/internal/utils"
)

// TrainingConfig holds the model hyperparameters and eligibility thresholds.
type TrainingConfig struct {
	MinUserRatingsForTraining       int     `yaml:"min_user_ratings_for_training"`
	MinUserRatingsForRecommendation int     `yaml:"min_user_ratings_for_recommendation"`
	Components                      int     `yaml:"components"`
	LearningRate                    float64 `yaml:"learning_rate"`
	ItemAlpha                       float64 `yaml:"item_alpha"`
	UserAlpha                       float64 `yaml:"user_alpha"`
	Epochs                          int     `yaml:"epochs"`
	Threads                         int     `yaml:"threads"`
	Loss                            string  `yaml:"loss"`
}

// Config is the full runtime configuration, loaded from environment
// variables with an optional YAML file overlay via CONFIG_FILE.
type Config struct {
	Port           string         `yaml:"port"`
	GinMode        string         `yaml:"gin_mode"`
	ModelCacheDir  string         `yaml:"model_cache_dir"`
	TopN           int            `yaml:"top_n"`
	TMDBAPIKey     string         `yaml:"tmdb_api_key"`
	TMDBBaseURL    string         `yaml:"tmdb_base_url"`
	RedisAddr      string         `yaml:"redis_addr"`
	RedisPassword  string         `yaml:"redis_password"`
	RedisDB        int            `yaml:"redis_db"`
	PopularityKey  string         `yaml:"popularity_key"`
	WorkerPollMS   int            `yaml:"worker_poll_ms"`
	WorkerMaxAtt   int            `yaml:"worker_max_attempts"`
	Training       TrainingConfig `yaml:"training"`
}

// Load reads configuration from the environment, then overlays values from
// the YAML file named by CONFIG_FILE when that variable is set.
func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		Port:          utils.GetEnv("PORT", "8080", log),
		GinMode:       utils.GetEnv("GIN_MODE", "debug", log),
		ModelCacheDir: utils.GetEnv("MODEL_CACHE_DIR", "./model_cache", log),
		TopN:          utils.GetEnvAsInt("RECOMMENDATIONS_TOP_N", 10, log),
		TMDBAPIKey:    utils.GetEnv("TMDB_API_KEY", "", log),
		TMDBBaseURL:   utils.GetEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3", log),
		RedisAddr:     utils.GetEnv("REDIS_ADDR", "localhost:6379", log),
		RedisPassword: utils.GetEnv("REDIS_PASSWORD", "", log),
		RedisDB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
		PopularityKey: utils.GetEnv("POPULARITY_ZSET_KEY", "filmgraph:popular_movies", log),
		WorkerPollMS:  utils.GetEnvAsInt("WORKER_POLL_MS", 2000, log),
		WorkerMaxAtt:  utils.GetEnvAsInt("WORKER_MAX_ATTEMPTS", 3, log),
		Training: TrainingConfig{
			MinUserRatingsForTraining:       utils.GetEnvAsInt("MIN_USER_RATINGS_FOR_TRAINING", 5, log),
			MinUserRatingsForRecommendation: utils.GetEnvAsInt("MIN_USER_RATINGS_FOR_RECOMMENDATION", 5, log),
			Components:                      utils.GetEnvAsInt("MODEL_COMPONENTS", 30, log),
			LearningRate:                    utils.GetEnvAsFloat("MODEL_LEARNING_RATE", 0.05, log),
			ItemAlpha:                       utils.GetEnvAsFloat("MODEL_ITEM_ALPHA", 1e-6, log),
			UserAlpha:                       utils.GetEnvAsFloat("MODEL_USER_ALPHA", 1e-6, log),
			Epochs:                          utils.GetEnvAsInt("MODEL_EPOCHS", 30, log),
			Threads:                         utils.GetEnvAsInt("MODEL_THREADS", 2, log),
			Loss:                            utils.GetEnv("MODEL_LOSS", "warp", log),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Applied config file overlay", "path", path)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("RECOMMENDATIONS_TOP_N must be positive, got %d", c.TopN)
	}
	if c.Training.MinUserRatingsForTraining < 1 {
		return fmt.Errorf("MIN_USER_RATINGS_FOR_TRAINING must be at least 1, got %d", c.Training.MinUserRatingsForTraining)
	}
	if c.Training.Epochs < 1 {
		return fmt.Errorf("MODEL_EPOCHS must be at least 1, got %d", c.Training.Epochs)
	}
	if c.Training.Threads < 1 {
		return fmt.Errorf("MODEL_THREADS must be at least 1, got %d", c.Training.Threads)
	}
	return nil
}

// TrainOptions converts the training section into scorer options.
func (c *Config) TrainOptions() scorer.TrainOptions {
	return scorer.TrainOptions{
		Components:   c.Training.Components,
		LearningRate: c.Training.LearningRate,
		ItemAlpha:    c.Training.ItemAlpha,
		UserAlpha:    c.Training.UserAlpha,
		Epochs:       c.Training.Epochs,
		Threads:      c.Training.Threads,
		Loss:         c.Training.Loss,
	}
}
