package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/filmgraph/filmgraph-backend/internal/app"
	"github.com/filmgraph/filmgraph-backend/internal/clients/tmdb"
	"github.com/filmgraph/filmgraph-backend/internal/data/repos"
	"github.com/filmgraph/filmgraph-backend/internal/db"
	"github.com/filmgraph/filmgraph-backend/internal/jobs/recommender"
	"github.com/filmgraph/filmgraph-backend/internal/jobs/runtime"
	"github.com/filmgraph/filmgraph-backend/internal/jobs/worker"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/cache"
	"github.com/filmgraph/filmgraph-backend/internal/recs/dataset"
	"github.com/filmgraph/filmgraph-backend/internal/recs/scorer"
	"github.com/filmgraph/filmgraph-backend/internal/recs/selector"
	"github.com/filmgraph/filmgraph-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := app.Load(log)
	if err != nil {
		log.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	// Database
	dbService, err := db.New(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	gormDB := dbService.DB()

	// Redis
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Repos
	repoSet := repos.Wire(gormDB, log)

	// Recommendation pipeline
	builder := dataset.NewBuilder(log)
	modelCache := cache.New(cfg.ModelCacheDir, log)

	trainerSvc := services.NewTrainerService(
		log,
		repoSet.User,
		repoSet.Movie,
		repoSet.Rating,
		builder,
		modelCache,
		func() scorer.Scorer { return scorer.NewBaseline() },
		scorer.UnmarshalBaseline,
		cfg.TrainOptions(),
		cfg.Training.MinUserRatingsForTraining,
	)
	popularitySvc := services.NewPopularityService(log, rdb, cfg.PopularityKey, repoSet.Movie, cfg.Training.MinUserRatingsForRecommendation)
	recSvc := services.NewRecommendationService(
		log,
		repoSet.User,
		repoSet.Rating,
		repoSet.Recommendation,
		selector.New(log),
		popularitySvc,
		cfg.TopN,
		cfg.Training.Threads,
		cfg.Training.MinUserRatingsForRecommendation,
	)

	// TMDb import (optional; only wired when an API key is present)
	var importerSvc services.MovieImportService
	if cfg.TMDBAPIKey != "" {
		tmdbClient, err := tmdb.New(cfg.TMDBBaseURL, cfg.TMDBAPIKey)
		if err != nil {
			log.Error("TMDb client init failed", "error", err)
			os.Exit(1)
		}
		importerSvc = services.NewMovieImportService(log, tmdbClient, repoSet.Movie)
	}

	// Handlers
	registry := runtime.NewRegistry()
	if err := registry.Register(recommender.NewGenerateHandler(log, trainerSvc, recSvc, popularitySvc)); err != nil {
		log.Error("Handler registration failed", "error", err)
		os.Exit(1)
	}
	if importerSvc != nil {
		if err := registry.Register(recommender.NewImportHandler(log, importerSvc)); err != nil {
			log.Error("Handler registration failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("TMDB_API_KEY unset, import jobs will fail to dispatch")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.NewWorker(
		gormDB,
		log,
		repoSet.JobRun,
		registry,
		time.Duration(cfg.WorkerPollMS)*time.Millisecond,
		cfg.WorkerMaxAtt,
	)
	w.Start(ctx)

	<-ctx.Done()
	log.Info("Worker shutting down")
}
