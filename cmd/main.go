package main

import (
	"fmt"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"github.com/filmgraph/filmgraph-backend/internal/app"
	"github.com/filmgraph/filmgraph-backend/internal/data/repos"
	"github.com/filmgraph/filmgraph-backend/internal/db"
	"github.com/filmgraph/filmgraph-backend/internal/handlers"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/selector"
	"github.com/filmgraph/filmgraph-backend/internal/server"
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

	// Redis (optional; popularity reads fall back to the database)
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Repos
	repoSet := repos.Wire(gormDB, log)

	// Services
	log.Info("Setting up services...")
	popularitySvc := services.NewPopularityService(log, rdb, cfg.PopularityKey, repoSet.Movie, cfg.Training.MinUserRatingsForRecommendation)
	movieSvc := services.NewMovieService(log, repoSet.Movie, cfg.Training.MinUserRatingsForRecommendation)
	ratingSvc := services.NewRatingService(log, repoSet.User, repoSet.Movie, repoSet.Rating)
	jobSvc := services.NewJobService(log, repoSet.JobRun)
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

	// Router
	router := server.NewRouter(server.RouterConfig{
		RatingHandler:         handlers.NewRatingHandler(log, ratingSvc),
		RecommendationHandler: handlers.NewRecommendationHandler(log, recSvc),
		MoviesHandler:         handlers.NewMoviesHandler(log, movieSvc),
		JobsHandler:           handlers.NewJobsHandler(log, jobSvc),
	})

	log.Info("Starting API server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
