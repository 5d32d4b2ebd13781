package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/filmgraph/filmgraph-backend/internal/handlers"
)

type RouterConfig struct {
	RatingHandler         *handlers.RatingHandler
	RecommendationHandler *handlers.RecommendationHandler
	MoviesHandler         *handlers.MoviesHandler
	JobsHandler           *handlers.JobsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Movies
		api.GET("/movies/popular", cfg.MoviesHandler.Popular)
		api.GET("/movies/search", cfg.MoviesHandler.Search)
		api.GET("/movies/:id", cfg.MoviesHandler.GetByID)

		// Ratings
		api.POST("/users/:user_id/ratings", cfg.RatingHandler.Rate)
		api.GET("/users/:user_id/ratings", cfg.RatingHandler.List)
		api.DELETE("/users/:user_id/ratings/:movie_id", cfg.RatingHandler.Unrate)

		// Recommendations
		api.GET("/users/:user_id/recommendations", cfg.RecommendationHandler.GetForUser)

		// Jobs
		api.POST("/jobs/recommendations", cfg.JobsHandler.EnqueueGenerate)
		api.POST("/jobs/import-movies", cfg.JobsHandler.EnqueueImport)
		api.GET("/jobs/:id", cfg.JobsHandler.GetByID)
	}

	return router
}
