package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/filmgraph/filmgraph-backend/internal/pkg/errors"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/services"
)

type MoviesHandler struct {
	log      *logger.Logger
	movieSvc services.MovieService
}

func NewMoviesHandler(baseLog *logger.Logger, movieSvc services.MovieService) *MoviesHandler {
	return &MoviesHandler{
		log:      baseLog.With("handler", "MoviesHandler"),
		movieSvc: movieSvc,
	}
}

// GET /api/movies/:id
func (h *MoviesHandler) GetByID(c *gin.Context) {
	movieID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_movie_id", err)
		return
	}
	movie, err := h.movieSvc.GetByID(c.Request.Context(), movieID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "movie_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "movie_load_failed", err)
		return
	}
	RespondOK(c, gin.H{"movie": movie})
}

// GET /api/movies/search?q=...&limit=...
func (h *MoviesHandler) Search(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	movies, err := h.movieSvc.Search(c.Request.Context(), query, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_query", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "search_failed", err)
		return
	}
	RespondOK(c, gin.H{"movies": movies})
}

// GET /api/movies/popular?limit=...
func (h *MoviesHandler) Popular(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	movies, err := h.movieSvc.Popular(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "popular_failed", err)
		return
	}
	RespondOK(c, gin.H{"movies": movies})
}
