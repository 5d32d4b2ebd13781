package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/filmgraph/filmgraph-backend/internal/pkg/errors"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/services"
)

type RatingHandler struct {
	log       *logger.Logger
	ratingSvc services.RatingService
}

func NewRatingHandler(baseLog *logger.Logger, ratingSvc services.RatingService) *RatingHandler {
	return &RatingHandler{
		log:       baseLog.With("handler", "RatingHandler"),
		ratingSvc: ratingSvc,
	}
}

type rateRequest struct {
	MovieID int64 `json:"movie_id" binding:"required"`
	Score   int   `json:"score" binding:"required"`
}

// POST /api/users/:user_id/ratings
func (h *RatingHandler) Rate(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	rating, err := h.ratingSvc.Rate(c.Request.Context(), userID, req.MovieID, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidArgument):
			RespondError(c, http.StatusBadRequest, "invalid_score", err)
		case errors.Is(err, apperrors.ErrNotFound):
			RespondError(c, http.StatusNotFound, "not_found", err)
		default:
			RespondError(c, http.StatusInternalServerError, "rate_failed", err)
		}
		return
	}
	RespondOK(c, gin.H{"rating": rating})
}

// DELETE /api/users/:user_id/ratings/:movie_id
func (h *RatingHandler) Unrate(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	movieID, err := strconv.ParseInt(c.Param("movie_id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_movie_id", err)
		return
	}
	if err := h.ratingSvc.Unrate(c.Request.Context(), userID, movieID); err != nil {
		RespondError(c, http.StatusInternalServerError, "unrate_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

// GET /api/users/:user_id/ratings
func (h *RatingHandler) List(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	ratings, err := h.ratingSvc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"ratings": ratings})
}
