package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/services"
)

type RecommendationHandler struct {
	log    *logger.Logger
	recSvc services.RecommendationService
}

func NewRecommendationHandler(baseLog *logger.Logger, recSvc services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		log:    baseLog.With("handler", "RecommendationHandler"),
		recSvc: recSvc,
	}
}

// GET /api/users/:user_id/recommendations
func (h *RecommendationHandler) GetForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
	}

	recs, err := h.recSvc.GetForUser(c.Request.Context(), userID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "recommendations_failed", err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs})
}
