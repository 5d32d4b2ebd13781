package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	apperrors "github.com/filmgraph/filmgraph-backend/internal/pkg/errors"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/services"
)

type JobsHandler struct {
	log    *logger.Logger
	jobSvc services.JobService
}

func NewJobsHandler(baseLog *logger.Logger, jobSvc services.JobService) *JobsHandler {
	return &JobsHandler{
		log:    baseLog.With("handler", "JobsHandler"),
		jobSvc: jobSvc,
	}
}

type generateRequest struct {
	ForceRetrain bool   `json:"force_retrain"`
	UserID       string `json:"user_id"`
}

// POST /api/jobs/recommendations
func (h *JobsHandler) EnqueueGenerate(c *gin.Context) {
	var req generateRequest
	// An empty body means a default batch run.
	_ = c.ShouldBindJSON(&req)

	payload := map[string]any{"force_retrain": req.ForceRetrain}
	if req.UserID != "" {
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
			return
		}
		payload["user_id"] = userID.String()
	}

	// Batch runs dedupe; a single-user run always enqueues.
	dedupe := req.UserID == ""
	job, created, err := h.jobSvc.Enqueue(c.Request.Context(), domain.JobTypeGenerateRecommendations, payload, dedupe)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{"enqueued": false})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"enqueued": true, "job": job})
}

type importRequest struct {
	Pages int `json:"pages"`
}

// POST /api/jobs/import-movies
func (h *JobsHandler) EnqueueImport(c *gin.Context) {
	var req importRequest
	_ = c.ShouldBindJSON(&req)

	payload := map[string]any{}
	if req.Pages > 0 {
		payload["pages"] = req.Pages
	}

	job, created, err := h.jobSvc.Enqueue(c.Request.Context(), domain.JobTypeImportPopularMovies, payload, true)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{"enqueued": false})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"enqueued": true, "job": job})
}

// GET /api/jobs/:id
func (h *JobsHandler) GetByID(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobSvc.GetByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "job_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "job_load_failed", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}
