package recommender

import (
	"fmt"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/jobs/runtime"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/services"
)

// GenerateHandler runs the full recommendation pipeline: ensure a model,
// refresh the popularity chart, then regenerate stored recommendations.
// Payload fields: force_retrain (bool), user_id (uuid, optional; restricts
// the run to one user).
type GenerateHandler struct {
	log        *logger.Logger
	trainer    services.TrainerService
	recs       services.RecommendationService
	popularity services.PopularityService
}

func NewGenerateHandler(
	baseLog *logger.Logger,
	trainer services.TrainerService,
	recs services.RecommendationService,
	popularity services.PopularityService,
) *GenerateHandler {
	return &GenerateHandler{
		log:        baseLog.With("handler", "GenerateRecommendations"),
		trainer:    trainer,
		recs:       recs,
		popularity: popularity,
	}
}

func (h *GenerateHandler) Type() string { return domain.JobTypeGenerateRecommendations }

func (h *GenerateHandler) Run(jc *runtime.Context) error {
	force := jc.PayloadBool("force_retrain")

	jc.Progress("train", 5, "Preparing model")
	model, err := h.trainer.EnsureModel(jc.Ctx, force)
	if err != nil {
		jc.Fail("train", err)
		return nil
	}

	jc.Progress("popularity", 30, "Refreshing popularity chart")
	if err := h.popularity.RefreshChart(jc.Ctx); err != nil {
		// Cold-start reads fall back to the database, so keep going.
		h.log.Warn("Popularity chart refresh failed", "error", err)
	}

	if userID, ok := jc.PayloadUUID("user_id"); ok {
		jc.Progress("generate", 50, fmt.Sprintf("Generating recommendations for user %s", userID))
		path, err := h.recs.GenerateForUser(jc.Ctx, model, userID)
		if err != nil {
			jc.Fail("generate", err)
			return nil
		}
		jc.Succeed("generate", map[string]any{
			"user_id": userID.String(),
			"path":    string(path),
		})
		return nil
	}

	jc.Progress("generate", 50, "Generating recommendations for all active users")
	result, err := h.recs.GenerateAll(jc.Ctx, model)
	if err != nil {
		jc.Fail("generate", err)
		return nil
	}
	jc.Succeed("generate", result)
	return nil
}
