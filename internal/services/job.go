package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/filmgraph/filmgraph-backend/internal/data/repos"
	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	apperrors "github.com/filmgraph/filmgraph-backend/internal/pkg/errors"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

// JobService enqueues background jobs and exposes their status.
type JobService interface {
	// Enqueue creates a queued job_run. When dedupe is set and a runnable
	// job of the same type already exists, no new row is created and the
	// existing behavior is reported via the returned flag.
	Enqueue(ctx context.Context, jobType string, payload map[string]any, dedupe bool) (*domain.JobRun, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRun, error)
}

type jobService struct {
	log     *logger.Logger
	jobRepo repos.JobRunRepo
}

func NewJobService(baseLog *logger.Logger, jobRepo repos.JobRunRepo) JobService {
	return &jobService{
		log:     baseLog.With("service", "JobService"),
		jobRepo: jobRepo,
	}
}

func (s *jobService) Enqueue(ctx context.Context, jobType string, payload map[string]any, dedupe bool) (*domain.JobRun, bool, error) {
	if jobType == "" {
		return nil, false, fmt.Errorf("%w: job type required", apperrors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx}

	if dedupe {
		exists, err := s.jobRepo.ExistsRunnable(dbc, jobType)
		if err != nil {
			return nil, false, fmt.Errorf("check runnable jobs: %w", err)
		}
		if exists {
			s.log.Info("Skipping enqueue, runnable job already present", "job_type", jobType)
			return nil, false, nil
		}
	}

	var raw datatypes.JSON
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, false, fmt.Errorf("encode payload: %w", err)
		}
		raw = datatypes.JSON(b)
	}

	job := &domain.JobRun{
		JobType: jobType,
		Status:  domain.JobStatusQueued,
		Payload: raw,
	}
	created, err := s.jobRepo.Create(dbc, []*domain.JobRun{job})
	if err != nil {
		return nil, false, fmt.Errorf("create job run: %w", err)
	}
	s.log.Info("Enqueued job", "job_type", jobType, "job_id", created[0].ID)
	return created[0], true, nil
}

func (s *jobService) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRun, error) {
	jobs, err := s.jobRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 || jobs[0] == nil {
		return nil, fmt.Errorf("job %s: %w", id, apperrors.ErrNotFound)
	}
	return jobs[0], nil
}
