package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/portfolio/internal/lib/job"
	"github.com/deppfellow/portfolio/internal/logger"
	"github.com/deppfellow/portfolio/internal/model/project"
	"github.com/deppfellow/portfolio/internal/pagination"
)

// ProjectStore is the persistence the project service needs.
// *repository.ProjectRepository implements it.
type ProjectStore interface {
	Create(ctx context.Context, f project.Fields) (*project.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset int) ([]project.Project, error)
	Update(ctx context.Context, id uuid.UUID, f project.Fields) (*project.Project, error)
	Patch(ctx context.Context, id uuid.UUID, c project.Changes) (*project.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskEnqueuer submits background tasks. *job.JobService implements it.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CacheInvalidator drops cached read responses. *cache.ResponseCache implements it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type ProjectService struct {
	repo        ProjectStore
	jobs        TaskEnqueuer
	cache       CacheInvalidator
	notifyEmail string
	logger      *zerolog.Logger
}

// NewProjectService wires the project use cases. jobs and cache may be nil;
// notifyEmail empty disables creation notices.
func NewProjectService(repo ProjectStore, jobs TaskEnqueuer, cache CacheInvalidator, notifyEmail string, logger *zerolog.Logger) *ProjectService {
	return &ProjectService{
		repo:        repo,
		jobs:        jobs,
		cache:       cache,
		notifyEmail: notifyEmail,
		logger:      logger,
	}
}

func (s *ProjectService) log(ctx context.Context) *zerolog.Logger {
	return logger.FromContext(ctx, s.logger)
}

func (s *ProjectService) Create(ctx context.Context, f project.Fields) (*project.Project, error) {
	p, err := s.repo.Create(ctx, f)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.notifyCreated(ctx, p)

	s.log(ctx).Info().
		Str("project_id", p.ID.String()).
		Str("name", p.Name).
		Msg("project created")

	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// List counts first so an out-of-range page is rejected before the page
// query runs. The returned Params carry the page actually served.
func (s *ProjectService) List(ctx context.Context, params pagination.Params) (*project.Page, pagination.Params, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, params, err
	}

	params, err = params.Settle(total)
	if err != nil {
		return nil, params, err
	}

	projects, err := s.repo.List(ctx, params.Limit(), params.Offset())
	if err != nil {
		return nil, params, err
	}

	return &project.Page{Projects: projects, Total: total}, params, nil
}

func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, f project.Fields) (*project.Project, error) {
	p, err := s.repo.Update(ctx, id, f)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return p, nil
}

func (s *ProjectService) Patch(ctx context.Context, id uuid.UUID, c project.Changes) (*project.Project, error) {
	p, err := s.repo.Patch(ctx, id, c)
	if err != nil {
		return nil, err
	}

	if !c.IsEmpty() {
		s.invalidate(ctx)
	}
	return p, nil
}

// SetImage points the project's image at url.
func (s *ProjectService) SetImage(ctx context.Context, id uuid.UUID, url string) (*project.Project, error) {
	return s.Patch(ctx, id, project.Changes{Image: &url})
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)

	s.log(ctx).Info().
		Str("project_id", id.String()).
		Msg("project deleted")

	return nil
}

// invalidate never fails the write that triggered it; stale entries
// expire with their TTL.
func (s *ProjectService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log(ctx).Warn().Err(err).Msg("failed to invalidate response cache")
	}
}

func (s *ProjectService) notifyCreated(ctx context.Context, p *project.Project) {
	if s.jobs == nil || s.notifyEmail == "" {
		return
	}

	task, err := job.NewProjectCreatedTask(job.ProjectCreatedPayload{
		To:          s.notifyEmail,
		ProjectID:   p.ID.String(),
		ProjectName: p.Name,
		About:       p.About,
		Github:      p.Github,
		Date:        p.Date.UTC().Format(time.RFC3339),
	})
	if err == nil {
		_, err = s.jobs.Enqueue(ctx, task)
	}
	if err != nil {
		s.log(ctx).Error().
			Err(err).
			Str("project_id", p.ID.String()).
			Msg("failed to enqueue project created notification")
	}
}
