// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives
// validated input from handlers, calls repositories, keeps the response
// cache coherent and schedules background work.
package service

import (
	"github.com/deppfellow/portfolio/internal/lib/job"
	"github.com/deppfellow/portfolio/internal/repository"
	"github.com/deppfellow/portfolio/internal/server"
)

type Services struct {
	Auth    *AuthService
	Project *ProjectService
	Upload  *UploadService
	Job     *job.JobService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	authService := NewAuthService(s)

	var jobs TaskEnqueuer
	if s.Job != nil {
		jobs = s.Job
	}

	projectService := NewProjectService(
		repos.Project,
		jobs,
		s.Cache,
		s.Config.Integration.NotifyEmail,
		s.Logger,
	)

	return &Services{
		Auth:    authService,
		Project: projectService,
		Upload:  NewUploadService(s.Media, projectService),
		Job:     s.Job,
	}, nil
}
