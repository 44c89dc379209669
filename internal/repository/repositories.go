package repository

import (
	"github.com/deppfellow/portfolio/internal/server"
)

// Repositories groups every repository so services receive one value.
type Repositories struct {
	Project *ProjectRepository
}

func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Project: NewProjectRepository(s.DB.Pool),
	}
}
