package handler

import (
	"github.com/deppfellow/portfolio/internal/server"
	"github.com/deppfellow/portfolio/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Hello   *HelloHandler
	Project *ProjectHandler
	Upload  *UploadHandler
	Media   *MediaHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Hello:   NewHelloHandler(s),
		Project: NewProjectHandler(s, services.Project),
		Upload:  NewUploadHandler(s, services.Upload),
		Media:   NewMediaHandler(s),
	}
}
