package handler

import (
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/portfolio/internal/errs"
	"github.com/deppfellow/portfolio/internal/model/project"
	"github.com/deppfellow/portfolio/internal/pagination"
	"github.com/deppfellow/portfolio/internal/server"
	"github.com/deppfellow/portfolio/internal/service"
)

type ProjectHandler struct {
	Handler
	projects  *service.ProjectService
	paginator *pagination.Paginator
}

func NewProjectHandler(s *server.Server, projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		Handler:   NewHandler(s),
		projects:  projects,
		paginator: pagination.New(s.Config.Pagination),
	}
}

func (h *ProjectHandler) ListProjects(c echo.Context, req *project.ListProjectsRequest) (pagination.Page[project.ProjectResponse], error) {
	params, err := h.paginator.Resolve(req.Page, req.PageSize)
	if err != nil {
		return pagination.Page[project.ProjectResponse]{}, err
	}

	page, params, err := h.projects.List(c.Request().Context(), params)
	if err != nil {
		return pagination.Page[project.ProjectResponse]{}, err
	}

	return pagination.Build(requestURL(c), params, page.Total, project.ToResponses(page.Projects)), nil
}

func (h *ProjectHandler) CreateProject(c echo.Context, req *project.CreateProjectRequest) (project.ProjectResponse, error) {
	p, err := h.projects.Create(c.Request().Context(), req.Fields())
	if err != nil {
		return project.ProjectResponse{}, err
	}
	return project.ToResponse(p), nil
}

func (h *ProjectHandler) GetProject(c echo.Context, req *project.GetProjectRequest) (project.ProjectResponse, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return project.ProjectResponse{}, err
	}

	p, err := h.projects.Get(c.Request().Context(), id)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	return project.ToResponse(p), nil
}

func (h *ProjectHandler) UpdateProject(c echo.Context, req *project.UpdateProjectRequest) (project.ProjectResponse, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return project.ProjectResponse{}, err
	}

	p, err := h.projects.Update(c.Request().Context(), id, req.Fields())
	if err != nil {
		return project.ProjectResponse{}, err
	}
	return project.ToResponse(p), nil
}

func (h *ProjectHandler) PatchProject(c echo.Context, req *project.PatchProjectRequest) (project.ProjectResponse, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return project.ProjectResponse{}, err
	}

	p, err := h.projects.Patch(c.Request().Context(), id, req.Changes())
	if err != nil {
		return project.ProjectResponse{}, err
	}
	return project.ToResponse(p), nil
}

func (h *ProjectHandler) DeleteProject(c echo.Context, req *project.DeleteProjectRequest) error {
	id, err := parseID(req.ID)
	if err != nil {
		return err
	}
	return h.projects.Delete(c.Request().Context(), id)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("Validation failed", true, nil,
			[]errs.FieldError{{Field: "id", Error: "must be a valid UUID"}}, nil)
	}
	return id, nil
}

// requestURL rebuilds the absolute URL the client used.
func requestURL(c echo.Context) *url.URL {
	u := *c.Request().URL
	u.Scheme = c.Scheme()
	u.Host = c.Request().Host
	return &u
}
