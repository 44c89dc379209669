package project

import (
	"time"

	"github.com/deppfellow/portfolio/internal/validation"
)

// ---- writes ----

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	About    string `json:"about" validate:"required"`
	Concepts string `json:"concepts" validate:"required,max=200"`
	Github   string `json:"github" validate:"required,max=200,url"`
	Image    string `json:"image" validate:"required,max=200,url"`
}

func (r *CreateProjectRequest) Validate() error {
	return validation.Struct(r)
}

// Fields returns the writable values carried by the request.
func (r *CreateProjectRequest) Fields() Fields {
	return Fields{
		Name:     r.Name,
		About:    r.About,
		Concepts: r.Concepts,
		Github:   r.Github,
		Image:    r.Image,
	}
}

// UpdateProjectRequest is PUT /api/projects/:id. Every writable field is replaced.
type UpdateProjectRequest struct {
	ID       string `param:"id" json:"-" validate:"required,uuid"`
	Name     string `json:"name" validate:"required,max=100"`
	About    string `json:"about" validate:"required"`
	Concepts string `json:"concepts" validate:"required,max=200"`
	Github   string `json:"github" validate:"required,max=200,url"`
	Image    string `json:"image" validate:"required,max=200,url"`
}

func (r *UpdateProjectRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateProjectRequest) Fields() Fields {
	return Fields{
		Name:     r.Name,
		About:    r.About,
		Concepts: r.Concepts,
		Github:   r.Github,
		Image:    r.Image,
	}
}

// PatchProjectRequest is PATCH /api/projects/:id. Absent fields are kept;
// present ones may not be blank.
type PatchProjectRequest struct {
	ID       string  `param:"id" json:"-" validate:"required,uuid"`
	Name     *string `json:"name" validate:"omitnil,min=1,max=100"`
	About    *string `json:"about" validate:"omitnil,min=1"`
	Concepts *string `json:"concepts" validate:"omitnil,min=1,max=200"`
	Github   *string `json:"github" validate:"omitnil,min=1,max=200,url"`
	Image    *string `json:"image" validate:"omitnil,min=1,max=200,url"`
}

func (r *PatchProjectRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}

	if r.Changes().IsEmpty() {
		return validation.CustomValidationErrors{{
			Field:   "body",
			Message: "at least one field is required",
		}}
	}

	return nil
}

func (r *PatchProjectRequest) Changes() Changes {
	return Changes{
		Name:     r.Name,
		About:    r.About,
		Concepts: r.Concepts,
		Github:   r.Github,
		Image:    r.Image,
	}
}

// ---- reads / deletes ----

type GetProjectRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (r *GetProjectRequest) Validate() error {
	return validation.Struct(r)
}

type DeleteProjectRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (r *DeleteProjectRequest) Validate() error {
	return validation.Struct(r)
}

// ListProjectsRequest keeps page and page_size as raw strings; the
// pagination package decides how malformed values are treated.
type ListProjectsRequest struct {
	Page     string `query:"page"`
	PageSize string `query:"page_size"`
}

func (r *ListProjectsRequest) Validate() error {
	return nil
}

// UploadProjectImageRequest is POST /api/projects/:id/image. The file itself
// is read from the multipart form by the handler.
type UploadProjectImageRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (r *UploadProjectImageRequest) Validate() error {
	return validation.Struct(r)
}

// ---- rendering ----

// ProjectResponse is the wire shape of a project.
type ProjectResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	About    string `json:"about"`
	Concepts string `json:"concepts"`
	Github   string `json:"github"`
	Image    string `json:"image"`
}

// ToResponse renders p with its date as RFC 3339 in UTC.
func ToResponse(p *Project) ProjectResponse {
	return ProjectResponse{
		ID:       p.ID.String(),
		Name:     p.Name,
		Date:     p.Date.UTC().Format(time.RFC3339Nano),
		About:    p.About,
		Concepts: p.Concepts,
		Github:   p.Github,
		Image:    p.Image,
	}
}

func ToResponses(projects []Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, ToResponse(&projects[i]))
	}
	return out
}
