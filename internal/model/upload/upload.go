// Package upload holds the request and response shapes of the upload endpoints.
package upload

import (
	"github.com/deppfellow/portfolio/internal/validation"
)

// UploadFileRequest is POST /api/uploads. The file travels in the
// multipart field "file" and is read by the handler.
type UploadFileRequest struct{}

func (r *UploadFileRequest) Validate() error {
	return nil
}

// GetMediaRequest is GET /media/:name.
type GetMediaRequest struct {
	Name string `param:"name" validate:"required,max=255"`
}

func (r *GetMediaRequest) Validate() error {
	return validation.Struct(r)
}

// UploadResponse acknowledges a stored file.
type UploadResponse struct {
	Message     string `json:"message"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}
