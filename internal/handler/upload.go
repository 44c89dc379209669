package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/portfolio/internal/errs"
	"github.com/deppfellow/portfolio/internal/model/project"
	"github.com/deppfellow/portfolio/internal/model/upload"
	"github.com/deppfellow/portfolio/internal/server"
	"github.com/deppfellow/portfolio/internal/service"
	"github.com/deppfellow/portfolio/internal/storage"
)

// FileField is the multipart field that carries the upload.
const FileField = "file"

type UploadHandler struct {
	Handler
	uploads *service.UploadService
}

func NewUploadHandler(s *server.Server, uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{Handler: NewHandler(s), uploads: uploads}
}

func (h *UploadHandler) UploadFile(c echo.Context, _ *upload.UploadFileRequest) (upload.UploadResponse, error) {
	file, name, err := h.formFile(c)
	if err != nil {
		return upload.UploadResponse{}, err
	}
	defer file.Close()

	stored, err := h.uploads.Save(file, name)
	if err != nil {
		return upload.UploadResponse{}, err
	}

	return upload.UploadResponse{
		Message:     "File uploaded successfully",
		Filename:    stored.Name,
		Size:        stored.Size,
		ContentType: stored.ContentType,
		URL:         stored.URL,
	}, nil
}

func (h *UploadHandler) UploadProjectImage(c echo.Context, req *project.UploadProjectImageRequest) (project.ProjectResponse, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return project.ProjectResponse{}, err
	}

	file, name, err := h.formFile(c)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	defer file.Close()

	p, err := h.uploads.SaveProjectImage(c.Request().Context(), id, file, name)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	return project.ToResponse(p), nil
}

func (h *UploadHandler) formFile(c echo.Context) (io.ReadCloser, string, error) {
	header, err := c.FormFile(FileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", errs.NewBadRequestError("file is required", true, nil,
				[]errs.FieldError{{Field: FileField, Error: "is required"}}, nil)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return nil, "", errs.NewRequestEntityTooLargeError(
				fmt.Sprintf("File exceeds the maximum upload size of %d bytes.", h.uploads.MaxBytes()))
		}
		return nil, "", errs.NewBadRequestError("Invalid multipart form", false, nil, nil, nil)
	}

	if header.Size > h.uploads.MaxBytes() {
		return nil, "", errs.NewRequestEntityTooLargeError(
			fmt.Sprintf("File exceeds the maximum upload size of %d bytes.", h.uploads.MaxBytes()))
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open uploaded file: %w", err)
	}
	return file, header.Filename, nil
}

type MediaHandler struct {
	Handler
	media *storage.MediaStore
}

func NewMediaHandler(s *server.Server) *MediaHandler {
	return &MediaHandler{Handler: NewHandler(s), media: s.Media}
}

// ServeMedia returns a stored upload for inline display.
func (h *MediaHandler) ServeMedia(c echo.Context, req *upload.GetMediaRequest) (*File, error) {
	f, contentType, err := h.media.Open(req.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return nil, errs.NewNotFoundError("File not found", true, nil)
		}
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Name, err)
	}

	return &File{Name: req.Name, ContentType: contentType, Data: data, Inline: true}, nil
}
