package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/deppfellow/portfolio/internal/errs"
	"github.com/deppfellow/portfolio/internal/model/project"
	"github.com/deppfellow/portfolio/internal/storage"
)

// MediaStore is where uploads are written. *storage.MediaStore implements it.
type MediaStore interface {
	Save(r io.Reader, originalName string) (*storage.StoredFile, error)
	Remove(name string) error
	MaxBytes() int64
}

type UploadService struct {
	media    MediaStore
	projects *ProjectService
}

func NewUploadService(media MediaStore, projects *ProjectService) *UploadService {
	return &UploadService{media: media, projects: projects}
}

// MaxBytes is the largest accepted upload.
func (s *UploadService) MaxBytes() int64 {
	return s.media.MaxBytes()
}

// Save stores an arbitrary file.
func (s *UploadService) Save(r io.Reader, filename string) (*storage.StoredFile, error) {
	stored, err := s.media.Save(r, filename)
	if err != nil {
		return nil, uploadError(err, s.media.MaxBytes())
	}
	return stored, nil
}

// SaveProjectImage stores an image and makes it the project's image. The
// project must exist and the data must sniff as an image.
func (s *UploadService) SaveProjectImage(ctx context.Context, id uuid.UUID, r io.Reader, filename string) (*project.Project, error) {
	if _, err := s.projects.Get(ctx, id); err != nil {
		return nil, err
	}

	stored, err := s.Save(r, filename)
	if err != nil {
		return nil, err
	}

	if !storage.IsImage(stored.ContentType) {
		_ = s.media.Remove(stored.Name)
		return nil, errs.NewBadRequestError(
			fmt.Sprintf("Upload a valid image. The file you uploaded is %s.", stored.ContentType),
			true, nil,
			[]errs.FieldError{{Field: "file", Error: "must be an image"}},
			nil,
		)
	}

	p, err := s.projects.SetImage(ctx, id, stored.URL)
	if err != nil {
		_ = s.media.Remove(stored.Name)
		return nil, err
	}
	return p, nil
}

func uploadError(err error, max int64) error {
	if errors.Is(err, storage.ErrTooLarge) {
		return errs.NewRequestEntityTooLargeError(fmt.Sprintf("File exceeds the maximum upload size of %d bytes.", max))
	}
	return fmt.Errorf("store upload: %w", err)
}
