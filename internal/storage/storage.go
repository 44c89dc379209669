// Package storage keeps uploaded files on an afero filesystem and maps
// them to public URLs.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/deppfellow/portfolio/internal/config"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("file exceeds the maximum upload size")
	// ErrNotFound is returned when a stored file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidName is returned for names that could escape the upload dir.
	ErrInvalidName = errors.New("invalid file name")
)

// StoredFile describes a saved upload.
type StoredFile struct {
	Name        string
	Size        int64
	ContentType string
	URL         string
}

// MediaStore saves uploads under a directory of fs.
type MediaStore struct {
	fs       afero.Fs
	baseURL  string
	maxBytes int64
}

// NewMediaStore roots a store at cfg.UploadDir on fs and creates the
// directory if needed.
func NewMediaStore(fs afero.Fs, cfg config.StorageConfig) (*MediaStore, error) {
	if err := fs.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", cfg.UploadDir, err)
	}

	return &MediaStore{
		fs:       afero.NewBasePathFs(fs, cfg.UploadDir),
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes: cfg.MaxUploadBytes,
	}, nil
}

func (s *MediaStore) MaxBytes() int64 {
	return s.maxBytes
}

// URL returns the public address of a stored file.
func (s *MediaStore) URL(name string) string {
	return s.baseURL + "/" + name
}

// Save writes r under a generated name that keeps the extension of
// originalName. The content type is sniffed from the data.
func (s *MediaStore) Save(r io.Reader, originalName string) (*StoredFile, error) {
	name := uuid.NewString() + extension(originalName)

	f, err := s.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	// One byte over the limit is enough to know the file is too large.
	written, copyErr := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = s.fs.Remove(name)
		return nil, fmt.Errorf("write %s: %w", name, copyErr)
	case closeErr != nil:
		_ = s.fs.Remove(name)
		return nil, fmt.Errorf("close %s: %w", name, closeErr)
	case written > s.maxBytes:
		_ = s.fs.Remove(name)
		return nil, ErrTooLarge
	}

	contentType, err := s.detect(name)
	if err != nil {
		_ = s.fs.Remove(name)
		return nil, err
	}

	return &StoredFile{
		Name:        name,
		Size:        written,
		ContentType: contentType,
		URL:         s.URL(name),
	}, nil
}

func (s *MediaStore) detect(name string) (string, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %w", name, err)
	}
	return mt.String(), nil
}

// Open returns a stored file and its content type.
func (s *MediaStore) Open(name string) (afero.File, string, error) {
	if !validName(name) {
		return nil, "", ErrInvalidName
	}

	ct, err := s.detect(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	f, err := s.fs.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("open %s: %w", name, err)
	}
	return f, ct, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *MediaStore) Remove(name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// IsImage reports whether contentType is an image type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// extension returns the lower-cased extension of a client supplied name, or
// "" when it contains anything but ASCII letters and digits.
func extension(originalName string) string {
	ext := strings.ToLower(filepath.Ext(path.Base(filepath.ToSlash(originalName))))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && path.Base(name) == name
}
