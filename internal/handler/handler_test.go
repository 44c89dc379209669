package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/portfolio/internal/config"
	"github.com/deppfellow/portfolio/internal/middleware"
	"github.com/deppfellow/portfolio/internal/model/project"
	"github.com/deppfellow/portfolio/internal/model/upload"
	"github.com/deppfellow/portfolio/internal/pagination"
	"github.com/deppfellow/portfolio/internal/server"
	"github.com/deppfellow/portfolio/internal/service"
	"github.com/deppfellow/portfolio/internal/sqlerr"
	"github.com/deppfellow/portfolio/internal/storage"
)

type fakeStore struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]project.Project
	clock time.Time
}

func (f *fakeStore) Create(_ context.Context, fields project.Fields) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clock = f.clock.Add(time.Minute)
	p := project.Project{
		ID: uuid.New(), Name: fields.Name, Date: f.clock, About: fields.About,
		Concepts: fields.Concepts, Github: fields.Github, Image: fields.Image,
	}
	f.rows[p.ID] = p
	return &p, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.rows[id]
	if !ok {
		return nil, sqlerr.WithTable("projects", pgx.ErrNoRows)
	}
	return &p, nil
}

func (f *fakeStore) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

func (f *fakeStore) List(_ context.Context, limit, offset int) ([]project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := make([]project.Project, 0, len(f.rows))
	for _, p := range f.rows {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })

	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (f *fakeStore) Update(ctx context.Context, id uuid.UUID, fields project.Fields) (*project.Project, error) {
	return f.Patch(ctx, id, project.Changes{
		Name: &fields.Name, About: &fields.About, Concepts: &fields.Concepts,
		Github: &fields.Github, Image: &fields.Image,
	})
}

func (f *fakeStore) Patch(_ context.Context, id uuid.UUID, c project.Changes) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.rows[id]
	if !ok {
		return nil, sqlerr.WithTable("projects", pgx.ErrNoRows)
	}
	c.Apply(&p)
	f.rows[id] = p
	return &p, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rows[id]; !ok {
		return sqlerr.WithTable("projects", pgx.ErrNoRows)
	}
	delete(f.rows, id)
	return nil
}

func newTestEcho(t *testing.T) (*echo.Echo, *Handlers) {
	t.Helper()

	logger := zerolog.Nop()
	cfg := &config.Config{
		Primary:    config.Primary{Env: "test"},
		Pagination: config.PaginationConfig{DefaultPageSize: 10, MaxPageSize: 100},
		Storage: config.StorageConfig{
			UploadDir:      "media",
			PublicBaseURL:  "http://example.com/media",
			MaxUploadBytes: 1024,
		},
	}

	media, err := storage.NewMediaStore(afero.NewMemMapFs(), cfg.Storage)
	require.NoError(t, err)

	s := &server.Server{Config: cfg, Logger: &logger, Media: media}

	store := &fakeStore{rows: map[uuid.UUID]project.Project{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	projects := service.NewProjectService(store, nil, nil, "", &logger)
	h := NewHandlers(s, &service.Services{
		Project: projects,
		Upload:  service.NewUploadService(media, projects),
	})

	e := echo.New()
	e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(s).GlobalErrorHandler

	base := Handler{server: s}
	api := e.Group("/api")
	api.GET("/hello", Handle(base, h.Hello.Hello, http.StatusOK, &HelloRequest{}))
	api.POST("/hello", Handle(base, h.Hello.EchoData, http.StatusOK, &EchoRequest{}))
	api.GET("/projects", Handle(base, h.Project.ListProjects, http.StatusOK, &project.ListProjectsRequest{}))
	api.POST("/projects", Handle(base, h.Project.CreateProject, http.StatusCreated, &project.CreateProjectRequest{}))
	api.GET("/projects/:id", Handle(base, h.Project.GetProject, http.StatusOK, &project.GetProjectRequest{}))
	api.PUT("/projects/:id", Handle(base, h.Project.UpdateProject, http.StatusOK, &project.UpdateProjectRequest{}))
	api.PATCH("/projects/:id", Handle(base, h.Project.PatchProject, http.StatusOK, &project.PatchProjectRequest{}))
	api.DELETE("/projects/:id", HandleNoContent(base, h.Project.DeleteProject, http.StatusNoContent, &project.DeleteProjectRequest{}))
	api.POST("/projects/:id/image", Handle(base, h.Upload.UploadProjectImage, http.StatusOK, &project.UploadProjectImageRequest{}))
	api.POST("/uploads", Handle(base, h.Upload.UploadFile, http.StatusCreated, &upload.UploadFileRequest{}))
	e.GET("/media/:name", HandleFile(base, h.Media.ServeMedia, http.StatusOK, &upload.GetMediaRequest{}))

	return e, h
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doUpload(e *echo.Echo, target, filename string, data []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, _ := w.CreateFormFile(FileField, filename)
		_, _ = part.Write(data)
	} else {
		_ = w.WriteField("note", "no file")
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const projectBody = `{
	"name": "demo",
	"about": "a demo project",
	"concepts": "go, echo",
	"github": "https://github.com/example/demo",
	"image": "https://example.com/demo.png"
}`

var gifBytes = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

func TestHello(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := doJSON(e, http.MethodGet, "/api/hello", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, world!", decode[HelloResponse](t, rec).Message)

	rec = doJSON(e, http.MethodPost, "/api/hello", `{"a": 1, "b": ["x"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[HelloResponse](t, rec)
	assert.Equal(t, "Got some data!", res.Message)
	assert.EqualValues(t, 1, res.Data["a"])

	rec = doJSON(e, http.MethodPost, "/api/hello", `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/hello", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectLifecycle(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := doJSON(e, http.MethodPost, "/api/projects", projectBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[project.ProjectResponse](t, rec)
	assert.Equal(t, "demo", created.Name)
	assert.NotEmpty(t, created.Date)

	rec = doJSON(e, http.MethodGet, "/api/projects/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[project.ProjectResponse](t, rec))

	rec = doJSON(e, http.MethodPatch, "/api/projects/"+created.ID, `{"about": "patched"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[project.ProjectResponse](t, rec)
	assert.Equal(t, "patched", patched.About)
	assert.Equal(t, "demo", patched.Name)

	rec = doJSON(e, http.MethodPut, "/api/projects/"+created.ID, strings.Replace(projectBody, `"demo"`, `"renamed"`, 1))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "renamed", decode[project.ProjectResponse](t, rec).Name)

	rec = doJSON(e, http.MethodDelete, "/api/projects/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/projects/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectValidation(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := doJSON(e, http.MethodPost, "/api/projects", `{"name": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/projects", strings.Replace(projectBody, "https://github.com/example/demo", "not a url", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/projects/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/api/projects/"+uuid.NewString(), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/api/projects/"+uuid.NewString(), `{"about": "x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchRejectsBlankFields(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := doJSON(e, http.MethodPost, "/api/projects", projectBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[project.ProjectResponse](t, rec)

	for _, body := range []string{`{"name": ""}`, `{"about": ""}`, `{"concepts": ""}`} {
		rec = doJSON(e, http.MethodPatch, "/api/projects/"+created.ID, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec = doJSON(e, http.MethodGet, "/api/projects/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[project.ProjectResponse](t, rec))
}

func TestListProjectsPagination(t *testing.T) {
	e, _ := newTestEcho(t)

	for _, name := range []string{"a", "b", "c"} {
		rec := doJSON(e, http.MethodPost, "/api/projects", strings.Replace(projectBody, `"demo"`, `"`+name+`"`, 1))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(e, http.MethodGet, "/api/projects?page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[pagination.Page[project.ProjectResponse]](t, rec)
	assert.EqualValues(t, 3, first.Count)
	require.Len(t, first.Results, 2)
	assert.Equal(t, "c", first.Results[0].Name)
	require.NotNil(t, first.Next)
	assert.Equal(t, "http://example.com/api/projects?page=2&page_size=2", *first.Next)
	assert.Nil(t, first.Previous)

	rec = doJSON(e, http.MethodGet, "/api/projects?page=last&page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	last := decode[pagination.Page[project.ProjectResponse]](t, rec)
	require.Len(t, last.Results, 1)
	assert.Nil(t, last.Next)
	require.NotNil(t, last.Previous)
	assert.Equal(t, "http://example.com/api/projects?page_size=2", *last.Previous)

	rec = doJSON(e, http.MethodGet, "/api/projects?page=9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/projects?page=zero", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProjectsEmpty(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := doJSON(e, http.MethodGet, "/api/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"next":null,"previous":null,"results":[]}`, rec.Body.String())
}

func TestUploadAndServeMedia(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := doUpload(e, "/api/uploads", "pixel.gif", gifBytes)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[upload.UploadResponse](t, rec)
	assert.Equal(t, "File uploaded successfully", res.Message)
	assert.Equal(t, "image/gif", res.ContentType)
	assert.EqualValues(t, len(gifBytes), res.Size)
	assert.Equal(t, "http://example.com/media/"+res.Filename, res.URL)

	rec = doJSON(e, http.MethodGet, "/media/"+res.Filename, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, gifBytes, rec.Body.Bytes())
	assert.Equal(t, "image/gif", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentDisposition), "inline"))

	rec = doJSON(e, http.MethodGet, "/media/missing.gif", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRequiresFile(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := doUpload(e, "/api/uploads", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doUpload(e, "/api/uploads", "big.bin", make([]byte, 4096))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadOverBodyLimitWithoutLength(t *testing.T) {
	e, h := newTestEcho(t)
	e.POST("/limited",
		Handle(h.Upload.Handler, h.Upload.UploadFile, http.StatusCreated, &upload.UploadFileRequest{}),
		echomw.BodyLimit("2K"),
	)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(FileField, "big.bin")
	require.NoError(t, err)
	_, err = part.Write(make([]byte, 8<<10))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/limited", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.ContentLength = -1

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
}

func TestFileResponseQuotesFilename(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	name := `a"b; x=y.gif`
	err := FileResponseHandler{status: http.StatusOK}.Handle(c, &File{Name: name, ContentType: "image/gif", Data: gifBytes, Inline: true})
	require.NoError(t, err)

	disposition, params, err := mime.ParseMediaType(rec.Header().Get(echo.HeaderContentDisposition))
	require.NoError(t, err)
	assert.Equal(t, "inline", disposition)
	assert.Equal(t, name, params["filename"])
	assert.NotContains(t, params, "x")
}

func TestUploadProjectImage(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := doJSON(e, http.MethodPost, "/api/projects", projectBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[project.ProjectResponse](t, rec)

	rec = doUpload(e, "/api/projects/"+created.ID+"/image", "cover.gif", gifBytes)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[project.ProjectResponse](t, rec)
	assert.True(t, strings.HasPrefix(updated.Image, "http://example.com/media/"))

	rec = doUpload(e, "/api/projects/"+created.ID+"/image", "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	logger := zerolog.Nop()
	s := &server.Server{Config: &config.Config{Primary: config.Primary{Env: "test"}}, Logger: &logger}

	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks []HealthCheck
		status int
	}{
		{"all healthy", []HealthCheck{{Name: "database", Required: true, Ping: ok}, {Name: "redis", Ping: ok}}, http.StatusOK},
		{"optional down", []HealthCheck{{Name: "database", Required: true, Ping: ok}, {Name: "redis", Ping: down}}, http.StatusOK},
		{"required down", []HealthCheck{{Name: "database", Required: true, Ping: down}}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(s, tt.checks...)
			e := echo.New()
			e.GET("/status", h.CheckHealth)

			rec := doJSON(e, http.MethodGet, "/status", "")
			assert.Equal(t, tt.status, rec.Code)

			res := decode[HealthResponse](t, rec)
			assert.Len(t, res.Checks, len(tt.checks))
			assert.Equal(t, "test", res.Environment)
		})
	}
}
