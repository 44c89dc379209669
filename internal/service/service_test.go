package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/portfolio/internal/config"
	"github.com/deppfellow/portfolio/internal/errs"
	"github.com/deppfellow/portfolio/internal/lib/job"
	"github.com/deppfellow/portfolio/internal/model/project"
	"github.com/deppfellow/portfolio/internal/pagination"
	"github.com/deppfellow/portfolio/internal/sqlerr"
	"github.com/deppfellow/portfolio/internal/storage"
)

type memoryStore struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]project.Project
	clock time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		rows:  map[uuid.UUID]project.Project{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memoryStore) nameTaken(name string, except uuid.UUID) bool {
	for id, p := range m.rows {
		if p.Name == name && id != except {
			return true
		}
	}
	return false
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", TableName: "projects", ConstraintName: "projects_name_key"}
}

func notFound() error {
	return sqlerr.WithTable("projects", pgx.ErrNoRows)
}

func (m *memoryStore) Create(_ context.Context, f project.Fields) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nameTaken(f.Name, uuid.Nil) {
		return nil, uniqueViolation()
	}

	m.clock = m.clock.Add(time.Minute)
	p := project.Project{
		ID: uuid.New(), Name: f.Name, Date: m.clock, About: f.About,
		Concepts: f.Concepts, Github: f.Github, Image: f.Image,
		CreatedAt: m.clock, UpdatedAt: m.clock,
	}
	m.rows[p.ID] = p
	return &p, nil
}

func (m *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.rows[id]
	if !ok {
		return nil, notFound()
	}
	return &p, nil
}

func (m *memoryStore) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memoryStore) List(_ context.Context, limit, offset int) ([]project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]project.Project, 0, len(m.rows))
	for _, p := range m.rows {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	if offset >= len(all) {
		return []project.Project{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (m *memoryStore) Update(ctx context.Context, id uuid.UUID, f project.Fields) (*project.Project, error) {
	return m.Patch(ctx, id, project.Changes{Name: &f.Name, About: &f.About, Concepts: &f.Concepts, Github: &f.Github, Image: &f.Image})
}

func (m *memoryStore) Patch(_ context.Context, id uuid.UUID, c project.Changes) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.rows[id]
	if !ok {
		return nil, notFound()
	}
	if c.Name != nil && m.nameTaken(*c.Name, id) {
		return nil, uniqueViolation()
	}
	c.Apply(&p)
	m.rows[id] = p
	return &p, nil
}

func (m *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return notFound()
	}
	delete(m.rows, id)
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "1", Type: task.Type()}, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls++
	return nil
}

type fixture struct {
	store   *memoryStore
	jobs    *fakeEnqueuer
	cache   *fakeInvalidator
	svc     *ProjectService
	uploads *UploadService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	f := &fixture{store: newMemoryStore(), jobs: &fakeEnqueuer{}, cache: &fakeInvalidator{}}
	f.svc = NewProjectService(f.store, f.jobs, f.cache, "owner@example.com", &logger)

	media, err := storage.NewMediaStore(afero.NewMemMapFs(), config.StorageConfig{
		UploadDir:      "media",
		PublicBaseURL:  "http://localhost:8080/media",
		MaxUploadBytes: 1024,
	})
	require.NoError(t, err)
	f.uploads = NewUploadService(media, f.svc)

	return f
}

func sampleFields(name string) project.Fields {
	return project.Fields{
		Name:     name,
		About:    "about",
		Concepts: "go",
		Github:   "https://github.com/example/" + name,
		Image:    "https://example.com/" + name + ".png",
	}
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()

	var httpErr *errs.HTTPError
	require.True(t, errors.As(sqlerr.HandleError(err), &httpErr))
	return httpErr.Status
}

func TestCreateInvalidatesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, sampleFields("demo"))
	require.NoError(t, err)

	assert.Equal(t, 1, f.cache.calls)
	require.Len(t, f.jobs.tasks, 1)
	assert.Equal(t, job.TaskProjectCreated, f.jobs.tasks[0].Type())

	var payload job.ProjectCreatedPayload
	require.NoError(t, json.Unmarshal(f.jobs.tasks[0].Payload(), &payload))
	assert.Equal(t, "owner@example.com", payload.To)
	assert.Equal(t, p.ID.String(), payload.ProjectID)
}

func TestCreateSurvivesEnqueueFailure(t *testing.T) {
	f := newFixture(t)
	f.jobs.err = errors.New("redis down")

	_, err := f.svc.Create(context.Background(), sampleFields("demo"))
	assert.NoError(t, err)
}

func TestCreateWithoutNotifyEmail(t *testing.T) {
	logger := zerolog.Nop()
	jobs := &fakeEnqueuer{}
	svc := NewProjectService(newMemoryStore(), jobs, nil, "", &logger)

	_, err := svc.Create(context.Background(), sampleFields("demo"))
	require.NoError(t, err)
	assert.Empty(t, jobs.tasks)
}

func TestDuplicateNameIsBadRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, sampleFields("demo"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, sampleFields("demo"))
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestUpdatePatchDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, sampleFields("demo"))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, p.ID, sampleFields("renamed"))
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, p.Date, updated.Date)

	about := "new about"
	patched, err := f.svc.Patch(ctx, p.ID, project.Changes{About: &about})
	require.NoError(t, err)
	assert.Equal(t, "new about", patched.About)
	assert.Equal(t, "renamed", patched.Name)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	assert.Equal(t, 4, f.cache.calls)

	_, err = f.svc.Get(ctx, p.ID)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))

	err = f.svc.Delete(ctx, p.ID)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := f.svc.Create(ctx, sampleFields(name))
		require.NoError(t, err)
	}

	page, params, err := f.svc.List(ctx, pagination.Params{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Projects, 2)
	assert.Equal(t, "e", page.Projects[0].Name)
	assert.Equal(t, 1, params.Page)

	page, params, err = f.svc.List(ctx, pagination.Params{Page: 1, PageSize: 2, Last: true})
	require.NoError(t, err)
	assert.Equal(t, 3, params.Page)
	require.Len(t, page.Projects, 1)
	assert.Equal(t, "a", page.Projects[0].Name)

	_, _, err = f.svc.List(ctx, pagination.Params{Page: 4, PageSize: 2})
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestSaveProjectImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, sampleFields("demo"))
	require.NoError(t, err)

	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	updated, err := f.uploads.SaveProjectImage(ctx, p.ID, bytes.NewReader(gif), "cover.gif")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.Image, "http://localhost:8080/media/"))
	assert.True(t, strings.HasSuffix(updated.Image, ".gif"))
}

func TestSaveProjectImageRejectsNonImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, sampleFields("demo"))
	require.NoError(t, err)

	_, err = f.uploads.SaveProjectImage(ctx, p.ID, strings.NewReader("plain text"), "notes.txt")
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Image, got.Image)
}

func TestSaveProjectImageUnknownProject(t *testing.T) {
	f := newFixture(t)

	_, err := f.uploads.SaveProjectImage(context.Background(), uuid.New(), strings.NewReader("x"), "x.png")
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestSaveTooLarge(t *testing.T) {
	f := newFixture(t)

	_, err := f.uploads.Save(bytes.NewReader(make([]byte, 2048)), "big.bin")
	assert.Equal(t, http.StatusRequestEntityTooLarge, httpStatus(t, err))
}
