package project

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/portfolio/internal/validation"
)

var exampleProjects = []Project{
	{
		ID:       uuid.MustParse("7b1f7d0a-52a5-4f0e-9a55-3c4b3e6c9a01"),
		Name:     "Portfolio API",
		Date:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		About:    "A REST API that serves my portfolio projects.",
		Concepts: "REST, pagination, caching",
		Github:   "https://github.com/example/portfolio-api",
		Image:    "https://example.com/images/portfolio-api.png",
	},
	{
		ID:       uuid.MustParse("0d4c6f3e-8a2b-4b57-9a0e-5f1e2d3c4b02"),
		Name:     "Weather Dashboard",
		Date:     time.Date(2023, 11, 20, 17, 5, 42, 0, time.FixedZone("CET", 3600)),
		About:    "Shows forecasts from a public weather API.",
		Concepts: "HTTP clients, charts",
		Github:   "https://github.com/example/weather",
		Image:    "https://example.com/images/weather.jpg",
	},
}

func TestRenderParseRoundTrip(t *testing.T) {
	for _, p := range exampleProjects {
		t.Run(p.Name, func(t *testing.T) {
			body, err := json.Marshal(ToResponse(&p))
			require.NoError(t, err)

			for _, v := range []string{p.ID.String(), p.Name, p.About, p.Concepts, p.Github, p.Image} {
				assert.Contains(t, string(body), v)
			}
			assert.Contains(t, string(body), p.Date.UTC().Format(time.RFC3339))

			var req CreateProjectRequest
			require.NoError(t, json.Unmarshal(body, &req))
			require.NoError(t, req.Validate())

			assert.Equal(t, Fields{
				Name:     p.Name,
				About:    p.About,
				Concepts: p.Concepts,
				Github:   p.Github,
				Image:    p.Image,
			}, req.Fields())
		})
	}
}

func fieldTags(t *testing.T, err error) map[string]string {
	t.Helper()

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validator errors, got %v", err)

	out := map[string]string{}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func TestCreateProjectRequestValidation(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}

	req := &CreateProjectRequest{
		Name:     string(long),
		Concepts: "ok",
		Github:   "not a url",
		Image:    "https://example.com/x.png",
	}

	tags := fieldTags(t, req.Validate())
	assert.Equal(t, map[string]string{
		"name":   "max",
		"about":  "required",
		"github": "url",
	}, tags)
}

func TestPatchProjectRequestValidation(t *testing.T) {
	id := uuid.NewString()

	t.Run("empty patch", func(t *testing.T) {
		err := (&PatchProjectRequest{ID: id}).Validate()

		var custom validation.CustomValidationErrors
		require.True(t, errors.As(err, &custom))
		assert.Equal(t, "body", custom[0].Field)
	})

	t.Run("present field is validated", func(t *testing.T) {
		empty := ""
		bad := "ftp//nope"
		tags := fieldTags(t, (&PatchProjectRequest{ID: id, Name: &empty, Image: &bad}).Validate())
		assert.Equal(t, "min", tags["name"])
		assert.Equal(t, "url", tags["image"])
	})

	t.Run("blank required fields are rejected", func(t *testing.T) {
		empty := ""
		tags := fieldTags(t, (&PatchProjectRequest{ID: id, About: &empty, Concepts: &empty, Github: &empty}).Validate())
		assert.Equal(t, "min", tags["about"])
		assert.Equal(t, "min", tags["concepts"])
		assert.Equal(t, "min", tags["github"])
	})

	t.Run("single field", func(t *testing.T) {
		about := "new text"
		req := &PatchProjectRequest{ID: id, About: &about}
		require.NoError(t, req.Validate())
		assert.False(t, req.Changes().IsEmpty())
	})

	t.Run("bad id", func(t *testing.T) {
		about := "x"
		tags := fieldTags(t, (&PatchProjectRequest{ID: "42", About: &about}).Validate())
		assert.Equal(t, "uuid", tags["id"])
	})
}

func TestChangesApply(t *testing.T) {
	p := exampleProjects[0]
	name := "Renamed"
	Changes{Name: &name}.Apply(&p)

	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, exampleProjects[0].About, p.About)
	assert.True(t, Changes{}.IsEmpty())
}
