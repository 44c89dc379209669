package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deppfellow/portfolio/internal/model/project"
	"github.com/deppfellow/portfolio/internal/sqlerr"
)

const projectsTable = "projects"

var projectColumns = []string{
	"id", "name", "date", "about", "concepts", "github", "image", "created_at", "updated_at",
}

// psql builds Postgres ($1, $2...) placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, f project.Fields) (*project.Project, error) {
	query, args, err := psql.Insert(projectsTable).
		Columns("name", "about", "concepts", "github", "image").
		Values(f.Name, f.About, f.Concepts, f.Github, f.Image).
		Suffix("RETURNING " + strings.Join(projectColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert project: %w", err)
	}

	return r.one(ctx, "insert project", query, args...)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	query, args, err := psql.Select(projectColumns...).
		From(projectsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get project: %w", err)
	}

	return r.one(ctx, "get project", query, args...)
}

// Count returns the number of projects.
func (r *ProjectRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := psql.Select("count(*)").From(projectsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count projects: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return total, nil
}

// List returns one page of projects, newest first.
func (r *ProjectRepository) List(ctx context.Context, limit, offset int) ([]project.Project, error) {
	query, args, err := psql.Select(projectColumns...).
		From(projectsTable).
		OrderBy("date DESC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list projects: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects, err := pgx.CollectRows(rows, pgx.RowToStructByName[project.Project])
	if err != nil {
		return nil, fmt.Errorf("collect projects: %w", err)
	}
	return projects, nil
}

// Update replaces every writable column.
func (r *ProjectRepository) Update(ctx context.Context, id uuid.UUID, f project.Fields) (*project.Project, error) {
	return r.Patch(ctx, id, project.Changes{
		Name:     &f.Name,
		About:    &f.About,
		Concepts: &f.Concepts,
		Github:   &f.Github,
		Image:    &f.Image,
	})
}

// Patch writes only the present members of c.
func (r *ProjectRepository) Patch(ctx context.Context, id uuid.UUID, c project.Changes) (*project.Project, error) {
	if c.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	set := map[string]any{"updated_at": sq.Expr("now()")}
	if c.Name != nil {
		set["name"] = *c.Name
	}
	if c.About != nil {
		set["about"] = *c.About
	}
	if c.Concepts != nil {
		set["concepts"] = *c.Concepts
	}
	if c.Github != nil {
		set["github"] = *c.Github
	}
	if c.Image != nil {
		set["image"] = *c.Image
	}

	query, args, err := psql.Update(projectsTable).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(projectColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update project: %w", err)
	}

	return r.one(ctx, "update project", query, args...)
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete(projectsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete project: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sqlerr.WithTable(projectsTable, pgx.ErrNoRows)
	}
	return nil
}

func (r *ProjectRepository) one(ctx context.Context, op, query string, args ...any) (*project.Project, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[project.Project])
	if err != nil {
		return nil, sqlerr.WithTable(projectsTable, fmt.Errorf("%s: %w", op, err))
	}
	return &p, nil
}
