// Package project holds the Project record, the request payloads that
// create and modify it, and its JSON rendering.
package project

import (
	"time"

	"github.com/google/uuid"
)

// Project is a row of the projects table.
type Project struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Date      time.Time `db:"date"`
	About     string    `db:"about"`
	Concepts  string    `db:"concepts"`
	Github    string    `db:"github"`
	Image     string    `db:"image"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Fields are the writable columns of a project.
type Fields struct {
	Name     string
	About    string
	Concepts string
	Github   string
	Image    string
}

// Changes is a partial update. Nil members are left untouched.
type Changes struct {
	Name     *string
	About    *string
	Concepts *string
	Github   *string
	Image    *string
}

// IsEmpty reports whether no column would change.
func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.About == nil && c.Concepts == nil && c.Github == nil && c.Image == nil
}

// Apply assigns the present members of c to p.
func (c Changes) Apply(p *Project) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.About != nil {
		p.About = *c.About
	}
	if c.Concepts != nil {
		p.Concepts = *c.Concepts
	}
	if c.Github != nil {
		p.Github = *c.Github
	}
	if c.Image != nil {
		p.Image = *c.Image
	}
}

// Page is one slice of an ordered project listing.
type Page struct {
	Projects []Project
	Total    int64
}
