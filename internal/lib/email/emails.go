package email

import (
	"context"
	"fmt"
)

// ProjectCreatedData fills the project_created template.
type ProjectCreatedData struct {
	ProjectID   string
	ProjectName string
	About       string
	Github      string
	Date        string
}

// SendProjectCreatedEmail tells the site owner a project was published.
func (c *Client) SendProjectCreatedEmail(ctx context.Context, to string, data ProjectCreatedData) error {
	return c.SendEmail(
		ctx,
		to,
		fmt.Sprintf("New project published: %s", data.ProjectName),
		TemplateProjectCreated,
		data,
	)
}
