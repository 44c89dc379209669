package email

// Template names an HTML file under templates/.
type Template string

const (
	// TemplateProjectCreated corresponds to templates/project_created.html
	TemplateProjectCreated Template = "project_created"
)
