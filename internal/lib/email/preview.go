package email

// PreviewData holds sample values for every template, keyed by template
// name, so templates can be rendered without a real project.
var PreviewData = map[Template]any{
	TemplateProjectCreated: ProjectCreatedData{
		ProjectID:   "7b1f7d0a-52a5-4f0e-9a55-3c4b3e6c9a01",
		ProjectName: "Portfolio API",
		About:       "A REST API that serves my portfolio projects.",
		Github:      "https://github.com/example/portfolio-api",
		Date:        "2024-03-01T09:30:00Z",
	},
}
