package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var checklistTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/checklist.html")
	if err != nil {
		// Fallback to built-in template if file not found
		checklistTemplate = template.Must(template.New("checklist").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	checklistTemplate = template.Must(template.New("checklist").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for checklist template rendering
type TemplateData struct {
	Name           string
	Email          string
	GeneratedAt    time.Time
	CompletedTasks int
	TotalTasks     int
	Percentage     int
	Sections       []TemplateSection
}

// TemplateSection holds one checklist section for the template
type TemplateSection struct {
	Title string
	Tasks []TemplateTask
}

// TemplateTask holds one task row for the template
type TemplateTask struct {
	Title       string
	Description string
	Completed   bool
	IsImportant bool
}

// RenderChecklistHTML renders the checklist template with provided data
func RenderChecklistHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := checklistTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Onboarding Checklist</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .task { padding: 0.25rem 0; }
    .done { color: #2a7a2a; }
  </style>
</head>
<body>
  <h1>Onboarding Checklist</h1>
  <div class="meta">{{.Name}} | {{.Email}} | {{.CompletedTasks}}/{{.TotalTasks}} ({{.Percentage}}%)</div>
  {{range .Sections}}
  <h2>{{.Title}}</h2>
  {{range .Tasks}}<div class="task{{if .Completed}} done{{end}}">{{if .Completed}}[x]{{else}}[ ]{{end}} {{.Title}}</div>{{end}}
  {{end}}
</body>
</html>`
