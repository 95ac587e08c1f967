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

var recapTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/recap.html")
	if err != nil {
		// Fallback to built-in template if file not found
		recapTemplate = template.Must(template.New("recap").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	recapTemplate = template.Must(template.New("recap").Funcs(funcMap).Parse(string(templateContent)))
}

// RenderRecapHTML renders the recap template with provided data
func RenderRecapHTML(data RecapData) (string, error) {
	var buf bytes.Buffer
	if err := recapTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    table { width: 100%; border-collapse: collapse; }
    th, td { border: 1px solid #ccc; padding: 0.4rem; text-align: left; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div>{{.GeneratedBy}} | {{.GeneratedAt.Format "Jan 2, 2006"}}</div>
  {{range .Sections}}
  <h2>{{.Title}}</h2>
  <table>
    <tr><th>Flag</th><th>Avancement</th><th>%</th></tr>
    {{range .Rows}}<tr><td>{{.Label}}</td><td>{{.Literal}}</td><td>{{.Percent}}%</td></tr>{{end}}
  </table>
  {{end}}
</body>
</html>`
