// Package web holds the dashboard page, its script and the report e-mail
// template, embedded into the binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	// css marks a style string built from validated zone and color values.
	"css": func(s string) template.CSS { return template.CSS(s) },
	"iconGlyph": func(icon string) string {
		switch icon {
		case "car":
			return "🚗"
		case "accessibility":
			return "♿"
		case "baby":
			return "👶"
		case "zap":
			return "⚡"
		}
		return ""
	},
}

func DashboardTemplate() (*template.Template, error) {
	return template.New("dashboard.html").Funcs(funcs).ParseFS(templateFS, "templates/dashboard.html")
}

func ReportEmailTemplate() (*template.Template, error) {
	return template.New("report_email.html").Funcs(funcs).ParseFS(templateFS, "templates/report_email.html")
}

// Static serves the dashboard script and stylesheet.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
