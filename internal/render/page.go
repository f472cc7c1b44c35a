package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData feeds the dashboard page template
type PageData struct {
	Title    string
	Version  string
	Status   string
	Failed   bool
	HasData  bool
	View     View
	LastURL  string
	MaxBytes int64
}

// Page renders the dashboard HTML document
type Page struct {
	tmpl *template.Template
}

// NewPage parses the embedded dashboard template
func NewPage() (*Page, error) {
	tmpl, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"width": func(w float64) string { return fmt.Sprintf("%.2f%%", w) },
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &Page{tmpl: tmpl}, nil
}

// Execute writes the page for data to w
func (p *Page) Execute(w io.Writer, data PageData) error {
	return p.tmpl.Execute(w, data)
}
