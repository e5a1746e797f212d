package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"net/url"

	"healthinsights/domain/core"
	"healthinsights/domain/dataset"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed templates/*.html content/*.md
var embeddedFiles embed.FS

var funcMap = template.FuncMap{
	"measure": func(m core.Measure, decimals int) string { return m.Format(decimals) },
	"heat":    heatColor,
	"chartURL": func(name string, c dataset.Criteria) string {
		return chartURL(name, c)
	},
	"selected": func(current, option string) bool {
		if current == "" {
			return option == dataset.AllOption
		}
		return current == option
	},
}

func parseTemplates() (*template.Template, error) {
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return templates, nil
}

// renderMarkdown converts an embedded markdown file to HTML.
func renderMarkdown(name string) (template.HTML, error) {
	source, err := embeddedFiles.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return template.HTML(markdown.ToHTML(source, p, renderer)), nil
}

// renderTemplate renders into a buffer first so a template error still
// produces a clean 500.
func (a *App) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("Template error for %s: %v", name, err)
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("Error writing template response: %v", err)
	}
}

func chartURL(name string, c dataset.Criteria) string {
	q := url.Values{}
	if c.Gender != "" {
		q.Set("gender", c.Gender)
	}
	if c.Condition != "" {
		q.Set("condition", c.Condition)
	}
	if c.Hospital != "" {
		q.Set("hospital", c.Hospital)
	}
	u := "/charts/" + name + ".png"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// heatColor maps a coefficient in [-1, 1] to a blue-white-red CSS colour.
func heatColor(m core.Measure) template.CSS {
	if m.IsNaN() {
		return "#e0e0e0"
	}
	v := math.Max(-1, math.Min(1, m.Float64()))
	fade := int(255 * (1 - math.Abs(v)))
	if v >= 0 {
		return template.CSS(fmt.Sprintf("rgb(255,%d,%d)", fade, fade))
	}
	return template.CSS(fmt.Sprintf("rgb(%d,%d,255)", fade, fade))
}
