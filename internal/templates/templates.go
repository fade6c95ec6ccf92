// Package templates renders analysis results as markdown and expands the
// {name} placeholders used throughout the configuration tables.
//
// Markdown templates are embedded in the binary; Renderer is the seam the
// report writer and the MCP tools depend on.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/HendryAvila/specgap/internal/model"
)

//go:embed *.md.tmpl
var templateFS embed.FS

// Template names.
const (
	Parse     = "parse.md.tmpl"
	Elements  = "elements.md.tmpl"
	Risks     = "risks.md.tmpl"
	Plan      = "plan.md.tmpl"
	Analysis  = "analysis.md.tmpl"
	Decisions = "decisions.md.tmpl"
)

// Renderer renders a named template with data.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// AnalysisData is the input of the Analysis template. Stage outputs that
// were not produced are nil and their sections are omitted.
type AnalysisData struct {
	Title    string                    `json:"title,omitempty"`
	Summary  model.ExecutiveSummary    `json:"summary"`
	Parsed   *model.ParsedRequirement  `json:"parsed,omitempty"`
	Elements *model.UndefinedElements  `json:"elements,omitempty"`
	Risks    *model.RiskAnalysisResult `json:"risks,omitempty"`
	Plan     *model.RemediationPlan    `json:"plan,omitempty"`
}

// EmbedRenderer renders the embedded markdown templates.
type EmbedRenderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"score": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"hours": func(v float64) string { return fmt.Sprintf("%gh", v) },
	"join":  strings.Join,
	"inc":   func(i int) int { return i + 1 },
	"cell":  cell,
	"date":  func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}

// cell makes a value safe inside a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// NewRenderer parses every embedded template.
func NewRenderer() (*EmbedRenderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &EmbedRenderer{tmpl: t}, nil
}

// Render executes the named template.
func (r *EmbedRenderer) Render(name string, data any) (string, error) {
	t := r.tmpl.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
