// Package tools implements the MCP tool handlers of the gap analyser.
//
// Each tool is a struct holding its dependencies, with Definition()
// returning the mcp.Tool schema and Handle() processing a call. User
// mistakes (bad arguments, unreadable documents, invalid project status)
// come back as tool errors the model can read and correct; configuration
// and storage failures are returned as Go errors.
package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/report"
)

// findProjectRoot walks up from the working directory looking for a
// .specgap/project.yaml. If none is found, returns cwd.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return config.FindProjectRoot(dir), nil
}

// documentArg reads the document from the "document" argument, or from
// the file named by "path" relative to the project root.
func documentArg(req mcp.CallToolRequest) (model.Document, error) {
	text := req.GetString("document", "")
	path := req.GetString("path", "")
	switch {
	case text != "" && path != "":
		return model.Document{}, model.InvalidInput("give either 'document' or 'path', not both")
	case text != "":
		return model.Document{Text: text, Metadata: model.Metadata{Source: "inline"}}, nil
	case path == "":
		return model.Document{}, model.InvalidInput("'document' or 'path' is required")
	}

	if !filepath.IsAbs(path) {
		root, err := findProjectRoot()
		if err != nil {
			return model.Document{}, err
		}
		path = filepath.Join(root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Document{}, model.InvalidInput("document %s does not exist", path)
		}
		return model.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return model.Document{Text: string(data), Metadata: model.Metadata{Source: path}}, nil
}

// projectArg decodes the inline "project" argument, falling back to the
// project file of the current project root.
func projectArg(req mcp.CallToolRequest) (model.ProjectStatus, error) {
	if inline := req.GetString("project", ""); inline != "" {
		return config.ParseProject(inline)
	}
	root, err := findProjectRoot()
	if err != nil {
		return model.ProjectStatus{}, err
	}
	return config.LoadProjectRoot(root)
}

// formatArg reads the "format" argument. Tools default to markdown.
func formatArg(req mcp.CallToolRequest) (report.Format, error) {
	return report.ParseFormat(req.GetString("format", string(report.FormatMarkdown)))
}

// categoriesArg splits a comma-separated category list.
func categoriesArg(req mcp.CallToolRequest) []string {
	raw := req.GetString("categories", "")
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// failure turns err into a tool error when the caller can fix it, and
// into a Go error otherwise.
func failure(err error) (*mcp.CallToolResult, error) {
	var inErr *model.InvalidInputError
	if errors.As(err, &inErr) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

// render writes v in format f as the text of a tool result.
func render(w *report.Writer, f report.Format, v any) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	if err := w.Write(&sb, f, v); err != nil {
		return nil, fmt.Errorf("rendering result: %w", err)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatProperty is the shared schema of the "format" argument.
func formatProperty() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Output format: markdown (default), json or text"),
		mcp.Enum("markdown", "json", "text"),
	)
}

// documentProperties are the shared schema of the document arguments.
func documentProperties() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("document",
			mcp.Description("The specification text to analyse"),
		),
		mcp.WithString("path",
			mcp.Description("Path to a specification file, relative to the project root. Use instead of 'document'."),
		),
	}
}

// projectProperty is the shared schema of the "project" argument.
func projectProperty() mcp.ToolOption {
	return mcp.WithString("project",
		mcp.Description("Project status as YAML or JSON: current_phase, criticality, team, constraints.budget_hours. "+
			"Defaults to .specgap/project.yaml, or requirement_definition / medium when absent."),
	)
}
