package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/specgap/internal/model"
)

// Project layout constants.
const (
	ProjectDir  = ".specgap"
	ProjectFile = "project.yaml"
)

// ProjectPath returns the project file path for a root directory.
func ProjectPath(root string) string {
	return filepath.Join(root, ProjectDir, ProjectFile)
}

// ProjectExists reports whether root holds a project file.
func ProjectExists(root string) bool {
	_, err := os.Stat(ProjectPath(root))
	return err == nil
}

// FindProjectRoot walks up from dir looking for .specgap/project.yaml.
// If none is found it returns dir unchanged.
func FindProjectRoot(dir string) string {
	current := dir
	for {
		if ProjectExists(current) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

// LoadProject reads a ProjectStatus from a YAML or JSON file, chosen by
// extension. Missing phase or criticality take their defaults.
func LoadProject(path string) (model.ProjectStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.ProjectStatus{}, model.InvalidInput("project file %s does not exist", path)
		}
		return model.ProjectStatus{}, fmt.Errorf("reading project file: %w", err)
	}

	status := model.DefaultProjectStatus()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &status)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &status)
	default:
		return model.ProjectStatus{}, model.InvalidInput("project file %s: unsupported extension (want .yaml, .yml or .json)", path)
	}
	if err != nil {
		return model.ProjectStatus{}, model.InvalidInput("parsing project file %s: %v", path, err)
	}
	if err := status.Validate(); err != nil {
		return model.ProjectStatus{}, model.InvalidInput("project file %s: %v", path, err)
	}
	return status, nil
}

// ParseProject decodes an inline project status. YAML is a superset of
// JSON, so either works. Blank input yields the default status.
func ParseProject(data string) (model.ProjectStatus, error) {
	status := model.DefaultProjectStatus()
	if strings.TrimSpace(data) == "" {
		return status, nil
	}
	if err := yaml.Unmarshal([]byte(data), &status); err != nil {
		return model.ProjectStatus{}, model.InvalidInput("parsing project status: %v", err)
	}
	if err := status.Validate(); err != nil {
		return model.ProjectStatus{}, model.InvalidInput("project status: %v", err)
	}
	return status, nil
}

// LoadProjectRoot loads the project file under root, or returns the
// default status when root has none.
func LoadProjectRoot(root string) (model.ProjectStatus, error) {
	if !ProjectExists(root) {
		return model.DefaultProjectStatus(), nil
	}
	return LoadProject(ProjectPath(root))
}

// SaveProject writes status as YAML under root, creating .specgap/.
func SaveProject(root string, status model.ProjectStatus) error {
	if err := status.Validate(); err != nil {
		return model.InvalidInput("%v", err)
	}
	dir := filepath.Join(root, ProjectDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	data, err := yaml.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshaling project status: %w", err)
	}
	if err := os.WriteFile(ProjectPath(root), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ProjectFile, err)
	}
	return nil
}
