package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/decisions"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/remediation"
	"github.com/HendryAvila/specgap/internal/report"
	"github.com/HendryAvila/specgap/internal/templates"
)

// analysisFlags are the flags of every command that runs the pipeline.
// Each command binds its own instance.
type analysisFlags struct {
	format       string
	output       string
	project      string
	threshold    float64
	maxQuestions int
	categories   string
	budget       float64
	decisions    bool
}

// register binds the flags relevant to a run through the given stage.
func (f *analysisFlags) register(cmd *cobra.Command, through pipeline.Stage) {
	defaults := pipeline.DefaultOptions()
	fs := cmd.Flags()
	fs.StringVarP(&f.format, "format", "f", string(report.FormatMarkdown), "Output format: markdown, json or text")
	fs.StringVarP(&f.output, "output", "o", "", "Write the report to this file instead of stdout")
	if through == pipeline.StageParse {
		return
	}
	fs.Float64Var(&f.threshold, "confidence-threshold", defaults.Detector.ConfidenceThreshold, "Drop elements below this confidence (0..1)")
	fs.IntVar(&f.maxQuestions, "max-questions", defaults.Detector.MaxQuestions, "Clarification questions per element")
	fs.StringVar(&f.categories, "categories", "", "Comma-separated categories to report (default: all)")
	if through == pipeline.StageExtract {
		return
	}
	fs.StringVar(&f.project, "project", "", "Project status file, YAML or JSON (default: .specgap/project.yaml above the working directory)")
	if through == pipeline.StageRisk {
		return
	}
	fs.Float64Var(&f.budget, "budget-hours", 0, "Effort budget in hours; overrides the project's constraints.budget_hours")
	fs.BoolVar(&f.decisions, "decisions", false, "Attach the latest recorded decision of each element to its recommendation")
}

// options validates the flags and turns them into pipeline options.
func (f *analysisFlags) options(ctx context.Context, through pipeline.Stage) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	opts.Through = through
	if _, err := report.ParseFormat(f.format); err != nil {
		return opts, err
	}
	if through == pipeline.StageParse {
		return opts, nil
	}

	if f.threshold < 0 || f.threshold > 1 {
		return opts, model.InvalidInput("--confidence-threshold must be between 0 and 1, got %g", f.threshold)
	}
	if f.maxQuestions < 1 {
		return opts, model.InvalidInput("--max-questions must be at least 1")
	}
	opts.Detector.ConfidenceThreshold = f.threshold
	opts.Detector.MaxQuestions = f.maxQuestions
	opts.Detector.EnabledCategories = splitList(f.categories)
	if through == pipeline.StageExtract {
		return opts, nil
	}

	project, err := loadProject(f.project)
	if err != nil {
		return opts, err
	}
	opts.Project = project
	if through == pipeline.StageRisk {
		return opts, nil
	}

	if f.budget < 0 {
		return opts, model.InvalidInput("--budget-hours must not be negative")
	}
	opts.Planning.BudgetHours = f.budget
	if f.decisions {
		store, err := openStore()
		if err != nil {
			return opts, err
		}
		defer store.Close()
		snap, err := remediation.Snapshot(ctx, store)
		if err != nil {
			return opts, &model.DependencyError{Dependency: "decision log", Err: err}
		}
		opts.Planning.Decisions = snap
	}
	return opts, nil
}

// emit renders v in the chosen format to --output or stdout.
func (f *analysisFlags) emit(cmd *cobra.Command, v any) error {
	return writeReport(cmd, f.format, f.output, v)
}

func writeReport(cmd *cobra.Command, format, output string, v any) error {
	fmtv, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	w, err := newWriter()
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return model.InvalidInput("cannot create output file: %v", err)
		}
		defer file.Close()
		out = file
	}
	if err := w.Write(out, fmtv, v); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// newAnalyzer loads the configuration named by --config-dir.
func newAnalyzer() (*pipeline.Analyzer, error) {
	bundle, err := config.LoadDir(rootFlags.configDir)
	if err != nil {
		return nil, err
	}
	holder, err := config.NewHolder(bundle)
	if err != nil {
		return nil, err
	}
	return pipeline.NewAnalyzer(holder), nil
}

func newWriter() (*report.Writer, error) {
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("creating template renderer: %w", err)
	}
	return report.NewWriter(renderer), nil
}

func openStore() (*decisions.Store, error) {
	store, err := decisions.New(decisions.Config{DataDir: rootFlags.dataDir})
	if err != nil {
		return nil, &model.DependencyError{Dependency: "decision log", Err: err}
	}
	return store, nil
}

// readDocument reads path, or standard input when path is "-".
func readDocument(cmd *cobra.Command, path string) (model.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return model.Document{}, fmt.Errorf("reading standard input: %w", err)
		}
		return model.Document{Text: string(data), Metadata: model.Metadata{Source: "stdin"}}, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Document{}, model.InvalidInput("document %s does not exist", path)
		}
		return model.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return model.Document{Text: string(data), Metadata: model.Metadata{Source: path}}, nil
}

// loadProject reads the --project file, or the project file of the
// nearest project root when none is given.
func loadProject(path string) (model.ProjectStatus, error) {
	if path != "" {
		return config.LoadProject(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return model.ProjectStatus{}, fmt.Errorf("getting working directory: %w", err)
	}
	return config.LoadProjectRoot(config.FindProjectRoot(cwd))
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
