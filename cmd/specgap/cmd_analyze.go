package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/report"
)

var analyzeFlags struct {
	analysisFlags
	title string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <document|->",
	Short: "Run the full gap analysis and print an executive summary",
	Long: `Run every stage on a specification and report the executive summary
(overall assessment, key findings, top risks) followed by the undefined
elements, their risks and the remediation plan.

Examples:
  specgap analyze requirements.md
  specgap analyze requirements.md -f json -o report.json
  specgap analyze - --project project.yaml < requirements.md`,
	Args: argsValidator(cobra.ExactArgs(1)),
	RunE: runAnalyze,
}

func init() {
	analyzeFlags.register(analyzeCmd, pipeline.StagePlan)
	analyzeCmd.Flags().StringVar(&analyzeFlags.title, "title", "", "Report title (default: the document's file name)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	res, err := runStage(cmd, &analyzeFlags.analysisFlags, pipeline.StagePlan, args[0])
	if err != nil {
		return err
	}
	title := analyzeFlags.title
	if title == "" && args[0] != "-" {
		title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	return analyzeFlags.emit(cmd, report.Analysis(title, res))
}
