package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/remediation"
	"github.com/HendryAvila/specgap/internal/report"
)

// stageCore is shared by the tools that run the pipeline.
type stageCore struct {
	analyzer *pipeline.Analyzer
	writer   *report.Writer
	// decisions is optional; when set, recommendations carry the latest
	// decision of their element.
	decisions remediation.DecisionLog
}

// SetDecisionLog attaches the decision log once it is available.
func (c *stageCore) SetDecisionLog(log remediation.DecisionLog) {
	c.decisions = log
}

// call parses the arguments common to every stage tool and runs the
// pipeline through the given stage.
func (c *stageCore) call(ctx context.Context, req mcp.CallToolRequest, through pipeline.Stage) (*pipeline.Result, report.Format, error) {
	f, err := formatArg(req)
	if err != nil {
		return nil, "", err
	}
	doc, err := documentArg(req)
	if err != nil {
		return nil, "", err
	}

	opts := pipeline.DefaultOptions()
	opts.Through = through

	opts.Detector.ConfidenceThreshold = req.GetFloat("confidence_threshold", opts.Detector.ConfidenceThreshold)
	if th := opts.Detector.ConfidenceThreshold; th < 0 || th > 1 {
		return nil, "", model.InvalidInput("'confidence_threshold' must be between 0 and 1, got %g", th)
	}
	opts.Detector.MaxQuestions = int(req.GetFloat("max_questions", float64(opts.Detector.MaxQuestions)))
	if opts.Detector.MaxQuestions < 1 {
		return nil, "", model.InvalidInput("'max_questions' must be at least 1")
	}
	opts.Detector.EnabledCategories = categoriesArg(req)

	if through == pipeline.StageRisk || through == pipeline.StagePlan {
		if opts.Project, err = projectArg(req); err != nil {
			return nil, "", err
		}
	}
	if through == pipeline.StagePlan {
		opts.Planning.BudgetHours = req.GetFloat("budget_hours", 0)
		if opts.Planning.BudgetHours < 0 {
			return nil, "", model.InvalidInput("'budget_hours' must not be negative")
		}
		if c.decisions != nil {
			snap, err := remediation.Snapshot(ctx, c.decisions)
			if err != nil {
				return nil, "", &model.DependencyError{Dependency: "decision log", Err: fmt.Errorf("snapshot: %w", err)}
			}
			opts.Planning.Decisions = snap
		}
	}

	res, err := c.analyzer.Run(ctx, doc, opts)
	if err != nil {
		return nil, "", err
	}
	return res, f, nil
}

// detectorProperties are the schema of the detector tuning arguments.
func detectorProperties() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("confidence_threshold",
			mcp.Description("Elements below this confidence are dropped (default: 0.5)"),
		),
		mcp.WithNumber("max_questions",
			mcp.Description("Questions generated per element (default: 5)"),
		),
		mcp.WithString("categories",
			mcp.Description("Comma-separated categories to report, e.g. 'data_definition_gap,error_handling_gap'. Empty means all."),
		),
	}
}

func toolOptions(description string, groups ...[]mcp.ToolOption) []mcp.ToolOption {
	opts := []mcp.ToolOption{mcp.WithDescription(description)}
	for _, g := range groups {
		opts = append(opts, g...)
	}
	return append(opts, formatProperty())
}
