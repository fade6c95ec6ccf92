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

// DecideTool handles the gap_decide MCP tool.
// It appends a stakeholder decision about an undefined element.
type DecideTool struct {
	log remediation.DecisionLog
}

// NewDecideTool creates a DecideTool writing to log.
func NewDecideTool(log remediation.DecisionLog) *DecideTool {
	return &DecideTool{log: log}
}

// Definition returns the MCP tool definition for gap_decide.
func (t *DecideTool) Definition() mcp.Tool {
	return mcp.NewTool("gap_decide",
		mcp.WithDescription(
			"Record a stakeholder decision about an undefined element. Decisions are append-only: "+
				"a new decision for the same element supersedes the previous one but never erases it.",
		),
		mcp.WithString("element_id",
			mcp.Required(),
			mcp.Description("Element id from gap_extract, e.g. UE-003"),
		),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("resolve (fixed in the document), accept (live with it), defer (later phase) or need_more_info"),
			mcp.Enum("resolve", "accept", "defer", "need_more_info"),
		),
		mcp.WithString("reason",
			mcp.Description("Why this decision was taken"),
		),
		mcp.WithString("actor",
			mcp.Description("Who took the decision"),
		),
	)
}

// Handle processes the gap_decide tool call.
func (t *DecideTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := t.log.Append(ctx, model.Decision{
		ElementID: req.GetString("element_id", ""),
		Kind:      model.DecisionKind(req.GetString("kind", "")),
		Reason:    req.GetString("reason", ""),
		Actor:     req.GetString("actor", ""),
	})
	if err != nil {
		return failure(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Decision #%d recorded: %s is %s (at %s).",
		d.ID, d.ElementID, d.Kind, d.Timestamp.Format("2006-01-02 15:04:05Z07:00"),
	)), nil
}

// Decision views.
const (
	viewHistory = "history"
	viewLatest  = "latest"
	viewReport  = "report"
)

// DecisionsTool handles the gap_decisions MCP tool.
type DecisionsTool struct {
	stageCore
}

// NewDecisionsTool creates a DecisionsTool. The analyzer is used to link
// deferrals to risk levels when a document is given.
func NewDecisionsTool(log remediation.DecisionLog, analyzer *pipeline.Analyzer, writer *report.Writer) *DecisionsTool {
	return &DecisionsTool{stageCore{analyzer: analyzer, writer: writer, decisions: log}}
}

// Definition returns the MCP tool definition for gap_decisions.
func (t *DecisionsTool) Definition() mcp.Tool {
	return mcp.NewTool("gap_decisions", toolOptions(
		"Read recorded decisions: the full history (optionally of one element), the latest decision "+
			"of one element, or a report grouping the latest decision per element by kind. Give the "+
			"document to flag deferrals of high or critical risks in the report.",
		[]mcp.ToolOption{
			mcp.WithString("view",
				mcp.Description("history, latest or report (default: report)"),
				mcp.Enum(viewHistory, viewLatest, viewReport),
			),
			mcp.WithString("element_id",
				mcp.Description("Element id; required for 'latest', optional filter for 'history'"),
			),
		},
		documentProperties(),
		[]mcp.ToolOption{projectProperty()},
	)...)
}

// Handle processes the gap_decisions tool call.
func (t *DecisionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	elementID := req.GetString("element_id", "")

	switch view := req.GetString("view", viewReport); view {
	case viewHistory:
		f, err := formatArg(req)
		if err != nil {
			return failure(err)
		}
		var records []model.Decision
		if elementID != "" {
			records, err = t.decisions.History(ctx, elementID)
		} else {
			records, err = t.decisions.All(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("reading decisions: %w", err)
		}
		return render(t.writer, f, records)

	case viewLatest:
		f, err := formatArg(req)
		if err != nil {
			return failure(err)
		}
		if elementID == "" {
			return mcp.NewToolResultError("'element_id' is required for the latest view"), nil
		}
		d, ok, err := t.decisions.Latest(ctx, elementID)
		if err != nil {
			return nil, fmt.Errorf("reading decisions: %w", err)
		}
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no decision recorded for %s", elementID)), nil
		}
		return render(t.writer, f, []model.Decision{d})

	case viewReport:
		all, err := t.decisions.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading decisions: %w", err)
		}
		var risks *model.RiskAnalysisResult
		f, err := formatArg(req)
		if err != nil {
			return failure(err)
		}
		if req.GetString("document", "") != "" || req.GetString("path", "") != "" {
			res, _, err := t.call(ctx, req, pipeline.StageRisk)
			if err != nil {
				return failure(err)
			}
			risks = res.Risks
		}
		return render(t.writer, f, report.DecisionReport(all, risks))

	default:
		return mcp.NewToolResultError(fmt.Sprintf("'view' must be one of: history, latest, report; got %q", view)), nil
	}
}
