package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/report"
)

// ─── ParseTool ──────────────────────────────────────────────────────────────

// ParseTool handles the gap_parse MCP tool.
type ParseTool struct {
	stageCore
}

// NewParseTool creates a ParseTool.
func NewParseTool(analyzer *pipeline.Analyzer, writer *report.Writer) *ParseTool {
	return &ParseTool{stageCore{analyzer: analyzer, writer: writer}}
}

// Definition returns the MCP tool definition for gap_parse.
func (t *ParseTool) Definition() mcp.Tool {
	return mcp.NewTool("gap_parse", toolOptions(
		"Parse a specification into sentences, entities, actions, relations and scored requirements. "+
			"Use this to see how the analyser reads the text before looking for gaps.",
		documentProperties(),
	)...)
}

// Handle processes the gap_parse tool call.
func (t *ParseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, f, err := t.call(ctx, req, pipeline.StageParse)
	if err != nil {
		return failure(err)
	}
	return render(t.writer, f, res.Parsed)
}

// ─── ExtractTool ────────────────────────────────────────────────────────────

// ExtractTool handles the gap_extract MCP tool.
type ExtractTool struct {
	stageCore
}

// NewExtractTool creates an ExtractTool.
func NewExtractTool(analyzer *pipeline.Analyzer, writer *report.Writer) *ExtractTool {
	return &ExtractTool{stageCore{analyzer: analyzer, writer: writer}}
}

// Definition returns the MCP tool definition for gap_extract.
func (t *ExtractTool) Definition() mcp.Tool {
	return mcp.NewTool("gap_extract", toolOptions(
		"Find undefined elements in a specification: missing types and constraints, vague non-functional "+
			"requirements, unhandled failures, unclear behavior. Each element comes with questions for the stakeholders.",
		documentProperties(),
		detectorProperties(),
	)...)
}

// Handle processes the gap_extract tool call.
func (t *ExtractTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, f, err := t.call(ctx, req, pipeline.StageExtract)
	if err != nil {
		return failure(err)
	}
	return render(t.writer, f, res.Elements)
}

// ─── AssessRiskTool ─────────────────────────────────────────────────────────

// AssessRiskTool handles the gap_assess_risk MCP tool.
type AssessRiskTool struct {
	stageCore
}

// NewAssessRiskTool creates an AssessRiskTool.
func NewAssessRiskTool(analyzer *pipeline.Analyzer, writer *report.Writer) *AssessRiskTool {
	return &AssessRiskTool{stageCore{analyzer: analyzer, writer: writer}}
}

// Definition returns the MCP tool definition for gap_assess_risk.
func (t *AssessRiskTool) Definition() mcp.Tool {
	return mcp.NewTool("gap_assess_risk", toolOptions(
		"Score the risk of every undefined element in a specification on probability, impact, "+
			"detectability and remediation cost, with a failure scenario and similar past incidents.",
		documentProperties(),
		detectorProperties(),
		[]mcp.ToolOption{projectProperty()},
	)...)
}

// Handle processes the gap_assess_risk tool call.
func (t *AssessRiskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, f, err := t.call(ctx, req, pipeline.StageRisk)
	if err != nil {
		return failure(err)
	}
	return render(t.writer, f, res.Risks)
}

// ─── RecommendTool ──────────────────────────────────────────────────────────

// RecommendTool handles the gap_recommend MCP tool.
type RecommendTool struct {
	stageCore
}

// NewRecommendTool creates a RecommendTool.
func NewRecommendTool(analyzer *pipeline.Analyzer, writer *report.Writer) *RecommendTool {
	return &RecommendTool{stageCore{analyzer: analyzer, writer: writer}}
}

// Definition returns the MCP tool definition for gap_recommend.
func (t *RecommendTool) Definition() mcp.Tool {
	return mcp.NewTool("gap_recommend", toolOptions(
		"Build a prioritised remediation plan for a specification: the phase each gap belongs to, "+
			"urgency, staffed action steps, effort against the budget, and alternatives to fixing now.",
		documentProperties(),
		detectorProperties(),
		[]mcp.ToolOption{
			projectProperty(),
			mcp.WithNumber("budget_hours",
				mcp.Description("Effort budget in hours. Overrides the project's constraints.budget_hours."),
			),
		},
	)...)
}

// Handle processes the gap_recommend tool call.
func (t *RecommendTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, f, err := t.call(ctx, req, pipeline.StagePlan)
	if err != nil {
		return failure(err)
	}
	return render(t.writer, f, res.Plan)
}

// ─── AnalyzeTool ────────────────────────────────────────────────────────────

// AnalyzeTool handles the gap_analyze MCP tool: every stage plus the
// executive summary.
type AnalyzeTool struct {
	stageCore
}

// NewAnalyzeTool creates an AnalyzeTool.
func NewAnalyzeTool(analyzer *pipeline.Analyzer, writer *report.Writer) *AnalyzeTool {
	return &AnalyzeTool{stageCore{analyzer: analyzer, writer: writer}}
}

// Definition returns the MCP tool definition for gap_analyze.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("gap_analyze", toolOptions(
		"Run the full gap analysis on a specification and return an executive summary with the "+
			"undefined elements, their risks and the remediation plan. Start here.",
		documentProperties(),
		detectorProperties(),
		[]mcp.ToolOption{
			projectProperty(),
			mcp.WithNumber("budget_hours",
				mcp.Description("Effort budget in hours. Overrides the project's constraints.budget_hours."),
			),
			mcp.WithString("title",
				mcp.Description("Report title"),
			),
		},
	)...)
}

// Handle processes the gap_analyze tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, f, err := t.call(ctx, req, pipeline.StagePlan)
	if err != nil {
		return failure(err)
	}
	return render(t.writer, f, report.Analysis(req.GetString("title", ""), res))
}
