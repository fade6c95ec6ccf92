package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/remediation"
	"github.com/HendryAvila/specgap/internal/report"
	"github.com/HendryAvila/specgap/internal/templates"
)

const concurrencySpec = "Customers can add products to their cart. " +
	"Two customers may add the last unit of stock to their carts at the same time."

// --- Test helpers ---

func newDeps(t *testing.T) (*pipeline.Analyzer, *report.Writer) {
	t.Helper()
	b, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default() failed: %v", err)
	}
	h, err := config.NewHolder(b)
	if err != nil {
		t.Fatalf("NewHolder failed: %v", err)
	}
	r, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return pipeline.NewAnalyzer(h), report.NewWriter(r)
}

// chdirProject creates a temp project root with a spec file and changes
// cwd into a subdirectory of it.
func chdirProject(t *testing.T, status model.ProjectStatus) string {
	t.Helper()
	root := t.TempDir()
	if err := config.SaveProject(root, status); err != nil {
		t.Fatalf("setup: save project: %v", err)
	}
	specs := filepath.Join(root, "specs")
	if err := os.MkdirAll(specs, 0o755); err != nil {
		t.Fatalf("setup: mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(specs, "cart.md"), []byte(concurrencySpec), 0o644); err != nil {
		t.Fatalf("setup: write spec: %v", err)
	}

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("setup: getwd: %v", err)
	}
	if err := os.Chdir(specs); err != nil {
		t.Fatalf("setup: chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return root
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, h handler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	return result
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	if isErrorResult(result) {
		t.Fatalf("unexpected tool error: %s", getResultText(result))
	}
	if err := json.Unmarshal([]byte(getResultText(result)), v); err != nil {
		t.Fatalf("result is not json: %v\n%s", err, getResultText(result))
	}
}

// --- Definitions ---

func TestDefinitions(t *testing.T) {
	a, w := newDeps(t)
	log := remediation.NewMemoryLog()
	tests := []struct {
		def  mcp.Tool
		want string
	}{
		{NewParseTool(a, w).Definition(), "gap_parse"},
		{NewExtractTool(a, w).Definition(), "gap_extract"},
		{NewAssessRiskTool(a, w).Definition(), "gap_assess_risk"},
		{NewRecommendTool(a, w).Definition(), "gap_recommend"},
		{NewAnalyzeTool(a, w).Definition(), "gap_analyze"},
		{NewDecideTool(log).Definition(), "gap_decide"},
		{NewDecisionsTool(log, a, w).Definition(), "gap_decisions"},
	}
	for _, tt := range tests {
		if tt.def.Name != tt.want {
			t.Errorf("tool name = %q, want %q", tt.def.Name, tt.want)
		}
		if tt.def.Description == "" {
			t.Errorf("%s has no description", tt.want)
		}
	}
}

// --- Stage tools ---

func TestExtractTool_InlineJSON(t *testing.T) {
	tool := NewExtractTool(newDeps(t))
	result := call(t, tool.Handle, map[string]interface{}{
		"document": "The system operates quickly.",
		"format":   "json",
	})

	var out model.UndefinedElements
	decodeResult(t, result, &out)
	if len(out.Elements) != 1 || out.Elements[0].Subcategory != "performance" {
		t.Errorf("elements = %+v, want one performance element", out.Elements)
	}
}

func TestExtractTool_ArgumentErrors(t *testing.T) {
	tool := NewExtractTool(newDeps(t))
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no document", map[string]interface{}{}},
		{"document and path", map[string]interface{}{"document": "x", "path": "y.md"}},
		{"threshold above one", map[string]interface{}{"document": concurrencySpec, "confidence_threshold": 1.5}},
		{"zero questions", map[string]interface{}{"document": concurrencySpec, "max_questions": float64(0)}},
		{"unknown format", map[string]interface{}{"document": concurrencySpec, "format": "pdf"}},
		{"blank document", map[string]interface{}{"document": "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := call(t, tool.Handle, tt.args); !isErrorResult(result) {
				t.Errorf("expected a tool error, got: %s", getResultText(result))
			}
		})
	}
}

func TestParseTool_PathRelativeToProjectRoot(t *testing.T) {
	chdirProject(t, model.DefaultProjectStatus())
	tool := NewParseTool(newDeps(t))

	result := call(t, tool.Handle, map[string]interface{}{"path": "specs/cart.md"})
	if isErrorResult(result) {
		t.Fatalf("unexpected error: %s", getResultText(result))
	}
	if !strings.HasPrefix(getResultText(result), "# Parsed requirements") {
		t.Errorf("unexpected markdown:\n%s", getResultText(result))
	}

	missing := call(t, tool.Handle, map[string]interface{}{"path": "specs/nope.md"})
	if !isErrorResult(missing) || !strings.Contains(getResultText(missing), "does not exist") {
		t.Errorf("missing file result = %s", getResultText(missing))
	}
}

func TestAssessRiskTool_ProjectArgument(t *testing.T) {
	tool := NewAssessRiskTool(newDeps(t))

	result := call(t, tool.Handle, map[string]interface{}{
		"document": concurrencySpec,
		"project":  `{"current_phase": "design", "criticality": "high"}`,
		"format":   "json",
	})
	var out model.RiskAnalysisResult
	decodeResult(t, result, &out)
	if len(out.Risks) == 0 || out.Risks[0].Level != model.RiskCritical {
		t.Errorf("risks = %+v, want a critical top risk", out.Risks)
	}

	bad := call(t, tool.Handle, map[string]interface{}{
		"document": concurrencySpec,
		"project":  "current_phase: shipping",
	})
	if !isErrorResult(bad) {
		t.Errorf("invalid project should be a tool error, got: %s", getResultText(bad))
	}
}

func TestRecommendTool_ProjectFileFallback(t *testing.T) {
	chdirProject(t, model.ProjectStatus{Name: "shop", CurrentPhase: model.PhaseTesting, Criticality: model.CriticalityLow})
	tool := NewRecommendTool(newDeps(t))

	result := call(t, tool.Handle, map[string]interface{}{"path": "specs/cart.md", "format": "json"})
	var plan model.RemediationPlan
	decodeResult(t, result, &plan)
	if plan.Project.Name != "shop" || plan.Project.CurrentPhase != model.PhaseTesting {
		t.Errorf("plan project = %+v, want the project file", plan.Project)
	}
}

func TestRecommendTool_AttachesDecisions(t *testing.T) {
	log := remediation.NewMemoryLog()
	if _, err := log.Append(context.Background(), model.Decision{ElementID: "UE-001", Kind: model.DecisionDefer, Reason: "v2"}); err != nil {
		t.Fatal(err)
	}
	tool := NewRecommendTool(newDeps(t))
	tool.SetDecisionLog(log)

	result := call(t, tool.Handle, map[string]interface{}{"document": concurrencySpec, "format": "json"})
	var plan model.RemediationPlan
	decodeResult(t, result, &plan)

	found := false
	for _, r := range plan.Recommendations {
		if r.ElementID != "UE-001" {
			if r.Decision != nil {
				t.Errorf("%s carries a decision for another element", r.ID)
			}
			continue
		}
		found = true
		if r.Decision == nil || r.Decision.Kind != model.DecisionDefer {
			t.Errorf("UE-001 decision = %+v, want defer", r.Decision)
		}
	}
	if !found {
		t.Fatal("no recommendation for UE-001")
	}
}

func TestRecommendTool_NegativeBudget(t *testing.T) {
	tool := NewRecommendTool(newDeps(t))
	result := call(t, tool.Handle, map[string]interface{}{"document": concurrencySpec, "budget_hours": -1.0})
	if !isErrorResult(result) {
		t.Errorf("negative budget should be a tool error, got: %s", getResultText(result))
	}
}

func TestAnalyzeTool_Markdown(t *testing.T) {
	tool := NewAnalyzeTool(newDeps(t))
	result := call(t, tool.Handle, map[string]interface{}{"document": concurrencySpec, "title": "Cart review"})
	text := getResultText(result)
	for _, want := range []string{"# Cart review", "**Overall assessment:**", "## Top risks", "# Remediation plan"} {
		if !strings.Contains(text, want) {
			t.Errorf("analysis missing %q\n---\n%s", want, text)
		}
	}
}

// --- Decision tools ---

func TestDecideTool_Handle(t *testing.T) {
	log := remediation.NewMemoryLog()
	tool := NewDecideTool(log)

	result := call(t, tool.Handle, map[string]interface{}{
		"element_id": "UE-001",
		"kind":       "defer",
		"reason":     "after launch",
		"actor":      "pm",
	})
	if isErrorResult(result) || !strings.HasPrefix(getResultText(result), "Decision #1 recorded: UE-001 is defer") {
		t.Errorf("result = %s", getResultText(result))
	}

	all, _ := log.All(context.Background())
	if len(all) != 1 || all[0].Actor != "pm" || all[0].Reason != "after launch" {
		t.Errorf("log = %+v", all)
	}
}

func TestDecideTool_Invalid(t *testing.T) {
	tool := NewDecideTool(remediation.NewMemoryLog())
	for _, args := range []map[string]interface{}{
		{"kind": "defer"},
		{"element_id": "UE-001", "kind": "ignore"},
	} {
		if result := call(t, tool.Handle, args); !isErrorResult(result) {
			t.Errorf("args %v: expected a tool error, got: %s", args, getResultText(result))
		}
	}
}

func seededLog(t *testing.T) *remediation.MemoryLog {
	t.Helper()
	log := remediation.NewMemoryLog()
	for _, d := range []model.Decision{
		{ElementID: "UE-001", Kind: model.DecisionNeedMoreInfo},
		{ElementID: "UE-002", Kind: model.DecisionDefer, Reason: "next quarter"},
		{ElementID: "UE-001", Kind: model.DecisionResolve},
	} {
		if _, err := log.Append(context.Background(), d); err != nil {
			t.Fatal(err)
		}
	}
	return log
}

func TestDecisionsTool_History(t *testing.T) {
	a, w := newDeps(t)
	tool := NewDecisionsTool(seededLog(t), a, w)

	var all []model.Decision
	decodeResult(t, call(t, tool.Handle, map[string]interface{}{"view": "history", "format": "json"}), &all)
	if len(all) != 3 {
		t.Errorf("history = %d records, want 3", len(all))
	}

	var one []model.Decision
	decodeResult(t, call(t, tool.Handle, map[string]interface{}{"view": "history", "element_id": "UE-001", "format": "json"}), &one)
	if len(one) != 2 || one[0].Kind != model.DecisionNeedMoreInfo {
		t.Errorf("UE-001 history = %+v", one)
	}
}

func TestDecisionsTool_Latest(t *testing.T) {
	a, w := newDeps(t)
	tool := NewDecisionsTool(seededLog(t), a, w)

	var latest []model.Decision
	decodeResult(t, call(t, tool.Handle, map[string]interface{}{"view": "latest", "element_id": "UE-001", "format": "json"}), &latest)
	if len(latest) != 1 || latest[0].Kind != model.DecisionResolve {
		t.Errorf("latest = %+v, want resolve", latest)
	}

	for _, args := range []map[string]interface{}{
		{"view": "latest"},
		{"view": "latest", "element_id": "UE-404"},
		{"view": "everything"},
	} {
		if result := call(t, tool.Handle, args); !isErrorResult(result) {
			t.Errorf("args %v: expected a tool error, got: %s", args, getResultText(result))
		}
	}
}

func TestDecisionsTool_ReportFlagsDeferredHighRisk(t *testing.T) {
	a, w := newDeps(t)
	tool := NewDecisionsTool(seededLog(t), a, w)

	var rep model.DecisionReport
	decodeResult(t, call(t, tool.Handle, map[string]interface{}{"document": concurrencySpec, "format": "json"}), &rep)
	if rep.Records != 3 || rep.Elements != 2 {
		t.Errorf("report counts = %d records / %d elements, want 3 / 2", rep.Records, rep.Elements)
	}
	if len(rep.DeferredHighRisk) != 1 || rep.DeferredHighRisk[0].Decision.ElementID != "UE-002" {
		t.Errorf("deferred high risk = %+v, want UE-002", rep.DeferredHighRisk)
	}

	var bare model.DecisionReport
	decodeResult(t, call(t, tool.Handle, map[string]interface{}{"format": "json"}), &bare)
	if bare.DeferredHighRisk != nil {
		t.Errorf("report without a document flagged %+v", bare.DeferredHighRisk)
	}
}
