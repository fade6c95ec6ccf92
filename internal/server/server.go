// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on
// abstractions. No analysis logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/decisions"
	"github.com/HendryAvila/specgap/internal/logging"
	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/prompts"
	"github.com/HendryAvila/specgap/internal/report"
	"github.com/HendryAvila/specgap/internal/resources"
	"github.com/HendryAvila/specgap/internal/templates"
	"github.com/HendryAvila/specgap/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// openDecisions is a package-level var to allow test injection.
var openDecisions = decisions.New

// Options configure the server.
type Options struct {
	// ConfigDir overrides the embedded configuration tables per file.
	ConfigDir string
	Decisions decisions.Config
}

// DefaultOptions uses the embedded tables and ~/.specgap for decisions.
func DefaultOptions() Options {
	return Options{Decisions: decisions.DefaultConfig()}
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup function closes the decision store and must be
// called on shutdown. It is always non-nil and safe to call even if the
// store failed to open.
func New(opts Options) (*server.MCPServer, func(), error) {
	logger := logging.New("server")

	// --- Create shared dependencies ---

	bundle, err := config.LoadDir(opts.ConfigDir)
	if err != nil {
		return nil, noop, fmt.Errorf("loading configuration: %w", err)
	}
	holder, err := config.NewHolder(bundle)
	if err != nil {
		return nil, noop, fmt.Errorf("loading configuration: %w", err)
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}
	writer := report.NewWriter(renderer)
	analyzer := pipeline.NewAnalyzer(holder)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"specgap",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register analysis tools ---

	parseTool := tools.NewParseTool(analyzer, writer)
	s.AddTool(parseTool.Definition(), parseTool.Handle)

	extractTool := tools.NewExtractTool(analyzer, writer)
	s.AddTool(extractTool.Definition(), extractTool.Handle)

	riskTool := tools.NewAssessRiskTool(analyzer, writer)
	s.AddTool(riskTool.Definition(), riskTool.Handle)

	recommendTool := tools.NewRecommendTool(analyzer, writer)
	s.AddTool(recommendTool.Definition(), recommendTool.Handle)

	analyzeTool := tools.NewAnalyzeTool(analyzer, writer)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	// --- Register decision tools ---
	//
	// The decision log is an independent subsystem: if it fails to open,
	// the analysis tools keep working without decisions attached.

	cleanup := noop
	store, storeErr := openDecisions(opts.Decisions)
	if storeErr != nil {
		logger.Warn("decision log disabled", "error", storeErr)
	} else {
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("decision store close", "error", err)
			}
		}
		recommendTool.SetDecisionLog(store)
		analyzeTool.SetDecisionLog(store)

		decideTool := tools.NewDecideTool(store)
		s.AddTool(decideTool.Definition(), decideTool.Handle)

		decisionsTool := tools.NewDecisionsTool(store, analyzer, writer)
		s.AddTool(decisionsTool.Definition(), decisionsTool.Handle)
	}

	// --- Register prompts ---

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(holder)
	s.AddResource(resourceHandler.RulesResource(), resourceHandler.HandleRules)
	s.AddResource(resourceHandler.KnowledgeResource(), resourceHandler.HandleKnowledge)
	s.AddResource(resourceHandler.PlanningResource(), resourceHandler.HandlePlanning)

	logger.Info("server ready", "version", Version, "decisions", storeErr == nil)
	return s, cleanup, nil
}

// noop is the default cleanup when the decision store is not open.
func noop() {}

// serverInstructions tells the AI how to use the gap analyser.
func serverInstructions() string {
	return `You have access to specgap, a requirements gap analyser.

## WHEN TO USE specgap

Suggest it when the user:
- Shares a specification, user story or requirements document
- Is about to start design or implementation from written requirements
- Asks "what is missing from this spec?" or "is this ready to build?"

## WORKFLOW

1. gap_analyze on the document (pass 'path' for files in the project, or 'document' for text).
   It returns an executive summary, undefined elements, risks and a remediation plan.
2. Walk the top risks with the user, highest first. Ask the element's clarification questions.
3. Record each outcome with gap_decide: resolve, accept, defer or need_more_info.
   Decisions are append-only; a later decision supersedes an earlier one.
4. gap_decisions with view='report' lists the latest decision per element and
   flags deferred high or critical risks when given the document.

The single-stage tools (gap_parse, gap_extract, gap_assess_risk, gap_recommend)
show intermediate results. Pass 'project' (YAML or JSON: current_phase,
criticality, team, constraints.budget_hours) so urgency and phase advice fit
the project; otherwise .specgap/project.yaml is used.

The configuration tables behind every finding are readable as resources:
specgap://config/rules, specgap://config/knowledge and specgap://config/planning.`
}
