// Package resources implements the MCP resources of the gap analyser.
//
// Resources expose the configuration tables the current runs use, so the
// host can explain a finding by the rule, pattern or planning entry that
// produced it. They use URI-based addressing (specgap://...).
package resources

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/specgap/internal/config"
)

// Resource URIs.
const (
	RulesURI     = "specgap://config/rules"
	KnowledgeURI = "specgap://config/knowledge"
	PlanningURI  = "specgap://config/planning"
)

const mimeYAML = "application/yaml"

// Handler serves the configuration tables of the current Bundle.
type Handler struct {
	holder *config.Holder
}

// NewHandler creates a resource Handler reading from holder.
func NewHandler(holder *config.Holder) *Handler {
	return &Handler{holder: holder}
}

// RulesResource returns the MCP resource definition for the detection rules.
func (h *Handler) RulesResource() mcp.Resource {
	return mcp.NewResource(RulesURI,
		"Detection rules",
		mcp.WithResourceDescription("Categories, subcategories and rules used to find undefined elements"),
		mcp.WithMIMEType(mimeYAML),
	)
}

// KnowledgeResource returns the MCP resource definition for the risk
// knowledge base.
func (h *Handler) KnowledgeResource() mcp.Resource {
	return mcp.NewResource(KnowledgeURI,
		"Risk knowledge base",
		mcp.WithResourceDescription("Base scores, risk patterns and past incidents used to score risks"),
		mcp.WithMIMEType(mimeYAML),
	)
}

// PlanningResource returns the MCP resource definition for the planning
// table.
func (h *Handler) PlanningResource() mcp.Resource {
	return mcp.NewResource(PlanningURI,
		"Planning table",
		mcp.WithResourceDescription("Phase rules, action templates, alternatives and urgency used to plan remediation"),
		mcp.WithMIMEType(mimeYAML),
	)
}

// HandleRules returns the detection rule table as YAML.
func (h *Handler) HandleRules(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return yamlResource(req.Params.URI, h.holder.Load().Rules)
}

// HandleKnowledge returns the risk knowledge base as YAML.
func (h *Handler) HandleKnowledge(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return yamlResource(req.Params.URI, h.holder.Load().Knowledge)
}

// HandlePlanning returns the planning table as YAML.
func (h *Handler) HandlePlanning(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return yamlResource(req.Params.URI, h.holder.Load().Planning)
}

func yamlResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeYAML,
			Text:     string(data),
		},
	}, nil
}
