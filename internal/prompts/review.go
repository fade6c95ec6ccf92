// Package prompts implements the MCP prompts of the gap analyser.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the gap-review MCP prompt.
// It walks the user through the gaps of one specification and records
// a decision for each one they settle.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("gap-review",
		mcp.WithPromptDescription(
			"Review a specification for undefined elements, highest risk first, "+
				"and record a decision for each gap you settle.",
		),
		mcp.WithArgument("path",
			mcp.ArgumentDescription("Specification file, relative to the project root"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("actor",
			mcp.ArgumentDescription("Your name, recorded with each decision"),
		),
	)
}

// Handle processes the gap-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	path := strings.TrimSpace(args["path"])
	if path == "" {
		return nil, fmt.Errorf("argument 'path' is required")
	}
	actor := strings.TrimSpace(args["actor"])

	recordAs := ""
	if actor != "" {
		recordAs = fmt.Sprintf(" with actor='%s'", actor)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Gap review: %s", path),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please review the specification at `%s` for gaps.\n\n"+
						"1. Run `gap_analyze` with path='%s' and show me the executive summary\n"+
						"2. Take the top risks one at a time, highest first. For each, show the element, "+
						"the failure scenario and the clarification questions\n"+
						"3. Ask me how to dispose of it: resolve, accept, defer or need_more_info, and why\n"+
						"4. Record my answer with `gap_decide`%s\n"+
						"5. When we are done, run `gap_decisions` with view='report' and path='%s' "+
						"and point out any high or critical risk I deferred",
					path, path, recordAs, path,
				)),
			},
		},
	}, nil
}
