package resources

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/specgap/internal/config"
)

func newHandler(t *testing.T) (*Handler, *config.Holder) {
	t.Helper()
	b, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default() failed: %v", err)
	}
	h, err := config.NewHolder(b)
	if err != nil {
		t.Fatalf("NewHolder failed: %v", err)
	}
	return NewHandler(h), h
}

func read(t *testing.T, fn func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error), uri string) string {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	contents, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("read %s failed: %v", uri, err)
	}
	if len(contents) != 1 {
		t.Fatalf("read %s returned %d contents, want 1", uri, len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("read %s returned %T", uri, contents[0])
	}
	if tc.URI != uri || tc.MIMEType != mimeYAML {
		t.Errorf("contents = %s / %s", tc.URI, tc.MIMEType)
	}
	return tc.Text
}

// --- Definitions ---

func TestResourceDefinitions(t *testing.T) {
	h, _ := newHandler(t)
	for _, r := range []struct {
		res  mcp.Resource
		want string
	}{
		{h.RulesResource(), RulesURI},
		{h.KnowledgeResource(), KnowledgeURI},
		{h.PlanningResource(), PlanningURI},
	} {
		if r.res.URI != r.want || r.res.MIMEType != mimeYAML {
			t.Errorf("resource = %s (%s), want %s", r.res.URI, r.res.MIMEType, r.want)
		}
	}
}

// --- Handlers ---

func TestHandlers_ServeCurrentTables(t *testing.T) {
	h, _ := newHandler(t)
	tests := []struct {
		uri  string
		fn   func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)
		want []string
	}{
		{RulesURI, h.HandleRules, []string{"categories:", "NFR-PERF-01", "BEH-CONC-01"}},
		{KnowledgeURI, h.HandleKnowledge, []string{"base_scores:", "RP-CONCURRENCY"}},
		{PlanningURI, h.HandlePlanning, []string{"phase_rules:", "escalate_on_rollback: true"}},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			text := read(t, tt.fn, tt.uri)
			for _, w := range tt.want {
				if !strings.Contains(text, w) {
					t.Errorf("%s missing %q", tt.uri, w)
				}
			}
		})
	}
}

func TestHandleRules_IsALoadableOverride(t *testing.T) {
	h, holder := newHandler(t)
	dir := t.TempDir()
	text := read(t, h.HandleRules, RulesURI)
	if err := os.WriteFile(filepath.Join(dir, config.RulesFile), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := config.LoadDir(dir)
	if err != nil {
		t.Fatalf("served rules do not load back: %v", err)
	}
	if got, want := len(b.Rules.Rules), len(holder.Load().Rules.Rules); got != want {
		t.Errorf("reloaded %d rules, want %d", got, want)
	}
}

func TestHandlers_FollowReload(t *testing.T) {
	h, holder := newHandler(t)
	b, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	b.Knowledge.SimilarIncidentLimit = 7
	if err := holder.Swap(b); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if text := read(t, h.HandleKnowledge, KnowledgeURI); !strings.Contains(text, "similar_incident_limit: 7") {
		t.Error("knowledge resource does not reflect the swapped bundle")
	}
}
