package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/templates"
)

// Format is an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", model.InvalidInput("output format %q: must be one of: json, markdown, text", s)
	}
}

// Writer writes stage outputs, summaries and decision records in any
// Format. Markdown goes through the Renderer; text is tabular.
type Writer struct {
	renderer templates.Renderer
}

// NewWriter returns a Writer rendering markdown with r.
func NewWriter(r templates.Renderer) *Writer {
	return &Writer{renderer: r}
}

// Write encodes v to out.
func (w *Writer) Write(out io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatMarkdown:
		s, err := w.Markdown(v)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, s)
		return err
	case FormatText:
		return writeText(out, v)
	default:
		return model.InvalidInput("output format %q: must be one of: json, markdown, text", f)
	}
}

// ─── Markdown ────────────────────────────────────────────────────────────────

// Markdown renders v with the template for its type.
func (w *Writer) Markdown(v any) (string, error) {
	switch x := v.(type) {
	case *model.ParsedRequirement:
		return w.renderer.Render(templates.Parse, x)
	case *model.UndefinedElements:
		return w.renderer.Render(templates.Elements, x)
	case *model.RiskAnalysisResult:
		return w.renderer.Render(templates.Risks, x)
	case *model.RemediationPlan:
		return w.renderer.Render(templates.Plan, x)
	case templates.AnalysisData:
		return w.renderer.Render(templates.Analysis, x)
	case model.ExecutiveSummary:
		return w.renderer.Render(templates.Analysis, templates.AnalysisData{Summary: x})
	case model.DecisionReport:
		return w.renderer.Render(templates.Decisions, x)
	case []model.Decision:
		return decisionHistoryMarkdown(x), nil
	case *pipeline.Batch:
		return w.batchMarkdown(x)
	default:
		return "", fmt.Errorf("report: no markdown rendering for %T", v)
	}
}

func (w *Writer) batchMarkdown(b *pipeline.Batch) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Batch %s\n\n%d documents, %d failed\n", b.RunID, len(b.Results), b.Failed)
	for _, jr := range b.Results {
		sb.WriteString("\n---\n\n")
		if jr.Err != nil || jr.Result == nil {
			fmt.Fprintf(&sb, "# %s\n\nFailed: %s\n", jr.Name, jr.Error)
			continue
		}
		s, err := w.renderer.Render(templates.Analysis, Analysis(jr.Name, jr.Result))
		if err != nil {
			return "", fmt.Errorf("job %s: %w", jr.Name, err)
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func decisionHistoryMarkdown(history []model.Decision) string {
	var sb strings.Builder
	sb.WriteString("# Decision history\n\n")
	if len(history) == 0 {
		sb.WriteString("No decisions recorded.\n")
		return sb.String()
	}
	sb.WriteString("| ID | Element | Kind | Actor | Reason | When |\n")
	sb.WriteString("|----|---------|------|-------|--------|------|\n")
	for _, d := range history {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s |\n",
			d.ID, d.ElementID, d.Kind, mdCell(d.Actor), mdCell(d.Reason), d.Timestamp.UTC().Format(time.RFC3339))
	}
	return sb.String()
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// ─── Text ────────────────────────────────────────────────────────────────────

func writeText(out io.Writer, v any) error {
	switch x := v.(type) {
	case *model.ParsedRequirement:
		fmt.Fprintf(out, "Document %s: %d sentences, %d requirements, completeness %.2f, ambiguity %.2f\n\n",
			x.DocumentID, x.Statistics.Sentences, x.Statistics.Requirements,
			x.Statistics.AverageCompleteness, x.Statistics.AverageAmbiguity)
		rows := make([][]string, 0, len(x.Requirements))
		for _, r := range x.Requirements {
			rows = append(rows, []string{r.ID, string(r.Type), score(r.CompletenessScore), score(r.AmbiguityScore), strings.Join(r.MissingElements, ",")})
		}
		return table(out, []string{"ID", "Type", "Completeness", "Ambiguity", "Missing"}, rows)

	case *model.UndefinedElements:
		fmt.Fprintf(out, "%d elements retained of %d candidates, completeness %.2f\n\n",
			x.Statistics.Retained, x.Statistics.Candidates, x.Meta.OverallCompleteness)
		rows := make([][]string, 0, len(x.Elements))
		for _, e := range x.Elements {
			rows = append(rows, []string{e.ID, e.Key(), string(e.Severity), score(e.Detection.Confidence), truncate(e.Title, 60)})
		}
		return table(out, []string{"ID", "Category", "Severity", "Confidence", "Title"}, rows)

	case *model.RiskAnalysisResult:
		fmt.Fprintf(out, "%d risks, average %.2f, max %.2f\n\n",
			x.Statistics.Total, x.Statistics.AverageScore, x.Statistics.MaxScore)
		rows := make([][]string, 0, len(x.Risks))
		for _, r := range x.Risks {
			rows = append(rows, []string{r.ID, r.ElementID, string(r.Level), score(r.TotalScore), truncate(r.Title, 60)})
		}
		return table(out, []string{"ID", "Element", "Level", "Score", "Title"}, rows)

	case *model.RemediationPlan:
		fmt.Fprintf(out, "%d recommendations, %gh effort, phase %s\n\n",
			x.Statistics.Total, x.Statistics.TotalEffortHours, x.Project.CurrentPhase)
		return planTable(out, x.Recommendations)

	case templates.AnalysisData:
		if err := summaryText(out, x.Summary); err != nil {
			return err
		}
		if x.Plan != nil && len(x.Plan.Recommendations) > 0 {
			fmt.Fprintln(out)
			return planTable(out, x.Plan.Recommendations)
		}
		return nil

	case model.ExecutiveSummary:
		return summaryText(out, x)

	case model.DecisionReport:
		fmt.Fprintf(out, "%d records over %d elements\n\n", x.Records, x.Elements)
		var rows [][]string
		for _, k := range []model.DecisionKind{model.DecisionResolve, model.DecisionAccept, model.DecisionDefer, model.DecisionNeedMoreInfo} {
			for _, d := range x.ByKind[k] {
				rows = append(rows, []string{string(k), d.ElementID, d.Actor, truncate(d.Reason, 50)})
			}
		}
		if err := table(out, []string{"Kind", "Element", "Actor", "Reason"}, rows); err != nil {
			return err
		}
		for _, dr := range x.DeferredHighRisk {
			fmt.Fprintf(out, "deferred %s risk: %s (%s) %s\n", dr.Level, dr.Decision.ElementID, dr.RiskID, dr.Title)
		}
		return nil

	case []model.Decision:
		rows := make([][]string, 0, len(x))
		for _, d := range x {
			rows = append(rows, []string{fmt.Sprint(d.ID), d.ElementID, string(d.Kind), d.Actor, d.Timestamp.UTC().Format(time.RFC3339), truncate(d.Reason, 50)})
		}
		return table(out, []string{"ID", "Element", "Kind", "Actor", "When", "Reason"}, rows)

	case *pipeline.Batch:
		fmt.Fprintf(out, "Run %s: %d documents, %d failed\n\n", x.RunID, len(x.Results), x.Failed)
		rows := make([][]string, 0, len(x.Results))
		for _, jr := range x.Results {
			if jr.Err != nil || jr.Result == nil {
				rows = append(rows, []string{jr.Name, "failed", "-", "-", "-", truncate(jr.Error, 60)})
				continue
			}
			s := Summarize(jr.Result)
			rows = append(rows, []string{jr.Name, string(s.OverallAssessment), fmt.Sprint(s.Elements),
				fmt.Sprint(s.CriticalRisks), fmt.Sprintf("%gh", s.EffortHours), ""})
		}
		return table(out, []string{"Document", "Assessment", "Elements", "Critical", "Effort", "Error"}, rows)

	default:
		return fmt.Errorf("report: no text rendering for %T", v)
	}
}

func summaryText(out io.Writer, s model.ExecutiveSummary) error {
	fmt.Fprintf(out, "Assessment: %s (completeness %.2f, ambiguity %.2f)\n", s.OverallAssessment, s.Completeness, s.Ambiguity)
	fmt.Fprintf(out, "Requirements: %d  Elements: %d  Critical: %d  High: %d  Effort: %gh\n",
		s.Requirements, s.Elements, s.CriticalRisks, s.HighRisks, s.EffortHours)
	for _, f := range s.KeyFindings {
		fmt.Fprintf(out, "  - %s\n", f)
	}
	if len(s.TopRisks) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	rows := make([][]string, 0, len(s.TopRisks))
	for _, r := range s.TopRisks {
		rows = append(rows, []string{r.RiskID, r.ElementID, string(r.Level), score(r.Score), truncate(r.Title, 50)})
	}
	return table(out, []string{"Risk", "Element", "Level", "Score", "Title"}, rows)
}

func planTable(out io.Writer, recs []model.Recommendation) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		effort := fmt.Sprintf("%gh", r.Action.EffortHours)
		if r.OverBudget {
			effort += "*"
		}
		rows = append(rows, []string{fmt.Sprint(r.Priority), r.ID, r.RiskID, string(r.Urgency),
			string(r.RecommendedPhase), effort, truncate(r.Action.Title, 50)})
	}
	return table(out, []string{"#", "ID", "Risk", "Urgency", "Phase", "Effort", "Action"}, rows)
}

// table writes an aligned table with a dashed rule under the header.
func table(out io.Writer, header []string, rows [][]string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	rule := make([]string, len(header))
	for i, h := range header {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	fmt.Fprintln(w, strings.Join(rule, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	return w.Flush()
}

func score(v float64) string { return fmt.Sprintf("%.2f", v) }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
