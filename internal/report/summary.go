// Package report condenses analysis results for people: the executive
// summary, the decision report, and the json / markdown / text writers
// shared by the CLI and the MCP tools.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/templates"
	"github.com/HendryAvila/specgap/internal/textutil"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// TopRiskLimit is how many risks the executive summary lists.
const TopRiskLimit = 5

// Thresholds for key findings.
const (
	manyElements     = 10
	highAmbiguity    = 0.6
	findingRiskLimit = 3
)

// Summarize builds the executive summary of a run. Stages that did not
// run contribute nothing.
func Summarize(res *pipeline.Result) model.ExecutiveSummary {
	var s model.ExecutiveSummary
	if res == nil {
		s.OverallAssessment = model.AssessmentFor(0)
		return s
	}

	if res.Parsed != nil {
		s.Requirements = len(res.Parsed.Requirements)
		s.Completeness = res.Parsed.Statistics.AverageCompleteness
		s.Ambiguity = res.Parsed.Statistics.AverageAmbiguity
	}
	if res.Elements != nil {
		s.Elements = len(res.Elements.Elements)
		s.Completeness = res.Elements.Meta.OverallCompleteness
	}
	if res.Risks != nil {
		s.CriticalRisks = res.Risks.Statistics.ByLevel[model.RiskCritical]
		s.HighRisks = res.Risks.Statistics.ByLevel[model.RiskHigh]
	}
	if res.Plan != nil {
		s.Recommendations = len(res.Plan.Recommendations)
		s.EffortHours = res.Plan.Statistics.TotalEffortHours
	}
	s.Completeness = textutil.Round(s.Completeness, 2)
	s.Ambiguity = textutil.Round(s.Ambiguity, 2)
	s.OverallAssessment = model.AssessmentFor(s.Completeness)
	s.KeyFindings = findings(res, s)
	s.TopRisks = topRisks(res)
	return s
}

func findings(res *pipeline.Result, s model.ExecutiveSummary) []string {
	var out []string
	if s.Elements > manyElements {
		out = append(out, fmt.Sprintf("%d undefined elements: the specification needs a broad review before design", s.Elements))
	}
	if res.Risks != nil {
		var named []string
		for _, r := range res.Risks.Risks {
			if r.Level.Rank() < model.RiskHigh.Rank() {
				continue
			}
			if len(named) < findingRiskLimit {
				named = append(named, fmt.Sprintf("%q", r.Title))
			}
		}
		if n := s.CriticalRisks + s.HighRisks; n > 0 {
			out = append(out, fmt.Sprintf("%d high or critical risks, led by: %s", n, strings.Join(named, "; ")))
		}
	}
	if s.Ambiguity > highAmbiguity {
		out = append(out, fmt.Sprintf("average ambiguity %.2f: much of the wording cannot be tested as written", s.Ambiguity))
	}
	if res.Plan != nil {
		if n := res.Plan.Statistics.RollbackWarnings; n > 0 {
			out = append(out, fmt.Sprintf("%d recommendations belong to a phase the project has already left", n))
		}
		if n := res.Plan.Statistics.OverBudget; n > 0 {
			out = append(out, fmt.Sprintf("%d recommendations do not fit the remaining budget", n))
		}
	}
	return out
}

func topRisks(res *pipeline.Result) []model.TopRisk {
	if res.Risks == nil {
		return nil
	}
	recs := map[string]model.Recommendation{}
	if res.Plan != nil {
		for _, r := range res.Plan.Recommendations {
			recs[r.RiskID] = r
		}
	}

	var out []model.TopRisk
	for _, r := range res.Risks.Risks {
		if len(out) == TopRiskLimit {
			break
		}
		tr := model.TopRisk{
			RiskID:    r.ID,
			ElementID: r.ElementID,
			Title:     r.Title,
			Level:     r.Level,
			Score:     r.TotalScore,
		}
		if rec, ok := recs[r.ID]; ok {
			tr.Action = rec.Action.Title
			tr.Urgency = rec.Urgency
		}
		out = append(out, tr)
	}
	return out
}

// Analysis assembles the input of the analysis template.
func Analysis(title string, res *pipeline.Result) templates.AnalysisData {
	d := templates.AnalysisData{Title: title, Summary: Summarize(res)}
	if res != nil {
		d.Parsed = res.Parsed
		d.Elements = res.Elements
		d.Risks = res.Risks
		d.Plan = res.Plan
	}
	return d
}
