// Package remediation turns ranked risks into a prioritised remediation
// plan: the phase each gap should be closed in, how urgent it is, a
// concrete action plan staffed from the project roster, and the
// alternatives to resolving it now.
package remediation

import (
	"fmt"
	"sort"
	"time"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/templates"
	"github.com/HendryAvila/specgap/internal/textutil"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// Priority weights.
const (
	weightRisk    = 0.5
	weightUrgency = 0.3
	weightEffort  = 0.2
)

// Options tune one Generate call.
type Options struct {
	// Decisions is a latest-per-element snapshot, usually from
	// model.LatestByElement. Matching recommendations carry the decision.
	Decisions map[string]model.Decision
	// BudgetHours overrides the project's budget when positive.
	BudgetHours float64
}

// Planner builds remediation plans for one project.
type Planner struct {
	table   config.PlanningTable
	project model.ProjectStatus
}

// New builds a Planner.
func New(table config.PlanningTable, project model.ProjectStatus) (*Planner, error) {
	if err := project.Validate(); err != nil {
		return nil, &model.ConfigurationError{Source: "project status", Reason: "invalid project", Err: err}
	}
	return &Planner{table: table, project: project}, nil
}

// Generate plans every risk. Recommendations are built in discovery order
// and then sorted by priority score, highest first, keeping discovery
// order on ties.
func (p *Planner) Generate(risks *model.RiskAnalysisResult, opts Options) (*model.RemediationPlan, error) {
	if risks == nil {
		return nil, model.InvalidInput("risk analysis is nil")
	}
	ordered := append([]model.Risk(nil), risks.Risks...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	recs := make([]model.Recommendation, 0, len(ordered))
	for i := range ordered {
		rec, err := p.recommend(&ordered[i], i+1)
		if err != nil {
			return nil, err
		}
		if d, ok := opts.Decisions[rec.ElementID]; ok {
			rec.Decision = &d
		}
		recs = append(recs, rec)
	}
	// Rank on the unrounded score; rounding is for output only.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].PriorityScore > recs[j].PriorityScore
	})

	budget := p.project.Constraints.BudgetHours
	if opts.BudgetHours > 0 {
		budget = opts.BudgetHours
	}
	cumulative := 0.0
	for i := range recs {
		recs[i].Priority = i + 1
		recs[i].PriorityScore = textutil.Round(recs[i].PriorityScore, 2)
		cumulative += recs[i].Action.EffortHours
		recs[i].OverBudget = budget > 0 && cumulative > budget
	}

	return &model.RemediationPlan{
		Stamp:           model.Stamp{DocumentID: risks.DocumentID, GeneratedAt: timeNow().UTC()},
		Project:         p.project,
		Recommendations: recs,
		Statistics:      statistics(recs),
	}, nil
}

// Phase returns the phase a gap of this kind and level belongs to: the
// first matching row of the phase table.
func (p *Planner) Phase(category, subcategory string, level model.RiskLevel) (model.Phase, error) {
	for _, r := range p.table.PhaseRules {
		if r.Matches(category, subcategory, level) {
			return r.Phase, nil
		}
	}
	return "", model.ConfigError("planning table", "no phase rule matches %s/%s at level %s", category, subcategory, level)
}

func (p *Planner) recommend(r *model.Risk, seq int) (model.Recommendation, error) {
	phase, err := p.Phase(r.Category, r.Subcategory, r.Level)
	if err != nil {
		return model.Recommendation{}, err
	}
	urgency, ok := p.table.Urgency[r.Level]
	if !ok {
		return model.Recommendation{}, model.ConfigError("planning table", "no urgency for risk level %q", r.Level)
	}

	cur := p.project.CurrentPhase
	gap := model.PhaseIndex(phase) - model.PhaseIndex(cur)
	var warnings []string
	if gap < 0 {
		warnings = append(warnings, fmt.Sprintf(
			"rollback: this gap belongs to %s, %d phase(s) before the current %s phase", phase, -gap, cur))
		if p.table.EscalateOnRollback {
			urgency = urgency.Escalate()
		}
	}

	vars := make(map[string]string, len(r.Terms)+3)
	for k, v := range r.Terms {
		vars[k] = v
	}
	vars["risk_level"] = string(r.Level)
	vars["current_phase"] = string(cur)
	vars["recommended_phase"] = string(phase)

	action, err := p.action(r.Category, phase, vars)
	if err != nil {
		return model.Recommendation{}, err
	}

	effortScore := 10 / (action.EffortHours + 1)
	score := weightRisk*p.table.RiskScores[r.Level] +
		weightUrgency*p.table.UrgencyScores[urgency] +
		weightEffort*effortScore

	return model.Recommendation{
		ID:               model.SeqID("REC", seq),
		RiskID:           r.ID,
		ElementID:        r.ElementID,
		PriorityScore:    score,
		Urgency:          urgency,
		RiskLevel:        r.Level,
		RecommendedPhase: phase,
		CurrentPhase:     cur,
		PhaseGap:         gap,
		Warnings:         warnings,
		Action:           action,
		Alternatives:     p.alternatives(r.Level, vars),
	}, nil
}

// action expands the template for (category, phase) and staffs its steps.
func (p *Planner) action(category string, phase model.Phase, vars map[string]string) (model.ActionPlan, error) {
	tpl, ok := p.table.Template(category, phase)
	if !ok {
		return model.ActionPlan{}, model.ConfigError("planning table", "no action template for %s in %s", category, phase)
	}
	plan := model.ActionPlan{
		Title:              templates.Substitute(tpl.Title, vars),
		Steps:              make([]model.Step, len(tpl.Steps)),
		Deliverables:       substituteAll(tpl.Deliverables, vars),
		AcceptanceCriteria: substituteAll(tpl.AcceptanceCriteria, vars),
	}
	for i, s := range tpl.Steps {
		plan.Steps[i] = model.Step{
			Order:       i + 1,
			Description: templates.Substitute(s.Description, vars),
			Role:        s.Role,
			Assignee:    p.assignee(s.Role),
			Hours:       s.Hours,
		}
		plan.EffortHours += s.Hours
	}
	return plan, nil
}

// assignee returns the first roster member with the role, or "".
func (p *Planner) assignee(role string) string {
	for _, m := range p.project.Team {
		if m.Role == role {
			return m.Name
		}
	}
	return ""
}

func (p *Planner) alternatives(level model.RiskLevel, vars map[string]string) []model.Alternative {
	out := make([]model.Alternative, 0, len(p.table.Alternatives))
	for _, a := range p.table.Alternatives {
		out = append(out, model.Alternative{
			Kind:         a.Kind,
			Title:        templates.Substitute(a.Title, vars),
			ResidualRisk: level.Shift(a.ResidualShift),
			Conditions:   templates.Substitute(a.Conditions, vars),
		})
	}
	return out
}

func substituteAll(in []string, vars map[string]string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = templates.Substitute(s, vars)
	}
	return out
}

func statistics(recs []model.Recommendation) model.PlanStatistics {
	st := model.PlanStatistics{
		Total:     len(recs),
		ByPhase:   map[model.Phase]int{},
		ByUrgency: map[model.Urgency]int{},
	}
	for _, r := range recs {
		st.ByPhase[r.RecommendedPhase]++
		st.ByUrgency[r.Urgency]++
		st.TotalEffortHours += r.Action.EffortHours
		if r.PhaseGap < 0 {
			st.RollbackWarnings++
		}
		if r.OverBudget {
			st.OverBudget++
		}
	}
	st.TotalEffortHours = textutil.Round(st.TotalEffortHours, 2)
	return st
}
