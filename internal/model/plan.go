package model

import "time"

// Member is one person on the project team.
type Member struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

// ProjectConstraints are budget and deadline qualifiers.
type ProjectConstraints struct {
	BudgetHours float64 `json:"budget_hours,omitempty" yaml:"budget_hours,omitempty"`
	Deadline    string  `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}

// ProjectStatus is the project context given to the risk evaluator and
// the remediation planner.
type ProjectStatus struct {
	Name         string             `json:"name,omitempty" yaml:"name,omitempty"`
	CurrentPhase Phase              `json:"current_phase" yaml:"current_phase"`
	Criticality  Criticality        `json:"criticality" yaml:"criticality"`
	Team         []Member           `json:"team,omitempty" yaml:"team,omitempty"`
	Constraints  ProjectConstraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// DefaultProjectStatus is used when no project file is given.
func DefaultProjectStatus() ProjectStatus {
	return ProjectStatus{
		CurrentPhase: PhaseRequirementDefinition,
		Criticality:  CriticalityMedium,
	}
}

// Validate checks the phase and criticality.
func (p ProjectStatus) Validate() error {
	if err := ValidatePhase(p.CurrentPhase); err != nil {
		return err
	}
	return ValidateCriticality(p.Criticality)
}

// Step is one ordered unit of remediation work.
type Step struct {
	Order       int     `json:"order"`
	Description string  `json:"description"`
	Role        string  `json:"role"`
	Assignee    string  `json:"assignee,omitempty"`
	Hours       float64 `json:"hours"`
}

// ActionPlan is the expanded action template for a recommendation.
type ActionPlan struct {
	Title              string   `json:"title"`
	Steps              []Step   `json:"steps"`
	Deliverables       []string `json:"deliverables"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	EffortHours        float64  `json:"effort_hours"`
}

// Alternative is an option other than resolving the gap now.
type Alternative struct {
	Kind         AlternativeKind `json:"kind"`
	Title        string          `json:"title"`
	ResidualRisk RiskLevel       `json:"residual_risk"`
	Conditions   string          `json:"conditions"`
}

// Recommendation is what to do about one risk, and when.
type Recommendation struct {
	ID               string        `json:"id"`
	RiskID           string        `json:"risk_id"`
	ElementID        string        `json:"element_id"`
	Priority         int           `json:"priority"`
	PriorityScore    float64       `json:"priority_score"`
	Urgency          Urgency       `json:"urgency"`
	RiskLevel        RiskLevel     `json:"risk_level"`
	RecommendedPhase Phase         `json:"recommended_phase"`
	CurrentPhase     Phase         `json:"current_phase"`
	PhaseGap         int           `json:"phase_gap"`
	Warnings         []string      `json:"warnings,omitempty"`
	Action           ActionPlan    `json:"action"`
	Alternatives     []Alternative `json:"alternatives"`
	OverBudget       bool          `json:"over_budget,omitempty"`
	Decision         *Decision     `json:"decision,omitempty"`
}

// PlanStatistics summarises a remediation plan.
type PlanStatistics struct {
	Total            int             `json:"total"`
	ByPhase          map[Phase]int   `json:"by_phase"`
	ByUrgency        map[Urgency]int `json:"by_urgency"`
	TotalEffortHours float64         `json:"total_effort_hours"`
	RollbackWarnings int             `json:"rollback_warnings"`
	OverBudget       int             `json:"over_budget"`
}

// RemediationPlan is the output of the planner, sorted by priority.
type RemediationPlan struct {
	Stamp
	Project         ProjectStatus    `json:"project"`
	Recommendations []Recommendation `json:"recommendations"`
	Statistics      PlanStatistics   `json:"statistics"`
}

// --- Decisions ---

// DecisionKind is how a stakeholder disposed of an element.
type DecisionKind string

const (
	DecisionResolve      DecisionKind = "resolve"
	DecisionAccept       DecisionKind = "accept"
	DecisionDefer        DecisionKind = "defer"
	DecisionNeedMoreInfo DecisionKind = "need_more_info"
)

var validDecisionKinds = map[DecisionKind]bool{
	DecisionResolve:      true,
	DecisionAccept:       true,
	DecisionDefer:        true,
	DecisionNeedMoreInfo: true,
}

// ValidateDecisionKind returns an error if the kind is not recognized.
func ValidateDecisionKind(k DecisionKind) error {
	if !validDecisionKinds[k] {
		return InvalidInput("decision kind %q: must be one of: resolve, accept, defer, need_more_info", k)
	}
	return nil
}

// Decision is one append-only record about an element. For any element
// the record with the latest timestamp is authoritative.
type Decision struct {
	ID        int64        `json:"id"`
	ElementID string       `json:"element_id"`
	Kind      DecisionKind `json:"kind"`
	Reason    string       `json:"reason,omitempty"`
	Actor     string       `json:"actor,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// LatestByElement folds a decision history into the authoritative record
// per element. Equal timestamps resolve to the later record in the slice.
func LatestByElement(history []Decision) map[string]Decision {
	latest := make(map[string]Decision, len(history))
	for _, d := range history {
		cur, ok := latest[d.ElementID]
		if !ok || !d.Timestamp.Before(cur.Timestamp) {
			latest[d.ElementID] = d
		}
	}
	return latest
}
