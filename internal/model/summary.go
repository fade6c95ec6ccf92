package model

import "time"

// Assessment is the one-word verdict of an executive summary.
type Assessment string

const (
	AssessmentGood             Assessment = "good"
	AssessmentNeedsImprovement Assessment = "needs_improvement"
	AssessmentInsufficient     Assessment = "insufficient"
)

// AssessmentFor buckets overall completeness. Lower bounds are inclusive.
func AssessmentFor(completeness float64) Assessment {
	switch {
	case completeness >= 0.7:
		return AssessmentGood
	case completeness >= 0.5:
		return AssessmentNeedsImprovement
	default:
		return AssessmentInsufficient
	}
}

// TopRisk is one line of the executive summary's risk list.
type TopRisk struct {
	RiskID    string    `json:"risk_id"`
	ElementID string    `json:"element_id"`
	Title     string    `json:"title"`
	Level     RiskLevel `json:"risk_level"`
	Score     float64   `json:"total_score"`
	Action    string    `json:"action,omitempty"`
	Urgency   Urgency   `json:"urgency,omitempty"`
}

// ExecutiveSummary condenses one full analysis run.
type ExecutiveSummary struct {
	OverallAssessment Assessment `json:"overall_assessment"`
	Completeness      float64    `json:"completeness"`
	Ambiguity         float64    `json:"ambiguity"`
	Requirements      int        `json:"requirements"`
	Elements          int        `json:"elements"`
	CriticalRisks     int        `json:"critical_risks"`
	HighRisks         int        `json:"high_risks"`
	Recommendations   int        `json:"recommendations"`
	EffortHours       float64    `json:"effort_hours"`
	KeyFindings       []string   `json:"key_findings,omitempty"`
	TopRisks          []TopRisk  `json:"top_risks,omitempty"`
}

// DeferredRisk is a deferral recorded against a high or critical risk.
type DeferredRisk struct {
	Decision Decision  `json:"decision"`
	RiskID   string    `json:"risk_id"`
	Title    string    `json:"title"`
	Level    RiskLevel `json:"risk_level"`
}

// DecisionReport is the latest decision per element, grouped by kind.
type DecisionReport struct {
	GeneratedAt      time.Time                   `json:"generated_at"`
	Records          int                         `json:"records"`
	Elements         int                         `json:"elements"`
	ByKind           map[DecisionKind][]Decision `json:"by_kind"`
	DeferredHighRisk []DeferredRisk              `json:"deferred_high_risk,omitempty"`
}
