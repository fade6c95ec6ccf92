package model

// DimensionScore is one axis of a risk assessment.
type DimensionScore struct {
	Score float64   `json:"score"`
	Level RiskLevel `json:"level"`
}

// RiskAssessment holds the four scored axes. Detectability grows as a
// gap becomes harder to notice before release.
type RiskAssessment struct {
	Probability     DimensionScore `json:"probability"`
	Impact          DimensionScore `json:"impact"`
	Detectability   DimensionScore `json:"detectability"`
	RemediationCost DimensionScore `json:"remediation_cost"`
}

// Dimension weights for the total score.
const (
	WeightProbability     = 0.3
	WeightImpact          = 0.4
	WeightDetectability   = 0.2
	WeightRemediationCost = 0.1
)

// IncidentRef points at a historical incident similar to a risk.
type IncidentRef struct {
	ID        string `json:"id"`
	PatternID string `json:"pattern_id"`
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
}

// Risk is the scored consequence of one undefined element.
type Risk struct {
	ID               string            `json:"id"`
	ElementID        string            `json:"element_id"`
	Sequence         int               `json:"sequence"`
	Category         string            `json:"category"`
	Subcategory      string            `json:"subcategory"`
	Title            string            `json:"title"`
	Terms            map[string]string `json:"terms,omitempty"`
	Scenario         string            `json:"scenario"`
	Consequences     []string          `json:"consequences,omitempty"`
	Assessment       RiskAssessment    `json:"assessment"`
	TotalScore       float64           `json:"total_score"`
	Level            RiskLevel         `json:"risk_level"`
	MatchedPatterns  []string          `json:"matched_patterns,omitempty"`
	SimilarIncidents []IncidentRef     `json:"similar_incidents,omitempty"`
}

// RiskStatistics summarises a risk analysis.
type RiskStatistics struct {
	Total        int               `json:"total"`
	ByLevel      map[RiskLevel]int `json:"by_level"`
	AverageScore float64           `json:"average_score"`
	MaxScore     float64           `json:"max_score"`
}

// RiskAnalysisResult is the output of the risk evaluator. Risks are
// ranked by total score, highest first.
type RiskAnalysisResult struct {
	Stamp
	Risks      []Risk         `json:"risks"`
	Statistics RiskStatistics `json:"statistics"`
}

// Risk returns the risk with the given id.
func (r *RiskAnalysisResult) Risk(id string) (Risk, bool) {
	for _, rk := range r.Risks {
		if rk.ID == id {
			return rk, true
		}
	}
	return Risk{}, false
}
