// Package risk scores undefined elements against a knowledge base of
// failure patterns and historical incidents.
//
// Each element gets four dimension scores in [1,5]: a per-category base
// score, scaled by the mean multiplier of every matching pattern and by
// the project's criticality. The weighted total maps onto a risk level
// with the same step function as the dimensions.
package risk

import (
	"context"
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

// Evaluator turns undefined elements into ranked risks. It is safe for
// concurrent use as long as its IncidentSource is.
type Evaluator struct {
	kb          config.KnowledgeBase
	project     model.ProjectStatus
	criticality float64
	incidents   IncidentSource
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithIncidentSource replaces the knowledge base's own incident list.
func WithIncidentSource(src IncidentSource) Option {
	return func(e *Evaluator) { e.incidents = src }
}

// New builds an Evaluator for one project.
func New(kb config.KnowledgeBase, project model.ProjectStatus, opts ...Option) (*Evaluator, error) {
	if err := project.Validate(); err != nil {
		return nil, &model.ConfigurationError{Source: "project status", Reason: "invalid project", Err: err}
	}
	mult, ok := kb.CriticalityMultipliers[project.Criticality]
	if !ok || mult <= 0 {
		return nil, model.ConfigError("knowledge base", "no criticality multiplier for %q", project.Criticality)
	}
	e := &Evaluator{
		kb:          kb,
		project:     project,
		criticality: mult,
		incidents:   StaticIncidents(kb.Incidents),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Analyze scores every element and ranks the risks by total score,
// highest first. Risk ids follow element order, so a risk keeps its id
// when scores shift.
func (e *Evaluator) Analyze(ctx context.Context, elements *model.UndefinedElements) (*model.RiskAnalysisResult, error) {
	if elements == nil {
		return nil, model.InvalidInput("undefined elements are nil")
	}
	risks := make([]model.Risk, 0, len(elements.Elements))
	for i := range elements.Elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := e.evaluate(ctx, &elements.Elements[i], i+1)
		if err != nil {
			return nil, err
		}
		risks = append(risks, r)
	}
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].TotalScore > risks[j].TotalScore
	})
	return &model.RiskAnalysisResult{
		Stamp:      model.Stamp{DocumentID: elements.DocumentID, GeneratedAt: timeNow().UTC()},
		Risks:      risks,
		Statistics: statistics(risks),
	}, nil
}

func (e *Evaluator) evaluate(ctx context.Context, el *model.UndefinedElement, seq int) (model.Risk, error) {
	base, ok := e.kb.BaseScores[el.Category]
	if !ok {
		return model.Risk{}, model.ConfigError("knowledge base", "no base scores for category %q (element %s)", el.Category, el.ID)
	}
	matched := e.matches(el)

	pick := func(m config.Multipliers) [4]float64 {
		return [4]float64{m.Probability, m.Impact, m.Detectability, m.RemediationCost}
	}
	bases := pick(config.Multipliers(base))
	var dims [4]model.DimensionScore
	for d := range dims {
		var ms []float64
		for _, m := range matched {
			ms = append(ms, pick(m.pattern.Multipliers)[d])
		}
		dims[d] = e.dimension(bases[d], ms)
	}
	assessment := model.RiskAssessment{
		Probability:     dims[0],
		Impact:          dims[1],
		Detectability:   dims[2],
		RemediationCost: dims[3],
	}
	total := textutil.Round(
		model.WeightProbability*dims[0].Score+
			model.WeightImpact*dims[1].Score+
			model.WeightDetectability*dims[2].Score+
			model.WeightRemediationCost*dims[3].Score, 2)

	r := model.Risk{
		ID:           model.SeqID("R", seq),
		ElementID:    el.ID,
		Sequence:     seq,
		Category:     el.Category,
		Subcategory:  el.Subcategory,
		Title:        el.Title,
		Terms:        el.Terms,
		Scenario:     templates.Substitute(e.kb.DefaultScenarios[el.Category], el.Terms),
		Consequences: e.kb.DefaultConsequences[el.Category],
		Assessment:   assessment,
		TotalScore:   total,
		Level:        model.LevelForScore(total),
	}
	if len(matched) > 0 {
		best := matched[0].pattern
		r.Scenario = templates.Substitute(best.Scenario, el.Terms)
		r.Consequences = best.Consequences
	}
	for _, m := range matched {
		r.MatchedPatterns = append(r.MatchedPatterns, m.pattern.ID)
	}

	similar, err := e.similar(ctx, matched)
	if err != nil {
		return model.Risk{}, err
	}
	r.SimilarIncidents = similar
	return r, nil
}

// dimension scales a base score. Unset multipliers count as 1.0, and an
// element with no matching pattern keeps its base score.
func (e *Evaluator) dimension(base float64, multipliers []float64) model.DimensionScore {
	factor := 1.0
	if len(multipliers) > 0 {
		sum := 0.0
		for _, m := range multipliers {
			if m == 0 {
				m = 1
			}
			sum += m
		}
		factor = sum / float64(len(multipliers))
	}
	score := textutil.Round(textutil.Clamp(base*factor*e.criticality, 1, 5), 2)
	return model.DimensionScore{Score: score, Level: model.LevelForScore(score)}
}

// similar collects up to SimilarIncidentLimit incidents, walking the
// matched patterns in relevance order.
func (e *Evaluator) similar(ctx context.Context, matched []match) ([]model.IncidentRef, error) {
	limit := e.kb.SimilarIncidentLimit
	var out []model.IncidentRef
	for _, m := range matched {
		if len(out) >= limit {
			break
		}
		incs, err := e.incidents.Incidents(ctx, m.pattern.ID)
		if err != nil {
			return nil, &model.DependencyError{
				Dependency: "incident source",
				Err:        fmt.Errorf("pattern %s: %w", m.pattern.ID, err),
			}
		}
		for _, inc := range incs {
			if len(out) >= limit {
				break
			}
			out = append(out, model.IncidentRef{
				ID:        inc.ID,
				PatternID: inc.PatternID,
				Title:     inc.Title,
				Summary:   inc.Summary,
			})
		}
	}
	return out, nil
}

func statistics(risks []model.Risk) model.RiskStatistics {
	st := model.RiskStatistics{Total: len(risks), ByLevel: map[model.RiskLevel]int{}}
	if len(risks) == 0 {
		return st
	}
	sum := 0.0
	for _, r := range risks {
		st.ByLevel[r.Level]++
		sum += r.TotalScore
		if r.TotalScore > st.MaxScore {
			st.MaxScore = r.TotalScore
		}
	}
	st.AverageScore = textutil.Round(sum/float64(len(risks)), 2)
	return st
}
