package report

import (
	"sort"

	"github.com/HendryAvila/specgap/internal/model"
)

// DecisionReport folds a decision history into the latest record per
// element, grouped by kind. Deferrals of elements whose risk is high or
// critical are listed separately; risks may be nil.
func DecisionReport(history []model.Decision, risks *model.RiskAnalysisResult) model.DecisionReport {
	latest := model.LatestByElement(history)
	rep := model.DecisionReport{
		GeneratedAt: timeNow().UTC(),
		Records:     len(history),
		Elements:    len(latest),
		ByKind:      map[model.DecisionKind][]model.Decision{},
	}

	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	byElement := map[string]model.Risk{}
	if risks != nil {
		for _, r := range risks.Risks {
			byElement[r.ElementID] = r
		}
	}

	for _, id := range ids {
		d := latest[id]
		rep.ByKind[d.Kind] = append(rep.ByKind[d.Kind], d)
		if d.Kind != model.DecisionDefer {
			continue
		}
		r, ok := byElement[id]
		if !ok || r.Level.Rank() < model.RiskHigh.Rank() {
			continue
		}
		rep.DeferredHighRisk = append(rep.DeferredHighRisk, model.DeferredRisk{
			Decision: d,
			RiskID:   r.ID,
			Title:    r.Title,
			Level:    r.Level,
		})
	}
	return rep
}
