package risk

import (
	"context"

	"github.com/HendryAvila/specgap/internal/config"
)

// IncidentSource looks up historical incidents tagged to a risk pattern.
// Implementations may block; Analyze passes its context through.
type IncidentSource interface {
	Incidents(ctx context.Context, patternID string) ([]config.Incident, error)
}

// StaticIncidents serves incidents from an in-memory list in list order.
type StaticIncidents []config.Incident

// Incidents returns the records tagged to patternID.
func (s StaticIncidents) Incidents(ctx context.Context, patternID string) ([]config.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []config.Incident
	for _, inc := range s {
		if inc.PatternID == patternID {
			out = append(out, inc)
		}
	}
	return out, nil
}
