package remediation

import (
	"context"
	"strings"
	"sync"

	"github.com/HendryAvila/specgap/internal/model"
)

// DecisionLog is an append-only record of stakeholder decisions. Records
// are never updated or removed; the latest record per element wins.
type DecisionLog interface {
	// Append stores d and returns it with its id, and its timestamp when
	// the caller left it zero.
	Append(ctx context.Context, d model.Decision) (model.Decision, error)
	Latest(ctx context.Context, elementID string) (model.Decision, bool, error)
	// History returns the element's records in append order.
	History(ctx context.Context, elementID string) ([]model.Decision, error)
	// All returns every record in append order.
	All(ctx context.Context) ([]model.Decision, error)
}

// ValidateDecision checks a decision before it is appended.
func ValidateDecision(d model.Decision) error {
	if strings.TrimSpace(d.ElementID) == "" {
		return model.InvalidInput("decision needs an element id")
	}
	return model.ValidateDecisionKind(d.Kind)
}

// Snapshot reads the log and folds it into the latest decision per element.
func Snapshot(ctx context.Context, log DecisionLog) (map[string]model.Decision, error) {
	all, err := log.All(ctx)
	if err != nil {
		return nil, err
	}
	return model.LatestByElement(all), nil
}

// MemoryLog is an in-process DecisionLog.
type MemoryLog struct {
	mu      sync.RWMutex
	records []model.Decision
}

// NewMemoryLog returns an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append implements DecisionLog.
func (m *MemoryLog) Append(ctx context.Context, d model.Decision) (model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return model.Decision{}, err
	}
	if err := ValidateDecision(d); err != nil {
		return model.Decision{}, err
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = timeNow().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = int64(len(m.records) + 1)
	m.records = append(m.records, d)
	return d, nil
}

// Latest implements DecisionLog.
func (m *MemoryLog) Latest(ctx context.Context, elementID string) (model.Decision, bool, error) {
	hist, err := m.History(ctx, elementID)
	if err != nil || len(hist) == 0 {
		return model.Decision{}, false, err
	}
	d, ok := model.LatestByElement(hist)[elementID]
	return d, ok, nil
}

// History implements DecisionLog.
func (m *MemoryLog) History(ctx context.Context, elementID string) ([]model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Decision
	for _, d := range m.records {
		if d.ElementID == elementID {
			out = append(out, d)
		}
	}
	return out, nil
}

// All implements DecisionLog.
func (m *MemoryLog) All(ctx context.Context) ([]model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Decision(nil), m.records...), nil
}
