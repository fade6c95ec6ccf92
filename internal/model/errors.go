package model

import "fmt"

// InvalidInputError reports a document that cannot be analysed at all:
// empty text or bytes that are not valid UTF-8. It is never retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// InvalidInput builds an InvalidInputError from a format string.
func InvalidInput(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports a malformed or incomplete rule table,
// knowledge base, planning table or option set.
type ConfigurationError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Source != "" {
		msg += " in " + e.Source
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConfigError builds a ConfigurationError without a wrapped cause.
func ConfigError(source, format string, args ...any) error {
	return &ConfigurationError{Source: source, Reason: fmt.Sprintf(format, args...)}
}

// DependencyError wraps the failure of a collaborator the core calls
// into, such as an incident lookup. Callers may re-invoke the stage.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s failed: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Warning kinds recorded in statistics.
const (
	WarningEntityMerge  = "entity_merge"
	WarningPatternMatch = "pattern_match"
)

// DetectionAmbiguityWarning records a low-confidence merge or match.
// It is recovered locally by lowering confidence and is kept in the
// stage statistics instead of being returned as an error.
type DetectionAmbiguityWarning struct {
	Kind       string  `json:"kind"`
	Subject    string  `json:"subject"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence"`
}

func (w DetectionAmbiguityWarning) Error() string {
	return fmt.Sprintf("%s %s: %s (confidence %.2f)", w.Kind, w.Subject, w.Message, w.Confidence)
}
