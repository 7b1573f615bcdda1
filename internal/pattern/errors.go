package pattern

import "fmt"

// InvalidPatternError reports a chain that breaks the prefix rule or uses a
// duration outside the allowed set. Producing one is a caller bug: editors are
// expected to enforce the same rules before persisting.
type InvalidPatternError struct {
	Field  string
	Reason string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid vibration pattern: %s: %s", e.Field, e.Reason)
}
