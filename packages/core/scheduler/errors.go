package scheduler

import (
	"fmt"
	"time"
)

// TimeoutError reports that a case's invocation batch did not drain
// within its configured timeout. It is a distinct kind from an
// invocation failure so reporters can tell the two apart.
type TimeoutError struct {
	Case    string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("case %q timed out after %s", e.Case, e.Elapsed)
}

// Timeout marks this error as timeout-kind
func (e *TimeoutError) Timeout() bool {
	return true
}
