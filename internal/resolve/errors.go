// internal/resolve/errors.go
package resolve

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Locate when every strategy in the chain was
// exhausted without a single visible match.
var ErrNotFound = errors.New("no strategy produced a visible match")

// ErrUnsupported is returned by backends for optional capabilities they
// cannot provide (e.g. animation-state reporting). Callers treat the
// capability as immediately satisfied.
var ErrUnsupported = errors.New("operation not supported by backend")

// AmbiguousError reports a strategy that matched more than one element while
// the description carried no position modifier to pick one.
type AmbiguousError struct {
	Count    int
	Strategy string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous match: strategy %q matched %d elements and no position modifier was given", e.Strategy, e.Count)
}

// TimeoutError reports a wait-until-ready operation that ran out of budget.
// LastState records how far through the readiness gate the final attempt got.
type TimeoutError struct {
	Elapsed   time.Duration
	LastState State
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for element readiness (last state: %s)", e.Elapsed.Round(time.Millisecond), e.LastState)
}

// NotInteractableError reports a candidate that resolved but never passed the
// enabled/occlusion check before the deadline.
type NotInteractableError struct {
	Reason  string
	Elapsed time.Duration
}

func (e *NotInteractableError) Error() string {
	return fmt.Sprintf("element resolved but never became interactable after %s: %s", e.Elapsed.Round(time.Millisecond), e.Reason)
}
