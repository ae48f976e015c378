// internal/resolve/backend.go
package resolve

import (
	"context"
	"time"

	"github.com/xkilldash9x/descry/api/schemas"
)

// Locator is a lazy handle to the elements matched by one backend query.
// Constructing a Locator performs no I/O; the query runs when a method that
// needs page state is called. Locators are valid only for the duration of
// the resolution call that produced them.
type Locator interface {
	// Count returns the number of elements the query currently matches.
	Count(ctx context.Context) (int, error)
	// Nth narrows the locator to the i-th match in DOM order (zero-based).
	Nth(i int) Locator
	First() Locator
	Last() Locator

	IsVisible(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	// BoundingBox returns nil (with nil error) when the element is detached
	// or has no layout box.
	BoundingBox(ctx context.Context) (*schemas.BoundingBox, error)
	// TagName returns the lowercase tag name of the first match.
	TagName(ctx context.Context) (string, error)
	Attributes(ctx context.Context) (map[string]string, error)

	// HitTestCenter reports whether a hit-test at the center of the
	// element's bounding box resolves to the element itself or one of its
	// descendants, i.e. it is not covered by an unrelated overlay.
	HitTestCenter(ctx context.Context) (bool, error)

	WaitVisible(ctx context.Context, timeout time.Duration) error
}

// Backend abstracts the DOM query primitives of the underlying browser
// driver. Implementations live in internal/browser/cdp and
// internal/browser/pw. All pattern parameters are matched case-insensitively
// as substrings unless stated otherwise.
type Backend interface {
	// ByRole queries by ARIA role, optionally filtered by accessible name.
	ByRole(role, name string) Locator
	// ByText queries by rendered text; exact toggles whole-string equality
	// (still case-insensitive) versus substring containment.
	ByText(text string, exact bool) Locator
	ByLabel(pattern string) Locator
	ByPlaceholder(pattern string) Locator
	ByAltText(pattern string) Locator
	ByTitle(text string) Locator
	// BySelector accepts CSS or XPath (leading "/" or "//").
	BySelector(sel string) Locator

	// WaitForLoadState blocks until the page reaches the given lifecycle
	// state ("load", "domcontentloaded", "networkidle") or the timeout
	// elapses.
	WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error
	// WaitForSelector blocks until an element matching sel reaches the given
	// state ("attached", "visible").
	WaitForSelector(ctx context.Context, sel, state string, timeout time.Duration) error
	// WaitForAnimations blocks until all animations attached to the document
	// report completion. Backends without animation introspection return
	// ErrUnsupported and callers treat the step as satisfied.
	WaitForAnimations(ctx context.Context, timeout time.Duration) error
	// WaitForMutationQuiet resolves once no DOM mutations have been observed
	// for quiet, giving up (without error) after ceiling.
	WaitForMutationQuiet(ctx context.Context, quiet, ceiling time.Duration) error
}

// Candidate is a transient handle to one resolved element plus the context
// of the query that produced it. Never cached across resolution calls.
type Candidate struct {
	Locator Locator
	// Strategy names the chain entry that produced the match, making the
	// precedence order observable to callers and tests.
	Strategy string
	// Matches is the total match count of the winning query.
	Matches int
}
