// internal/browser/cdp/context.go
package cdp

import (
	"context"
)

// combineContext creates a new context derived from ctx1 (the session context
// carrying CDP connection info) that is canceled when either ctx1 or ctx2
// (the operational context carrying the caller's deadline) is canceled. It
// inherits values from ctx1, which chromedp requires.
func combineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	var combinedCtx context.Context
	var cancel context.CancelFunc
	// Exactly one child is registered on ctx1; an extra discarded child would
	// stay attached to the session context until the tab closes.
	if d, ok := ctx2.Deadline(); ok {
		combinedCtx, cancel = context.WithDeadline(ctx1, d)
	} else {
		combinedCtx, cancel = context.WithCancel(ctx1)
	}

	stop := context.AfterFunc(ctx2, cancel)
	return combinedCtx, func() {
		stop()
		cancel()
	}
}
