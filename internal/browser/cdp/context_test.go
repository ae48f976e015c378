// internal/browser/cdp/context_test.go
package cdp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineContextAdoptsCallerDeadline(t *testing.T) {
	op, opCancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer opCancel()

	combined, cancel := combineContext(context.Background(), op)
	defer cancel()

	deadline, ok := combined.Deadline()
	require.True(t, ok, "caller deadline must carry over")
	want, _ := op.Deadline()
	assert.Equal(t, want, deadline)

	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context did not expire with the caller's deadline")
	}
	assert.ErrorIs(t, combined.Err(), context.DeadlineExceeded)
}

func TestCombineContextCallerCancelPropagates(t *testing.T) {
	op, opCancel := context.WithCancel(context.Background())
	combined, cancel := combineContext(context.Background(), op)
	defer cancel()

	opCancel()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context survived caller cancellation")
	}
}

func TestCombineContextSessionCancelPropagates(t *testing.T) {
	session, sessionCancel := context.WithCancel(context.Background())
	combined, cancel := combineContext(session, context.Background())
	defer cancel()

	sessionCancel()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context survived session cancellation")
	}
}

func TestCombineContextCancelReleasesBothBranches(t *testing.T) {
	// Exactly one child is attached to the session context per call, and the
	// returned cancel must release it whether or not the caller brought a
	// deadline.
	op, opCancel := context.WithTimeout(context.Background(), time.Minute)
	defer opCancel()
	withDeadline, cancelDeadline := combineContext(context.Background(), op)
	cancelDeadline()
	assert.ErrorIs(t, withDeadline.Err(), context.Canceled)

	plain, cancelPlain := combineContext(context.Background(), context.Background())
	cancelPlain()
	assert.ErrorIs(t, plain.Err(), context.Canceled)
}
