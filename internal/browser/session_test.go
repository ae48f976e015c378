// internal/browser/session_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavContextCapsDeadline(t *testing.T) {
	// The tab context carries no deadline of its own; navigation must still
	// be bounded by the configured budget.
	navCtx, cancel := navContext(context.Background(), context.Background(), 50*time.Millisecond)
	defer cancel()

	deadline, ok := navCtx.Deadline()
	require.True(t, ok, "navigation context must carry the configured timeout")
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 30*time.Millisecond)
}

func TestNavContextExpires(t *testing.T) {
	navCtx, cancel := navContext(context.Background(), context.Background(), 10*time.Millisecond)
	defer cancel()

	select {
	case <-navCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("navigation context did not expire at the configured timeout")
	}
	assert.ErrorIs(t, navCtx.Err(), context.DeadlineExceeded)
}

func TestNavContextCallerCancelPropagates(t *testing.T) {
	caller, cancelCaller := context.WithCancel(context.Background())
	navCtx, cancel := navContext(context.Background(), caller, time.Minute)
	defer cancel()

	cancelCaller()
	select {
	case <-navCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("navigation context survived the caller's cancellation")
	}
}
