// internal/resolve/readiness_test.go
package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/descry/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLocateWithWaitReady(t *testing.T) {
	backend := newFakeBackend()
	backend.register(roleKey("button", "logout button"), visibleElem())
	r := newTestResolver(backend)

	cand, err := r.LocateWithWait(context.Background(), "logout button", nil)
	require.NoError(t, err)
	assert.Equal(t, "role-text", cand.Strategy)
}

func TestLocateWithWaitStabilizes(t *testing.T) {
	backend := newFakeBackend()
	elem := visibleElem()
	// Slides down, then settles.
	elem.boxes = []*schemas.BoundingBox{
		{X: 10, Y: 0, Width: 100, Height: 30},
		{X: 10, Y: 40, Width: 100, Height: 30},
		{X: 10, Y: 80, Width: 100, Height: 30},
		{X: 10, Y: 80, Width: 100, Height: 30},
	}
	backend.register(roleKey("button", "logout button"), elem)
	r := newTestResolver(backend)

	_, err := r.LocateWithWait(context.Background(), "logout button", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elem.boxCalls, 4, "stability takes several polls once movement stops")
}

func TestLocateWithWaitNeverStableTimesOut(t *testing.T) {
	backend := newFakeBackend()
	elem := visibleElem()
	elem.jitter = true
	backend.register(roleKey("button", "logout button"), elem)
	r := newTestResolver(backend)

	_, err := r.LocateWithWait(context.Background(), "logout button", &WaitOptions{
		Timeout: 40 * time.Millisecond,
	})
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, StateVisible, timeout.LastState)
	assert.Greater(t, timeout.Elapsed, time.Duration(0))
}

func TestLocateWithWaitOccludedElement(t *testing.T) {
	backend := newFakeBackend()
	elem := visibleElem()
	elem.hit = false
	backend.register(roleKey("button", "logout button"), elem)
	r := newTestResolver(backend)

	_, err := r.LocateWithWait(context.Background(), "logout button", &WaitOptions{
		Timeout: 40 * time.Millisecond,
	})
	var notInteractable *NotInteractableError
	require.ErrorAs(t, err, &notInteractable)
	assert.Contains(t, notInteractable.Reason, "obscured")
}

func TestLocateWithWaitDisabledElement(t *testing.T) {
	backend := newFakeBackend()
	elem := visibleElem()
	elem.enabled = false
	backend.register(roleKey("button", "logout button"), elem)
	r := newTestResolver(backend)

	_, err := r.LocateWithWait(context.Background(), "logout button", &WaitOptions{
		Timeout: 40 * time.Millisecond,
	})
	var notInteractable *NotInteractableError
	require.ErrorAs(t, err, &notInteractable)
	assert.Contains(t, notInteractable.Reason, "disabled")
}

func TestLocateWithWaitNothingResolvesTimesOut(t *testing.T) {
	r := newTestResolver(newFakeBackend())

	_, err := r.LocateWithWait(context.Background(), "phantom button", &WaitOptions{
		Timeout: 30 * time.Millisecond,
	})
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, StateSearching, timeout.LastState)
}

func TestLocateWithWaitDisappearingElementReresolves(t *testing.T) {
	backend := newFakeBackend()
	elem := visibleElem()
	// Present, detaches mid-poll, then reappears and holds still. The gate
	// must re-resolve after the nil box instead of failing.
	elem.boxes = []*schemas.BoundingBox{
		{X: 10, Y: 10, Width: 100, Height: 30},
		nil,
		{X: 10, Y: 10, Width: 100, Height: 30},
		{X: 10, Y: 10, Width: 100, Height: 30},
		{X: 10, Y: 10, Width: 100, Height: 30},
	}
	backend.register(roleKey("button", "logout button"), elem)
	r := newTestResolver(backend)

	_, err := r.LocateWithWait(context.Background(), "logout button", nil)
	require.NoError(t, err)
}

func TestLocateWithWaitCanceledContext(t *testing.T) {
	r := newTestResolver(newFakeBackend())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.LocateWithWait(ctx, "logout button", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitDefaultsFallBackToConfig(t *testing.T) {
	r := newTestResolver(newFakeBackend())
	cfg := testConfig()

	w := r.waitDefaults(nil)
	assert.Equal(t, cfg.DefaultTimeout, w.Timeout)
	assert.Equal(t, cfg.PollInterval, w.PollInterval)
	assert.Equal(t, cfg.StablePolls, w.StablePolls)

	w = r.waitDefaults(&WaitOptions{Timeout: time.Second})
	assert.Equal(t, time.Second, w.Timeout)
	assert.Equal(t, cfg.PollInterval, w.PollInterval, "unset fields still default")
}

func TestWaitForDynamicContentBestEffort(t *testing.T) {
	r := newTestResolver(newFakeBackend())
	assert.NoError(t, r.WaitForDynamicContent(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.WaitForDynamicContent(ctx), context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "searching", StateSearching.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "timed-out", StateTimedOut.String())
	assert.Equal(t, "unknown", State(99).String())
}
