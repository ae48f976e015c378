// internal/resolve/readiness.go
package resolve

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/descry/api/schemas"
)

// State tracks progress through the readiness gate for one wait attempt.
type State int

const (
	StateSearching State = iota
	StateAttached
	StateVisible
	StateStable
	StateAnimationsSettled
	StateInteractable
	StateReady
	StateTimedOut
)

var stateNames = map[State]string{
	StateSearching:         "searching",
	StateAttached:          "attached",
	StateVisible:           "visible",
	StateStable:            "stable",
	StateAnimationsSettled: "animations-settled",
	StateInteractable:      "interactable",
	StateReady:             "ready",
	StateTimedOut:          "timed-out",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// WaitOptions tunes one LocateWithWait call. Zero fields fall back to the
// resolver's configuration.
type WaitOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	StablePolls  int
	SettleDelay  time.Duration
	RetryPause   time.Duration
}

func (r *Resolver) waitDefaults(opts *WaitOptions) WaitOptions {
	w := WaitOptions{}
	if opts != nil {
		w = *opts
	}
	if w.Timeout <= 0 {
		w.Timeout = r.cfg.DefaultTimeout
	}
	if w.PollInterval <= 0 {
		w.PollInterval = r.cfg.PollInterval
	}
	if w.StablePolls <= 0 {
		w.StablePolls = r.cfg.StablePolls
	}
	if w.SettleDelay <= 0 {
		w.SettleDelay = r.cfg.SettleDelay
	}
	if w.RetryPause <= 0 {
		w.RetryPause = r.cfg.RetryPause
	}
	return w
}

// readinessRecord is the per-wait-loop state. It is created at the start of
// LocateWithWait and discarded with the call; nothing is shared across
// concurrent waits.
type readinessRecord struct {
	deadline    time.Time
	started     time.Time
	attempts    int
	state       State
	sawResolved bool
	occlusion   string // last interactability failure reason, "" if none
}

func (rec *readinessRecord) remaining() time.Duration {
	return time.Until(rec.deadline)
}

// LocateWithWait resolves the description and then holds the candidate at
// the readiness gate until it is attached, visible, geometrically stable,
// free of in-flight animation and unobstructed, or the budget runs out.
//
// Resolution restarts from scratch on every retry iteration, so a transient
// ambiguity or miss during a page transition resolves itself once the page
// settles. Backend failures inside the gate are converted to retries; only
// the final timeout is surfaced.
func (r *Resolver) LocateWithWait(ctx context.Context, raw string, opts *WaitOptions) (Candidate, error) {
	w := r.waitDefaults(opts)
	rec := &readinessRecord{
		started:  time.Now(),
		deadline: time.Now().Add(w.Timeout),
		state:    StateSearching,
	}
	log := r.logger.Named("readiness").With(zap.String("description", raw))

	for {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}
		if rec.remaining() <= 0 {
			break
		}
		rec.attempts++

		cand, err := r.Locate(ctx, raw)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Candidate{}, err
			}
			// NotFound and Ambiguous are retried until the deadline; the
			// page may simply still be in flux.
			rec.state = StateSearching
			log.Debug("Resolution attempt failed, retrying.", zap.Int("attempt", rec.attempts), zap.Error(err))
			if !r.pause(ctx, w.RetryPause, rec.deadline) {
				break
			}
			continue
		}
		rec.state = StateAttached
		rec.sawResolved = true

		if ok := r.gateVisible(ctx, cand, rec, w, log); !ok {
			continue
		}
		if ok, gone := r.gateStable(ctx, cand, rec, w); !ok {
			if gone {
				// The element detached mid-poll. Not a failure: re-resolve.
				rec.state = StateSearching
				log.Debug("Element disappeared during stability polling, re-resolving.")
			}
			continue
		}
		r.gateAnimations(ctx, rec, w, log)

		if ok := r.gateInteractable(ctx, cand, rec, w, log); !ok {
			continue
		}

		rec.state = StateReady
		log.Debug("Element ready.",
			zap.Int("attempts", rec.attempts),
			zap.Duration("elapsed", time.Since(rec.started)),
			zap.String("strategy", cand.Strategy))
		return cand, nil
	}

	elapsed := time.Since(rec.started)
	lastState := rec.state
	rec.state = StateTimedOut
	if rec.occlusion != "" && rec.sawResolved {
		return Candidate{}, &NotInteractableError{Reason: rec.occlusion, Elapsed: elapsed}
	}
	return Candidate{}, &TimeoutError{Elapsed: elapsed, LastState: lastState}
}

func (r *Resolver) gateVisible(ctx context.Context, cand Candidate, rec *readinessRecord, w WaitOptions, log *zap.Logger) bool {
	budget := rec.remaining()
	if budget <= 0 {
		return false
	}
	if err := cand.Locator.WaitVisible(ctx, budget); err != nil {
		log.Debug("Visibility wait failed, retrying.", zap.Error(err))
		r.pause(ctx, w.RetryPause, rec.deadline)
		return false
	}
	rec.state = StateVisible
	return true
}

// gateStable polls the bounding box until StablePolls consecutive
// comparisons each move less than the stability epsilon on every axis. Any
// larger delta resets the streak. gone=true means the element detached,
// which aborts stability checking without error.
func (r *Resolver) gateStable(ctx context.Context, cand Candidate, rec *readinessRecord, w WaitOptions) (ok, gone bool) {
	var prev *schemas.BoundingBox
	streak := 0
	for {
		if rec.remaining() <= 0 {
			return false, false
		}
		box, err := cand.Locator.BoundingBox(ctx)
		if err != nil {
			// Treated as a retry, not a hard failure.
			return false, false
		}
		if box == nil {
			return false, true
		}
		if prev != nil {
			if box.Delta(*prev) < r.cfg.StabilityEpsilonPx {
				streak++
			} else {
				streak = 0
			}
			if streak >= w.StablePolls {
				rec.state = StateStable
				return true, false
			}
		}
		prev = box
		if !r.pause(ctx, w.PollInterval, rec.deadline) {
			return false, false
		}
	}
}

// gateAnimations waits for in-page animations to report completion, then
// applies the fixed settle delay for trailing CSS transitions. The whole
// step is soft: an unsupported or failing backend satisfies it immediately.
func (r *Resolver) gateAnimations(ctx context.Context, rec *readinessRecord, w WaitOptions, log *zap.Logger) {
	budget := rec.remaining()
	if budget <= 0 {
		return
	}
	ceiling := r.cfg.AnimationCeiling
	if ceiling <= 0 || ceiling > budget {
		ceiling = budget
	}
	if err := r.backend.WaitForAnimations(ctx, ceiling); err != nil && !errors.Is(err, ErrUnsupported) {
		log.Debug("Animation wait finished with issues (ignored).", zap.Error(err))
	}
	r.pause(ctx, w.SettleDelay, rec.deadline)
	rec.state = StateAnimationsSettled
}

func (r *Resolver) gateInteractable(ctx context.Context, cand Candidate, rec *readinessRecord, w WaitOptions, log *zap.Logger) bool {
	reason := ""
	if visible, err := cand.Locator.IsVisible(ctx); err != nil || !visible {
		reason = "element no longer visible"
	} else if enabled, err := cand.Locator.IsEnabled(ctx); err != nil || !enabled {
		reason = "element is disabled"
	} else if hit, err := cand.Locator.HitTestCenter(ctx); err != nil || !hit {
		reason = "element is obscured by another node at its center point"
	}
	if reason != "" {
		rec.occlusion = reason
		log.Debug("Interactability check failed, retrying.", zap.String("reason", reason))
		r.pause(ctx, w.RetryPause, rec.deadline)
		return false
	}
	rec.state = StateInteractable
	rec.occlusion = ""
	return true
}

// pause sleeps for d capped to the deadline, honoring ctx. It reports false
// when the deadline or context expired.
func (r *Resolver) pause(ctx context.Context, d time.Duration, deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	if d > remaining {
		d = remaining
	}
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return time.Until(deadline) > 0
	case <-ctx.Done():
		return false
	}
}
