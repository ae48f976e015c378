// internal/browser/cdp/backend.go
// Package cdp implements the DOM query backend on top of chromedp. Queries
// are executed as in-page JavaScript; every call re-runs its query against
// the live document, so locators always reflect current page state.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/descry/api/schemas"
	"github.com/xkilldash9x/descry/internal/resolve"
)

const (
	visibilityPollInterval = 50 * time.Millisecond
	defaultEvalTimeout     = 20 * time.Second
	defaultIdleQuiet       = 500 * time.Millisecond
)

// Backend drives one chromedp tab. The stored context must be a chromedp
// context (created with chromedp.NewContext); operational deadlines come in
// through the per-call context and are merged onto it.
type Backend struct {
	ctx       context.Context
	logger    *zap.Logger
	idleQuiet time.Duration
}

// Options tunes backend behavior outside the query path.
type Options struct {
	// NetworkIdleQuiet is the window without new resource fetches that counts
	// as "networkidle" for WaitForLoadState.
	NetworkIdleQuiet time.Duration
}

// NewBackend wraps an established chromedp context.
func NewBackend(ctx context.Context, logger *zap.Logger, opts Options) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	quiet := opts.NetworkIdleQuiet
	if quiet <= 0 {
		quiet = defaultIdleQuiet
	}
	return &Backend{
		ctx:       ctx,
		logger:    logger.Named("cdp"),
		idleQuiet: quiet,
	}
}

var _ resolve.Backend = (*Backend)(nil)

// eval runs a script in the page and unmarshals the result into out (out may
// be nil). Promises are awaited and page exceptions stay silent; a script
// that throws surfaces as an evaluation error.
func (b *Backend) eval(ctx context.Context, script string, out any) error {
	opCtx, cancel := combineContext(b.ctx, ctx)
	defer cancel()
	if _, ok := opCtx.Deadline(); !ok {
		opCtx, cancel = context.WithTimeout(opCtx, defaultEvalTimeout)
		defer cancel()
	}

	var res json.RawMessage
	err := chromedp.Run(opCtx,
		chromedp.Evaluate(script, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("cdp evaluation failed: %w", err)
	}
	if out == nil || len(res) == 0 {
		return nil
	}
	if err := json.Unmarshal(res, out); err != nil {
		return fmt.Errorf("failed to unmarshal evaluation result: %w (payload: %s)", err, string(res))
	}
	return nil
}

// locator is a lazy handle over one query expression plus narrowing
// transforms applied to its match list.
type locator struct {
	b          *Backend
	query      string
	transforms []string
}

func (b *Backend) newLocator(query string) *locator {
	return &locator{b: b, query: query}
}

func (l *locator) narrowed(transform string) *locator {
	n := &locator{b: l.b, query: l.query}
	n.transforms = append(append([]string(nil), l.transforms...), transform)
	return n
}

func (l *locator) run(ctx context.Context, body string, out any) error {
	return l.b.eval(ctx, buildScript(l.query, l.transforms, body), out)
}

func (l *locator) Count(ctx context.Context) (int, error) {
	var count int
	if err := l.run(ctx, `return els.length;`, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (l *locator) Nth(i int) resolve.Locator {
	return l.narrowed(fmt.Sprintf("els => els.slice(%d, %d)", i, i+1))
}

func (l *locator) First() resolve.Locator {
	return l.narrowed("els => els.slice(0, 1)")
}

func (l *locator) Last() resolve.Locator {
	return l.narrowed("els => els.slice(-1)")
}

func (l *locator) IsVisible(ctx context.Context) (bool, error) {
	var visible bool
	if err := l.run(ctx, `return els.length > 0 && __q.visible(els[0]);`, &visible); err != nil {
		return false, err
	}
	return visible, nil
}

func (l *locator) IsEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	if err := l.run(ctx, `return els.length > 0 && __q.enabled(els[0]);`, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

func (l *locator) BoundingBox(ctx context.Context) (*schemas.BoundingBox, error) {
	var box *schemas.BoundingBox
	body := `
if (!els.length) return null;
const r = els[0].getBoundingClientRect();
return { x: r.x, y: r.y, width: r.width, height: r.height };`
	if err := l.run(ctx, body, &box); err != nil {
		return nil, err
	}
	return box, nil
}

func (l *locator) TagName(ctx context.Context) (string, error) {
	var tag string
	if err := l.run(ctx, `return els.length ? els[0].tagName.toLowerCase() : '';`, &tag); err != nil {
		return "", err
	}
	return tag, nil
}

func (l *locator) Attributes(ctx context.Context) (map[string]string, error) {
	var attrs map[string]string
	body := `
if (!els.length) return null;
const out = {};
for (const a of els[0].attributes) out[a.name] = a.value;
return out;`
	if err := l.run(ctx, body, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// hitTestBody resolves the element at the candidate's center point. Only the
// candidate itself or one of its descendants counts as a hit; an ancestor
// coming back means something else is layered over the candidate.
const hitTestBody = `
if (!els.length) return false;
const el = els[0];
const r = el.getBoundingClientRect();
const target = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
if (!target) return false;
return target === el || el.contains(target);`

func (l *locator) HitTestCenter(ctx context.Context) (bool, error) {
	var hit bool
	if err := l.run(ctx, hitTestBody, &hit); err != nil {
		return false, err
	}
	return hit, nil
}

func (l *locator) WaitVisible(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		visible, err := l.IsVisible(ctx)
		if err != nil {
			return err
		}
		if visible {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("element not visible within %s", timeout)
		}
		select {
		case <-time.After(visibilityPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// -- Backend query constructors --

func (b *Backend) ByRole(role, name string) resolve.Locator {
	return b.newLocator(fmt.Sprintf("__q.byRole(%s, %s)", jsArg(role), jsArg(name)))
}

func (b *Backend) ByText(text string, exact bool) resolve.Locator {
	return b.newLocator(fmt.Sprintf("__q.byText(%s, %s)", jsArg(text), jsArg(exact)))
}

func (b *Backend) ByLabel(pattern string) resolve.Locator {
	return b.newLocator(fmt.Sprintf("__q.byLabel(%s)", jsArg(pattern)))
}

func (b *Backend) ByPlaceholder(pattern string) resolve.Locator {
	return b.newLocator(fmt.Sprintf("__q.byAttr('placeholder', %s)", jsArg(pattern)))
}

func (b *Backend) ByAltText(pattern string) resolve.Locator {
	return b.newLocator(fmt.Sprintf("__q.byAttr('alt', %s)", jsArg(pattern)))
}

func (b *Backend) ByTitle(text string) resolve.Locator {
	return b.newLocator(fmt.Sprintf("__q.byAttr('title', %s)", jsArg(text)))
}

func (b *Backend) BySelector(sel string) resolve.Locator {
	return b.newLocator(fmt.Sprintf("__q.bySelector(%s)", jsArg(sel)))
}

// -- Page-level waits --

// WaitForLoadState polls the document lifecycle. "networkidle" additionally
// requires the resource entry count to hold still for the configured quiet
// window; CDP has no direct network-idle event at this layer.
func (b *Backend) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	target := `document.readyState === 'complete'`
	if state == "domcontentloaded" {
		target = `document.readyState !== 'loading'`
	}
	if err := b.pollUntil(ctx, deadline, `return `+target+`;`, "load state "+state); err != nil {
		return err
	}
	if state != "networkidle" {
		return nil
	}

	lastCount := -1
	quietSince := time.Now()
	for {
		var count int
		if err := b.eval(ctx, `(() => performance.getEntriesByType('resource').length)()`, &count); err != nil {
			return err
		}
		now := time.Now()
		if count != lastCount {
			lastCount = count
			quietSince = now
		} else if now.Sub(quietSince) >= b.idleQuiet {
			return nil
		}
		if now.After(deadline) {
			return fmt.Errorf("network did not go idle within %s", timeout)
		}
		select {
		case <-time.After(visibilityPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitForSelector blocks until an element matching sel reaches the given
// state ("attached" or "visible").
func (b *Backend) WaitForSelector(ctx context.Context, sel, state string, timeout time.Duration) error {
	loc := b.BySelector(sel)
	deadline := time.Now().Add(timeout)
	for {
		var ok bool
		var err error
		if state == "visible" {
			ok, err = loc.IsVisible(ctx)
		} else {
			var count int
			count, err = loc.Count(ctx)
			ok = count > 0
		}
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("selector %q did not become %s within %s", sel, state, timeout)
		}
		select {
		case <-time.After(visibilityPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitForAnimations awaits the finished promise of every animation currently
// attached to the document, racing against the timeout inside the page so a
// looping animation cannot wedge the wait.
func (b *Backend) WaitForAnimations(ctx context.Context, timeout time.Duration) error {
	script := fmt.Sprintf(`(() => {
    const anims = document.getAnimations ? document.getAnimations() : [];
    if (!anims.length) return Promise.resolve(true);
    const all = Promise.all(anims.map(a => a.finished.catch(() => {})));
    const cap = new Promise(res => setTimeout(() => res(false), %d));
    return Promise.race([all.then(() => true), cap]);
})()`, timeout.Milliseconds())

	var settled bool
	if err := b.eval(ctx, script, &settled); err != nil {
		return err
	}
	if !settled {
		b.logger.Debug("Animations still running at wait ceiling.", zap.Duration("ceiling", timeout))
	}
	return nil
}

// WaitForMutationQuiet resolves once the DOM has gone quiet mutations-wise.
// Hitting the ceiling is not an error; infinite carousels never go quiet and
// resolution proceeds regardless.
func (b *Backend) WaitForMutationQuiet(ctx context.Context, quiet, ceiling time.Duration) error {
	script := fmt.Sprintf(`(() => new Promise(resolve => {
    const finish = ok => { obs.disconnect(); clearTimeout(timer); clearTimeout(cap); resolve(ok); };
    let timer = setTimeout(() => finish(true), %d);
    const obs = new MutationObserver(() => {
        clearTimeout(timer);
        timer = setTimeout(() => finish(true), %d);
    });
    const cap = setTimeout(() => finish(false), %d);
    obs.observe(document.documentElement, { childList: true, subtree: true, attributes: true, characterData: true });
}))()`, quiet.Milliseconds(), quiet.Milliseconds(), ceiling.Milliseconds())

	var settled bool
	if err := b.eval(ctx, script, &settled); err != nil {
		return err
	}
	if !settled {
		b.logger.Debug("DOM still mutating at quiescence ceiling.", zap.Duration("ceiling", ceiling))
	}
	return nil
}

// pollUntil evaluates a boolean script until it returns true or the deadline
// passes.
func (b *Backend) pollUntil(ctx context.Context, deadline time.Time, body, what string) error {
	for {
		var ok bool
		if err := b.eval(ctx, "(() => { "+body+" })()", &ok); err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %s", what)
		}
		select {
		case <-time.After(visibilityPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
