// internal/browser/pw/backend.go
// Package pw implements the DOM query backend on top of playwright-go. The
// query surface maps almost one-to-one onto Playwright's Locator API; the
// adapter's job is mostly context plumbing and result conversion, since
// playwright-go drives its own protocol connection without context.Context.
package pw

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/descry/api/schemas"
	"github.com/xkilldash9x/descry/internal/resolve"
)

const quickOpTimeoutMs = 2000

// Backend drives one Playwright page.
type Backend struct {
	page   playwright.Page
	logger *zap.Logger
}

// NewBackend wraps an open Playwright page.
func NewBackend(page playwright.Page, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{page: page, logger: logger.Named("playwright")}
}

var _ resolve.Backend = (*Backend)(nil)

type locator struct {
	loc playwright.Locator
}

func wrap(l playwright.Locator) *locator { return &locator{loc: l} }

func (l *locator) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.loc.Count()
}

func (l *locator) Nth(i int) resolve.Locator { return wrap(l.loc.Nth(i)) }
func (l *locator) First() resolve.Locator    { return wrap(l.loc.First()) }
func (l *locator) Last() resolve.Locator     { return wrap(l.loc.Last()) }

func (l *locator) IsVisible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.loc.IsVisible()
}

func (l *locator) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.loc.IsEnabled(playwright.LocatorIsEnabledOptions{
		Timeout: playwright.Float(quickOpTimeoutMs),
	})
}

// BoundingBox reports nil for an element that detached between resolution
// and this call; the readiness gate turns that into a re-resolve.
func (l *locator) BoundingBox(ctx context.Context) (*schemas.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	count, err := l.loc.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	res, err := l.loc.Evaluate(`el => {
        const r = el.getBoundingClientRect();
        return { x: r.x, y: r.y, width: r.width, height: r.height };
    }`, nil, playwright.LocatorEvaluateOptions{Timeout: playwright.Float(quickOpTimeoutMs)})
	if err != nil {
		// The element raced away between Count and Evaluate.
		return nil, nil
	}
	m, ok := res.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected bounding box payload %T", res)
	}
	return &schemas.BoundingBox{
		X:      toFloat(m["x"]),
		Y:      toFloat(m["y"]),
		Width:  toFloat(m["width"]),
		Height: toFloat(m["height"]),
	}, nil
}

func (l *locator) TagName(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := l.loc.First().Evaluate(`el => el.tagName.toLowerCase()`, nil,
		playwright.LocatorEvaluateOptions{Timeout: playwright.Float(quickOpTimeoutMs)})
	if err != nil {
		return "", err
	}
	tag, _ := res.(string)
	return tag, nil
}

func (l *locator) Attributes(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := l.loc.First().Evaluate(`el => {
        const out = {};
        for (const a of el.attributes) out[a.name] = a.value;
        return out;
    }`, nil, playwright.LocatorEvaluateOptions{Timeout: playwright.Float(quickOpTimeoutMs)})
	if err != nil {
		return nil, err
	}
	raw, ok := res.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected attributes payload %T", res)
	}
	attrs := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			attrs[k] = s
		}
	}
	return attrs, nil
}

// hitTestExpr resolves the element at the candidate's center point. Only the
// candidate itself or one of its descendants counts as a hit; an ancestor
// coming back means something else is layered over the candidate.
const hitTestExpr = `el => {
        const r = el.getBoundingClientRect();
        const target = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
        if (!target) return false;
        return target === el || el.contains(target);
    }`

func (l *locator) HitTestCenter(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	res, err := l.loc.First().Evaluate(hitTestExpr, nil, playwright.LocatorEvaluateOptions{Timeout: playwright.Float(quickOpTimeoutMs)})
	if err != nil {
		return false, err
	}
	hit, _ := res.(bool)
	return hit, nil
}

func (l *locator) WaitVisible(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.loc.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// -- Backend query constructors --

func (b *Backend) ByRole(role, name string) resolve.Locator {
	opts := playwright.PageGetByRoleOptions{}
	if name != "" {
		opts.Name = name
	}
	return wrap(b.page.GetByRole(playwright.AriaRole(role), opts))
}

func (b *Backend) ByText(text string, exact bool) resolve.Locator {
	return wrap(b.page.GetByText(text, playwright.PageGetByTextOptions{
		Exact: playwright.Bool(exact),
	}))
}

func (b *Backend) ByLabel(pattern string) resolve.Locator {
	return wrap(b.page.GetByLabel(pattern))
}

func (b *Backend) ByPlaceholder(pattern string) resolve.Locator {
	return wrap(b.page.GetByPlaceholder(pattern))
}

func (b *Backend) ByAltText(pattern string) resolve.Locator {
	return wrap(b.page.GetByAltText(pattern))
}

func (b *Backend) ByTitle(text string) resolve.Locator {
	return wrap(b.page.GetByTitle(text))
}

func (b *Backend) BySelector(sel string) resolve.Locator {
	// Playwright auto-detects "//" XPath but not a single-slash prefix.
	if strings.HasPrefix(sel, "/") && !strings.HasPrefix(sel, "//") {
		sel = "xpath=" + sel
	}
	return wrap(b.page.Locator(sel))
}

// -- Page-level waits --

func (b *Backend) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var ls *playwright.LoadState
	switch state {
	case "domcontentloaded":
		ls = playwright.LoadStateDomcontentloaded
	case "networkidle":
		ls = playwright.LoadStateNetworkidle
	default:
		ls = playwright.LoadStateLoad
	}
	return b.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   ls,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (b *Backend) WaitForSelector(ctx context.Context, sel, state string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := playwright.WaitForSelectorStateAttached
	if state == "visible" {
		st = playwright.WaitForSelectorStateVisible
	}
	_, err := b.page.WaitForSelector(sel, playwright.PageWaitForSelectorOptions{
		State:   st,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (b *Backend) WaitForAnimations(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := b.page.Evaluate(fmt.Sprintf(`() => {
        const anims = document.getAnimations ? document.getAnimations() : [];
        if (!anims.length) return Promise.resolve(true);
        const all = Promise.all(anims.map(a => a.finished.catch(() => {})));
        const cap = new Promise(res => setTimeout(() => res(false), %d));
        return Promise.race([all.then(() => true), cap]);
    }`, timeout.Milliseconds()))
	if err != nil {
		return err
	}
	if settled, _ := res.(bool); !settled {
		b.logger.Debug("Animations still running at wait ceiling.", zap.Duration("ceiling", timeout))
	}
	return nil
}

func (b *Backend) WaitForMutationQuiet(ctx context.Context, quiet, ceiling time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := b.page.Evaluate(fmt.Sprintf(`() => new Promise(resolve => {
        const finish = ok => { obs.disconnect(); clearTimeout(timer); clearTimeout(cap); resolve(ok); };
        let timer = setTimeout(() => finish(true), %d);
        const obs = new MutationObserver(() => {
            clearTimeout(timer);
            timer = setTimeout(() => finish(true), %d);
        });
        const cap = setTimeout(() => finish(false), %d);
        obs.observe(document.documentElement, { childList: true, subtree: true, attributes: true, characterData: true });
    })`, quiet.Milliseconds(), quiet.Milliseconds(), ceiling.Milliseconds()))
	if err != nil {
		return err
	}
	if settled, _ := res.(bool); !settled {
		b.logger.Debug("DOM still mutating at quiescence ceiling.", zap.Duration("ceiling", ceiling))
	}
	return nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
