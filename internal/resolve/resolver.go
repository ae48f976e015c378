// internal/resolve/resolver.go
package resolve

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/descry/api/schemas"
	"github.com/xkilldash9x/descry/internal/config"
	"github.com/xkilldash9x/descry/internal/describe"
)

// Resolver turns informal element descriptions into interactable candidates
// by running an ordered strategy chain against a DOM query backend. It holds
// no cross-call state; independent resolutions against different pages may
// run concurrently.
type Resolver struct {
	backend Backend
	cfg     config.ResolverConfig
	logger  *zap.Logger
}

// New creates a resolver bound to one backend handle.
func New(backend Backend, cfg config.ResolverConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		backend: backend,
		cfg:     cfg,
		logger:  logger.Named("resolver"),
	}
}

// Describe exposes the normalizer for callers that want to inspect parsing
// without touching a page.
func (r *Resolver) Describe(raw string) describe.Description {
	return describe.Normalize(raw)
}

// Locate resolves a description to exactly one visible candidate.
//
// Strings that syntactically look like a selector (leading "#", ".", "[",
// "/" or "//") bypass normalization and go straight to the backend's direct
// query primitive; the count, ambiguity and visibility rules still apply.
// Everything else runs through the natural-language strategy chain.
//
// It fails with ErrNotFound when every strategy is exhausted without a
// visible match, and with *AmbiguousError when a strategy matches more than
// one element and the description carries no position modifier.
func (r *Resolver) Locate(ctx context.Context, raw string) (Candidate, error) {
	trimmed := strings.TrimSpace(raw)
	if looksLikeSelector(trimmed) {
		cand, err, done := r.evaluateStrategy(ctx, "selector", r.backend.BySelector(trimmed), nil)
		if done {
			return cand, err
		}
		return Candidate{}, ErrNotFound
	}

	d := describe.Normalize(raw)
	return r.locateDescribed(ctx, d, d.Hints())
}

// LocateStructured resolves explicit selector hints, bypassing
// normalization.
func (r *Resolver) LocateStructured(ctx context.Context, hints describe.SelectorHints) (Candidate, error) {
	d := describe.Description{Normalized: hints.Text, Modifiers: hints.Modifiers}
	return r.locateDescribed(ctx, d, hints)
}

func (r *Resolver) locateDescribed(ctx context.Context, d describe.Description, hints describe.SelectorHints) (Candidate, error) {
	log := r.logger.With(zap.String("description", d.Original))
	for _, s := range strategyChain {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}
		loc := s.run(ctx, r, d, hints)
		if loc == nil {
			continue
		}
		cand, err, done := r.evaluateStrategy(ctx, s.name, loc, hints.Modifiers)
		if !done {
			continue
		}
		if err != nil {
			log.Debug("Strategy failed hard.", zap.String("strategy", s.name), zap.Error(err))
			return Candidate{}, err
		}
		log.Debug("Strategy matched.", zap.String("strategy", s.name), zap.Int("matches", cand.Matches))
		return cand, nil
	}
	log.Debug("Strategy chain exhausted.")
	return Candidate{}, ErrNotFound
}

// evaluateStrategy applies the per-strategy match protocol: zero matches is
// a miss (done=false), more than one match without a modifier is an
// immediate ambiguity failure, and an invisible selection is a silent miss.
func (r *Resolver) evaluateStrategy(ctx context.Context, name string, loc Locator, mods []describe.Modifier) (Candidate, error, bool) {
	count, err := loc.Count(ctx)
	if err != nil {
		// Backend-level query failures are treated as strategy misses; the
		// chain may still find the element another way.
		r.logger.Debug("Strategy query failed.", zap.String("strategy", name), zap.Error(err))
		return Candidate{}, nil, false
	}
	if count == 0 {
		return Candidate{}, nil, false
	}

	selected := loc
	if count > 1 {
		if len(mods) == 0 {
			// A multi-match without a modifier is reported, not bypassed:
			// falling through to a later strategy would hide real ambiguity.
			return Candidate{}, &AmbiguousError{Count: count, Strategy: name}, true
		}
		var ok bool
		selected, ok = r.applyModifier(ctx, loc, count, mods)
		if !ok {
			return Candidate{}, nil, false
		}
	}

	visible, err := selected.IsVisible(ctx)
	if err != nil || !visible {
		// Invisible matches are skipped, not surfaced as ambiguity.
		return Candidate{}, nil, false
	}
	return Candidate{Locator: selected, Strategy: name, Matches: count}, nil, true
}

// applyModifier narrows a multi-match locator using the first applicable
// position modifier. Out-of-range ordinals are misses, not errors.
func (r *Resolver) applyModifier(ctx context.Context, loc Locator, count int, mods []describe.Modifier) (Locator, bool) {
	m := mods[0]
	switch m.Kind {
	case describe.ModFirst:
		return loc.First(), true
	case describe.ModLast:
		return loc.Last(), true
	case describe.ModNth:
		if m.Index >= count {
			return nil, false
		}
		return loc.Nth(m.Index), true
	case describe.ModPosition:
		return r.pickByPosition(ctx, loc, count, m.Edge)
	}
	return nil, false
}

// pickByPosition selects the match at the geometric extreme named by edge,
// or the one closest to the group centroid for "center".
func (r *Resolver) pickByPosition(ctx context.Context, loc Locator, count int, edge string) (Locator, bool) {
	type boxed struct {
		idx int
		box schemas.BoundingBox
	}
	var boxes []boxed
	var sumX, sumY float64
	for i := 0; i < count; i++ {
		b, err := loc.Nth(i).BoundingBox(ctx)
		if err != nil || b == nil {
			continue
		}
		boxes = append(boxes, boxed{idx: i, box: *b})
		sumX += b.X + b.Width/2
		sumY += b.Y + b.Height/2
	}
	if len(boxes) == 0 {
		return nil, false
	}

	best := boxes[0]
	switch edge {
	case "top":
		for _, c := range boxes[1:] {
			if c.box.Y < best.box.Y {
				best = c
			}
		}
	case "bottom":
		for _, c := range boxes[1:] {
			if c.box.Y > best.box.Y {
				best = c
			}
		}
	case "left":
		for _, c := range boxes[1:] {
			if c.box.X < best.box.X {
				best = c
			}
		}
	case "right":
		for _, c := range boxes[1:] {
			if c.box.X > best.box.X {
				best = c
			}
		}
	case "center":
		cx := sumX / float64(len(boxes))
		cy := sumY / float64(len(boxes))
		bestDist := -1.0
		for _, c := range boxes {
			dx := c.box.X + c.box.Width/2 - cx
			dy := c.box.Y + c.box.Height/2 - cy
			dist := dx*dx + dy*dy
			if bestDist < 0 || dist < bestDist {
				bestDist = dist
				best = c
			}
		}
	}
	return loc.Nth(best.idx), true
}

// LocateAll runs the same strategy chain but returns every match of the
// first strategy that produces any, in DOM order, without the
// single-candidate ambiguity rule. The result reflects page state at call
// time and is not restartable.
func (r *Resolver) LocateAll(ctx context.Context, raw string) ([]Candidate, error) {
	trimmed := strings.TrimSpace(raw)

	collect := func(name string, loc Locator) ([]Candidate, bool) {
		count, err := loc.Count(ctx)
		if err != nil || count == 0 {
			return nil, false
		}
		out := make([]Candidate, 0, count)
		for i := 0; i < count; i++ {
			out = append(out, Candidate{Locator: loc.Nth(i), Strategy: name, Matches: count})
		}
		return out, true
	}

	if looksLikeSelector(trimmed) {
		if out, ok := collect("selector", r.backend.BySelector(trimmed)); ok {
			return out, nil
		}
		return nil, ErrNotFound
	}

	d := describe.Normalize(raw)
	hints := d.Hints()
	for _, s := range strategyChain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loc := s.run(ctx, r, d, hints)
		if loc == nil {
			continue
		}
		if out, ok := collect(s.name, loc); ok {
			return out, nil
		}
	}
	return nil, ErrNotFound
}

// ElementInfo introspects a resolved candidate without interacting with it.
// It never returns an error: a candidate that can no longer be inspected
// degrades to Found=false. Calling it twice without page mutation yields
// identical data.
func (r *Resolver) ElementInfo(ctx context.Context, cand Candidate) schemas.ElementInfo {
	info := schemas.ElementInfo{}
	if cand.Locator == nil {
		return info
	}
	count, err := cand.Locator.Count(ctx)
	if err != nil || count == 0 {
		return info
	}
	info.Found = true
	if v, err := cand.Locator.IsVisible(ctx); err == nil {
		info.Visible = v
	}
	if e, err := cand.Locator.IsEnabled(ctx); err == nil {
		info.Enabled = e
	}
	if b, err := cand.Locator.BoundingBox(ctx); err == nil {
		info.Box = b
	}
	if attrs, err := cand.Locator.Attributes(ctx); err == nil {
		info.Attributes = attrs
	}
	return info
}

// looksLikeSelector reports whether the string is syntactically a direct CSS
// or XPath selector rather than a natural-language description.
func looksLikeSelector(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '#', '.', '[', '/':
		return true
	}
	return false
}
