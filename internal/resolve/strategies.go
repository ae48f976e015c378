// internal/resolve/strategies.go
package resolve

import (
	"context"
	"strings"

	"github.com/xkilldash9x/descry/internal/describe"
)

// strategyFunc builds the query for one lookup technique, or returns nil
// when the technique does not apply to this description. Most builders are
// pure query construction; the fuzzy-word pass is the exception and probes
// the page to choose which word to commit to.
type strategyFunc func(ctx context.Context, r *Resolver, d describe.Description, h describe.SelectorHints) Locator

type strategy struct {
	name string
	run  strategyFunc
}

// strategyChain is the resolution precedence order, first entry tried first.
// Each entry runs only when every earlier entry produced zero visible
// matches. The domain short-circuits at the head handle categories that are
// marked up inconsistently across sites; their ordering (notably combobox
// before searchbox before textbox for "search") is deliberate tuning carried
// over as-is, not something to re-derive.
var strategyChain = []strategy{
	{"label-for-field", strategyLabelForField},
	{"image-alt", strategyImageAlt},
	{"search-placeholder", strategySearchPlaceholder},
	{"search-combobox", searchRole("combobox")},
	{"search-searchbox", searchRole("searchbox")},
	{"search-textbox", searchRole("textbox")},
	{"role-text", strategyRoleText},
	{"text", strategyText},
	{"role", strategyRole},
	{"aria-label", strategyAriaLabel},
	{"placeholder", strategyPlaceholder},
	{"aria-label-raw", strategyAriaLabelRaw},
	{"placeholder-raw", strategyPlaceholderRaw},
	{"fuzzy-word", strategyFuzzyWord},
	{"selector-retry", strategySelectorRetry},
}

// interactiveTags are the only tags the fuzzy single-word pass may resolve
// to; anything else is too likely a false positive.
var interactiveTags = map[string]bool{
	"button": true, "a": true, "input": true, "select": true, "textarea": true,
}

func hasToken(text, token string) bool {
	for _, f := range strings.Fields(text) {
		if f == token {
			return true
		}
	}
	return false
}

// strategyLabelForField resolves "<word> input" / "<word> field" phrases via
// a label lookup on the preceding word. "search field" is excluded; the
// search short-circuits below own that phrase.
func strategyLabelForField(_ context.Context, r *Resolver, d describe.Description, _ describe.SelectorHints) Locator {
	fields := strings.Fields(d.Normalized)
	for i, f := range fields {
		if f != "input" && f != "field" {
			continue
		}
		if i == 0 {
			return nil
		}
		label := fields[i-1]
		if label == "search" {
			return nil
		}
		return r.backend.ByLabel(label)
	}
	return nil
}

// strategyImageAlt resolves image descriptions via alt-text lookup.
func strategyImageAlt(_ context.Context, r *Resolver, d describe.Description, h describe.SelectorHints) Locator {
	if !hasToken(d.Normalized, "image") && !hasToken(d.Normalized, "img") {
		return nil
	}
	// Query by the description minus the image word itself.
	fields := strings.Fields(d.Normalized)
	kept := fields[:0]
	for _, f := range fields {
		if f == "image" || f == "img" {
			continue
		}
		kept = append(kept, f)
	}
	pattern := strings.Join(kept, " ")
	if pattern == "" {
		pattern = h.Text
	}
	if pattern == "" {
		return nil
	}
	return r.backend.ByAltText(pattern)
}

// strategySearchPlaceholder resolves the literal phrases "search field" and
// "search input" via a placeholder lookup for "search".
func strategySearchPlaceholder(_ context.Context, r *Resolver, d describe.Description, _ describe.SelectorHints) Locator {
	lower := strings.ToLower(d.Original)
	if strings.Contains(lower, "search field") || strings.Contains(lower, "search input") {
		return r.backend.ByPlaceholder("search")
	}
	return nil
}

// searchRole builds the role-query fallbacks for any description containing
// "search". Search widgets are marked up as combobox, searchbox or plain
// textbox depending on the site, so all three roles are tried in that order.
func searchRole(role string) strategyFunc {
	return func(_ context.Context, r *Resolver, d describe.Description, _ describe.SelectorHints) Locator {
		if !strings.Contains(strings.ToLower(d.Original), "search") {
			return nil
		}
		return r.backend.ByRole(role, "")
	}
}

func strategyRoleText(_ context.Context, r *Resolver, _ describe.Description, h describe.SelectorHints) Locator {
	if h.Role == "" || h.Text == "" {
		return nil
	}
	return r.backend.ByRole(h.Role, h.Text)
}

func strategyText(_ context.Context, r *Resolver, _ describe.Description, h describe.SelectorHints) Locator {
	if h.Text == "" {
		return nil
	}
	return r.backend.ByText(h.Text, h.Exact)
}

func strategyRole(_ context.Context, r *Resolver, _ describe.Description, h describe.SelectorHints) Locator {
	if h.Role == "" {
		return nil
	}
	return r.backend.ByRole(h.Role, "")
}

func strategyAriaLabel(_ context.Context, r *Resolver, _ describe.Description, h describe.SelectorHints) Locator {
	pattern := h.Label
	if pattern == "" {
		pattern = h.Text
	}
	if pattern == "" {
		return nil
	}
	return r.backend.ByLabel(pattern)
}

func strategyPlaceholder(_ context.Context, r *Resolver, _ describe.Description, h describe.SelectorHints) Locator {
	pattern := h.Placeholder
	if pattern == "" {
		pattern = h.Text
	}
	if pattern == "" {
		return nil
	}
	return r.backend.ByPlaceholder(pattern)
}

// rawText recovers tokens the normalizer may have over-stripped.
func rawText(d describe.Description) string {
	return strings.ToLower(strings.TrimSpace(d.Original))
}

func strategyAriaLabelRaw(_ context.Context, r *Resolver, d describe.Description, h describe.SelectorHints) Locator {
	raw := rawText(d)
	if raw == "" || raw == h.Text {
		return nil
	}
	return r.backend.ByLabel(raw)
}

func strategyPlaceholderRaw(_ context.Context, r *Resolver, d describe.Description, h describe.SelectorHints) Locator {
	raw := rawText(d)
	if raw == "" || raw == h.Text {
		return nil
	}
	return r.backend.ByPlaceholder(raw)
}

// strategyFuzzyWord is the last-resort text pass: each residual word of at
// least three characters is tried as its own text query, and a single match
// is accepted only when it lands on an interactive tag.
func strategyFuzzyWord(ctx context.Context, r *Resolver, d describe.Description, _ describe.SelectorHints) Locator {
	for _, word := range strings.Fields(d.Normalized) {
		if len(word) < 3 {
			continue
		}
		loc := r.backend.ByText(word, false)
		count, err := loc.Count(ctx)
		if err != nil || count == 0 {
			continue
		}
		if count > 1 {
			// Surface the ambiguity via the standard protocol.
			return loc
		}
		tag, err := loc.TagName(ctx)
		if err != nil || !interactiveTags[tag] {
			continue
		}
		return loc
	}
	return nil
}

// strategySelectorRetry is the defensive tail: the original string may turn
// out to be a selector after all (e.g. padded with whitespace that defeated
// the fast path).
func strategySelectorRetry(_ context.Context, r *Resolver, d describe.Description, _ describe.SelectorHints) Locator {
	trimmed := strings.TrimSpace(d.Original)
	if !looksLikeSelector(trimmed) {
		return nil
	}
	return r.backend.BySelector(trimmed)
}
