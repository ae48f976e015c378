// internal/describe/describe.go
package describe

import "fmt"

// ElementType is a semantic role inferred from the description text.
type ElementType string

const (
	TypeButton     ElementType = "button"
	TypeLink       ElementType = "link"
	TypeTextbox    ElementType = "textbox"
	TypeSearchbox  ElementType = "searchbox"
	TypeCombobox   ElementType = "combobox"
	TypeCheckbox   ElementType = "checkbox"
	TypeRadio      ElementType = "radio"
	TypeListbox    ElementType = "listbox"
	TypeImage      ElementType = "image"
	TypeHeading    ElementType = "heading"
	TypeList       ElementType = "list"
	TypeTable      ElementType = "table"
	TypeForm       ElementType = "form"
	TypeNavigation ElementType = "navigation"
	TypeMain       ElementType = "main"
	TypeArticle    ElementType = "article"
	TypeSection    ElementType = "section"
)

// Action is the canonical interaction verb implied by a leading verb phrase.
type Action string

const (
	ActionClick    Action = "click"
	ActionType     Action = "type"
	ActionFill     Action = "fill"
	ActionSelect   Action = "select"
	ActionCheck    Action = "check"
	ActionUncheck  Action = "uncheck"
	ActionHover    Action = "hover"
	ActionScroll   Action = "scroll"
	ActionNavigate Action = "navigate"
	ActionFind     Action = "find"
)

// ModifierKind discriminates position modifier variants.
type ModifierKind int

const (
	ModFirst ModifierKind = iota
	ModLast
	ModNth
	ModPosition
)

// Modifier is a parsed ordinal or positional qualifier. A non-empty modifier
// list is an explicit acknowledgment that multiple matches may exist, so it
// suppresses the ambiguous-match failure during resolution.
type Modifier struct {
	Kind  ModifierKind
	Index int    // zero-based, ModNth only
	Edge  string // top/bottom/left/right/center, ModPosition only
}

// String renders the canonical token form, e.g. ":first" or ":nth(1)".
func (m Modifier) String() string {
	switch m.Kind {
	case ModFirst:
		return ":first"
	case ModLast:
		return ":last"
	case ModNth:
		return fmt.Sprintf(":nth(%d)", m.Index)
	case ModPosition:
		return ":position(" + m.Edge + ")"
	}
	return ":unknown"
}

// Description is the structured form of a raw element description. It is
// derived once per input and never mutated afterwards.
type Description struct {
	// Original is the verbatim input string.
	Original string
	// Normalized is the lowercased, stop-word-stripped residual text left
	// after every extraction step has consumed its piece.
	Normalized string
	// Type is the inferred semantic role, or "" when none matched.
	Type ElementType
	// Action is the canonical verb stripped from the front, or "".
	Action Action
	// Modifiers holds position selectors in extraction order. Callers apply
	// only the first applicable one; the rest are diagnostic.
	Modifiers []Modifier
	// Attributes holds extracted hints: "text" (quoted phrase), "color" and
	// "class" (color vocabulary), "label"/"placeholder" and freeform pairs
	// from a trailing parenthetical.
	Attributes map[string]string
}

// SelectorHints projects a Description into backend query terms.
type SelectorHints struct {
	Role        string
	Text        string
	Exact       bool // Text came from a quoted span and must be matched exactly
	Label       string
	Placeholder string
	Class       string
	Modifiers   []Modifier
}

// Hints maps the description onto query terms: role from the element type,
// text from the quoted phrase when present (a stronger signal than the
// residual), and label/placeholder/class from extracted attributes.
func (d Description) Hints() SelectorHints {
	h := SelectorHints{
		Role:      string(d.Type),
		Modifiers: d.Modifiers,
	}
	if t, ok := d.Attributes["text"]; ok && t != "" {
		h.Text = t
		h.Exact = true
	} else {
		h.Text = d.Normalized
	}
	h.Label = d.Attributes["label"]
	h.Placeholder = d.Attributes["placeholder"]
	h.Class = d.Attributes["class"]
	return h
}
