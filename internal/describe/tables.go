// internal/describe/tables.go
package describe

import "regexp"

// All tables in this file are read-only after init and safe to share across
// concurrent Normalize calls.

// verbPattern couples a leading verb-phrase regexp with the canonical action
// it implies. Patterns are tried in declaration order; the first hit wins and
// the matched phrase is stripped from the text.
type verbPattern struct {
	re     *regexp.Regexp
	action Action
}

var verbPatterns = []verbPattern{
	{regexp.MustCompile(`(?i)^(?:click|press|tap)(?:\s+on)?(?:\s+the)?\s+`), ActionClick},
	{regexp.MustCompile(`(?i)^(?:type|enter|input)(?:\s+(?:in|into))?(?:\s+the)?\s+`), ActionType},
	{regexp.MustCompile(`(?i)^fill(?:\s+(?:in|out))?(?:\s+the)?\s+`), ActionFill},
	{regexp.MustCompile(`(?i)^(?:select|choose|pick)(?:\s+from)?(?:\s+the)?\s+`), ActionSelect},
	{regexp.MustCompile(`(?i)^(?:check|tick|mark)(?:\s+the)?\s+`), ActionCheck},
	{regexp.MustCompile(`(?i)^(?:uncheck|untick|unmark)(?:\s+the)?\s+`), ActionUncheck},
	{regexp.MustCompile(`(?i)^hover(?:\s+over)?(?:\s+the)?\s+`), ActionHover},
	{regexp.MustCompile(`(?i)^scroll\s+to(?:\s+the)?\s+`), ActionScroll},
	{regexp.MustCompile(`(?i)^(?:navigate|go)\s+to(?:\s+the)?\s+`), ActionNavigate},
	{regexp.MustCompile(`(?i)^(?:find|locate)(?:\s+the)?\s+`), ActionFind},
}

// stopWords are removed token-wise after verb stripping. Articles,
// prepositions and demonstratives carry no selector information.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true,
	"this": true, "that": true, "these": true, "those": true,
	"of": true, "on": true, "in": true, "into": true,
	"at": true, "for": true, "with": true, "from": true,
	"to": true, "by": true,
}

// modifierWords maps positional vocabulary to canonical modifiers.
// Nth indices are zero-based: "second" selects index 1.
var modifierWords = map[string]Modifier{
	"first":  {Kind: ModFirst},
	"last":   {Kind: ModLast},
	"second": {Kind: ModNth, Index: 1},
	"third":  {Kind: ModNth, Index: 2},
	"top":    {Kind: ModPosition, Edge: "top"},
	"bottom": {Kind: ModPosition, Edge: "bottom"},
	"left":   {Kind: ModPosition, Edge: "left"},
	"right":  {Kind: ModPosition, Edge: "right"},
	"middle": {Kind: ModPosition, Edge: "center"},
	"center": {Kind: ModPosition, Edge: "center"},
}

// colorClasses maps a literal color word to the semantic CSS class family it
// usually styles. The first entry is the representative class stored in the
// "class" attribute; the full family is available to callers via ClassFamily.
var colorClasses = map[string][]string{
	"red":    {"danger", "error", "alert", "warning"},
	"green":  {"success", "confirm"},
	"blue":   {"primary", "info"},
	"yellow": {"warning"},
	"orange": {"warning"},
	"gray":   {"disabled", "secondary"},
	"grey":   {"disabled", "secondary"},
}

// typeEntry binds a semantic element type to the words users reach for when
// describing it. Entries are scanned in declaration order and the first
// synonym hit stops the scan.
type typeEntry struct {
	typ      ElementType
	synonyms []string
}

var typeSynonyms = []typeEntry{
	{TypeButton, []string{"button", "btn", "submit"}},
	{TypeLink, []string{"link", "anchor", "hyperlink"}},
	{TypeTextbox, []string{"textbox", "input", "field", "text"}},
	{TypeSearchbox, []string{"searchbox", "search"}},
	{TypeCombobox, []string{"combobox", "dropdown", "select"}},
	{TypeCheckbox, []string{"checkbox"}},
	{TypeRadio, []string{"radio"}},
	{TypeListbox, []string{"listbox"}},
	{TypeImage, []string{"image", "img", "picture", "photo", "icon", "logo"}},
	{TypeHeading, []string{"heading", "header", "title"}},
	{TypeList, []string{"list", "menu"}},
	{TypeTable, []string{"table", "grid"}},
	{TypeForm, []string{"form"}},
	{TypeNavigation, []string{"navigation", "nav", "navbar"}},
	{TypeMain, []string{"main", "content"}},
	{TypeArticle, []string{"article", "post"}},
	{TypeSection, []string{"section", "panel"}},
}

// ClassFamily returns the semantic class family for a literal color word, or
// nil when the word is not in the color vocabulary.
func ClassFamily(color string) []string {
	return colorClasses[color]
}

var (
	quotedRe        = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	parentheticalRe = regexp.MustCompile(`\(([^)]*)\)\s*$`)
	nonWordRe       = regexp.MustCompile(`[^\w\s-]`)
	spaceRe         = regexp.MustCompile(`\s+`)
)
