// internal/describe/normalize_test.go
package describe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuotedButton(t *testing.T) {
	d := Normalize(`click the "Submit Now" button`)

	assert.Equal(t, ActionClick, d.Action)
	assert.Equal(t, TypeButton, d.Type)
	assert.Equal(t, "Submit Now", d.Attributes["text"], "quoted text keeps its original case")
	assert.Equal(t, "button", d.Normalized)
	assert.Empty(t, d.Modifiers)

	h := d.Hints()
	assert.Equal(t, "button", h.Role)
	assert.Equal(t, "Submit Now", h.Text)
	assert.True(t, h.Exact, "quoted text must be matched exactly")
}

func TestNormalizeColorTranslation(t *testing.T) {
	d := Normalize("red warning banner")

	assert.Equal(t, "red", d.Attributes["color"])
	assert.Equal(t, "danger", d.Attributes["class"])
	assert.Equal(t, "warning banner", d.Normalized)
	assert.Empty(t, string(d.Type), "banner is not in the type vocabulary")
}

func TestNormalizeModifierAndColor(t *testing.T) {
	d := Normalize("first blue button")

	require.Len(t, d.Modifiers, 1)
	assert.Equal(t, ModFirst, d.Modifiers[0].Kind)
	assert.Equal(t, "blue", d.Attributes["color"])
	assert.Equal(t, "primary", d.Attributes["class"])
	assert.Equal(t, TypeButton, d.Type)
	assert.Equal(t, "button", d.Normalized)
}

func TestNormalizeOrdinalIsZeroBased(t *testing.T) {
	d := Normalize("second item in the list")

	require.Len(t, d.Modifiers, 1)
	assert.Equal(t, ModNth, d.Modifiers[0].Kind)
	assert.Equal(t, 1, d.Modifiers[0].Index)
	assert.Equal(t, TypeList, d.Type)
	assert.Equal(t, "item list", d.Normalized, "stop words are stripped")
}

func TestNormalizeVerbPhrases(t *testing.T) {
	cases := []struct {
		in     string
		action Action
		rest   string
	}{
		{"click on the save button", ActionClick, "save button"},
		{"type into the search field", ActionType, "search field"},
		{"fill out the address form", ActionFill, "address form"},
		{"choose the country dropdown", ActionSelect, "country dropdown"},
		{"check the terms checkbox", ActionCheck, "terms checkbox"},
		{"hover over the profile menu", ActionHover, "profile menu"},
		{"go to the settings link", ActionNavigate, "settings link"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			d := Normalize(tc.in)
			assert.Equal(t, tc.action, d.Action)
			assert.Equal(t, tc.rest, d.Normalized)
		})
	}
}

func TestNormalizeVerbCaseInsensitive(t *testing.T) {
	d := Normalize("CLICK THE 'Save' BUTTON")

	assert.Equal(t, ActionClick, d.Action)
	assert.Equal(t, "Save", d.Attributes["text"])
	assert.Equal(t, TypeButton, d.Type)
	assert.Equal(t, "button", d.Normalized)
}

func TestNormalizeParenthetical(t *testing.T) {
	d := Normalize("username field (placeholder=Enter username)")

	assert.Equal(t, TypeTextbox, d.Type)
	assert.Equal(t, "Enter username", d.Attributes["placeholder"])
	assert.Equal(t, "username field", d.Normalized)

	h := d.Hints()
	assert.Equal(t, "Enter username", h.Placeholder)
}

func TestNormalizeParentheticalBareToken(t *testing.T) {
	d := Normalize("input (Email)")
	assert.Equal(t, "Email", d.Attributes["label"])
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		d := Normalize(in)
		assert.Empty(t, d.Normalized)
		assert.Empty(t, string(d.Type))
		assert.Empty(t, string(d.Action))
		assert.Empty(t, d.Modifiers)
	}
}

func TestNormalizeTypeWordStaysInResidual(t *testing.T) {
	// The type word doubles as descriptive content: "login link" must still
	// query for the full phrase, not just "login".
	d := Normalize("login link")
	assert.Equal(t, TypeLink, d.Type)
	assert.Equal(t, "login link", d.Normalized)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	a := Normalize("press the second red submit button")
	b := Normalize("press the second red submit button")
	assert.Equal(t, a, b)
}

func TestHintsFallBackToResidualText(t *testing.T) {
	d := Normalize("logout button")
	h := d.Hints()
	assert.Equal(t, "logout button", h.Text)
	assert.False(t, h.Exact)
}

func TestModifierString(t *testing.T) {
	assert.Equal(t, ":first", Modifier{Kind: ModFirst}.String())
	assert.Equal(t, ":last", Modifier{Kind: ModLast}.String())
	assert.Equal(t, ":nth(1)", Modifier{Kind: ModNth, Index: 1}.String())
	assert.Equal(t, ":position(top)", Modifier{Kind: ModPosition, Edge: "top"}.String())
}

func TestClassFamily(t *testing.T) {
	assert.Equal(t, []string{"danger", "error", "alert", "warning"}, ClassFamily("red"))
	assert.Nil(t, ClassFamily("mauve"))
}
