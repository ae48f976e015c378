// internal/describe/normalize.go
package describe

import "strings"

// Normalize turns a raw, informal element description into its structured
// form. It is a pure function and total: degenerate input yields an empty
// residual with no type, action or modifiers.
//
// The extraction steps run in a fixed order because each consumes the
// residual text of the one before it: verb phrase, stop words, position
// modifiers, color class, quoted text, element type, trailing parenthetical,
// final cleanup.
func Normalize(raw string) Description {
	d := Description{
		Original:   raw,
		Attributes: make(map[string]string),
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return d
	}

	text = extractAction(&d, text)
	text = removeStopWords(text)
	text = extractModifiers(&d, text)
	text = extractColor(&d, text)
	text = extractQuoted(&d, text)
	detectType(&d, text)
	text = extractParenthetical(&d, text)

	// Final cleanup: lowercase, drop residual punctuation except hyphens,
	// collapse whitespace.
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	d.Normalized = strings.TrimSpace(text)

	return d
}

// extractAction strips a recognized leading verb phrase and records the
// canonical action it implies.
func extractAction(d *Description, text string) string {
	for _, vp := range verbPatterns {
		if loc := vp.re.FindStringIndex(text); loc != nil {
			d.Action = vp.action
			return text[loc[1]:]
		}
	}
	return text
}

// removeStopWords drops articles, prepositions and demonstratives token-wise.
func removeStopWords(text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if !stopWords[strings.ToLower(f)] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// extractModifiers collects position modifiers in order of appearance and
// removes the matched words. Callers apply only the first applicable one.
func extractModifiers(d *Description, text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if m, ok := modifierWords[strings.ToLower(f)]; ok {
			d.Modifiers = append(d.Modifiers, m)
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// extractColor translates the first recognized color word into a semantic
// class hint ("red button" usually means the danger/error variant) and
// removes the color word from the text.
func extractColor(d *Description, text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	done := false
	for _, f := range fields {
		lower := strings.ToLower(f)
		if family, ok := colorClasses[lower]; ok && !done {
			d.Attributes["color"] = lower
			d.Attributes["class"] = family[0]
			done = true
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// extractQuoted lifts the first single- or double-quoted span into the exact
// text attribute, preserving its case, and removes it from the text.
func extractQuoted(d *Description, text string) string {
	m := quotedRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}
	// Group 1 is double-quoted content, group 2 single-quoted.
	if m[2] >= 0 {
		d.Attributes["text"] = text[m[2]:m[3]]
	} else {
		d.Attributes["text"] = text[m[4]:m[5]]
	}
	return strings.TrimSpace(text[:m[0]] + " " + text[m[1]:])
}

// detectType scans the residual text for a type synonym. The table is walked
// in declaration order and the first synonym hit stops the scan; the matched
// word stays in the text as descriptive content.
func detectType(d *Description, text string) {
	tokens := make(map[string]bool)
	for _, f := range strings.Fields(text) {
		tokens[strings.ToLower(f)] = true
	}
	for _, entry := range typeSynonyms {
		for _, syn := range entry.synonyms {
			if tokens[syn] {
				d.Type = entry.typ
				return
			}
		}
	}
}

// extractParenthetical parses a trailing "(key=value, key2)" group into
// freeform attributes. Bare tokens become the label hint.
func extractParenthetical(d *Description, text string) string {
	m := parentheticalRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}
	inner := text[m[2]:m[3]]
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if k, v, found := strings.Cut(part, "="); found {
			key := strings.ToLower(strings.TrimSpace(k))
			if key != "" {
				d.Attributes[key] = strings.TrimSpace(v)
			}
			continue
		}
		d.Attributes["label"] = part
	}
	return strings.TrimSpace(text[:m[0]])
}
