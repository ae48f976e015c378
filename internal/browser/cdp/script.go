// internal/browser/cdp/script.go
package cdp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// queryLib is the in-page query helper injected as part of every evaluation.
// It is a plain object expression so repeated evaluations never collide with
// page globals or with each other.
const queryLib = `
const __q = {
    roleSelectors: {
        button: 'button, input[type="button"], input[type="submit"], input[type="reset"]',
        link: 'a[href]',
        textbox: 'input:not([type]), input[type="text"], input[type="email"], input[type="password"], input[type="tel"], input[type="url"], textarea',
        searchbox: 'input[type="search"]',
        combobox: 'select, input[list]',
        checkbox: 'input[type="checkbox"]',
        radio: 'input[type="radio"]',
        img: 'img',
        image: 'img',
        heading: 'h1, h2, h3, h4, h5, h6',
        navigation: 'nav',
        banner: 'header',
        form: 'form',
        list: 'ul, ol',
        listitem: 'li',
        table: 'table',
        dialog: 'dialog',
        section: 'section'
    },

    visible(el) {
        const r = el.getBoundingClientRect();
        if (r.width <= 0 || r.height <= 0) return false;
        const s = window.getComputedStyle(el);
        return s.display !== 'none' && s.visibility !== 'hidden' && s.opacity !== '0';
    },

    enabled(el) {
        if (el.disabled) return false;
        return el.getAttribute('aria-disabled') !== 'true';
    },

    normText(s) {
        return (s || '').replace(/\s+/g, ' ').trim();
    },

    accName(el) {
        const aria = el.getAttribute('aria-label');
        if (aria) return aria;
        const lb = el.getAttribute('aria-labelledby');
        if (lb) {
            const t = lb.split(/\s+/).map(id => {
                const n = document.getElementById(id);
                return n ? n.textContent : '';
            }).join(' ');
            if (this.normText(t)) return this.normText(t);
        }
        if (el.labels && el.labels.length) {
            return this.normText(Array.from(el.labels).map(l => l.textContent).join(' '));
        }
        const alt = el.getAttribute('alt');
        if (alt) return alt;
        if (el.tagName === 'INPUT' && ['button', 'submit', 'reset'].includes(el.type)) {
            return el.value || '';
        }
        const ph = el.getAttribute('placeholder');
        if (ph) return ph;
        const title = el.getAttribute('title');
        if (title) return title;
        return this.normText(el.textContent);
    },

    byRole(role, name) {
        const implicit = this.roleSelectors[role] || '';
        const sel = '[role="' + role + '"]' + (implicit ? ', ' + implicit : '');
        const seen = new Set();
        let els = [];
        for (const el of document.querySelectorAll(sel)) {
            const explicit = el.getAttribute('role');
            if (explicit && explicit !== role) continue;
            if (!seen.has(el)) { seen.add(el); els.push(el); }
        }
        if (name) {
            const n = name.toLowerCase();
            els = els.filter(el => this.accName(el).toLowerCase().includes(n));
        }
        return els;
    },

    byText(text, exact) {
        const t = this.normText(text).toLowerCase();
        if (!t || !document.body) return [];
        const matches = [];
        for (const el of document.body.querySelectorAll('*')) {
            const txt = this.normText(el.textContent).toLowerCase();
            if (!txt) continue;
            if (exact ? txt === t : txt.includes(t)) matches.push(el);
        }
        // Keep only the deepest matching elements; every ancestor of a match
        // also contains the text.
        return matches.filter(el => !matches.some(o => o !== el && el.contains(o)));
    },

    byLabel(pattern) {
        const t = pattern.toLowerCase();
        const out = new Set();
        for (const lab of document.querySelectorAll('label')) {
            const txt = this.normText(lab.textContent).toLowerCase();
            if (!txt.includes(t)) continue;
            const ctrl = lab.control ||
                (lab.htmlFor ? document.getElementById(lab.htmlFor) : null) ||
                lab.querySelector('input, select, textarea, button');
            if (ctrl) out.add(ctrl);
        }
        for (const el of document.querySelectorAll('[aria-label]')) {
            if (el.getAttribute('aria-label').toLowerCase().includes(t)) out.add(el);
        }
        return Array.from(out);
    },

    byAttr(attr, pattern) {
        const t = pattern.toLowerCase();
        const out = [];
        for (const el of document.querySelectorAll('[' + attr + ']')) {
            if (el.getAttribute(attr).toLowerCase().includes(t)) out.push(el);
        }
        return out;
    },

    bySelector(sel) {
        if (sel.startsWith('/')) {
            const out = [];
            const it = document.evaluate(sel, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
            for (let i = 0; i < it.snapshotLength; i++) {
                const n = it.snapshotItem(i);
                if (n.nodeType === Node.ELEMENT_NODE) out.push(n);
            }
            return out;
        }
        return Array.from(document.querySelectorAll(sel));
    }
};`

// jsArg JSON-encodes a value for safe embedding in a script.
func jsArg(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// buildScript assembles one evaluation: the library, the query, the narrowing
// transforms, then the operation body operating on the final "els" array.
func buildScript(query string, transforms []string, body string) string {
	var sb strings.Builder
	sb.WriteString("(() => {\n\"use strict\";\n")
	sb.WriteString(queryLib)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "let els = %s;\n", query)
	for _, t := range transforms {
		fmt.Fprintf(&sb, "els = (%s)(els);\n", t)
	}
	sb.WriteString(body)
	sb.WriteString("\n})()")
	return sb.String()
}
