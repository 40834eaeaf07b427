// Package textnorm canonicalises rich-text fragments into comparable
// plain text. Widget text fields hold anything from bare strings to
// HTML with entities and nested markup; matching and dictionary output
// both work on the normalised form.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// strict strips every tag. Policies are safe for concurrent use.
var strict = bluemonday.StrictPolicy()

// Normalize strips markup, decodes HTML entities, collapses whitespace
// runs to single spaces, and trims. Empty input yields the empty
// string. Normalize is idempotent and case-preserving; comparisons on
// its output are case-sensitive.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	// StrictPolicy re-escapes text content, so decode entities after
	// stripping. A second decode pass is deliberately absent: the
	// output of Normalize contains no markup for a later pass to eat.
	text := strict.Sanitize(raw)
	text = html.UnescapeString(text)
	return collapseSpace(text)
}

// DefaultPreviewLen bounds preview snippets in candidate listings.
const DefaultPreviewLen = 140

// Preview returns s unchanged when it fits in maxLen characters,
// otherwise truncates to maxLen-3 and appends an ellipsis marker.
// maxLen <= 0 selects DefaultPreviewLen.
func Preview(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultPreviewLen
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	cut := maxLen - 3
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + "..."
}

func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
