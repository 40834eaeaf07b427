// Package findreplace implements the count-then-conditionally-mutate
// substring replacement over a page tree. Matching is containment on
// normalised text; mutation happens only when the whole tree holds
// exactly one match. "Not found" and "ambiguous" are ordinary outcomes
// carried in the result, not errors.
package findreplace

import (
	"strings"

	"github.com/ferrostack/pagemend/element"
	"github.com/ferrostack/pagemend/slots"
	"github.com/ferrostack/pagemend/textnorm"
)

// Status is the outcome of a find/replace pass.
type Status string

const (
	StatusNotFound  Status = "not_found"
	StatusAmbiguous Status = "ambiguous"
	StatusReplaced  Status = "replaced"
)

// Candidate describes one matching slot, for disambiguation by the
// caller. Path is only valid against the tree revision that produced
// it.
type Candidate struct {
	WidgetType string `json:"widget_type"`
	Field      string `json:"field"`
	ItemIndex  *int   `json:"item_index,omitempty"`
	Preview    string `json:"preview"`
	Path       string `json:"path"`
}

// Result reports a find/replace pass. Candidates is populated for
// StatusAmbiguous (one per match) and for StatusReplaced (exactly the
// mutated slot); it is empty for StatusNotFound.
type Result struct {
	Status     Status      `json:"status"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Replace runs one find/replace pass against the tree.
//
// The find string is normalised first; an empty normalised form
// short-circuits to not-found rather than matching everything. Every
// text slot of the allowed widget types is checked for containment of
// the normalised find string in its normalised value. Zero matches or
// more than one leave the tree untouched — there is deliberately no
// implicit first-match winner; ambiguity always goes back to the
// caller with the full candidate list.
//
// With exactly one match, the slot is mutated: when the raw value
// contains the raw find string verbatim, only its first occurrence is
// spliced out; otherwise (the match existed only after normalisation,
// e.g. entities or markup in between) the whole slot value becomes the
// replacement string.
func Replace(tree *element.Tree, table *slots.Table, allowed []string, find, replacement string) Result {
	normFind := textnorm.Normalize(find)
	if normFind == "" {
		return Result{Status: StatusNotFound}
	}

	var matches []slots.TextSlot
	for _, s := range table.TextSlots(tree, allowed) {
		if strings.Contains(textnorm.Normalize(s.Raw), normFind) {
			matches = append(matches, s)
		}
	}

	switch len(matches) {
	case 0:
		return Result{Status: StatusNotFound}
	case 1:
		// Single match: mutate and stop.
		m := matches[0]
		var updated string
		if strings.Contains(m.Raw, find) {
			updated = strings.Replace(m.Raw, find, replacement, 1)
		} else {
			updated = replacement
		}
		writeSlot(m, updated)
		return Result{Status: StatusReplaced, Candidates: []Candidate{describe(m)}}
	default:
		out := make([]Candidate, len(matches))
		for i, m := range matches {
			out[i] = describe(m)
		}
		return Result{Status: StatusAmbiguous, Candidates: out}
	}
}

func writeSlot(s slots.TextSlot, value string) {
	if s.ItemIndex < 0 {
		slots.SetText(s.Node, s.Field, value)
		return
	}
	// The repeater field comes from the same table that enumerated the
	// slot, so the item is known to exist.
	slots.SetItemText(s.Node, s.Repeater, s.ItemIndex, s.Field, value)
}

func describe(s slots.TextSlot) Candidate {
	var idx *int
	if s.ItemIndex >= 0 {
		v := s.ItemIndex
		idx = &v
	}
	return Candidate{
		WidgetType: s.Widget,
		Field:      s.Field,
		ItemIndex:  idx,
		Preview:    textnorm.Preview(textnorm.Normalize(s.Raw), 0),
		Path:       s.Path.String(),
	}
}
