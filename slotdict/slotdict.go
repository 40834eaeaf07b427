// Package slotdict builds the ephemeral flat representation of a
// tree's editable slots: one entry per text/link slot and one per
// image-capable node. The dictionary is rebuilt from the current tree
// on every request, handed to the edit-proposal service and the
// inspection API, and never persisted.
package slotdict

import (
	"github.com/ferrostack/pagemend/element"
	"github.com/ferrostack/pagemend/slots"
	"github.com/ferrostack/pagemend/textnorm"
)

// Entry describes one text or link slot.
type Entry struct {
	ID         string `json:"id,omitempty"`
	Path       string `json:"path"`
	WidgetType string `json:"widget_type"`
	Field      string `json:"field"`
	ItemIndex  *int   `json:"item_index,omitempty"`
	Text       string `json:"text,omitempty"`
	LinkURL    string `json:"link_url,omitempty"`
}

// ImageEntry describes one image or background-image slot.
type ImageEntry struct {
	ID           string `json:"id,omitempty"`
	Path         string `json:"path"`
	Kind         string `json:"kind"`
	Owner        string `json:"owner"`
	Field        string `json:"field"`
	URL          string `json:"url,omitempty"`
	AttachmentID int    `json:"attachment_id,omitempty"`
}

// Build walks the tree once and emits one entry per text slot and one
// per present link slot of the allowed widget types. Text values are
// normalised, and truncated to maxTextLen runes when maxTextLen > 0
// (token-budget control for the proposal leg); the source tree is
// never mutated. Build is side-effect-free and repeatable within a
// request.
func Build(tree *element.Tree, table *slots.Table, allowed []string, maxTextLen int) []Entry {
	var out []Entry
	for _, s := range table.TextSlots(tree, allowed) {
		text := textnorm.Normalize(s.Raw)
		if maxTextLen > 0 {
			if runes := []rune(text); len(runes) > maxTextLen {
				text = string(runes[:maxTextLen])
			}
		}
		out = append(out, Entry{
			ID:         s.Node.ID,
			Path:       s.Path.String(),
			WidgetType: s.Widget,
			Field:      s.Field,
			ItemIndex:  indexPtr(s.ItemIndex),
			Text:       text,
		})
	}
	for _, s := range table.LinkSlots(tree, allowed) {
		out = append(out, Entry{
			ID:         s.Node.ID,
			Path:       s.Path.String(),
			WidgetType: s.Widget,
			Field:      s.Field,
			ItemIndex:  indexPtr(s.ItemIndex),
			LinkURL:    s.Value.URL,
		})
	}
	return out
}

// BuildImageSlots emits one entry per image-widget slot and per
// background-image-capable node with an image set.
func BuildImageSlots(tree *element.Tree, table *slots.Table) []ImageEntry {
	var out []ImageEntry
	for _, s := range table.ImageSlots(tree) {
		out = append(out, ImageEntry{
			ID:           s.Node.ID,
			Path:         s.Path.String(),
			Kind:         string(s.Kind),
			Owner:        s.Owner,
			Field:        s.Field,
			URL:          s.Value.URL,
			AttachmentID: s.Value.AttachmentID,
		})
	}
	return out
}

func indexPtr(i int) *int {
	if i < 0 {
		return nil
	}
	v := i
	return &v
}
