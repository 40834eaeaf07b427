package slots

import "github.com/ferrostack/pagemend/element"

// TextSlot is one enumerated text slot with its owning node's
// addresses and the raw (un-normalised) current value.
type TextSlot struct {
	Node      *element.Node
	Path      element.Path
	Widget    string
	Field     string
	Repeater  string // settings field holding the items; empty outside repeaters
	ItemIndex int    // -1 outside repeaters
	Raw       string
}

// LinkSlot is one enumerated link slot.
type LinkSlot struct {
	Node      *element.Node
	Path      element.Path
	Widget    string
	Field     string
	ItemIndex int
	Value     Link
}

// ImageSlot is one enumerated image or background-image slot. Widget
// is empty for background images on layout elements; Owner then names
// the element kind instead.
type ImageSlot struct {
	Node  *element.Node
	Path  element.Path
	Kind  Kind
	Owner string
	Field string
	Value Image
}

// allowSet turns an allow-list into a set; nil or empty means every
// widget type the table knows.
func (t *Table) allowSet(allowed []string) map[string]bool {
	set := map[string]bool{}
	if len(allowed) == 0 {
		for w := range t.widgets {
			set[w] = true
		}
		return set
	}
	for _, w := range allowed {
		set[w] = true
	}
	return set
}

// TextSlots walks the tree depth-first and enumerates every text slot
// of allowed widgets: plain fields in declaration order, then each
// repeater item's fields in item order. The walk never mutates the
// tree and is safe to repeat within a request.
func (t *Table) TextSlots(tree *element.Tree, allowed []string) []TextSlot {
	set := t.allowSet(allowed)
	var out []TextSlot
	tree.Walk(func(n *element.Node, p element.Path) bool {
		if !n.IsWidget() || !set[n.Widget] {
			return true
		}
		w, ok := t.widgets[n.Widget]
		if !ok {
			return true
		}
		for _, f := range w.TextFields {
			out = append(out, TextSlot{
				Node: n, Path: p, Widget: n.Widget,
				Field: f, ItemIndex: -1, Raw: Text(n, f),
			})
		}
		if rep := w.Repeater; rep != nil {
			for i := 0; i < itemCount(n, rep.Field); i++ {
				for _, f := range rep.TextFields {
					raw, _ := ItemText(n, rep.Field, i, f)
					out = append(out, TextSlot{
						Node: n, Path: p, Widget: n.Widget,
						Field: f, Repeater: rep.Field, ItemIndex: i, Raw: raw,
					})
				}
			}
		}
		return true
	})
	return out
}

// LinkSlots enumerates every link slot of allowed widgets, including
// per-item repeater links. Only link objects actually present in the
// settings are reported.
func (t *Table) LinkSlots(tree *element.Tree, allowed []string) []LinkSlot {
	set := t.allowSet(allowed)
	var out []LinkSlot
	tree.Walk(func(n *element.Node, p element.Path) bool {
		if !n.IsWidget() || !set[n.Widget] {
			return true
		}
		w, ok := t.widgets[n.Widget]
		if !ok {
			return true
		}
		if w.LinkField != "" {
			if l, ok := GetLink(n, w.LinkField); ok {
				out = append(out, LinkSlot{
					Node: n, Path: p, Widget: n.Widget,
					Field: w.LinkField, ItemIndex: -1, Value: l,
				})
			}
		}
		if rep := w.Repeater; rep != nil && rep.LinkField != "" {
			for i := 0; i < itemCount(n, rep.Field); i++ {
				if l, ok := GetItemLink(n, rep.Field, i, rep.LinkField); ok {
					out = append(out, LinkSlot{
						Node: n, Path: p, Widget: n.Widget,
						Field: rep.LinkField, ItemIndex: i, Value: l,
					})
				}
			}
		}
		return true
	})
	return out
}

// ImageSlots enumerates image slots of image-bearing widgets and
// background-image slots of layout elements that support one.
func (t *Table) ImageSlots(tree *element.Tree) []ImageSlot {
	var out []ImageSlot
	tree.Walk(func(n *element.Node, p element.Path) bool {
		if n.IsWidget() {
			w, ok := t.widgets[n.Widget]
			if !ok || w.ImageField == "" {
				return true
			}
			img, _ := GetImage(n, w.ImageField)
			out = append(out, ImageSlot{
				Node: n, Path: p, Kind: KindImage,
				Owner: n.Widget, Field: w.ImageField, Value: img,
			})
			return true
		}
		if f, ok := t.background[n.Kind]; ok {
			if img, present := GetImage(n, f); present {
				out = append(out, ImageSlot{
					Node: n, Path: p, Kind: KindBackgroundImage,
					Owner: n.Kind, Field: f, Value: img,
				})
			}
		}
		return true
	})
	return out
}

func itemCount(n *element.Node, repeaterField string) int {
	if n.Settings == nil {
		return 0
	}
	items, ok := n.Settings[repeaterField].([]any)
	if !ok {
		return 0
	}
	return len(items)
}
