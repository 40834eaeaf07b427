package slots

import (
	"strconv"

	"github.com/ferrostack/pagemend/element"
)

// Link is the URL-plus-flags value of a link slot.
type Link struct {
	URL      string `json:"url"`
	External bool   `json:"is_external,omitempty"`
	Nofollow bool   `json:"nofollow,omitempty"`
}

// Image is the value of an image or background-image slot. An
// AttachmentID of zero means no attachment reference.
type Image struct {
	URL          string `json:"url"`
	AttachmentID int    `json:"id,omitempty"`
}

// Text reads a plain text field from the node's settings. Missing
// fields read as empty; present but non-string values also read as
// empty rather than leaking structure into text comparisons.
func Text(n *element.Node, field string) string {
	if n.Settings == nil {
		return ""
	}
	s, _ := n.Settings[field].(string)
	return s
}

// SetText writes a plain text field, allocating settings when absent.
func SetText(n *element.Node, field, value string) {
	if n.Settings == nil {
		n.Settings = map[string]any{}
	}
	n.Settings[field] = value
}

// ItemText reads a text field of the itemIndex-th repeater item.
// ok is false when the repeater field or item does not exist.
func ItemText(n *element.Node, repeaterField string, itemIndex int, field string) (string, bool) {
	m, ok := itemMap(n, repeaterField, itemIndex)
	if !ok {
		return "", false
	}
	s, _ := m[field].(string)
	return s, true
}

// SetItemText writes a text field of an existing repeater item.
// Items are never created implicitly.
func SetItemText(n *element.Node, repeaterField string, itemIndex int, field, value string) bool {
	m, ok := itemMap(n, repeaterField, itemIndex)
	if !ok {
		return false
	}
	m[field] = value
	return true
}

// GetLink reads a plain link field. ok is false when the field is
// absent or not a link object.
func GetLink(n *element.Node, field string) (Link, bool) {
	if n.Settings == nil {
		return Link{}, false
	}
	return linkFrom(n.Settings[field])
}

// SetLink writes a plain link field, replacing any previous value.
func SetLink(n *element.Node, field string, l Link) {
	if n.Settings == nil {
		n.Settings = map[string]any{}
	}
	n.Settings[field] = linkObject(l)
}

// GetItemLink reads a link field of a repeater item.
func GetItemLink(n *element.Node, repeaterField string, itemIndex int, field string) (Link, bool) {
	m, ok := itemMap(n, repeaterField, itemIndex)
	if !ok {
		return Link{}, false
	}
	return linkFrom(m[field])
}

// SetItemLink writes a link field of an existing repeater item.
func SetItemLink(n *element.Node, repeaterField string, itemIndex int, field string, l Link) bool {
	m, ok := itemMap(n, repeaterField, itemIndex)
	if !ok {
		return false
	}
	m[field] = linkObject(l)
	return true
}

// GetImage reads an image or background-image field.
func GetImage(n *element.Node, field string) (Image, bool) {
	if n.Settings == nil {
		return Image{}, false
	}
	obj, isMap := n.Settings[field].(map[string]any)
	if !isMap {
		return Image{}, false
	}
	img := Image{}
	img.URL, _ = obj["url"].(string)
	switch id := obj["id"].(type) {
	case float64:
		img.AttachmentID = int(id)
	case string:
		if v, err := strconv.Atoi(id); err == nil {
			img.AttachmentID = v
		}
	}
	if img.AttachmentID < 0 {
		img.AttachmentID = 0
	}
	return img, true
}

// SetImage writes an image field. A zero AttachmentID omits the id key.
func SetImage(n *element.Node, field string, img Image) {
	if n.Settings == nil {
		n.Settings = map[string]any{}
	}
	obj := map[string]any{"url": img.URL}
	if img.AttachmentID > 0 {
		obj["id"] = float64(img.AttachmentID)
	}
	n.Settings[field] = obj
}

// itemMap returns the itemIndex-th item map of a repeater field.
func itemMap(n *element.Node, repeaterField string, itemIndex int) (map[string]any, bool) {
	if n.Settings == nil || itemIndex < 0 {
		return nil, false
	}
	items, ok := n.Settings[repeaterField].([]any)
	if !ok || itemIndex >= len(items) {
		return nil, false
	}
	m, ok := items[itemIndex].(map[string]any)
	return m, ok
}

func linkFrom(v any) (Link, bool) {
	obj, isMap := v.(map[string]any)
	if !isMap {
		return Link{}, false
	}
	l := Link{}
	l.URL, _ = obj["url"].(string)
	l.External = flagSet(obj["is_external"])
	l.Nofollow = flagSet(obj["nofollow"])
	return l, true
}

func linkObject(l Link) map[string]any {
	obj := map[string]any{"url": l.URL}
	if l.External {
		obj["is_external"] = "on"
	}
	if l.Nofollow {
		obj["nofollow"] = "on"
	}
	return obj
}

// flagSet interprets the loose truthy encodings link flags arrive in.
func flagSet(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "on" || t == "yes" || t == "true" || t == "1"
	case float64:
		return t != 0
	}
	return false
}
