// Package edits turns untrusted, externally produced edit payloads
// into a validated tagged union and applies batches of them to a page
// tree. Raw items come from the proposal service or straight from a
// caller's request body; nothing is ever decoded directly into the
// internal edit type.
package edits

import (
	"strconv"
	"strings"

	"github.com/ferrostack/pagemend/slots"
)

// Kind tags a validated edit.
type Kind string

const (
	KindText  Kind = "text"
	KindLink  Kind = "link"
	KindImage Kind = "image"
)

// Edit is one validated, classified edit. Exactly one payload group is
// meaningful, selected by Kind. Path stays unparsed here; resolution
// against a concrete tree happens at apply time.
type Edit struct {
	ID        string
	Path      string
	Field     string
	ItemIndex int // -1 when absent

	Kind Kind

	Text string

	Link        slots.Link
	HasExternal bool
	HasNofollow bool

	Image slots.Image
}

// Normalize validates and classifies raw edit items. Items that are
// not objects, carry neither id nor path, or lack a recognisable
// payload for any supported kind are rejected; rejected is how many
// were dropped. When one item carries several payload shapes, image
// wins over link wins over text.
func Normalize(raw []any) (out []Edit, rejected int) {
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			rejected++
			continue
		}
		e := Edit{
			ID:        str(m, "id"),
			Path:      str(m, "path"),
			Field:     str(m, "field"),
			ItemIndex: intOr(m, "item_index", -1),
		}
		if e.ID == "" && e.Path == "" {
			rejected++
			continue
		}

		switch {
		case classifyImage(m, &e):
			e.Kind = KindImage
		case classifyLink(m, &e):
			e.Kind = KindLink
		case classifyText(m, &e):
			e.Kind = KindText
		default:
			rejected++
			continue
		}
		out = append(out, e)
	}
	return out, rejected
}

func classifyImage(m map[string]any, e *Edit) bool {
	url := str(m, "image_url")
	if url == "" {
		switch img := m["image"].(type) {
		case string:
			url = strings.TrimSpace(img)
		case map[string]any:
			url = str(img, "url")
			if e.Image.AttachmentID == 0 {
				e.Image.AttachmentID = attachmentRef(img["id"])
			}
		}
	}
	id := attachmentRef(m["attachment_id"])
	if id == 0 {
		id = attachmentRef(m["image_id"])
	}
	if id != 0 {
		e.Image.AttachmentID = id
	}
	e.Image.URL = url
	return e.Image.URL != "" || e.Image.AttachmentID > 0
}

func classifyLink(m map[string]any, e *Edit) bool {
	url := str(m, "url")
	if url == "" {
		url = str(m, "link_url")
	}
	if url == "" {
		return false
	}
	e.Link.URL = url
	if v, ok := firstOf(m, "is_external", "external"); ok {
		e.Link.External = truthy(v)
		e.HasExternal = true
	}
	if v, ok := m["nofollow"]; ok {
		e.Link.Nofollow = truthy(v)
		e.HasNofollow = true
	}
	return true
}

func classifyText(m map[string]any, e *Edit) bool {
	for _, key := range []string{"text", "new_text"} {
		if v, ok := m[key].(string); ok && v != "" {
			e.Text = v
			return true
		}
	}
	return false
}

// attachmentRef coerces a numeric-looking attachment reference to a
// positive int; zero, negatives and non-numeric values mean absent.
func attachmentRef(v any) int {
	switch t := v.(type) {
	case float64:
		if t > 0 && t == float64(int(t)) {
			return int(t)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func intOr(m map[string]any, key string, def int) int {
	switch t := m[key].(type) {
	case float64:
		if t >= 0 && t == float64(int(t)) {
			return int(t)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func firstOf(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func truthy(v any) bool {
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
