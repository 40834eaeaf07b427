// Package element models a page layout as a tree of elements.
//
// An element is either a widget (carries a widget type and editable
// settings) or a layout node (section, column, container) that mostly
// exists to hold children. Trees arrive as JSON from the page builder
// in one of two root forms: a bare array of elements, or a document
// wrapper whose "content" field holds that array. Both forms parse and
// serialise transparently, and unknown fields survive a round trip
// untouched — the store treats the tree as an opaque blob and callers
// expect to get back exactly what they saved.
package element

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Element kinds. KindWidget marks editable leaf widgets; everything
// else is layout structure.
const (
	KindWidget    = "widget"
	KindSection   = "section"
	KindColumn    = "column"
	KindContainer = "container"
)

// Node is one element in the tree.
type Node struct {
	Kind     string
	Widget   string
	ID       string
	Settings map[string]any
	Children []*Node

	// extra holds node-level fields this service does not interpret.
	// They are re-emitted verbatim on marshal.
	extra map[string]json.RawMessage
}

// IsWidget reports whether the node is an editable widget.
func (n *Node) IsWidget() bool { return n.Kind == KindWidget }

// nodeKey names the JSON fields the node model interprets.
var nodeKeys = map[string]bool{
	"kind":        true,
	"widget_type": true,
	"id":          true,
	"settings":    true,
	"children":    true,
}

// UnmarshalJSON decodes a node, stashing unrecognised fields so they
// round-trip.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["kind"]; ok {
		if err := json.Unmarshal(v, &n.Kind); err != nil {
			return fmt.Errorf("element: kind: %w", err)
		}
	}
	if v, ok := raw["widget_type"]; ok {
		if err := json.Unmarshal(v, &n.Widget); err != nil {
			return fmt.Errorf("element: widget_type: %w", err)
		}
	}
	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &n.ID); err != nil {
			return fmt.Errorf("element: id: %w", err)
		}
	}
	if v, ok := raw["settings"]; ok {
		if err := json.Unmarshal(v, &n.Settings); err != nil {
			return fmt.Errorf("element: settings: %w", err)
		}
	}
	if v, ok := raw["children"]; ok {
		if err := json.Unmarshal(v, &n.Children); err != nil {
			return fmt.Errorf("element: children: %w", err)
		}
	}
	for k, v := range raw {
		if nodeKeys[k] {
			continue
		}
		if n.extra == nil {
			n.extra = map[string]json.RawMessage{}
		}
		n.extra[k] = v
	}
	return nil
}

// MarshalJSON emits known fields plus any preserved extras, with
// deterministic key order.
func (n *Node) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	put := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("element: marshal %s: %w", key, err)
		}
		fields[key] = data
		return nil
	}
	if err := put("kind", n.Kind); err != nil {
		return nil, err
	}
	if n.Widget != "" {
		if err := put("widget_type", n.Widget); err != nil {
			return nil, err
		}
	}
	if n.ID != "" {
		if err := put("id", n.ID); err != nil {
			return nil, err
		}
	}
	if n.Settings != nil {
		if err := put("settings", n.Settings); err != nil {
			return nil, err
		}
	}
	if n.Children != nil {
		if err := put("children", n.Children); err != nil {
			return nil, err
		}
	}
	for k, v := range n.extra {
		fields[k] = v
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf []byte
	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kd, _ := json.Marshal(k)
		buf = append(buf, kd...)
		buf = append(buf, ':')
		buf = append(buf, fields[k]...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// Tree is a parsed page layout. Roots holds the top-level elements;
// wrapped records whether the source document used the wrapper form so
// Marshal reproduces it.
type Tree struct {
	Roots []*Node

	wrapped bool
	extra   map[string]json.RawMessage
}

// Parse decodes a tree from either root form.
func Parse(data []byte) (*Tree, error) {
	trimmed := firstByte(data)
	switch trimmed {
	case '[':
		var roots []*Node
		if err := json.Unmarshal(data, &roots); err != nil {
			return nil, fmt.Errorf("element: parse: %w", err)
		}
		return &Tree{Roots: roots}, nil
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("element: parse: %w", err)
		}
		content, ok := raw["content"]
		if !ok {
			return nil, fmt.Errorf("element: document wrapper has no content field")
		}
		var roots []*Node
		if err := json.Unmarshal(content, &roots); err != nil {
			return nil, fmt.Errorf("element: parse content: %w", err)
		}
		t := &Tree{Roots: roots, wrapped: true}
		for k, v := range raw {
			if k == "content" {
				continue
			}
			if t.extra == nil {
				t.extra = map[string]json.RawMessage{}
			}
			t.extra[k] = v
		}
		return t, nil
	default:
		return nil, fmt.Errorf("element: parse: not a JSON array or object")
	}
}

// Marshal serialises the tree back into its original root form.
func (t *Tree) Marshal() ([]byte, error) {
	roots := t.Roots
	if roots == nil {
		roots = []*Node{}
	}
	if !t.wrapped {
		return json.Marshal(roots)
	}
	content, err := json.Marshal(roots)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{"content": content}
	for k, v := range t.extra {
		fields[k] = v
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf []byte
	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kd, _ := json.Marshal(k)
		buf = append(buf, kd...)
		buf = append(buf, ':')
		buf = append(buf, fields[k]...)
	}
	buf = append(buf, '}')
	return buf, nil
}

func firstByte(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
