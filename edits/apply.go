package edits

import (
	"github.com/ferrostack/pagemend/element"
	"github.com/ferrostack/pagemend/slots"
)

// Reason codes for per-edit failures.
type Reason string

const (
	ReasonIDNotFound  Reason = "id_not_found"
	ReasonPathInvalid Reason = "path_invalid"
	ReasonNotTarget   Reason = "not_target_widget"
	ReasonUnknown     Reason = "unknown"
)

// Failure records one edit that could not be applied.
type Failure struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
	Reason Reason `json:"reason"`
}

// Applied describes one successfully applied edit, with the node's
// derived path re-computed from the tree it was applied to.
type Applied struct {
	Kind      Kind   `json:"kind"`
	ID        string `json:"id,omitempty"`
	Path      string `json:"path"`
	Field     string `json:"field"`
	ItemIndex *int   `json:"item_index,omitempty"`
}

// Result aggregates one batch application.
type Result struct {
	AppliedCount int       `json:"applied_count"`
	Applied      []Applied `json:"applied"`
	Failed       []Failure `json:"failed"`
}

// Apply runs the batch in input order against the tree. One edit's
// failure never aborts the batch, and nothing rolls back edits already
// applied — partial application is the contract, and the caller does
// the single persistence write afterwards (only when AppliedCount > 0).
func Apply(tree *element.Tree, table *slots.Table, list []Edit) Result {
	res := Result{Applied: []Applied{}, Failed: []Failure{}}
	for i, e := range list {
		n, p, reason := locate(tree, e)
		var field string
		if reason == "" {
			field, reason = applyOne(n, table, e)
		}
		if reason != "" {
			res.Failed = append(res.Failed, Failure{
				Index: i, ID: e.ID, Path: e.Path, Reason: reason,
			})
			continue
		}
		res.AppliedCount++
		res.Applied = append(res.Applied, Applied{
			Kind:      e.Kind,
			ID:        n.ID,
			Path:      p.String(),
			Field:     field,
			ItemIndex: indexPtr(e.ItemIndex),
		})
	}
	return res
}

// locate resolves an edit's target node, preferring the stable id over
// the positional path. Both lookups go through the tree's shared
// location primitives, so a caller can re-locate the node by either
// address after the mutation.
func locate(tree *element.Tree, e Edit) (*element.Node, element.Path, Reason) {
	if e.ID != "" {
		if n, p, ok := tree.ByID(e.ID); ok {
			return n, p, ""
		}
		if e.Path == "" {
			return nil, nil, ReasonIDNotFound
		}
	}
	p, err := element.ParsePath(e.Path)
	if err != nil {
		return nil, nil, ReasonPathInvalid
	}
	n, ok := tree.At(p)
	if !ok {
		return nil, nil, ReasonPathInvalid
	}
	return n, p, ""
}

// applyOne writes a located edit and reports the settings field it
// resolved to. The node must actually expose a slot of the edit's kind
// per the table — a mismatch is a recorded failure, never a silently
// skipped validation. Panics from malformed settings shapes degrade to
// ReasonUnknown.
func applyOne(n *element.Node, table *slots.Table, e Edit) (field string, reason Reason) {
	defer func() {
		if r := recover(); r != nil {
			field, reason = "", ReasonUnknown
		}
	}()

	switch e.Kind {
	case KindText:
		return applyText(n, table, e)
	case KindLink:
		return applyLink(n, table, e)
	case KindImage:
		return applyImage(n, table, e)
	}
	return "", ReasonUnknown
}

func applyText(n *element.Node, table *slots.Table, e Edit) (string, Reason) {
	if !n.IsWidget() {
		return "", ReasonNotTarget
	}
	w, ok := table.Widget(n.Widget)
	if !ok {
		return "", ReasonNotTarget
	}
	if e.ItemIndex >= 0 {
		rep := w.Repeater
		if rep == nil {
			return "", ReasonNotTarget
		}
		field, ok := pickField(e.Field, rep.TextFields)
		if !ok {
			return "", ReasonNotTarget
		}
		if !slots.SetItemText(n, rep.Field, e.ItemIndex, field, e.Text) {
			return "", ReasonNotTarget
		}
		return field, ""
	}
	field, ok := pickField(e.Field, w.TextFields)
	if !ok {
		return "", ReasonNotTarget
	}
	slots.SetText(n, field, e.Text)
	return field, ""
}

func applyLink(n *element.Node, table *slots.Table, e Edit) (string, Reason) {
	if !n.IsWidget() {
		return "", ReasonNotTarget
	}
	w, ok := table.Widget(n.Widget)
	if !ok {
		return "", ReasonNotTarget
	}
	if e.ItemIndex >= 0 {
		rep := w.Repeater
		if rep == nil || rep.LinkField == "" {
			return "", ReasonNotTarget
		}
		current, _ := slots.GetItemLink(n, rep.Field, e.ItemIndex, rep.LinkField)
		if !slots.SetItemLink(n, rep.Field, e.ItemIndex, rep.LinkField, mergeLink(current, e)) {
			return "", ReasonNotTarget
		}
		return rep.LinkField, ""
	}
	if w.LinkField == "" {
		return "", ReasonNotTarget
	}
	current, _ := slots.GetLink(n, w.LinkField)
	slots.SetLink(n, w.LinkField, mergeLink(current, e))
	return w.LinkField, ""
}

func applyImage(n *element.Node, table *slots.Table, e Edit) (string, Reason) {
	var field string
	if n.IsWidget() {
		w, ok := table.Widget(n.Widget)
		if !ok || w.ImageField == "" {
			return "", ReasonNotTarget
		}
		field = w.ImageField
	} else {
		f, ok := table.BackgroundField(n.Kind)
		if !ok {
			return "", ReasonNotTarget
		}
		field = f
	}
	img, _ := slots.GetImage(n, field)
	if e.Image.URL != "" {
		img.URL = e.Image.URL
	}
	if e.Image.AttachmentID > 0 {
		img.AttachmentID = e.Image.AttachmentID
	}
	slots.SetImage(n, field, img)
	return field, ""
}

// mergeLink overlays the edit onto the slot's current link: the URL
// always comes from the edit, flags only when the payload carried them.
func mergeLink(current slots.Link, e Edit) slots.Link {
	out := current
	out.URL = e.Link.URL
	if e.HasExternal {
		out.External = e.Link.External
	}
	if e.HasNofollow {
		out.Nofollow = e.Link.Nofollow
	}
	return out
}

// pickField validates a requested field against the schema, defaulting
// to the first declared field when the edit names none.
func pickField(requested string, declared []string) (string, bool) {
	if len(declared) == 0 {
		return "", false
	}
	if requested == "" {
		return declared[0], true
	}
	for _, f := range declared {
		if f == requested {
			return requested, true
		}
	}
	return "", false
}

func indexPtr(i int) *int {
	if i < 0 {
		return nil
	}
	v := i
	return &v
}
