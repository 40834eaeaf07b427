package slots

import (
	"testing"

	"github.com/ferrostack/pagemend/element"
)

const pageJSON = `[
	{"kind":"section","id":"sec1","settings":{"background_image":{"url":"https://x/bg.png","id":7}},"children":[
		{"kind":"column","children":[
			{"kind":"widget","widget_type":"heading","id":"h1","settings":{"title":"Welcome Home","link":{"url":"https://a","is_external":"on"}}},
			{"kind":"widget","widget_type":"accordion","id":"acc1","settings":{"tabs":[
				{"tab_title":"One","tab_content":"First"},
				{"tab_title":"Two","tab_content":"Second"}
			]}},
			{"kind":"widget","widget_type":"image","id":"img1","settings":{"image":{"url":"https://x/pic.png","id":"42"},"caption":"A pic"}}
		]}
	]}
]`

func parseTree(t *testing.T) *element.Tree {
	t.Helper()
	tree, err := element.Parse([]byte(pageJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tree
}

func TestTextAccess(t *testing.T) {
	tree := parseTree(t)
	h, _, _ := tree.ByID("h1")

	if got := Text(h, "title"); got != "Welcome Home" {
		t.Errorf("Text = %q", got)
	}
	if got := Text(h, "missing"); got != "" {
		t.Errorf("Text(missing) = %q, want empty", got)
	}

	SetText(h, "title", "Changed")
	if got := Text(h, "title"); got != "Changed" {
		t.Errorf("after SetText = %q", got)
	}

	// Writing to a node with nil settings allocates.
	bare := &element.Node{Kind: element.KindWidget, Widget: "heading"}
	SetText(bare, "title", "New")
	if got := Text(bare, "title"); got != "New" {
		t.Errorf("SetText on bare node = %q", got)
	}
}

func TestItemTextAccess(t *testing.T) {
	tree := parseTree(t)
	acc, _, _ := tree.ByID("acc1")

	got, ok := ItemText(acc, "tabs", 1, "tab_content")
	if !ok || got != "Second" {
		t.Errorf("ItemText = %q, %v", got, ok)
	}

	if !SetItemText(acc, "tabs", 0, "tab_title", "Uno") {
		t.Fatal("SetItemText failed on existing item")
	}
	if got, _ := ItemText(acc, "tabs", 0, "tab_title"); got != "Uno" {
		t.Errorf("after SetItemText = %q", got)
	}

	// Items are never created implicitly.
	if SetItemText(acc, "tabs", 5, "tab_title", "x") {
		t.Error("SetItemText created an item out of range")
	}
	if _, ok := ItemText(acc, "tabs", -1, "tab_title"); ok {
		t.Error("ItemText accepted negative index")
	}
	if _, ok := ItemText(acc, "nope", 0, "tab_title"); ok {
		t.Error("ItemText resolved a missing repeater field")
	}
}

func TestLinkAccess(t *testing.T) {
	tree := parseTree(t)
	h, _, _ := tree.ByID("h1")

	l, ok := GetLink(h, "link")
	if !ok {
		t.Fatal("GetLink missed an existing link")
	}
	if l.URL != "https://a" || !l.External || l.Nofollow {
		t.Errorf("link = %+v", l)
	}

	SetLink(h, "link", Link{URL: "https://b", Nofollow: true})
	l, _ = GetLink(h, "link")
	if l.URL != "https://b" || l.External || !l.Nofollow {
		t.Errorf("after SetLink = %+v", l)
	}

	// Flags serialise in the loose "on" encoding.
	obj := h.Settings["link"].(map[string]any)
	if obj["nofollow"] != "on" {
		t.Errorf("nofollow stored as %v, want \"on\"", obj["nofollow"])
	}
	if _, hasExt := obj["is_external"]; hasExt {
		t.Error("cleared flag still present in settings")
	}

	if _, ok := GetLink(h, "missing"); ok {
		t.Error("GetLink resolved a missing field")
	}
}

func TestImageAccess(t *testing.T) {
	tree := parseTree(t)
	img, _, _ := tree.ByID("img1")

	v, ok := GetImage(img, "image")
	if !ok {
		t.Fatal("GetImage missed an existing image")
	}
	// Attachment id stored as a numeric string still coerces.
	if v.URL != "https://x/pic.png" || v.AttachmentID != 42 {
		t.Errorf("image = %+v", v)
	}

	SetImage(img, "image", Image{URL: "https://y/new.png"})
	v, _ = GetImage(img, "image")
	if v.URL != "https://y/new.png" || v.AttachmentID != 0 {
		t.Errorf("after SetImage = %+v", v)
	}
	obj := img.Settings["image"].(map[string]any)
	if _, hasID := obj["id"]; hasID {
		t.Error("zero attachment id emitted")
	}
}

func TestTextSlots(t *testing.T) {
	tree := parseTree(t)
	table := DefaultTable()

	got := table.TextSlots(tree, nil)
	// heading title + 2 accordion items x 2 fields + image caption.
	if len(got) != 6 {
		t.Fatalf("slots = %d, want 6", len(got))
	}
	first := got[0]
	if first.Widget != "heading" || first.Field != "title" || first.ItemIndex != -1 || first.Raw != "Welcome Home" {
		t.Errorf("first slot = %+v", first)
	}
	if first.Path.String() != "0/0/0" {
		t.Errorf("first slot path = %q", first.Path.String())
	}

	item := got[1]
	if item.Widget != "accordion" || item.Repeater != "tabs" || item.ItemIndex != 0 || item.Field != "tab_title" || item.Raw != "One" {
		t.Errorf("first repeater slot = %+v", item)
	}
}

func TestTextSlotsAllowList(t *testing.T) {
	tree := parseTree(t)
	table := DefaultTable()

	got := table.TextSlots(tree, []string{"heading"})
	if len(got) != 1 || got[0].Widget != "heading" {
		t.Fatalf("filtered slots = %+v", got)
	}

	if got := table.TextSlots(tree, []string{"video"}); len(got) != 0 {
		t.Errorf("unknown type matched %d slots", len(got))
	}
}

func TestLinkSlots(t *testing.T) {
	tree := parseTree(t)
	table := DefaultTable()

	got := table.LinkSlots(tree, nil)
	// Only the heading carries a link object; the image widget declares
	// a link field but has none set.
	if len(got) != 1 {
		t.Fatalf("link slots = %d, want 1", len(got))
	}
	if got[0].Widget != "heading" || got[0].Value.URL != "https://a" {
		t.Errorf("link slot = %+v", got[0])
	}
}

func TestImageSlots(t *testing.T) {
	tree := parseTree(t)
	table := DefaultTable()

	got := table.ImageSlots(tree)
	if len(got) != 2 {
		t.Fatalf("image slots = %d, want 2", len(got))
	}

	bg := got[0]
	if bg.Kind != KindBackgroundImage || bg.Owner != element.KindSection || bg.Value.URL != "https://x/bg.png" || bg.Value.AttachmentID != 7 {
		t.Errorf("background slot = %+v", bg)
	}

	img := got[1]
	if img.Kind != KindImage || img.Owner != "image" || img.Value.AttachmentID != 42 {
		t.Errorf("image slot = %+v", img)
	}
}

func TestImageSlotsEmptyImageWidgetStillListed(t *testing.T) {
	blob := `[{"kind":"widget","widget_type":"image","id":"img2","settings":{}}]`
	tree, err := element.Parse([]byte(blob))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := DefaultTable().ImageSlots(tree)
	if len(got) != 1 {
		t.Fatalf("image slots = %d, want 1", len(got))
	}
	if got[0].Value.URL != "" {
		t.Errorf("empty image slot = %+v", got[0])
	}
}

func TestBackgroundField(t *testing.T) {
	table := DefaultTable()
	if f, ok := table.BackgroundField(element.KindColumn); !ok || f != "background_image" {
		t.Errorf("BackgroundField(column) = %q, %v", f, ok)
	}
	if _, ok := table.BackgroundField(element.KindWidget); ok {
		t.Error("widgets must not expose a background field")
	}
}
