package edits

import (
	"encoding/json"
	"testing"

	"github.com/ferrostack/pagemend/element"
	"github.com/ferrostack/pagemend/slots"
)

const pageJSON = `[
	{"kind":"section","id":"sec1","settings":{},"children":[
		{"kind":"widget","widget_type":"heading","id":"h1","settings":{"title":"Old Title"}},
		{"kind":"widget","widget_type":"button","id":"b1","settings":{"text":"Click","link":{"url":"https://old","is_external":"on"}}},
		{"kind":"widget","widget_type":"accordion","id":"acc1","settings":{"tabs":[
			{"tab_title":"One","tab_content":"First"},
			{"tab_title":"Two","tab_content":"Second"}
		]}},
		{"kind":"widget","widget_type":"image","id":"img1","settings":{"image":{"url":"https://old.png","id":3}}},
		{"kind":"widget","widget_type":"video","id":"v1","settings":{"url":"https://vid"}}
	]}
]`

func parse(t *testing.T) *element.Tree {
	t.Helper()
	tree, err := element.Parse([]byte(pageJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tree
}

func TestApplyTextByID(t *testing.T) {
	tree := parse(t)
	res := Apply(tree, slots.DefaultTable(), []Edit{
		{ID: "h1", ItemIndex: -1, Kind: KindText, Text: "New Title"},
	})
	if res.AppliedCount != 1 || len(res.Failed) != 0 {
		t.Fatalf("result = %+v", res)
	}
	a := res.Applied[0]
	// Field defaults to the first declared text field.
	if a.Field != "title" || a.Path != "0/0" || a.ID != "h1" {
		t.Errorf("applied = %+v", a)
	}
	n, _, _ := tree.ByID("h1")
	if got := slots.Text(n, "title"); got != "New Title" {
		t.Errorf("title = %q", got)
	}
}

func TestApplyPrefersIDOverPath(t *testing.T) {
	tree := parse(t)
	// The path points at the button; the id wins.
	res := Apply(tree, slots.DefaultTable(), []Edit{
		{ID: "h1", Path: "0/1", ItemIndex: -1, Kind: KindText, Text: "Via ID"},
	})
	if res.AppliedCount != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.Applied[0].Path != "0/0" {
		t.Errorf("resolved path = %q, want the id's node", res.Applied[0].Path)
	}
	b, _, _ := tree.ByID("b1")
	if got := slots.Text(b, "text"); got != "Click" {
		t.Errorf("button mutated: %q", got)
	}
}

func TestApplyPathFallback(t *testing.T) {
	tree := parse(t)
	// Unknown id with a valid path falls back to positional addressing.
	res := Apply(tree, slots.DefaultTable(), []Edit{
		{ID: "stale-id", Path: "0/0", ItemIndex: -1, Kind: KindText, Text: "Via Path"},
	})
	if res.AppliedCount != 1 {
		t.Fatalf("result = %+v", res)
	}
	n, _ := tree.At(element.Path{0, 0})
	if got := slots.Text(n, "title"); got != "Via Path" {
		t.Errorf("title = %q", got)
	}
}

func TestApplyRepeaterItem(t *testing.T) {
	tree := parse(t)
	res := Apply(tree, slots.DefaultTable(), []Edit{
		{Path: "0/2", ItemIndex: 1, Field: "tab_content", Kind: KindText, Text: "Changed"},
	})
	if res.AppliedCount != 1 {
		t.Fatalf("result = %+v", res)
	}
	a := res.Applied[0]
	if a.ItemIndex == nil || *a.ItemIndex != 1 || a.Field != "tab_content" {
		t.Errorf("applied = %+v", a)
	}
	acc, _, _ := tree.ByID("acc1")
	got, _ := slots.ItemText(acc, "tabs", 1, "tab_content")
	if got != "Changed" {
		t.Errorf("item text = %q", got)
	}
	// The sibling item is untouched.
	if other, _ := slots.ItemText(acc, "tabs", 0, "tab_content"); other != "First" {
		t.Errorf("sibling item mutated: %q", other)
	}
}

func TestApplyLinkMergesFlags(t *testing.T) {
	tree := parse(t)
	// URL-only edit keeps the stored external flag.
	res := Apply(tree, slots.DefaultTable(), []Edit{
		{ID: "b1", ItemIndex: -1, Kind: KindLink, Link: slots.Link{URL: "https://new"}},
	})
	if res.AppliedCount != 1 {
		t.Fatalf("result = %+v", res)
	}
	b, _, _ := tree.ByID("b1")
	l, _ := slots.GetLink(b, "link")
	if l.URL != "https://new" || !l.External {
		t.Errorf("link = %+v, want new URL with external preserved", l)
	}

	// An edit that carries the flag overrides it.
	Apply(tree, slots.DefaultTable(), []Edit{
		{ID: "b1", ItemIndex: -1, Kind: KindLink, Link: slots.Link{URL: "https://new"}, HasExternal: true},
	})
	l, _ = slots.GetLink(b, "link")
	if l.External {
		t.Errorf("link = %+v, want external cleared", l)
	}
}

func TestApplyImage(t *testing.T) {
	tree := parse(t)
	res := Apply(tree, slots.DefaultTable(), []Edit{
		{ID: "img1", ItemIndex: -1, Kind: KindImage, Image: slots.Image{URL: "https://new.png", AttachmentID: 8}},
	})
	if res.AppliedCount != 1 {
		t.Fatalf("result = %+v", res)
	}
	n, _, _ := tree.ByID("img1")
	img, _ := slots.GetImage(n, "image")
	if img.URL != "https://new.png" || img.AttachmentID != 8 {
		t.Errorf("image = %+v", img)
	}
}

func TestApplyImagePartialOverlay(t *testing.T) {
	tree := parse(t)
	// Attachment-only edit keeps the stored URL.
	Apply(tree, slots.DefaultTable(), []Edit{
		{ID: "img1", ItemIndex: -1, Kind: KindImage, Image: slots.Image{AttachmentID: 9}},
	})
	n, _, _ := tree.ByID("img1")
	img, _ := slots.GetImage(n, "image")
	if img.URL != "https://old.png" || img.AttachmentID != 9 {
		t.Errorf("image = %+v", img)
	}
}

func TestApplyBackgroundImage(t *testing.T) {
	tree := parse(t)
	res := Apply(tree, slots.DefaultTable(), []Edit{
		{ID: "sec1", ItemIndex: -1, Kind: KindImage, Image: slots.Image{URL: "https://bg.png"}},
	})
	if res.AppliedCount != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.Applied[0].Field != "background_image" {
		t.Errorf("field = %q", res.Applied[0].Field)
	}
	sec, _, _ := tree.ByID("sec1")
	img, _ := slots.GetImage(sec, "background_image")
	if img.URL != "https://bg.png" {
		t.Errorf("background = %+v", img)
	}
}

func TestApplyFailureReasons(t *testing.T) {
	table := slots.DefaultTable()
	tests := []struct {
		name string
		edit Edit
		want Reason
	}{
		{"unknown id", Edit{ID: "ghost", ItemIndex: -1, Kind: KindText, Text: "x"}, ReasonIDNotFound},
		{"bad path", Edit{Path: "9/9", ItemIndex: -1, Kind: KindText, Text: "x"}, ReasonPathInvalid},
		{"malformed path", Edit{Path: "abc", ItemIndex: -1, Kind: KindText, Text: "x"}, ReasonPathInvalid},
		{"text on layout node", Edit{ID: "sec1", ItemIndex: -1, Kind: KindText, Text: "x"}, ReasonNotTarget},
		{"text on unknown widget", Edit{ID: "v1", ItemIndex: -1, Kind: KindText, Text: "x"}, ReasonNotTarget},
		{"undeclared field", Edit{ID: "h1", Field: "nope", ItemIndex: -1, Kind: KindText, Text: "x"}, ReasonNotTarget},
		{"item on non-repeater", Edit{ID: "h1", ItemIndex: 0, Kind: KindText, Text: "x"}, ReasonNotTarget},
		{"item out of range", Edit{ID: "acc1", ItemIndex: 5, Field: "tab_title", Kind: KindText, Text: "x"}, ReasonNotTarget},
		{"link on linkless widget", Edit{ID: "acc1", ItemIndex: -1, Kind: KindLink, Link: slots.Link{URL: "https://x"}}, ReasonNotTarget},
		{"image on imageless widget", Edit{ID: "h1", ItemIndex: -1, Kind: KindImage, Image: slots.Image{URL: "https://x"}}, ReasonNotTarget},
		{"no kind", Edit{ID: "h1", ItemIndex: -1}, ReasonUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t)
			res := Apply(tree, table, []Edit{tt.edit})
			if res.AppliedCount != 0 || len(res.Failed) != 1 {
				t.Fatalf("result = %+v", res)
			}
			if res.Failed[0].Reason != tt.want {
				t.Errorf("reason = %s, want %s", res.Failed[0].Reason, tt.want)
			}
		})
	}
}

func TestApplyEmptyBatch(t *testing.T) {
	tree := parse(t)
	before, _ := tree.Marshal()
	res := Apply(tree, slots.DefaultTable(), nil)
	if res.AppliedCount != 0 || len(res.Applied) != 0 || len(res.Failed) != 0 {
		t.Fatalf("result = %+v", res)
	}
	after, _ := tree.Marshal()
	if string(before) != string(after) {
		t.Error("empty batch mutated the tree")
	}
}

func TestApplyRepeaterSiblingItemsByteIdentical(t *testing.T) {
	blob := `[{"kind":"widget","widget_type":"accordion","id":"acc1","settings":{"tabs":[
		{"tab_title":"A","tab_content":"First"},
		{"tab_title":"B","tab_content":"Second"},
		{"tab_title":"C","tab_content":"Third"}
	]}}]`
	tree, err := element.Parse([]byte(blob))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	acc, _, _ := tree.ByID("acc1")
	items := acc.Settings["tabs"].([]any)
	item0, _ := json.Marshal(items[0])
	item2, _ := json.Marshal(items[2])

	res := Apply(tree, slots.DefaultTable(), []Edit{
		{Path: "0", ItemIndex: 1, Field: "tab_title", Kind: KindText, Text: "Bee"},
	})
	if res.AppliedCount != 1 {
		t.Fatalf("result = %+v", res)
	}

	after0, _ := json.Marshal(items[0])
	after2, _ := json.Marshal(items[2])
	if string(item0) != string(after0) || string(item2) != string(after2) {
		t.Error("sibling items mutated")
	}
	if got, _ := slots.ItemText(acc, "tabs", 1, "tab_title"); got != "Bee" {
		t.Errorf("item 1 = %q", got)
	}
}

func TestApplyPartialBatch(t *testing.T) {
	tree := parse(t)
	res := Apply(tree, slots.DefaultTable(), []Edit{
		{ID: "h1", ItemIndex: -1, Kind: KindText, Text: "A"},
		{ID: "ghost", ItemIndex: -1, Kind: KindText, Text: "B"},
		{ID: "b1", ItemIndex: -1, Kind: KindText, Text: "C"},
	})
	if res.AppliedCount != 2 {
		t.Fatalf("applied = %d, want 2", res.AppliedCount)
	}
	if len(res.Failed) != 1 || res.Failed[0].Index != 1 || res.Failed[0].Reason != ReasonIDNotFound {
		t.Fatalf("failed = %+v", res.Failed)
	}
	// Edits before and after the failure both landed.
	h, _, _ := tree.ByID("h1")
	b, _, _ := tree.ByID("b1")
	if slots.Text(h, "title") != "A" || slots.Text(b, "text") != "C" {
		t.Error("surrounding edits did not apply")
	}
}
