package element

import (
	"bytes"
	"strings"
	"testing"
)

const bareTree = `[
	{"kind":"section","id":"sec1","children":[
		{"kind":"column","children":[
			{"kind":"widget","widget_type":"heading","id":"h1","settings":{"title":"Hello"}},
			{"kind":"widget","widget_type":"button","id":"b1","settings":{"text":"Go"}}
		]}
	]}
]`

func TestParseBareArray(t *testing.T) {
	tree, err := Parse([]byte(bareTree))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tree.Roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(tree.Roots))
	}
	root := tree.Roots[0]
	if root.Kind != KindSection || root.ID != "sec1" {
		t.Errorf("root = %s/%s, want section/sec1", root.Kind, root.ID)
	}
	h := root.Children[0].Children[0]
	if h.Widget != "heading" || h.Settings["title"] != "Hello" {
		t.Errorf("heading = %+v", h)
	}
}

func TestParseWrapper(t *testing.T) {
	doc := `{"version":"1.0","content":[{"kind":"widget","widget_type":"heading","id":"h1"}]}`
	tree, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tree.Roots) != 1 || tree.Roots[0].ID != "h1" {
		t.Fatalf("roots = %+v", tree.Roots)
	}
	out, err := tree.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"version":"1.0"`) {
		t.Errorf("wrapper extra dropped: %s", s)
	}
	if !strings.Contains(s, `"content":[`) {
		t.Errorf("wrapper form lost: %s", s)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"scalar", `42`},
		{"wrapper without content", `{"version":"1.0"}`},
		{"broken json", `[{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.in)); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.in)
			}
		})
	}
}

func TestRoundTripPreservesUnknownFields(t *testing.T) {
	in := `[{"custom_prop":{"a":[1,2]},"id":"h1","kind":"widget","settings":{"title":"Hi"},"widget_type":"heading"}]`
	tree, err := Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := tree.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), `"custom_prop":{"a":[1,2]}`) {
		t.Errorf("unknown field dropped: %s", out)
	}
}

func TestMarshalStable(t *testing.T) {
	tree, err := Parse([]byte(bareTree))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	first, err := tree.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	reparsed, err := Parse(first)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	second, err := reparsed.Marshal()
	if err != nil {
		t.Fatalf("remarshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("marshal unstable:\n%s\n%s", first, second)
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		p    Path
		want string
	}{
		{nil, ""},
		{Path{0}, "0"},
		{Path{0, 1, 2}, "0/1/2"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Path%v.String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("0/1/2")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if len(p) != 3 || p[0] != 0 || p[1] != 1 || p[2] != 2 {
		t.Errorf("path = %v", p)
	}

	for _, bad := range []string{"", "a", "0/-1", "0//1", "0/1.5"} {
		if _, err := ParsePath(bad); err == nil {
			t.Errorf("ParsePath(%q) succeeded, want error", bad)
		}
	}
}

func TestChildIndependence(t *testing.T) {
	base := Path{0}
	a := base.Child(1)
	b := base.Child(2)
	if a[1] != 1 || b[1] != 2 {
		t.Errorf("sibling paths share backing array: %v %v", a, b)
	}
}

func TestByIDAndAt(t *testing.T) {
	tree, err := Parse([]byte(bareTree))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	n, p, ok := tree.ByID("b1")
	if !ok {
		t.Fatal("ByID(b1) not found")
	}
	if p.String() != "0/0/1" {
		t.Errorf("path = %q, want 0/0/1", p.String())
	}

	// The two addressing modes must agree on the node.
	byPath, ok := tree.At(p)
	if !ok || byPath != n {
		t.Errorf("At(%v) != ByID(b1)", p)
	}

	if _, _, ok := tree.ByID("missing"); ok {
		t.Error("ByID(missing) found something")
	}
	if _, _, ok := tree.ByID(""); ok {
		t.Error("ByID of empty id found something")
	}
	for _, bad := range []Path{nil, {5}, {0, 9}, {0, 0, 1, 0}} {
		if _, ok := tree.At(bad); ok {
			t.Errorf("At(%v) resolved, want miss", bad)
		}
	}
}

func TestWalkOrder(t *testing.T) {
	tree, err := Parse([]byte(bareTree))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var kinds []string
	tree.Walk(func(n *Node, _ Path) bool {
		kinds = append(kinds, n.Kind)
		return true
	})
	want := []string{KindSection, KindColumn, KindWidget, KindWidget}
	if len(kinds) != len(want) {
		t.Fatalf("visited %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("visit %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestWalkEarlyStop(t *testing.T) {
	tree, err := Parse([]byte(bareTree))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	visited := 0
	tree.Walk(func(n *Node, _ Path) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Errorf("visited = %d, want 2", visited)
	}
}
