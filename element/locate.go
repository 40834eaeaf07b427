package element

// Walk visits every node depth-first in pre-order (a node before its
// children), passing each node with its derived path. Returning false
// from fn stops the walk.
func (t *Tree) Walk(fn func(n *Node, p Path) bool) {
	var walk func(n *Node, p Path) bool
	walk = func(n *Node, p Path) bool {
		if !fn(n, p) {
			return false
		}
		for i, c := range n.Children {
			if !walk(c, p.Child(i)) {
				return false
			}
		}
		return true
	}
	for i, root := range t.Roots {
		if !walk(root, Path{i}) {
			return
		}
	}
}

// ByID locates a node by its stable identifier and returns it with its
// derived path. IDs are assigned by the page builder and unique within
// a tree; the first depth-first match wins.
func (t *Tree) ByID(id string) (*Node, Path, bool) {
	if id == "" {
		return nil, nil, false
	}
	var (
		found *Node
		at    Path
	)
	t.Walk(func(n *Node, p Path) bool {
		if n.ID == id {
			found, at = n, p
			return false
		}
		return true
	})
	return found, at, found != nil
}

// At locates a node by positional path.
func (t *Tree) At(p Path) (*Node, bool) {
	if len(p) == 0 {
		return nil, false
	}
	if p[0] < 0 || p[0] >= len(t.Roots) {
		return nil, false
	}
	n := t.Roots[p[0]]
	for _, idx := range p[1:] {
		if idx < 0 || idx >= len(n.Children) {
			return nil, false
		}
		n = n.Children[idx]
	}
	return n, true
}
