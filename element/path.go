package element

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node by zero-based child indices from the root.
// It is a value type valid only against the exact tree revision it was
// computed from; paths are never persisted.
type Path []int

// String serialises the path as slash-joined indices, e.g. "0/1/2".
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, "/")
}

// Child returns a new path extended by one index. The backing array is
// never shared with the receiver, so sibling paths stay independent.
func (p Path) Child(idx int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = idx
	return out
}

// ParsePath parses a slash-joined index path. An empty string is
// invalid: every addressable node has at least a root index.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("element: empty path")
	}
	parts := strings.Split(s, "/")
	p := make(Path, len(parts))
	for i, part := range parts {
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("element: bad path segment %q", part)
		}
		p[i] = idx
	}
	return p, nil
}
