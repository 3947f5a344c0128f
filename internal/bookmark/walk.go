package bookmark

// LinkRef identifies a link by its structural path from the root (child
// indexes at each level) together with its title and URL as stored.
type LinkRef struct {
	Path  []int
	Title string
	URL   string
}

type frame struct {
	node  *Node
	depth int
	index int
}

// Walk visits root and its descendants depth-first in document order. fn
// receives each node with its path; returning false skips the node's
// children. Children are read after fn returns, so fn may rewrite them.
// The path slice is reused between calls and must be copied to be retained.
//
// Walk keeps its own stack, so arbitrarily deep trees are safe, and it never
// visits the same node twice.
func Walk(root *Node, fn func(n *Node, path []int) bool) {
	if root == nil {
		return
	}
	seen := make(map[*Node]struct{})
	stack := []frame{{node: root}}
	var path []int
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, dup := seen[f.node]; dup {
			continue
		}
		seen[f.node] = struct{}{}

		if f.depth > 0 {
			path = append(path[:f.depth-1], f.index)
		}
		if !fn(f.node, path) || !f.node.IsFolder() {
			continue
		}
		children := f.node.Children
		for i := len(children) - 1; i >= 0; i-- {
			if children[i] == nil {
				continue
			}
			stack = append(stack, frame{node: children[i], depth: f.depth + 1, index: i})
		}
	}
}

// CollectLinks returns every link under root in document order.
func CollectLinks(root *Node) []LinkRef {
	var out []LinkRef
	Walk(root, func(n *Node, path []int) bool {
		if n.IsLink() {
			out = append(out, LinkRef{Path: append([]int(nil), path...), Title: n.Title, URL: n.URL})
		}
		return true
	})
	return out
}

// ApplyVerdicts detaches every link whose URL is not in valid. onRemove, when
// non-nil, is called once per removed link in document order. Survivors keep
// their relative order. It returns the number of links removed.
func ApplyVerdicts(root *Node, valid ValidSet, onRemove func(n *Node)) int {
	doomed := make(map[*Node]struct{})
	Walk(root, func(n *Node, _ []int) bool {
		if n.IsLink() && !valid.Contains(n.URL) {
			doomed[n] = struct{}{}
			if onRemove != nil {
				onRemove(n)
			}
		}
		return true
	})
	if len(doomed) == 0 {
		return 0
	}

	Walk(root, func(n *Node, _ []int) bool {
		if !n.IsFolder() {
			return false
		}
		kept := n.Children[:0]
		for _, c := range n.Children {
			if _, drop := doomed[c]; drop {
				continue
			}
			kept = append(kept, c)
		}
		clear(n.Children[len(kept):])
		n.Children = kept
		return true
	})
	return len(doomed)
}
