package bookmark

// DefaultCompactPasses is the number of passes Compact makes unless told
// otherwise. Each pass collapses up to two levels of empty nesting.
const DefaultCompactPasses = 3

// Compact removes folders left without content. A non-anchor folder is
// removed when none of its children is a link or a non-empty folder. Each
// pass judges folders against the tree as it stood when the pass began, so a
// parent emptied by one pass is reconsidered by the next. Compact stops after
// maxIterations passes or once a pass removes nothing, and returns the number
// of folders removed. Empty chains deeper than the pass budget can survive.
func Compact(root *Node, maxIterations int) int {
	if root == nil {
		return 0
	}
	if maxIterations <= 0 {
		maxIterations = DefaultCompactPasses
	}

	total := 0
	for range maxIterations {
		removed := compactPass(root)
		total += removed
		if removed == 0 {
			break
		}
	}
	return total
}

func compactPass(root *Node) int {
	removed := 0
	Walk(root, func(n *Node, _ []int) bool {
		if !n.IsFolder() {
			return false
		}
		kept := n.Children[:0]
		for _, c := range n.Children {
			if c.IsFolder() && !c.Anchor && hollow(c) {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		clear(n.Children[len(kept):])
		n.Children = kept
		return true
	})
	return removed
}

// hollow reports whether folder f holds no links and no non-empty subfolder.
func hollow(f *Node) bool {
	for _, c := range f.Children {
		if c.IsLink() || len(c.Children) > 0 {
			return false
		}
	}
	return true
}
