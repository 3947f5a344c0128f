// Package bookmark defines the in-memory bookmark tree and the passes that
// walk, prune, and compact it.
package bookmark

// Kind distinguishes folders from links.
type Kind uint8

const (
	KindFolder Kind = iota
	KindLink
)

func (k Kind) String() string {
	if k == KindLink {
		return "link"
	}
	return "folder"
}

// Attr is a format-specific property carried through a decode/encode cycle
// untouched. Codecs own the meaning of Key and Value.
type Attr struct {
	Key   string
	Value string
}

// Node is either a folder or a link.
type Node struct {
	Kind        Kind
	Title       string
	URL         string // links only
	Description string
	Attrs       []Attr
	Children    []*Node // folders only
	Anchor      bool    // top-level folder, never removed by Compact
}

// NewFolder returns a folder node with the given children.
func NewFolder(title string, children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{Kind: KindFolder, Title: title, Children: children}
}

// NewLink returns a link node.
func NewLink(title, url string) *Node {
	return &Node{Kind: KindLink, Title: title, URL: url}
}

// IsFolder reports whether n is a folder.
func (n *Node) IsFolder() bool { return n.Kind == KindFolder }

// IsLink reports whether n is a link.
func (n *Node) IsLink() bool { return n.Kind == KindLink }

// Tree is a decoded bookmark document.
type Tree struct {
	Root   *Node  // root container; its folder children are anchors
	Title  string // document title (e.g. the Netscape <H1>)
	Format string // codec name that produced the tree
	Meta   []Attr // document-level properties owned by the codec
}

// NewTree wraps root in a Tree and marks its anchors.
func NewTree(root *Node) *Tree {
	t := &Tree{Root: root}
	t.MarkAnchors()
	return t
}

// MarkAnchors flags every folder directly under the root container as an
// anchor and clears the flag everywhere else.
func (t *Tree) MarkAnchors() {
	if t.Root == nil {
		return
	}
	Walk(t.Root, func(n *Node, _ []int) bool {
		n.Anchor = false
		return true
	})
	for _, c := range t.Root.Children {
		if c.IsFolder() {
			c.Anchor = true
		}
	}
}

// CountLinks returns the number of links in the tree.
func (t *Tree) CountLinks() int {
	if t.Root == nil {
		return 0
	}
	n := 0
	Walk(t.Root, func(node *Node, _ []int) bool {
		if node.IsLink() {
			n++
		}
		return true
	})
	return n
}
