package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/tabtidy/internal/bookmark"
)

type fields = orderedmap.OrderedMap[string, json.RawMessage]

// Tree.Meta keys owned by the JSON codec. They never reach the output.
const (
	metaShape = "@shape"
	metaRoots = "@roots"

	shapeChrome = "chrome"
	shapeTree   = "tree"
	shapeArray  = "array"
)

// JSON handles bookmark trees stored as JSON. Three shapes are recognised:
// Chrome profile files (a "roots" object whose entries become anchors), a
// single root node with "children", and a bare array of nodes. A node with a
// "url" or "uri" string is a link; anything else is a folder. Titles come
// from "name" or "title". Field order and unknown fields are preserved.
type JSON struct{}

// Name implements Codec.
func (JSON) Name() string { return "json" }

// Decode implements Codec.
func (JSON) Decode(data []byte) (*bookmark.Tree, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, malformed("empty json document")
	}

	if trimmed[0] == '[' {
		children, err := decodeChildren(trimmed)
		if err != nil {
			return nil, err
		}
		root := bookmark.NewFolder("", children...)
		return newJSONTree(root, []bookmark.Attr{{Key: metaShape, Value: shapeArray}}), nil
	}

	top, err := decodeFields(trimmed)
	if err != nil {
		return nil, err
	}
	if rawRoots, ok := top.Get("roots"); ok && isObject(rawRoots) {
		return decodeChrome(top, rawRoots)
	}

	root, err := decodeNode(trimmed)
	if err != nil {
		return nil, err
	}
	if root.IsLink() {
		return nil, malformed("top-level json node is a link, not a folder")
	}
	return newJSONTree(root, []bookmark.Attr{{Key: metaShape, Value: shapeTree}}), nil
}

func newJSONTree(root *bookmark.Node, meta []bookmark.Attr) *bookmark.Tree {
	t := bookmark.NewTree(root)
	t.Format = JSON{}.Name()
	t.Meta = meta
	return t
}

func decodeChrome(top *fields, rawRoots json.RawMessage) (*bookmark.Tree, error) {
	roots, err := decodeFields(rawRoots)
	if err != nil {
		return nil, err
	}

	root := bookmark.NewFolder("")
	var keys []string
	for p := roots.Oldest(); p != nil; p = p.Next() {
		n, err := decodeNode(p.Value)
		if err != nil {
			return nil, fmt.Errorf("roots.%s: %w", p.Key, err)
		}
		keys = append(keys, p.Key)
		root.Children = append(root.Children, n)
	}
	keyList, err := json.Marshal(keys)
	if err != nil {
		return nil, err
	}

	meta := []bookmark.Attr{
		{Key: metaShape, Value: shapeChrome},
		{Key: metaRoots, Value: string(keyList)},
	}
	for p := top.Oldest(); p != nil; p = p.Next() {
		meta = append(meta, bookmark.Attr{Key: p.Key, Value: string(p.Value)})
	}
	return newJSONTree(root, meta), nil
}

func decodeFields(raw []byte) (*fields, error) {
	om := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, om); err != nil {
		return nil, malformed("json object: %v", err)
	}
	return om, nil
}

func decodeChildren(raw []byte) ([]*bookmark.Node, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed("json children: %v", err)
	}
	out := make([]*bookmark.Node, 0, len(items))
	for i, item := range items {
		n, err := decodeNode(item)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeNode(raw []byte) (*bookmark.Node, error) {
	if !isObject(raw) {
		return nil, malformed("json node is not an object")
	}
	om, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}

	n := &bookmark.Node{Kind: bookmark.KindFolder, Children: []*bookmark.Node{}}
	titled := false
	for p := om.Oldest(); p != nil; p = p.Next() {
		n.Attrs = append(n.Attrs, bookmark.Attr{Key: p.Key, Value: string(p.Value)})
		switch p.Key {
		case "url", "uri":
			if s, ok := jsonString(p.Value); ok && n.Kind == bookmark.KindFolder {
				n.Kind = bookmark.KindLink
				n.URL = s
			}
		case "name", "title":
			if s, ok := jsonString(p.Value); ok && !titled {
				n.Title = s
				titled = true
			}
		}
	}

	if kids, ok := om.Get("children"); ok && n.IsFolder() && !isNull(kids) {
		children, err := decodeChildren(kids)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", n.Title, err)
		}
		n.Children = children
	}
	if n.IsLink() {
		n.Children = nil
	}
	return n, nil
}

// Encode implements Codec.
func (JSON) Encode(t *bookmark.Tree) ([]byte, error) {
	if t == nil || t.Root == nil {
		return nil, malformed("nothing to encode")
	}

	var (
		out    any
		indent = "  "
	)
	switch metaValue(t.Meta, metaShape) {
	case shapeChrome:
		top, err := encodeChrome(t)
		if err != nil {
			return nil, err
		}
		out, indent = top, "   "
	case shapeArray:
		children, err := encodeChildren(t.Root.Children)
		if err != nil {
			return nil, err
		}
		out = children
	default:
		root, err := encodeNode(t.Root)
		if err != nil {
			return nil, err
		}
		out = root
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeChrome(t *bookmark.Tree) (*fields, error) {
	var keys []string
	if err := json.Unmarshal([]byte(metaValue(t.Meta, metaRoots)), &keys); err != nil {
		return nil, fmt.Errorf("chrome roots: %w", err)
	}
	if len(keys) != len(t.Root.Children) {
		return nil, fmt.Errorf("chrome roots: %d keys for %d root folders", len(keys), len(t.Root.Children))
	}

	roots := orderedmap.New[string, json.RawMessage](len(keys))
	for i, key := range keys {
		raw, err := encodeNode(t.Root.Children[i])
		if err != nil {
			return nil, err
		}
		roots.Set(key, raw)
	}
	rawRoots, err := json.Marshal(roots)
	if err != nil {
		return nil, err
	}

	top := orderedmap.New[string, json.RawMessage]()
	for _, m := range t.Meta {
		switch {
		case strings.HasPrefix(m.Key, "@"):
		case m.Key == "checksum":
			// Chrome recomputes a missing checksum; a stale one makes it
			// discard the file.
		case m.Key == "roots":
			top.Set(m.Key, rawRoots)
		default:
			top.Set(m.Key, json.RawMessage(m.Value))
		}
	}
	return top, nil
}

func encodeChildren(children []*bookmark.Node) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(children))
	for _, c := range children {
		raw, err := encodeNode(c)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func encodeNode(n *bookmark.Node) (json.RawMessage, error) {
	om := orderedmap.New[string, json.RawMessage](len(n.Attrs) + 3)
	var titled, linked, nested bool

	for _, a := range n.Attrs {
		switch {
		case (a.Key == "name" || a.Key == "title") && !titled:
			om.Set(a.Key, quote(n.Title))
			titled = true
		case (a.Key == "url" || a.Key == "uri") && n.IsLink() && !linked:
			om.Set(a.Key, quote(n.URL))
			linked = true
		case a.Key == "children" && n.IsFolder():
			raw, err := encodeChildList(n.Children)
			if err != nil {
				return nil, err
			}
			om.Set(a.Key, raw)
			nested = true
		default:
			om.Set(a.Key, json.RawMessage(a.Value))
		}
	}

	if !titled && n.Title != "" {
		om.Set("name", quote(n.Title))
	}
	if n.IsLink() && !linked {
		om.Set("url", quote(n.URL))
	}
	if n.IsFolder() && !nested && len(n.Children) > 0 {
		raw, err := encodeChildList(n.Children)
		if err != nil {
			return nil, err
		}
		om.Set("children", raw)
	}
	return json.Marshal(om)
}

func encodeChildList(children []*bookmark.Node) (json.RawMessage, error) {
	items, err := encodeChildren(children)
	if err != nil {
		return nil, err
	}
	return json.Marshal(items)
}

func quote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func jsonString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isObject(raw []byte) bool {
	t := bytes.TrimLeft(raw, " \t\r\n")
	return len(t) > 0 && t[0] == '{'
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func metaValue(meta []bookmark.Attr, key string) string {
	for _, m := range meta {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}
