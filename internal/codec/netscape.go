package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/tabtidy/internal/bookmark"
)

const (
	netscapeDoctype = "<!DOCTYPE NETSCAPE-Bookmark-file-1>"
	netscapeHeader  = `<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
`
	metaPageTitle = "page_title"
	defaultTitle  = "Bookmarks"
)

// Netscape handles the NETSCAPE-Bookmark-file-1 HTML format. Folders are
// <DT><H3> followed by a <DL>, links are <DT><A HREF>, and a <DD> holds the
// description of the item before it.
type Netscape struct{}

// Name implements Codec.
func (Netscape) Name() string { return "html" }

// Decode implements Codec.
func (Netscape) Decode(data []byte) (*bookmark.Tree, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, malformed("parse html: %v", err)
	}

	top := doc.Find("dl").First()
	if top.Length() == 0 {
		return nil, malformed("no bookmark list (<DL>) found")
	}

	root := bookmark.NewFolder("")
	root.Children = decodeList(top)
	tree := bookmark.NewTree(root)
	tree.Format = Netscape{}.Name()
	tree.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		tree.Meta = append(tree.Meta, bookmark.Attr{Key: metaPageTitle, Value: title})
	}
	return tree, nil
}

func decodeList(dl *goquery.Selection) []*bookmark.Node {
	items := []*bookmark.Node{}
	var last *bookmark.Node

	dl.Children().Each(func(_ int, s *goquery.Selection) {
		switch s.Get(0).DataAtom {
		case atom.Dt:
			n := decodeItem(s)
			if n == nil {
				return
			}
			items = append(items, n)
			last = n
		case atom.Dd:
			// A <DD> closes the open <DT>, so a folder description swallows
			// the folder's own <DL>.
			if last == nil {
				return
			}
			last.Description = ownText(s)
			if last.IsFolder() && len(last.Children) == 0 {
				if sub := s.ChildrenFiltered("dl").First(); sub.Length() > 0 {
					last.Children = decodeList(sub)
				}
			}
		}
	})
	return items
}

func decodeItem(dt *goquery.Selection) *bookmark.Node {
	if a := dt.ChildrenFiltered("a").First(); a.Length() > 0 {
		href, _ := a.Attr("href")
		n := bookmark.NewLink(strings.TrimSpace(a.Text()), strings.TrimSpace(href))
		n.Attrs = attrsOf(a.Get(0), "href")
		return n
	}
	if h := dt.ChildrenFiltered("h3").First(); h.Length() > 0 {
		f := bookmark.NewFolder(strings.TrimSpace(h.Text()))
		f.Attrs = attrsOf(h.Get(0))
		if sub := dt.ChildrenFiltered("dl").First(); sub.Length() > 0 {
			f.Children = decodeList(sub)
		}
		return f
	}
	return nil
}

func attrsOf(n *html.Node, skip ...string) []bookmark.Attr {
	var out []bookmark.Attr
next:
	for _, a := range n.Attr {
		for _, s := range skip {
			if a.Key == s {
				continue next
			}
		}
		out = append(out, bookmark.Attr{Key: strings.ToUpper(a.Key), Value: a.Val})
	}
	return out
}

func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, c := range s.Contents().Nodes {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// Encode implements Codec.
func (Netscape) Encode(t *bookmark.Tree) ([]byte, error) {
	if t == nil || t.Root == nil {
		return nil, malformed("nothing to encode")
	}
	title := t.Title
	if title == "" {
		title = defaultTitle
	}
	pageTitle := title
	for _, m := range t.Meta {
		if m.Key == metaPageTitle {
			pageTitle = m.Value
		}
	}

	var b bytes.Buffer
	b.WriteString(netscapeDoctype + "\n")
	b.WriteString(netscapeHeader)
	fmt.Fprintf(&b, "<TITLE>%s</TITLE>\n", html.EscapeString(pageTitle))
	fmt.Fprintf(&b, "<H1>%s</H1>\n", html.EscapeString(title))
	encodeList(&b, t.Root.Children, 0)
	return b.Bytes(), nil
}

func encodeList(b *bytes.Buffer, children []*bookmark.Node, depth int) {
	indent := strings.Repeat("    ", depth)
	b.WriteString(indent + "<DL><p>\n")
	for _, n := range children {
		inner := indent + "    "
		if n.IsLink() {
			fmt.Fprintf(b, `%s<DT><A HREF="%s"%s>%s</A>`+"\n",
				inner, html.EscapeString(n.URL), encodeAttrs(n.Attrs), html.EscapeString(n.Title))
		} else {
			fmt.Fprintf(b, "%s<DT><H3%s>%s</H3>\n", inner, encodeAttrs(n.Attrs), html.EscapeString(n.Title))
		}
		if n.Description != "" {
			fmt.Fprintf(b, "%s<DD>%s\n", inner, html.EscapeString(n.Description))
		}
		if n.IsFolder() {
			encodeList(b, n.Children, depth+1)
		}
	}
	b.WriteString(indent + "</DL><p>\n")
}

func encodeAttrs(attrs []bookmark.Attr) string {
	var b strings.Builder
	for _, a := range attrs {
		fmt.Fprintf(&b, ` %s="%s"`, a.Key, html.EscapeString(a.Value))
	}
	return b.String()
}
