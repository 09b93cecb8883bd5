package sanitize

import (
	stdhtml "html"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/draftmark/draftmark/internal/engine/node"
)

// Result is the outcome of a sanitization pass.
type Result struct {
	// Nodes is the safe node list, normalized and ready to paste.
	Nodes []node.Node

	// Degraded reports that the input could not be parsed as HTML and
	// the nodes come from plain-text extraction instead.
	Degraded bool

	// Dropped counts elements removed entirely, contents included.
	Dropped int

	// Markers counts citation tokens restored as marker nodes.
	Markers int
}

// Inline elements contribute their text to the surrounding run.
var inlineElements = map[string]bool{
	"a": true, "abbr": true, "b": true, "cite": true, "code": true,
	"em": true, "i": true, "kbd": true, "mark": true, "q": true,
	"s": true, "small": true, "span": true, "strong": true,
	"sub": true, "sup": true, "u": true,
}

// Block elements keep their text but force a line break around it.
var blockElements = map[string]bool{
	"article": true, "blockquote": true, "dd": true, "div": true,
	"dl": true, "dt": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "li": true, "main": true,
	"ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tbody": true, "td": true, "th": true,
	"thead": true, "tr": true, "ul": true,
}

// Sanitize converts untrusted HTML into a safe node list. Elements
// outside the allow list are dropped with their contents; citation
// token spans are restored as marker nodes. Sanitize never fails: input
// that cannot be parsed degrades to plain-text extraction.
func Sanitize(markup string) Result {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return Result{Nodes: plainText(markup), Degraded: true}
	}
	s := &sanitizer{}
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c)
	}
	return Result{Nodes: s.finish(), Dropped: s.dropped, Markers: s.markers}
}

type sanitizer struct {
	blocks  [][]node.Node
	cur     blockBuilder
	dropped int
	markers int
}

func (s *sanitizer) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		s.cur.text(collapseSpace(n.Data))
		return
	case html.ElementNode:
	default:
		return
	}

	name := n.Data
	if name == "span" {
		if payload := attrVal(n, TokenAttr); payload != "" {
			if m, ok := decodeToken(payload); ok {
				// The span's children are the rendered label; the
				// marker regenerates it, so they are not walked.
				s.cur.marker(m)
				s.markers++
				return
			}
		}
	}

	switch {
	case name == "br":
		s.cur.text("\n")
	case name == "hr":
		s.endBlock()
	case name == "html" || name == "body":
		s.descend(n)
	case name == "head":
		return
	case inlineElements[name]:
		s.descend(n)
	case blockElements[name]:
		s.endBlock()
		s.descend(n)
		s.endBlock()
	default:
		s.dropped++
	}
}

func (s *sanitizer) descend(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c)
	}
}

func (s *sanitizer) endBlock() {
	items := s.cur.take()
	if len(items) > 0 {
		s.blocks = append(s.blocks, items)
	}
	s.cur = blockBuilder{}
}

// finish joins the collected blocks with newline runs and normalizes.
func (s *sanitizer) finish() []node.Node {
	s.endBlock()
	var out []node.Node
	for i, blk := range s.blocks {
		if i > 0 {
			out = append(out, node.TextRun{Content: "\n"})
		}
		out = append(out, blk...)
	}
	return node.Normalize(out)
}

// blockBuilder accumulates the nodes of one block. Text gathers in a
// buffer until a marker forces a run boundary.
type blockBuilder struct {
	items []node.Node
	buf   strings.Builder
}

func (b *blockBuilder) text(s string) {
	b.buf.WriteString(s)
}

func (b *blockBuilder) marker(m node.CitationMarker) {
	b.flushText()
	b.items = append(b.items, m)
}

func (b *blockBuilder) flushText() {
	if b.buf.Len() > 0 {
		b.items = append(b.items, node.TextRun{Content: b.buf.String()})
		b.buf.Reset()
	}
}

// take finalizes the block, trimming whitespace at its edges. Interior
// spaces, including those next to markers, are kept.
func (b *blockBuilder) take() []node.Node {
	b.flushText()
	items := b.items
	if len(items) > 0 {
		if run, ok := items[0].(node.TextRun); ok {
			run.Content = strings.TrimLeftFunc(run.Content, unicode.IsSpace)
			items[0] = run
		}
	}
	if len(items) > 0 {
		if run, ok := items[len(items)-1].(node.TextRun); ok {
			run.Content = strings.TrimRightFunc(run.Content, unicode.IsSpace)
			items[len(items)-1] = run
		}
	}
	return node.Normalize(items)
}

// collapseSpace folds each whitespace run in markup text into a single
// space. Line breaks in source HTML are formatting, not content.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}

// plainText is the last-resort extraction for input the parser rejects:
// strip anything tag-shaped, unescape entities, keep the rest.
func plainText(markup string) []node.Node {
	var b strings.Builder
	inTag := false
	for _, r := range markup {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	text := strings.TrimSpace(stdhtml.UnescapeString(b.String()))
	if text == "" {
		return nil
	}
	return []node.Node{node.TextRun{Content: text}}
}

func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
