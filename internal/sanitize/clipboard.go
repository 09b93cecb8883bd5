package sanitize

import (
	stdhtml "html"
	"strings"

	"github.com/draftmark/draftmark/internal/engine/node"
)

// ExportHTML renders a node list as clipboard HTML. Markers become
// reserved token spans, so pasting the output back through Sanitize
// restores them with identity and metadata intact. Newlines render as
// <br> for the same reason.
func ExportHTML(nodes []node.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch v := n.(type) {
		case node.TextRun:
			writeRunHTML(&b, v.Content)
		case node.CitationMarker:
			b.WriteString(`<span ` + TokenAttr + `="`)
			b.WriteString(stdhtml.EscapeString(encodeToken(v)))
			b.WriteString(`">`)
			b.WriteString(stdhtml.EscapeString(v.Label()))
			b.WriteString(`</span>`)
		}
	}
	return b.String()
}

// ExportText renders a node list as the plain-text clipboard flavor.
func ExportText(nodes []node.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Flatten())
	}
	return b.String()
}

func writeRunHTML(b *strings.Builder, content string) {
	for i, line := range strings.Split(content, "\n") {
		if i > 0 {
			b.WriteString("<br>")
		}
		b.WriteString(stdhtml.EscapeString(line))
	}
}
