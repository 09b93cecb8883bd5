package sanitize

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// SanitizeMarkdown converts pasted markdown into a safe node list. The
// source renders to HTML first and then flows through Sanitize, so the
// allow list and token handling apply to both paste formats.
func SanitizeMarkdown(src string) Result {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(src), &buf); err != nil {
		return Result{Nodes: plainText(src), Degraded: true}
	}
	return Sanitize(buf.String())
}
