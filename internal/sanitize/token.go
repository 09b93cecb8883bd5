package sanitize

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/draftmark/draftmark/internal/engine/node"
)

// TokenAttr is the reserved data attribute that marks a span as a
// citation token. Its value is a JSON payload using the same keys as
// the draft wire format.
const TokenAttr = "data-draftmark-citation"

// decodeToken parses a token payload into a marker. A payload that is
// not valid JSON or is missing a required key is rejected, and the
// carrying span is then treated as an ordinary inline element.
func decodeToken(payload string) (node.CitationMarker, bool) {
	if !gjson.Valid(payload) {
		return node.CitationMarker{}, false
	}
	id := gjson.Get(payload, "id")
	num := gjson.Get(payload, "citationNumber")
	docID := gjson.Get(payload, "documentId")
	if !id.Exists() || !num.Exists() || !docID.Exists() {
		return node.CitationMarker{}, false
	}
	m := node.CitationMarker{
		ID:             int(id.Int()),
		CitationNumber: int(num.Int()),
		DocumentID:     docID.String(),
		Snippet:        gjson.Get(payload, "snippet").String(),
	}
	if v := gjson.Get(payload, "page"); v.Exists() {
		p := int(v.Int())
		m.Page = &p
	}
	if v := gjson.Get(payload, "chunkIndex"); v.Exists() {
		c := int(v.Int())
		m.ChunkIndex = &c
	}
	if v := gjson.Get(payload, "confidenceScore"); v.Exists() {
		f := v.Float()
		m.Confidence = &f
	}
	return m, true
}

// encodeToken renders a marker as a token payload.
func encodeToken(m node.CitationMarker) string {
	payload := setJSON("", "id", m.ID)
	payload = setJSON(payload, "citationNumber", m.CitationNumber)
	payload = setJSON(payload, "documentId", m.DocumentID)
	if m.Page != nil {
		payload = setJSON(payload, "page", *m.Page)
	}
	if m.ChunkIndex != nil {
		payload = setJSON(payload, "chunkIndex", *m.ChunkIndex)
	}
	if m.Confidence != nil {
		payload = setJSON(payload, "confidenceScore", *m.Confidence)
	}
	if m.Snippet != "" {
		payload = setJSON(payload, "snippet", m.Snippet)
	}
	return payload
}

// setJSON wraps sjson.Set for static paths, which cannot fail.
func setJSON(json, path string, value any) string {
	out, err := sjson.Set(json, path, value)
	if err != nil {
		return json
	}
	return out
}
