package node

import (
	"encoding/json"
	"fmt"
)

// Node type tags in the wire format.
const (
	wireTypeText     = "text"
	wireTypeCitation = "citation"
)

type wireText struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type wireCitation struct {
	Type           string   `json:"type"`
	ID             int      `json:"id"`
	CitationNumber int      `json:"citationNumber"`
	DocumentID     string   `json:"documentId"`
	Page           *int     `json:"page,omitempty"`
	ChunkIndex     *int     `json:"chunkIndex,omitempty"`
	Confidence     *float64 `json:"confidenceScore,omitempty"`
	Snippet        string   `json:"snippet"`
}

// MarshalNodes encodes a node list as the canonical tagged array.
// An empty list encodes as "[]", never as null.
func MarshalNodes(nodes []Node) ([]byte, error) {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case TextRun:
			out = append(out, wireText{Type: wireTypeText, Content: v.Content})
		case CitationMarker:
			out = append(out, wireCitation{
				Type:           wireTypeCitation,
				ID:             v.ID,
				CitationNumber: v.CitationNumber,
				DocumentID:     v.DocumentID,
				Page:           v.Page,
				ChunkIndex:     v.ChunkIndex,
				Confidence:     v.Confidence,
				Snippet:        v.Snippet,
			})
		default:
			return nil, fmt.Errorf("marshal nodes: unsupported node type %T", n)
		}
	}
	return json.Marshal(out)
}

// UnmarshalNodes decodes a canonical tagged array into a node list.
// The result is not normalized; pass it through FromNodes or Normalize.
func UnmarshalNodes(data []byte) ([]Node, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode node array: %w", err)
	}
	nodes := make([]Node, 0, len(raw))
	for i, msg := range raw {
		var tag struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &tag); err != nil {
			return nil, fmt.Errorf("decode node %d: %w", i, err)
		}
		switch tag.Type {
		case wireTypeText:
			var w wireText
			if err := json.Unmarshal(msg, &w); err != nil {
				return nil, fmt.Errorf("decode text node %d: %w", i, err)
			}
			nodes = append(nodes, TextRun{Content: w.Content})
		case wireTypeCitation:
			var w wireCitation
			if err := json.Unmarshal(msg, &w); err != nil {
				return nil, fmt.Errorf("decode citation node %d: %w", i, err)
			}
			nodes = append(nodes, CitationMarker{
				ID:             w.ID,
				CitationNumber: w.CitationNumber,
				DocumentID:     w.DocumentID,
				Page:           w.Page,
				ChunkIndex:     w.ChunkIndex,
				Confidence:     w.Confidence,
				Snippet:        w.Snippet,
			})
		default:
			return nil, fmt.Errorf("decode node %d: unknown type %q", i, tag.Type)
		}
	}
	return nodes, nil
}
