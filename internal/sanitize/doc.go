// Package sanitize converts untrusted markup into safe draft nodes.
//
// Pasted content never reaches the document as markup. The sanitizer
// parses HTML, keeps text from an allow-listed set of elements, and drops
// every other element entirely, contents included. The one exception is
// the reserved citation token, a span carrying this system's data
// attribute: it round-trips back into a CitationMarker with id and
// metadata intact, so copy and paste inside the app never loses a
// citation.
//
// Markdown paste goes through the same pipe: rendered to HTML first, then
// sanitized. Input that cannot be parsed at all degrades to plain-text
// extraction and flags the result as degraded; sanitization never fails
// an edit.
package sanitize
