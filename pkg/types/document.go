// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// Document is the product of converting one URL.
type Document struct {
	// Markdown is the page rendered as Markdown.
	Markdown string `json:"markdown"`

	// Structured is the backend's structured export of the document, when
	// it has one. Nil when the backend offers no structured form; the
	// artifact writer substitutes an error marker in that case.
	Structured json.RawMessage `json:"document,omitempty"`
}
