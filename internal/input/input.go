// Package input reads the JSON document format the CLI consumes: a text
// unit with its flattened annotation spans and apparatus layer. Files with
// an .xz suffix are decompressed transparently, since corpora usually ship
// compressed.
package input

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/marchetti-editions/stemma/core/apparatus"
	"github.com/marchetti-editions/stemma/core/errors"
	"github.com/marchetti-editions/stemma/core/span"
)

// Document is one text unit ready for the pipeline.
type Document struct {
	// ID identifies the text unit (e.g. "catullus-3").
	ID string `json:"id"`

	// Title is the human-readable title.
	Title string `json:"title,omitempty"`

	// Lang is the BCP-47 language tag of the text.
	Lang string `json:"lang,omitempty"`

	// Text is the flattened base text.
	Text string `json:"text"`

	// Ranges are the flattened annotation spans, one per fragment.
	Ranges []span.AnnotatedRange `json:"ranges,omitempty"`

	// Layer is the apparatus layer keyed by fragment.
	Layer *apparatus.Layer `json:"layer,omitempty"`
}

// Read decodes a document from r.
func Read(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &errors.ParseError{Format: "JSON", Message: "decoding document", Err: err}
	}
	if doc.Text == "" {
		return nil, errors.NewValidation("text", "document has no text")
	}
	return &doc, nil
}

// ReadFile reads a document from path, decompressing .xz files.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, &errors.ParseError{Format: "xz", Path: path, Message: "opening compressed stream", Err: err}
		}
		r = xr
	}
	doc, err := Read(r)
	if err != nil {
		if parseErr, ok := err.(*errors.ParseError); ok {
			parseErr.Path = path
		}
		return nil, err
	}
	return doc, nil
}
