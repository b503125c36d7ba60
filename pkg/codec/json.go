// Package codec provides encoding and decoding functionality for request and
// response bodies.
package codec

import (
	"bytes"
	"encoding/json"
	"io"
)

// ContentTypeJSON is the media type used for structured responses.
const ContentTypeJSON = "application/json"

// JSONCodec marshals structured response payloads and unmarshals JSON request
// bodies. HTML characters are not escaped so the wire output matches what a
// browser-side JSON.stringify would produce.
type JSONCodec struct {
	// EscapeHTML escapes <, > and & inside JSON strings when set.
	EscapeHTML bool
}

// NewJSONCodec creates a new JSONCodec instance.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Marshal encodes v as compact JSON without a trailing newline.
func (c *JSONCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(c.EscapeHTML)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encode writes v as JSON to w.
func (c *JSONCodec) Encode(w io.Writer, v any) error {
	body, err := c.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// Decode unmarshals data into a generic value (objects become map[string]any).
func (c *JSONCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeInto unmarshals data into dst.
func (c *JSONCodec) DecodeInto(data []byte, dst any) error {
	return json.Unmarshal(data, dst)
}
