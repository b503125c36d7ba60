package codec

import (
	"bytes"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Kind identifies how a request body was interpreted.
type Kind int

const (
	// KindJSON is a body decoded as JSON. Empty bodies are also JSON: they
	// decode to an empty object.
	KindJSON Kind = iota

	// KindForm is a URL-encoded form body decoded to a flat mapping.
	KindForm

	// KindRaw is a body with any other content type, kept as text.
	KindRaw
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindForm:
		return "form"
	case KindRaw:
		return "raw"
	}
	return "unknown"
}

// Body is the result of parsing a request body.
type Body struct {
	Kind  Kind
	Value any    // map[string]any, another JSON value, or a string for raw bodies
	Raw   []byte // the bytes as received
}

// BodyParser turns a request byte stream into a structured value according
// to the declared content type.
type BodyParser struct {
	logger *zap.Logger
	json   *JSONCodec
}

// NewBodyParser creates a BodyParser. A nil logger disables parse logging.
func NewBodyParser(logger *zap.Logger) *BodyParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BodyParser{
		logger: logger,
		json:   NewJSONCodec(),
	}
}

// Parse reads r to the end and decodes it. Decoding failures never surface:
// malformed JSON yields an empty object and malformed form pairs are skipped.
// The returned error is non-nil only when reading the stream fails.
func (p *BodyParser) Parse(r io.Reader, contentType string) (Body, error) {
	var raw []byte
	if r != nil {
		var err error
		raw, err = io.ReadAll(r)
		if err != nil {
			return Body{Kind: KindJSON, Value: map[string]any{}}, err
		}
	}
	return p.Decode(raw, contentType), nil
}

// Decode interprets raw according to contentType.
func (p *BodyParser) Decode(raw []byte, contentType string) Body {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Body{Kind: KindJSON, Value: map[string]any{}, Raw: raw}
	}

	switch {
	case IsJSON(contentType):
		v, err := p.json.Decode(raw)
		if err != nil {
			p.logger.Debug("Malformed JSON body",
				zap.Error(err),
				zap.Int("bytes", len(raw)),
			)
			v = map[string]any{}
		}
		return Body{Kind: KindJSON, Value: v, Raw: raw}
	case IsForm(contentType):
		form, err := DecodeForm(raw)
		if err != nil {
			p.logger.Debug("Malformed form body", zap.Error(err))
		}
		return Body{Kind: KindForm, Value: form, Raw: raw}
	default:
		return Body{Kind: KindRaw, Value: string(raw), Raw: raw}
	}
}

// IsJSON reports whether contentType carries a JSON media type, including
// structured suffixes such as application/problem+json.
func IsJSON(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, ContentTypeJSON) || strings.Contains(ct, "+json")
}

// IsForm reports whether contentType carries the URL-encoded form media type.
func IsForm(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), ContentTypeForm)
}
