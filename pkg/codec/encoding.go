package codec

import (
	"net/url"
)

// ContentTypeForm is the media type of URL-encoded form bodies.
const ContentTypeForm = "application/x-www-form-urlencoded"

// DecodeForm parses a URL-encoded key-value string into a flat mapping.
// A key that appears once maps to a string, a repeated key maps to a
// []string in order of appearance.
//
// Malformed pairs are skipped; the returned error reports the first one but
// the mapping always holds every pair that could be decoded.
func DecodeForm(data []byte) (map[string]any, error) {
	values, err := url.ParseQuery(string(data))
	return FlattenValues(values), err
}

// FlattenValues converts url.Values into the flat mapping used for bodies.
func FlattenValues(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
			out[k] = ""
		case 1:
			out[k] = vs[0]
		default:
			cp := make([]string, len(vs))
			copy(cp, vs)
			out[k] = cp
		}
	}
	return out
}
