// Package imaging extracts binary image content from inline data-URI payloads
// as submitted by the verification form.
package imaging

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// markerPrefix is the only accepted inline-image encoding; anything else in a
// candidate list is dropped without an error.
const markerPrefix = "data:image"

const base64Marker = ";base64,"

// Image pairs the original encoded string with its decoded binary content.
type Image struct {
	Encoded string
	Content []byte
}

// DecodeList decodes a raw JSON fragment expected to hold an array of inline
// image strings. Anything that is not an array (including absent fields)
// yields an empty result rather than an error, so a malformed submission
// degrades to "no images" instead of failing the request.
func DecodeList(raw json.RawMessage, max int) []Image {
	if len(raw) == 0 {
		return nil
	}
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return Decode(values, max)
}

// Decode keeps at most max well-formed inline images from values, preserving
// order. Non-strings, strings without the data-URI image marker, and payloads
// that fail base64 decoding are skipped and do not count toward the cap.
func Decode(values []any, max int) []Image {
	if max <= 0 {
		return nil
	}
	var out []Image
	for _, v := range values {
		if len(out) >= max {
			break
		}
		s, ok := v.(string)
		if !ok || !strings.HasPrefix(s, markerPrefix) {
			continue
		}
		content, ok := decodePayload(s)
		if !ok {
			continue
		}
		out = append(out, Image{Encoded: s, Content: content})
	}
	return out
}

func decodePayload(s string) ([]byte, bool) {
	i := strings.Index(s, base64Marker)
	if i < 0 {
		return nil, false
	}
	b, err := base64.StdEncoding.DecodeString(s[i+len(base64Marker):])
	if err != nil {
		return nil, false
	}
	return b, true
}
