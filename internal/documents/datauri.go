// Package documents decodes uploaded resumes and extracts their text.
package documents

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MIME types the rest of the system cares about
const (
	MIMEPlain = "text/plain"
	MIMEHTML  = "text/html"
	MIMEPDF   = "application/pdf"
	MIMEDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MaxSize is the largest decoded document accepted.
const MaxSize = 10 << 20

// Document is a decoded upload
type Document struct {
	MIMEType string
	Data     []byte
}

// Inline reports whether the model can read the document natively, in which
// case it is attached as media rather than converted to text first.
func (d *Document) Inline() bool {
	switch {
	case d.MIMEType == MIMEPDF, d.MIMEType == MIMEPlain:
		return true
	case strings.HasPrefix(d.MIMEType, "image/"):
		return true
	default:
		return false
	}
}

// DecodeDataURI decodes a data:<mime>[;base64],<payload> URI. When the URI
// declares no type, or only application/octet-stream, the type is sniffed
// from the payload.
func DecodeDataURI(uri string) (*Document, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, &Error{Message: "not a data URI"}
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, &Error{Message: "data URI has no payload separator"}
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta = m
		isBase64 = true
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, &Error{Message: "invalid base64 payload", Cause: err}
		}
		data = decoded
	} else {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, &Error{Message: "invalid percent-encoded payload", Cause: err}
		}
		data = []byte(decoded)
	}

	if len(data) == 0 {
		return nil, &Error{Message: "document is empty"}
	}
	if len(data) > MaxSize {
		return nil, &Error{Message: "document exceeds 10MB"}
	}

	return &Document{MIMEType: resolveType(meta, data), Data: data}, nil
}

// resolveType returns the declared media type without parameters, falling
// back to content sniffing.
func resolveType(declared string, data []byte) string {
	base, _, _ := strings.Cut(declared, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	if base != "" && base != "application/octet-stream" {
		return base
	}

	detected := mimetype.Detect(data).String()
	detected, _, _ = strings.Cut(detected, ";")
	return detected
}
