// Package datauri converts raw image bytes to and from the inline
// "data:<mime>;base64,<payload>" form exchanged with the browser and the
// generative model.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const prefix = "data:"

// ErrMalformed reports a string that is not a base64 data URI.
var ErrMalformed = errors.New("malformed data uri")

// Image is an encoded image payload with its MIME type.
type Image struct {
	MIMEType string
	Data     []byte
}

// New returns an Image for data, sniffing the MIME type when mimeType is empty
// or generic.
func New(mimeType string, data []byte) Image {
	mimeType = strings.TrimSpace(mimeType)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = Sniff(data)
	}
	return Image{MIMEType: mimeType, Data: data}
}

// Sniff detects the content type of data, reducing it to the bare MIME type.
func Sniff(data []byte) string {
	detected := http.DetectContentType(data)
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	return detected
}

// Empty reports whether the image carries no payload.
func (img Image) Empty() bool {
	return len(img.Data) == 0
}

// String renders the image as a data URI.
func (img Image) String() string {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	var b strings.Builder
	b.Grow(len(prefix) + len(mimeType) + len(";base64,") + base64.StdEncoding.EncodedLen(len(img.Data)))
	b.WriteString(prefix)
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(img.Data))
	return b.String()
}

// Extension returns a file extension suitable for writing the image to disk.
func (img Image) Extension() string {
	switch img.MIMEType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}

// Parse decodes a base64 data URI. Non-base64 data URIs are rejected since
// neither side of the pipeline produces them.
func Parse(uri string) (Image, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, prefix) {
		return Image{}, fmt.Errorf("%w: missing %q prefix", ErrMalformed, prefix)
	}
	header, payload, ok := strings.Cut(uri[len(prefix):], ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing payload separator", ErrMalformed)
	}
	mimeType, encoding, ok := strings.Cut(header, ";")
	if !ok || !strings.EqualFold(encoding, "base64") {
		return Image{}, fmt.Errorf("%w: only base64 encoding is supported", ErrMalformed)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return New(mimeType, data), nil
}
