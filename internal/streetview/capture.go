package streetview

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	// CaptureWidth and CaptureHeight are the fixed still-image dimensions.
	CaptureWidth  = 400
	CaptureHeight = 600

	minFOV = 10.0
	maxFOV = 120.0
)

// ViewState is the observable state of the panorama viewer.
type ViewState struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Heading float64 `json:"heading"`
	Pitch   float64 `json:"pitch"`
	Zoom    float64 `json:"zoom"`
}

// CaptureRequest describes a single still-image request. Values are immutable
// once built.
type CaptureRequest struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Heading float64 `json:"heading"`
	Pitch   float64 `json:"pitch"`
	FOV     float64 `json:"fov"`
}

// FOV converts a panorama zoom level into a field of view in degrees,
// clamped to [10, 120]. Higher zoom never yields a wider view.
func FOV(zoom float64) float64 {
	if math.IsNaN(zoom) {
		zoom = 0
	}
	fov := 180 / math.Pow(2, zoom)
	return math.Min(maxFOV, math.Max(minFOV, fov))
}

// BuildCaptureRequest maps a view state onto a capture request.
func BuildCaptureRequest(view ViewState) CaptureRequest {
	return CaptureRequest{
		Width:   CaptureWidth,
		Height:  CaptureHeight,
		Lat:     view.Lat,
		Lng:     view.Lng,
		Heading: view.Heading,
		Pitch:   view.Pitch,
		FOV:     FOV(view.Zoom),
	}
}

// Size renders the "WxH" size parameter.
func (r CaptureRequest) Size() string {
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}

// URL renders the static image URL for base with the supplied key.
func (r CaptureRequest) URL(base, key string) string {
	return r.render(base, key)
}

// RedactedURL renders the static image URL with the key masked, for logs and
// terminal output.
func (r CaptureRequest) RedactedURL(base, key string) string {
	return r.render(base, redact(key))
}

func (r CaptureRequest) render(base, key string) string {
	values := url.Values{}
	values.Set("size", r.Size())
	values.Set("location", formatFloat(r.Lat)+","+formatFloat(r.Lng))
	values.Set("heading", formatFloat(r.Heading))
	values.Set("pitch", formatFloat(r.Pitch))
	values.Set("fov", formatFloat(r.FOV))
	values.Set("key", key)
	return joinQuery(base, values)
}

func joinQuery(base string, values url.Values) string {
	base = strings.TrimSpace(base)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + values.Encode()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func redact(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****"
}
