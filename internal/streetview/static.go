package streetview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"facade/internal/datauri"
	"facade/internal/logging"
	"facade/internal/services"
)

const (
	stageCapture   = "capture"
	maxImageBytes  = 10 << 20
	maxErrorBody   = 4 << 10
	billingHint    = " This might be due to API key restrictions or billing issues."
	noImageryText  = "No Street View imagery available for this exact location/orientation."
	zeroResultsTag = "ZERO_RESULTS"
)

// FetchStatic retrieves the still image described by req.
//
// A 403 is reported with a credential/billing hint, a 404 or a body carrying
// ZERO_RESULTS is reported as ErrNoImagery, and any other non-2xx status is
// ErrFetchFailed with the status and response body.
func (c *Client) FetchStatic(ctx context.Context, req CaptureRequest) (datauri.Image, error) {
	if !c.Configured() {
		return datauri.Image{}, services.Wrap(services.ErrConfigMissing, stageCapture, "fetch static image", "API key is missing.", nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL(c.cfg.StaticBaseURL, c.cfg.APIKey), nil)
	if err != nil {
		return datauri.Image{}, services.Wrap(services.ErrFetchFailed, stageCapture, "build request", "Failed to fetch Street View image.", err)
	}

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("fetching street view still", logging.String("url", req.RedactedURL(c.cfg.StaticBaseURL, c.cfg.APIKey)))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recorder.StaticFetch("error")
		return datauri.Image{}, services.Wrap(services.ErrFetchFailed, stageCapture, "fetch static image", "Failed to fetch Street View image.", err)
	}
	defer resp.Body.Close()
	c.recorder.StaticFetch(strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return datauri.Image{}, classifyStaticFailure(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return datauri.Image{}, services.Wrap(services.ErrFetchFailed, stageCapture, "read image body", "Failed to read Street View image.", err)
	}
	if len(data) == 0 {
		return datauri.Image{}, services.Wrap(services.ErrFetchFailed, stageCapture, "read image body", "Street View returned an empty image.", nil)
	}
	img := datauri.New(resp.Header.Get("Content-Type"), data)
	logger.Debug("street view still fetched",
		logging.String("mime_type", img.MIMEType),
		logging.Int("bytes", len(data)),
	)
	return img, nil
}

func classifyStaticFailure(status int, body string) error {
	if status == http.StatusForbidden {
		msg := fmt.Sprintf("Failed to fetch Street View image. Status: %d%s", status, billingHint)
		return services.Wrap(services.ErrFetchFailed, stageCapture, "fetch static image", msg, nil)
	}
	if status == http.StatusNotFound || strings.Contains(body, zeroResultsTag) {
		return services.Wrap(services.ErrNoImagery, stageCapture, "fetch static image", noImageryText, nil)
	}
	if body == "" {
		body = "Bad request"
	}
	msg := fmt.Sprintf("Failed to fetch Street View image (%d): %s", status, body)
	return services.Wrap(services.ErrFetchFailed, stageCapture, "fetch static image", msg, nil)
}
