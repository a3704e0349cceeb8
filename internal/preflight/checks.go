package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"facade/internal/config"
	"facade/internal/facade"
)

// CheckCredential reports whether a credential is present without revealing it.
func CheckCredential(name, value, envName string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return Result{Name: name, Detail: fmt.Sprintf("missing (set %s or the config file)", envName)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("configured (%d chars)", len(value))}
}

// CheckMapsMetadata issues one Street View metadata request at (lat, lng) to
// verify the endpoint is reachable and the key is accepted. ZERO_RESULTS
// counts as a pass: the key works, there is simply no imagery there.
func CheckMapsMetadata(ctx context.Context, baseURL, apiKey string, lat, lng float64) Result {
	const name = "Street View metadata"

	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	values := url.Values{}
	values.Set("location", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	values.Set("key", strings.TrimSpace(apiKey))
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"?"+values.Encode(), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%d)", resp.StatusCode)}
	}
	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreadable response (%v)", err)}
	}
	switch payload.Status {
	case "OK", "ZERO_RESULTS":
		return Result{Name: name, Passed: true, Detail: "API reachable"}
	case "REQUEST_DENIED":
		detail := "request denied (check key restrictions and billing)"
		if msg := strings.TrimSpace(payload.ErrorMessage); msg != "" {
			detail = fmt.Sprintf("request denied: %s", msg)
		}
		return Result{Name: name, Detail: detail}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status %s", payload.Status)}
	}
}

// CheckGeneration verifies that the Gemini API accepts the key and knows the
// configured model. It uses a 30-second timeout and a single attempt.
func CheckGeneration(ctx context.Context, cfg *config.Config) Result {
	const name = "Gemini model"

	if cfg == nil || !cfg.GenerationConfigured() {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := facade.NewClient(checkCtx, facade.Config{
		APIKey:  cfg.Generation.APIKey,
		Model:   cfg.Generation.Model,
		BaseURL: cfg.Generation.BaseURL,
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", client.Model())}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeNetworkError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
