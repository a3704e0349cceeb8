package streetview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang/geo/s2"

	"facade/internal/logging"
	"facade/internal/services"
)

const (
	stageLocate        = "locate"
	lookupRadiusMeters = 50
	lookupSource       = "outdoor"
	earthRadiusMeters  = 6371008.8

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusNotFound    = "NOT_FOUND"

	msgNoExterior = "Exterior Street View imagery is not available for this location. Please try a different spot."
	msgNoImagery  = "No Street View imagery found for this location (even indoors). Click on a road for better results."
)

// Panorama is the outdoor panorama nearest to a requested point.
type Panorama struct {
	ID        string  `json:"pano_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Date      string  `json:"date,omitempty"`
	Copyright string  `json:"copyright,omitempty"`
	// DistanceMeters is the great-circle distance from the requested point
	// to the snapped panorama location.
	DistanceMeters float64 `json:"distance_m"`
}

type metadataResponse struct {
	Status    string `json:"status"`
	PanoID    string `json:"pano_id"`
	Date      string `json:"date"`
	Copyright string `json:"copyright"`
	Location  *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	ErrorMessage string `json:"error_message"`
}

// LookupPanorama finds the outdoor panorama within 50 m of (lat, lng).
// Unavailability is reported as ErrPanoramaUnavailable with a message suited
// to the panorama pane.
func (c *Client) LookupPanorama(ctx context.Context, lat, lng float64) (Panorama, error) {
	if !c.Configured() {
		return Panorama{}, services.Wrap(services.ErrConfigMissing, stageLocate, "lookup panorama", "API key is missing.", nil)
	}
	key := cacheKey(lat, lng)
	if pano, ok := c.cache.Get(key); ok {
		c.recorder.PanoramaLookup("cached")
		return withDistance(pano, lat, lng), nil
	}

	values := url.Values{}
	values.Set("location", formatFloat(lat)+","+formatFloat(lng))
	values.Set("radius", fmt.Sprint(lookupRadiusMeters))
	values.Set("source", lookupSource)
	values.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinQuery(c.cfg.MetadataBaseURL, values), nil)
	if err != nil {
		return Panorama{}, services.Wrap(services.ErrPanoramaUnavailable, stageLocate, "build request", requestFailed("UNKNOWN_ERROR"), err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.PanoramaLookup("error")
		return Panorama{}, services.Wrap(services.ErrPanoramaUnavailable, stageLocate, "lookup panorama", requestFailed("UNKNOWN_ERROR"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		c.recorder.PanoramaLookup("error")
		return Panorama{}, services.Wrap(services.ErrPanoramaUnavailable, stageLocate, "read metadata", requestFailed("UNKNOWN_ERROR"), err)
	}
	if resp.StatusCode != http.StatusOK {
		c.recorder.PanoramaLookup("error")
		status := fmt.Sprintf("HTTP_%d", resp.StatusCode)
		return Panorama{}, services.Wrap(services.ErrPanoramaUnavailable, stageLocate, "lookup panorama", requestFailed(status), fmt.Errorf("metadata: %s", strings.TrimSpace(string(body))))
	}

	var payload metadataResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.recorder.PanoramaLookup("error")
		return Panorama{}, services.Wrap(services.ErrPanoramaUnavailable, stageLocate, "decode metadata", requestFailed("INVALID_RESPONSE"), err)
	}

	logger := logging.WithContext(ctx, c.logger)
	switch payload.Status {
	case statusOK:
		if payload.Location == nil {
			c.recorder.PanoramaLookup("unavailable")
			return Panorama{}, services.Wrap(services.ErrPanoramaUnavailable, stageLocate, "lookup panorama", msgNoExterior, nil)
		}
		pano := Panorama{
			ID:        payload.PanoID,
			Lat:       payload.Location.Lat,
			Lng:       payload.Location.Lng,
			Date:      payload.Date,
			Copyright: payload.Copyright,
		}
		c.cache.Add(key, pano)
		c.recorder.PanoramaLookup("ok")
		pano = withDistance(pano, lat, lng)
		logger.Debug("panorama located",
			logging.String("pano_id", pano.ID),
			logging.Float64("distance_m", pano.DistanceMeters),
		)
		return pano, nil
	case statusZeroResults:
		c.recorder.PanoramaLookup("zero_results")
		return Panorama{}, services.Wrap(services.ErrPanoramaUnavailable, stageLocate, "lookup panorama", msgNoImagery, nil)
	case statusNotFound:
		c.recorder.PanoramaLookup("unavailable")
		return Panorama{}, services.Wrap(services.ErrPanoramaUnavailable, stageLocate, "lookup panorama", msgNoExterior, nil)
	default:
		c.recorder.PanoramaLookup("error")
		logging.WarnWithContext(logger, "street view metadata request failed", "panorama_lookup_failed",
			logging.String("status", payload.Status),
			logging.String("api_error", payload.ErrorMessage),
			logging.String(logging.FieldErrorHint, "check the maps API key restrictions and billing"),
			logging.String(logging.FieldImpact, "panorama unavailable for the selected location"),
		)
		return Panorama{}, services.Wrap(services.ErrPanoramaUnavailable, stageLocate, "lookup panorama", requestFailed(payload.Status), nil)
	}
}

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lng1)
	b := s2.LatLngFromDegrees(lat2, lng2)
	return a.Distance(b).Radians() * earthRadiusMeters
}

func withDistance(pano Panorama, lat, lng float64) Panorama {
	pano.DistanceMeters = DistanceMeters(lat, lng, pano.Lat, pano.Lng)
	return pano
}

func requestFailed(status string) string {
	return fmt.Sprintf("Street View request failed: %s. Please try again.", status)
}

// cacheKey rounds to five decimals, roughly one metre at Madrid's latitude.
func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}
