package preflight

import (
	"context"

	"facade/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config. Network checks
// are skipped when their credential is missing; the credential check already
// reports that.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	results := RunLocal(cfg)
	if cfg == nil {
		return results
	}
	if cfg.MapsConfigured() {
		results = append(results, CheckMapsMetadata(ctx, cfg.Maps.MetadataBaseURL, cfg.Maps.APIKey, cfg.Maps.CenterLat, cfg.Maps.CenterLng))
	}
	if cfg.GenerationConfigured() {
		results = append(results, CheckGeneration(ctx, cfg))
	}
	return results
}

// RunLocal executes the checks that need no network access.
func RunLocal(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckCredential("Maps API key", cfg.Maps.APIKey, "GOOGLE_MAPS_API_KEY"),
		CheckCredential("Gemini API key", cfg.Generation.APIKey, "GEMINI_API_KEY"),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckNotificationsFromConfig(cfg),
	}
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
