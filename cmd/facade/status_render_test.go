package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"facade/internal/api"
	"facade/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Service", statusError, "Stopped", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Service:", "[ERROR] Stopped")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Service", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestTitleLabel(t *testing.T) {
	cases := map[string]string{
		"":               "Unknown",
		"transforming":   "Transforming",
		"config_missing": "Config Missing",
	}
	for input, want := range cases {
		if got := titleLabel(input); got != want {
			t.Fatalf("titleLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestJobStatusLineFailed(t *testing.T) {
	line := jobStatusLine(api.JobResponse{
		ID:           "0123456789abcdef",
		Status:       "failed",
		ErrorKind:    "fetch_failed",
		ErrorMessage: "Street View returned 403",
	}, false)
	requireContains(t, line, "[ERROR] Failed (Fetch Failed): Street View returned 403")
	requireContains(t, line, "[job 01234567]")
}

func TestCheckRows(t *testing.T) {
	rows := checkRows([]preflight.Result{
		{Name: "Maps API key", Passed: true, Detail: "Configured"},
		{Name: "Gemini API key", Passed: false, Detail: "GEMINI_API_KEY not set"},
	}, false)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Pass" || rows[1][1] != "Fail" {
		t.Fatalf("unexpected result column: %v", rows)
	}
}
