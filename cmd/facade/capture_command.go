package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"facade/internal/api"
	"facade/internal/config"
	"facade/internal/datauri"
	"facade/internal/job"
	"facade/internal/logging"
	"facade/internal/panorama"
	"facade/internal/serverrun"
	"facade/internal/services"
	"facade/internal/streetview"
)

type captureResult struct {
	Job         api.JobResponse      `json:"job"`
	Panorama    *streetview.Panorama `json:"panorama,omitempty"`
	URL         string               `json:"url"`
	Directory   string               `json:"directory,omitempty"`
	Original    string               `json:"original,omitempty"`
	Transformed string               `json:"transformed,omitempty"`
}

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var flags viewFlags
	var outDir string
	var snap bool
	var timeout time.Duration
	var logLevel string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture one view and transform it without the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:       logLevel,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			view := flags.view(cmd, cfg.Maps.CenterLat, cfg.Maps.CenterLng)
			result, err := runCapture(runCtx, cfg, logger, view, snap, outDir, cmd.ErrOrStderr())
			if jsonOut && result != nil {
				if encErr := writeJSON(cmd, result); encErr != nil {
					return encErr
				}
			} else if result != nil {
				printCaptureResult(cmd.OutOrStdout(), result)
			}
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for the captured images (defaults to a new folder under paths.output_dir)")
	cmd.Flags().BoolVar(&snap, "snap", true, "Move to the nearest outdoor panorama before capturing")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "Give up after this long")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level for diagnostic output")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

func runCapture(ctx context.Context, cfg *config.Config, logger *slog.Logger, view streetview.ViewState, snap bool, outDir string, progressOut io.Writer) (*captureResult, error) {
	deps, err := serverrun.BuildDeps(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	result := &captureResult{}
	panoID := ""
	if snap {
		pano, err := deps.Locator.LookupPanorama(ctx, view.Lat, view.Lng)
		if err != nil {
			return nil, fmt.Errorf("locate panorama: %s", services.UserMessage(err))
		}
		result.Panorama = &pano
		panoID = pano.ID
		view.Lat, view.Lng = pano.Lat, pano.Lng
	}

	adapter := panorama.NewAdapter()
	adapter.Attach(panorama.NewRemote(panoID,
		panorama.LatLng{Lat: view.Lat, Lng: view.Lng},
		panorama.POV{Heading: view.Heading, Pitch: view.Pitch, Zoom: view.Zoom},
	))
	defer adapter.Detach()

	orchestrator := job.New(adapter, deps.Fetcher, deps.Transformer,
		job.WithLogger(logger),
		job.WithRecorder(deps.Metrics),
		job.WithNotifier(deps.Notifier),
	)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Capturing Street View..."),
		progressbar.OptionSetWriter(progressOut),
		progressbar.OptionSetVisibility(shouldColorize(progressOut)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	unsubscribe := orchestrator.Subscribe(func(j job.Job) {
		if j.Status == job.StatusTransforming {
			bar.Describe("Transforming facade...")
		}
	})
	defer unsubscribe()

	started, err := orchestrator.Trigger(ctx)
	if err != nil {
		return nil, errors.New(services.UserMessage(err))
	}
	result.URL = started.Request.RedactedURL(cfg.Maps.StaticBaseURL, cfg.Maps.APIKey)

	final, err := waitWithSpinner(ctx, orchestrator, bar)
	_ = bar.Finish()
	if err != nil {
		return result, fmt.Errorf("wait for transformation: %w", err)
	}
	result.Job = api.FromJob(final, time.Now())

	dir := outDir
	if dir == "" {
		dir = filepath.Join(cfg.Paths.OutputDir, final.StartedAt.Format("20060102-150405")+"-"+shortID(final.ID))
	}
	if final.Original != nil || final.Transformed != nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return result, fmt.Errorf("create output directory: %w", err)
		}
		result.Directory = dir
	}
	if result.Original, err = writeImage(dir, "original", final.Original); err != nil {
		return result, err
	}
	if result.Transformed, err = writeImage(dir, "transformed", final.Transformed); err != nil {
		return result, err
	}
	if result.Directory != "" {
		if err := writeCaptureManifest(dir, result); err != nil {
			return result, err
		}
	}

	// The JSON result carries file paths; drop the inlined images.
	result.Job.Original = ""
	result.Job.Transformed = ""

	if final.Status == job.StatusFailed {
		return result, fmt.Errorf("transformation failed (%s): %s", final.ErrorKind, final.ErrorMessage)
	}
	return result, nil
}

func waitWithSpinner(ctx context.Context, orchestrator *job.Orchestrator, bar *progressbar.ProgressBar) (job.Job, error) {
	type outcome struct {
		job job.Job
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		j, err := orchestrator.Wait(ctx)
		done <- outcome{job: j, err: err}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case res := <-done:
			return res.job, res.err
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}

func writeImage(dir, name string, img *datauri.Image) (string, error) {
	if img == nil || img.Empty() {
		return "", nil
	}
	path := filepath.Join(dir, name+img.Extension())
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func writeCaptureManifest(dir string, result *captureResult) error {
	manifest := *result
	manifest.Job.Original = ""
	manifest.Job.Transformed = ""
	encoded, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "capture.json"), append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func printCaptureResult(out io.Writer, result *captureResult) {
	rows := [][]string{
		{"Job", shortID(result.Job.ID)},
		{"Status", titleLabel(result.Job.Status)},
	}
	if result.Panorama != nil {
		rows = append(rows,
			[]string{"Panorama", result.Panorama.ID},
			[]string{"Snapped", fmt.Sprintf("%.1f m", result.Panorama.DistanceMeters)},
		)
		if result.Panorama.Date != "" {
			rows = append(rows, []string{"Captured", result.Panorama.Date})
		}
	}
	if result.Job.Request != nil {
		rows = append(rows, []string{"FOV", formatDegrees(result.Job.Request.FOV)})
	}
	if result.Job.ErrorMessage != "" {
		rows = append(rows, []string{"Error", result.Job.ErrorMessage})
	}
	if result.Original != "" {
		rows = append(rows, []string{"Original", result.Original})
	}
	if result.Transformed != "" {
		rows = append(rows, []string{"Transformed", result.Transformed})
	}
	if result.Job.ElapsedMs > 0 {
		rows = append(rows, []string{"Elapsed", (time.Duration(result.Job.ElapsedMs) * time.Millisecond).String()})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		title:    "Facade capture",
		headers:  []string{"Field", "Value"},
		colorize: shouldColorize(out),
	}, rows))
}
