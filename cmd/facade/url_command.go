package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"facade/internal/api"
	"facade/internal/streetview"
)

type viewFlags struct {
	lat, lng             float64
	heading, pitch, zoom float64
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude (defaults to the configured map centre)")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "Longitude (defaults to the configured map centre)")
	cmd.Flags().Float64Var(&f.heading, "heading", 0, "Camera heading in degrees")
	cmd.Flags().Float64Var(&f.pitch, "pitch", 0, "Camera pitch in degrees")
	cmd.Flags().Float64Var(&f.zoom, "zoom", 1, "Panorama zoom level")
}

func (f *viewFlags) view(cmd *cobra.Command, centerLat, centerLng float64) streetview.ViewState {
	lat, lng := f.lat, f.lng
	if !cmd.Flags().Changed("lat") && !cmd.Flags().Changed("lng") {
		lat, lng = centerLat, centerLng
	}
	return streetview.ViewState{Lat: lat, Lng: lng, Heading: f.heading, Pitch: f.pitch, Zoom: f.zoom}
}

func newURLCommand(ctx *commandContext) *cobra.Command {
	var flags viewFlags
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the still-image request for a view without fetching it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := streetview.BuildCaptureRequest(flags.view(cmd, cfg.Maps.CenterLat, cfg.Maps.CenterLng))
			redacted := req.RedactedURL(cfg.Maps.StaticBaseURL, cfg.Maps.APIKey)

			if jsonOut {
				return writeJSON(cmd, struct {
					Request api.CaptureRequest `json:"request"`
					URL     string             `json:"url"`
				}{api.FromCaptureRequest(req), redacted})
			}

			rows := [][]string{
				{"Size", req.Size()},
				{"Location", fmt.Sprintf("%s, %s", formatDegrees(req.Lat), formatDegrees(req.Lng))},
				{"Heading", formatDegrees(req.Heading)},
				{"Pitch", formatDegrees(req.Pitch)},
				{"FOV", formatDegrees(req.FOV)},
				{"Credential", yesNo(cfg.MapsConfigured())},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(tableSpec{
				title:    "Capture request",
				headers:  []string{"Field", "Value"},
				colorize: shouldColorize(out),
			}, rows))
			fmt.Fprintln(out, redacted)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the request as JSON")
	return cmd
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
