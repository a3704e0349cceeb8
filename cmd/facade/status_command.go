package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"facade/internal/api"
	"facade/internal/config"
	"facade/internal/preflight"
)

type statusReport struct {
	Service string            `json:"service"`
	Lock    string            `json:"lockFilePath"`
	Checks  []api.CheckResult `json:"checks"`
	Job     *api.JobResponse  `json:"job,omitempty"`
	View    *api.ViewResponse `json:"view,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show service status and preflight checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var results []preflight.Result
			if offline {
				results = preflight.RunLocal(cfg)
			} else {
				results = preflight.RunAll(cmd.Context(), cfg)
			}
			probe := preflight.ProbeService(cfg)
			report := statusReport{
				Service: probe.Detail(),
				Lock:    probe.LockPath,
				Checks:  api.FromChecks(results),
			}
			if probe.Running {
				if remote, err := fetchRemoteStatus(cmd.Context(), cfg); err == nil {
					report.Job = &remote.Job
					report.View = &remote.View
				} else {
					report.Service = fmt.Sprintf("Running (unreachable: %v)", err)
				}
			}

			if jsonOut {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Service", colorize)
			serviceKind := statusInfo
			if probe.Err != nil {
				serviceKind = statusWarn
			} else if probe.Running {
				serviceKind = statusOK
			}
			lines = append(lines, renderStatusLine("Service", serviceKind, report.Service, colorize))
			if report.Job != nil {
				lines = append(lines, jobStatusLine(*report.Job, colorize))
			}
			if report.View != nil {
				lines = append(lines, renderStatusLine("Trigger", statusInfo, titleLabel(triggerState(report.View.TriggerEnabled)), colorize))
			}
			lines = append(lines, "")
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			fmt.Fprintln(out, renderTable(tableSpec{
				title:    "Preflight",
				headers:  []string{"Check", "Result", "Detail"},
				colorize: colorize,
			}, checkRows(results, colorize)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip checks that call external APIs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	return cmd
}

func fetchRemoteStatus(ctx context.Context, cfg *config.Config) (api.StatusResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return api.NewClient(cfg.Server.Bind, cfg.Server.APIToken).Status(reqCtx)
}

func triggerState(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
