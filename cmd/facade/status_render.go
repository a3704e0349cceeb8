package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"facade/internal/api"
	"facade/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// titleLabel renders snake_case or lowercase states as "Title Case".
func titleLabel(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if value == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(value)
}

func jobStatusLine(job api.JobResponse, colorize bool) string {
	kind := statusInfo
	message := titleLabel(job.Status)
	switch job.Status {
	case "succeeded":
		kind = statusOK
	case "failed":
		kind = statusError
		message = fmt.Sprintf("%s (%s): %s", message, titleLabel(job.ErrorKind), job.ErrorMessage)
	case "capturing", "transforming":
		kind = statusWarn
	}
	if job.ID != "" {
		message = fmt.Sprintf("%s [job %s]", message, shortID(job.ID))
	}
	return renderStatusLine("Job", kind, message, colorize)
}

func checkRows(results []preflight.Result, colorize bool) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		state := "Pass"
		if !r.Passed {
			state = "Fail"
		}
		if colorize {
			if r.Passed {
				state = ansiGreen + state + ansiReset
			} else {
				state = ansiRed + state + ansiReset
			}
		}
		rows = append(rows, []string{r.Name, state, r.Detail})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
