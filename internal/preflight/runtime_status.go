package preflight

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/gofrs/flock"

	"facade/internal/config"
)

// CheckNotificationsFromConfig reports whether job notifications are enabled.
// Disabled notifications are not a failure.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: "ntfy " + topic}
}

// ServiceProbe reports whether a facade service currently holds the lock.
type ServiceProbe struct {
	Running  bool
	LockPath string
	Err      error
}

// ProbeService checks the single-instance lock without disturbing a running
// service: if the lock can be taken it is released immediately.
func ProbeService(cfg *config.Config) ServiceProbe {
	if cfg == nil {
		return ServiceProbe{}
	}
	path := cfg.LockPath()
	probe := ServiceProbe{LockPath: path}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			probe.Err = err
		}
		return probe
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		probe.Err = err
		return probe
	}
	if ok {
		_ = lock.Unlock()
		return probe
	}
	probe.Running = true
	return probe
}

// Detail renders a display-friendly summary for status UIs.
func (p ServiceProbe) Detail() string {
	switch {
	case p.Err != nil:
		return "Unknown (" + p.Err.Error() + ")"
	case p.Running:
		return "Running"
	default:
		return "Stopped"
	}
}
