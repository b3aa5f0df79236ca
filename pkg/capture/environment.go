package capture

import (
	"runtime"

	"github.com/offlinefirst/guidecast/pkg/permissions"
)

// Environment summarises backend support for one capture capability.
type Environment struct {
	Capability string
	Provider   string
	Available  bool
	Permission string
	Message    string
	Guidance   string
}

const (
	providerEventTap      = "quartz_event_tap"
	providerAccessibility = "accessibility_api"
	providerCGWindow      = "cgwindow"
	providerStub          = "synthetic"
)

// DetectEnvironment reports availability for the monitor, window lookup,
// and screenshot backends, used by the doctor command and surfaced when a
// recording cannot start.
func DetectEnvironment() []Environment {
	accessibility := permissions.ProbeAccessibility(nil)
	screenRecording := permissions.ProbeScreenRecording(nil)

	monitor := Environment{
		Capability: "input_monitor",
		Provider:   providerStub,
		Permission: accessibility.StatusString(),
		Message:    accessibility.Message,
		Guidance:   accessibility.Guidance,
		Available:  true,
	}
	windows := Environment{
		Capability: "window_lookup",
		Provider:   providerStub,
		Permission: accessibility.StatusString(),
		Message:    accessibility.Message,
		Guidance:   accessibility.Guidance,
		Available:  true,
	}
	screens := Environment{
		Capability: "screenshot",
		Provider:   providerStub,
		Permission: screenRecording.StatusString(),
		Message:    screenRecording.Message,
		Guidance:   screenRecording.Guidance,
		Available:  true,
	}

	if runtime.GOOS == "darwin" {
		monitor.Provider = providerEventTap
		monitor.Available = accessibility.Status != permissions.StatusDenied
		windows.Provider = providerAccessibility
		windows.Available = monitor.Available
		screens.Provider = providerCGWindow
		screens.Available = screenRecording.Status != permissions.StatusDenied
	} else {
		monitor.Permission = "not_applicable"
		windows.Permission = "not_applicable"
		screens.Permission = "not_applicable"
	}

	for _, env := range []*Environment{&monitor, &windows, &screens} {
		if !env.Available {
			env.Provider = providerStub
		}
	}
	return []Environment{monitor, windows, screens}
}
