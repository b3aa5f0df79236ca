package capture

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning rejects a second Start while a consumer is active for
// the session; no second listener is registered.
var ErrAlreadyRunning = errors.New("capture pipeline already running")

// ErrAccessibilityPermission indicates the host must grant Accessibility
// trust before a real input monitor can be created.
var ErrAccessibilityPermission = errors.New("macOS accessibility permission required for input monitoring")

// Window lookup failures. Absorbed per event; never fatal to the recording.
var (
	ErrNoFrontmostApp   = errors.New("no frontmost application")
	ErrNoWindows        = errors.New("frontmost application has no windows")
	ErrWindowInfoFailed = errors.New("window information unavailable")
)

// MonitorStartError wraps a systemic failure to begin input observation.
// Unlike a per-event capture failure, it aborts Start entirely: nothing can
// be recorded without the monitor.
type MonitorStartError struct {
	Err error
}

func (e *MonitorStartError) Error() string {
	return fmt.Sprintf("start input monitor: %v", e.Err)
}

func (e *MonitorStartError) Unwrap() error { return e.Err }
