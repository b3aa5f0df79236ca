// Package capture turns passively observed input events into persisted
// guide Steps. It owns the background consumer loop and the seams to the
// three OS capabilities it needs: the listen-only input monitor, frontmost
// window lookup, and per-window screenshots. Darwin backends use the real
// permission-gated APIs; everywhere else deterministic synthetic backends
// keep the pipeline fully testable.
package capture

import (
	"context"
	"time"
)

// ClickEvent is one observed input event. Events are ephemeral: only the
// Step derived from them survives.
type ClickEvent struct {
	Timestamp time.Time
	Kind      EventKind
	X         float64
	Y         float64
	Shortcut  string
}

// EventKind classifies an observed input event.
type EventKind string

const (
	KindClick       EventKind = "click"
	KindDoubleClick EventKind = "double_click"
	KindRightClick  EventKind = "right_click"
	KindShortcut    EventKind = "shortcut"
)

// Rect is a window rectangle in screen coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// WindowInfo describes the frontmost window at the moment of an event.
type WindowInfo struct {
	ID     int
	App    string
	Title  string
	Bounds Rect
}

// WindowLookup resolves the frontmost window context for an event.
type WindowLookup interface {
	FrontmostWindow(ctx context.Context) (WindowInfo, error)
}

// ScreenshotCapture writes a PNG of one window to the given path.
type ScreenshotCapture interface {
	CaptureWindow(ctx context.Context, windowID int, outputPath string) error
}

// InputMonitor is a passive, listen-only observer of global input. Start
// registers the emit callback and returns once observation is active; Stop
// tears the observer down and must be safe to call after it already exited.
type InputMonitor interface {
	Start(emit func(ClickEvent)) error
	Stop()
}

// MonitorFactory builds a fresh monitor instance. Resume after Pause always
// constructs a new one; handles are never reused across segments.
type MonitorFactory func() InputMonitor

// percentWithin converts a raw screen coordinate into a percentage of the
// window bounds, clamped into [0,100]. Degenerate bounds fall back to the
// window centre.
func percentWithin(raw, origin, size float64) float64 {
	if size <= 0 {
		return 50
	}
	pct := (raw - origin) / size * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
