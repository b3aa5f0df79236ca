//go:build !darwin

package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"time"
)

// DefaultMonitorFactory builds the synthetic monitor used on platforms
// without a real event tap. It emits a short deterministic click timeline
// so the full pipeline can be exercised end to end.
func DefaultMonitorFactory() InputMonitor {
	return newSyntheticMonitor(defaultSyntheticTimeline(time.Now), 250*time.Millisecond)
}

func defaultSyntheticTimeline(now func() time.Time) []ClickEvent {
	base := now().UTC()
	return []ClickEvent{
		{Timestamp: base, Kind: KindClick, X: 120, Y: 96},
		{Timestamp: base.Add(time.Second), Kind: KindDoubleClick, X: 400, Y: 300},
		{Timestamp: base.Add(2 * time.Second), Kind: KindRightClick, X: 640, Y: 480},
		{Timestamp: base.Add(3 * time.Second), Kind: KindShortcut, Shortcut: "cmd+key:1"},
	}
}

type syntheticMonitor struct {
	timeline []ClickEvent
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

func newSyntheticMonitor(timeline []ClickEvent, interval time.Duration) *syntheticMonitor {
	return &syntheticMonitor{timeline: timeline, interval: interval}
}

func (m *syntheticMonitor) Start(emit func(ClickEvent)) error {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	stop := make(chan struct{})
	stopped := make(chan struct{})
	m.stop = stop
	m.stopped = stopped
	m.mu.Unlock()

	go func() {
		defer close(stopped)
		for _, event := range m.timeline {
			select {
			case <-stop:
				return
			case <-time.After(m.interval):
			}
			emit(event)
		}
	}()
	return nil
}

func (m *syntheticMonitor) Stop() {
	m.mu.Lock()
	stop := m.stop
	stopped := m.stopped
	m.stop = nil
	m.stopped = nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-stopped
}

// DefaultWindowLookup returns a fixed synthetic window on non-darwin hosts.
func DefaultWindowLookup() WindowLookup {
	return syntheticWindowLookup{}
}

type syntheticWindowLookup struct{}

func (syntheticWindowLookup) FrontmostWindow(ctx context.Context) (WindowInfo, error) {
	return WindowInfo{
		ID:     1,
		App:    "synthetic-app",
		Title:  "Synthetic Window",
		Bounds: Rect{X: 0, Y: 0, Width: 800, Height: 600},
	}, nil
}

// DefaultScreenshotCapture writes a generated gradient PNG on non-darwin
// hosts so export rendering has real files to reference.
func DefaultScreenshotCapture() ScreenshotCapture {
	return syntheticScreenshotCapture{}
}

type syntheticScreenshotCapture struct{}

func (syntheticScreenshotCapture) CaptureWindow(ctx context.Context, windowID int, outputPath string) error {
	const width, height = 800, 600
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: uint8((x + y + windowID) % 255), A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return fmt.Errorf("encode synthetic screenshot: %w", err)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write synthetic screenshot: %w", err)
	}
	return nil
}
