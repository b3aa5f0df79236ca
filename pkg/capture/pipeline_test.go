package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedMonitor emits queued events on demand from the test goroutine.
type scriptedMonitor struct {
	mu    sync.Mutex
	emit  func(ClickEvent)
	fail  error
	stops int
}

func (m *scriptedMonitor) Start(emit func(ClickEvent)) error {
	if m.fail != nil {
		return m.fail
	}
	m.mu.Lock()
	m.emit = emit
	m.mu.Unlock()
	return nil
}

func (m *scriptedMonitor) Stop() {
	m.mu.Lock()
	m.emit = nil
	m.stops++
	m.mu.Unlock()
}

func (m *scriptedMonitor) send(event ClickEvent) {
	m.mu.Lock()
	emit := m.emit
	m.mu.Unlock()
	if emit != nil {
		emit(event)
	}
}

type fixedWindowLookup struct {
	info WindowInfo
	err  error
}

func (f fixedWindowLookup) FrontmostWindow(ctx context.Context) (WindowInfo, error) {
	return f.info, f.err
}

type recordingScreens struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recordingScreens) CaptureWindow(ctx context.Context, windowID int, outputPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.paths = append(r.paths, outputPath)
	return os.WriteFile(outputPath, []byte("png"), 0o644)
}

func newTestPipeline(t *testing.T, monitor InputMonitor, windows WindowLookup, screens ScreenshotCapture) (*Pipeline, *guide.Session, chan guide.Step) {
	t.Helper()
	layout := guide.BuildLayout(t.TempDir(), "sess")
	if err := guide.EnsureFilesystem(layout); err != nil {
		t.Fatalf("ensure filesystem: %v", err)
	}
	session := guide.NewSession("sess", time.Now(), layout)

	captured := make(chan guide.Step, 32)
	pipeline, err := NewPipeline(Options{
		Session: session,
		Monitor: func() InputMonitor { return monitor },
		Windows: windows,
		Screens: screens,
		Logger:  discardLogger(),
		Notify:  func(step guide.Step) { captured <- step },
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return pipeline, session, captured
}

func waitSteps(t *testing.T, captured chan guide.Step, n int) []guide.Step {
	t.Helper()
	out := make([]guide.Step, 0, n)
	for len(out) < n {
		select {
		case step := <-captured:
			out = append(out, step)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for step %d of %d", len(out)+1, n)
		}
	}
	return out
}

func TestPipelinePreservesOrderAndIDs(t *testing.T) {
	monitor := &scriptedMonitor{}
	windows := fixedWindowLookup{info: WindowInfo{ID: 7, App: "editor", Title: "Doc", Bounds: Rect{Width: 800, Height: 600}}}
	screens := &recordingScreens{}
	pipeline, session, captured := newTestPipeline(t, monitor, windows, screens)

	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pipeline.Stop()

	const n = 20
	for i := 0; i < n; i++ {
		monitor.send(ClickEvent{Kind: KindClick, X: float64(i), Y: float64(i)})
	}

	steps := waitSteps(t, captured, n)
	for i, step := range steps {
		if step.ID != i+1 {
			t.Fatalf("step %d has id %d, want strictly increasing from 1", i, step.ID)
		}
		if step.X != float64(i) {
			t.Fatalf("step %d out of order: x=%v", i, step.X)
		}
	}

	got := session.Steps()
	if len(got) != n {
		t.Fatalf("expected %d session steps, got %d", n, len(got))
	}
	for i := range got {
		if got[i].ID != i+1 {
			t.Fatalf("session order mismatch at %d: id %d", i, got[i].ID)
		}
	}
}

func TestPipelineComputesClickPercent(t *testing.T) {
	monitor := &scriptedMonitor{}
	windows := fixedWindowLookup{info: WindowInfo{ID: 1, App: "app", Bounds: Rect{X: 0, Y: 0, Width: 800, Height: 600}}}
	pipeline, _, captured := newTestPipeline(t, monitor, windows, &recordingScreens{})

	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pipeline.Stop()

	for i := 0; i < 3; i++ {
		monitor.send(ClickEvent{Kind: KindClick, X: 100, Y: 100})
	}

	steps := waitSteps(t, captured, 3)
	for _, step := range steps {
		if step.ClickXPercent != 12.5 || math.Abs(step.ClickYPercent-100.0/6) > 1e-9 {
			t.Fatalf("unexpected percents: %v/%v", step.ClickXPercent, step.ClickYPercent)
		}
	}
}

func TestPipelineClampsAndDefaultsPercent(t *testing.T) {
	monitor := &scriptedMonitor{}
	windows := fixedWindowLookup{info: WindowInfo{ID: 1, Bounds: Rect{X: 100, Y: 100, Width: 200, Height: 200}}}
	pipeline, _, captured := newTestPipeline(t, monitor, windows, &recordingScreens{})
	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pipeline.Stop()

	monitor.send(ClickEvent{Kind: KindClick, X: 50, Y: 500}) // outside both edges
	steps := waitSteps(t, captured, 1)
	if steps[0].ClickXPercent != 0 || steps[0].ClickYPercent != 100 {
		t.Fatalf("expected clamped 0/100, got %v/%v", steps[0].ClickXPercent, steps[0].ClickYPercent)
	}
}

func TestPipelineDegenerateBoundsFallBackToCentre(t *testing.T) {
	monitor := &scriptedMonitor{}
	windows := fixedWindowLookup{info: WindowInfo{ID: 1, Bounds: Rect{}}}
	pipeline, _, captured := newTestPipeline(t, monitor, windows, &recordingScreens{})
	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pipeline.Stop()

	monitor.send(ClickEvent{Kind: KindClick, X: 10, Y: 10})
	steps := waitSteps(t, captured, 1)
	if steps[0].ClickXPercent != 50 || steps[0].ClickYPercent != 50 {
		t.Fatalf("expected 50/50 fallback, got %v/%v", steps[0].ClickXPercent, steps[0].ClickYPercent)
	}
}

func TestPipelineAbsorbsScreenshotFailure(t *testing.T) {
	monitor := &scriptedMonitor{}
	windows := fixedWindowLookup{info: WindowInfo{ID: 1, App: "app", Bounds: Rect{Width: 800, Height: 600}}}
	screens := &recordingScreens{err: errors.New("screen recording denied")}
	pipeline, _, captured := newTestPipeline(t, monitor, windows, screens)
	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pipeline.Stop()

	monitor.send(ClickEvent{Kind: KindClick})
	monitor.send(ClickEvent{Kind: KindClick})

	steps := waitSteps(t, captured, 2)
	for _, step := range steps {
		if step.ScreenshotPath != "" {
			t.Fatalf("expected empty screenshot path on failure, got %q", step.ScreenshotPath)
		}
	}
}

func TestPipelineAbsorbsWindowLookupFailure(t *testing.T) {
	monitor := &scriptedMonitor{}
	windows := fixedWindowLookup{err: ErrNoFrontmostApp}
	pipeline, _, captured := newTestPipeline(t, monitor, windows, &recordingScreens{})
	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pipeline.Stop()

	monitor.send(ClickEvent{Kind: KindClick, X: 5, Y: 5})
	steps := waitSteps(t, captured, 1)
	step := steps[0]
	if step.App != "" || step.ScreenshotPath != "" {
		t.Fatalf("expected bare step on lookup failure, got %+v", step)
	}
	if step.ClickXPercent != 50 || step.ClickYPercent != 50 {
		t.Fatalf("expected centre fallback, got %v/%v", step.ClickXPercent, step.ClickYPercent)
	}
}

func TestPipelineWritesDeterministicScreenshotPaths(t *testing.T) {
	monitor := &scriptedMonitor{}
	windows := fixedWindowLookup{info: WindowInfo{ID: 3, Bounds: Rect{Width: 800, Height: 600}}}
	screens := &recordingScreens{}
	pipeline, session, captured := newTestPipeline(t, monitor, windows, screens)
	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pipeline.Stop()

	monitor.send(ClickEvent{Kind: KindClick})
	steps := waitSteps(t, captured, 1)

	want := filepath.Join("screenshots", "step_001.png")
	if steps[0].ScreenshotPath != want {
		t.Fatalf("expected %q, got %q", want, steps[0].ScreenshotPath)
	}
	abs := filepath.Join(session.Layout().Root, steps[0].ScreenshotPath)
	if _, err := os.Stat(abs); err != nil {
		t.Fatalf("screenshot file missing: %v", err)
	}
}

func TestPipelineDoubleStartFailsFast(t *testing.T) {
	monitor := &scriptedMonitor{}
	pipeline, _, _ := newTestPipeline(t, monitor, fixedWindowLookup{}, &recordingScreens{})

	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pipeline.Stop()

	if err := pipeline.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestPipelineMonitorStartFailureIsSystemic(t *testing.T) {
	monitor := &scriptedMonitor{fail: ErrAccessibilityPermission}
	pipeline, _, _ := newTestPipeline(t, monitor, fixedWindowLookup{}, &recordingScreens{})

	err := pipeline.Start()
	var startErr *MonitorStartError
	if !errors.As(err, &startErr) {
		t.Fatalf("expected MonitorStartError, got %v", err)
	}
	if !errors.Is(err, ErrAccessibilityPermission) {
		t.Fatalf("expected permission cause to be preserved, got %v", err)
	}
	if pipeline.Running() {
		t.Fatalf("pipeline must not run after failed start")
	}
	// A failed start leaves the pipeline restartable.
	monitor.fail = nil
	if err := pipeline.Start(); err != nil {
		t.Fatalf("restart after failure: %v", err)
	}
	pipeline.Stop()
}

func TestPipelineStopIsIdempotentAndRestartable(t *testing.T) {
	monitor := &scriptedMonitor{}
	windows := fixedWindowLookup{info: WindowInfo{ID: 1, Bounds: Rect{Width: 800, Height: 600}}}
	pipeline, session, captured := newTestPipeline(t, monitor, windows, &recordingScreens{})

	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	monitor.send(ClickEvent{Kind: KindClick})
	waitSteps(t, captured, 1)

	pipeline.Stop()
	pipeline.Stop() // safe after teardown

	if monitor.stops != 1 {
		t.Fatalf("expected exactly one monitor stop, got %d", monitor.stops)
	}
	if session.Len() != 1 {
		t.Fatalf("steps captured before stop must survive, got %d", session.Len())
	}

	// Resume: fresh start, earlier steps untouched, ids continue.
	if err := pipeline.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	monitor.send(ClickEvent{Kind: KindClick})
	steps := waitSteps(t, captured, 1)
	if steps[0].ID != 2 {
		t.Fatalf("expected id to continue at 2 after resume, got %d", steps[0].ID)
	}
	pipeline.Stop()
}

func TestPipelineConsumerSurvivesNotifyPanic(t *testing.T) {
	monitor := &scriptedMonitor{}
	windows := fixedWindowLookup{info: WindowInfo{ID: 1, Bounds: Rect{Width: 800, Height: 600}}}

	layout := guide.BuildLayout(t.TempDir(), "sess")
	if err := guide.EnsureFilesystem(layout); err != nil {
		t.Fatalf("ensure filesystem: %v", err)
	}
	session := guide.NewSession("sess", time.Now(), layout)

	captured := make(chan guide.Step, 8)
	calls := 0
	pipeline, err := NewPipeline(Options{
		Session: session,
		Monitor: func() InputMonitor { return monitor },
		Windows: windows,
		Screens: &recordingScreens{},
		Logger:  discardLogger(),
		Notify: func(step guide.Step) {
			calls++
			if calls == 1 {
				panic("observer bug")
			}
			captured <- step
		},
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	if err := pipeline.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pipeline.Stop()

	monitor.send(ClickEvent{Kind: KindClick})
	monitor.send(ClickEvent{Kind: KindClick})

	steps := waitSteps(t, captured, 1)
	if steps[0].ID != 2 {
		t.Fatalf("expected second step to flow after panic, got id %d", steps[0].ID)
	}
	if session.Len() != 2 {
		t.Fatalf("both steps must be appended despite observer panic, got %d", session.Len())
	}
}
