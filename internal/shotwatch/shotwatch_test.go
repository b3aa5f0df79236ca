package shotwatch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/offlinefirst/guidecast/pkg/guide"
	"github.com/offlinefirst/guidecast/pkg/notify"
)

func TestStepIDForFile(t *testing.T) {
	cases := []struct {
		name string
		id   int
		ok   bool
	}{
		{"step_001.png", 1, true},
		{"step_042.png", 42, true},
		{"step_abc.png", 0, false},
		{"shot_001.png", 0, false},
		{"step_001.jpg", 0, false},
		{"step_000.png", 0, false},
	}
	for _, tc := range cases {
		id, ok := stepIDForFile(tc.name)
		if id != tc.id || ok != tc.ok {
			t.Fatalf("%s: got (%d,%v), want (%d,%v)", tc.name, id, ok, tc.id, tc.ok)
		}
	}
}

func TestExternalDeletionClearsScreenshot(t *testing.T) {
	layout := guide.BuildLayout(t.TempDir(), "sess")
	if err := guide.EnsureFilesystem(layout); err != nil {
		t.Fatalf("ensure filesystem: %v", err)
	}
	session := guide.NewSession("sess", time.Now(), layout)

	shot := layout.ScreenshotPath(1)
	if err := os.WriteFile(shot, []byte("png"), 0o644); err != nil {
		t.Fatalf("write screenshot: %v", err)
	}
	if _, err := session.Append(guide.Step{Action: guide.ActionClick, ScreenshotPath: guide.ScreenshotName(1)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	bus := notify.NewBus()
	defer bus.Close()
	events, cancel := bus.Subscribe(8)
	defer cancel()

	watcher, err := New(session, bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		watcher.Run(ctx)
	}()

	if err := os.Remove(shot); err != nil {
		t.Fatalf("remove screenshot: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Type != notify.StepUpdated {
			t.Fatalf("expected step-updated, got %s", ev.Type)
		}
		if ev.Step.ScreenshotPath != "" {
			t.Fatalf("screenshot path should be cleared, got %q", ev.Step.ScreenshotPath)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for step-updated")
	}

	step, _ := session.Step(1)
	if step.ScreenshotPath != "" {
		t.Fatalf("session step still references deleted screenshot")
	}

	stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not shut down")
	}
}
