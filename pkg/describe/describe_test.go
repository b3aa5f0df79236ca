package describe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/offlinefirst/guidecast/pkg/guide"
	"github.com/offlinefirst/guidecast/pkg/notify"
)

func TestHeuristicClickSentence(t *testing.T) {
	step := guide.Step{
		Action:        guide.ActionClick,
		App:           "Finder",
		WindowTitle:   "Documents",
		ClickXPercent: 80,
		ClickYPercent: 10,
	}
	text, err := Heuristic{}.Describe(context.Background(), step)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.HasPrefix(text, "Click the right side of the window, near the top") {
		t.Fatalf("unexpected sentence: %q", text)
	}
	if !strings.Contains(text, "Finder (Documents)") {
		t.Fatalf("expected app and window in sentence: %q", text)
	}
}

func TestHeuristicShortcutSentence(t *testing.T) {
	step := guide.Step{Action: guide.ActionShortcut, Shortcut: "cmd+key:S", App: "TextEdit"}
	text, err := Heuristic{}.Describe(context.Background(), step)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if text != "Press Cmd+S in TextEdit." {
		t.Fatalf("unexpected sentence: %q", text)
	}
}

func TestHeuristicNotePassesThrough(t *testing.T) {
	step := guide.Step{Action: guide.ActionNote, Note: "Open the settings pane first."}
	text, err := Heuristic{}.Describe(context.Background(), step)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if text != step.Note {
		t.Fatalf("expected note text, got %q", text)
	}
}

type scriptedGenerator struct {
	text string
	err  error
}

func (g scriptedGenerator) Source() string { return "scripted" }

func (g scriptedGenerator) Describe(ctx context.Context, step guide.Step) (string, error) {
	return g.text, g.err
}

func newSessionWithStep(t *testing.T) *guide.Session {
	t.Helper()
	layout := guide.BuildLayout(t.TempDir(), "sess")
	if err := guide.EnsureFilesystem(layout); err != nil {
		t.Fatalf("ensure filesystem: %v", err)
	}
	session := guide.NewSession("sess", time.Now(), layout)
	if _, err := session.Append(guide.Step{Action: guide.ActionClick}); err != nil {
		t.Fatalf("append: %v", err)
	}
	return session
}

func TestServiceAppliesDescription(t *testing.T) {
	session := newSessionWithStep(t)
	bus := notify.NewBus()
	defer bus.Close()
	events, cancel := bus.Subscribe(8)
	defer cancel()

	svc, err := NewService(scriptedGenerator{text: "Click the button."}, bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	updated, err := svc.DescribeStep(context.Background(), session, 1)
	if err != nil {
		t.Fatalf("describe step: %v", err)
	}
	if updated.Description != "Click the button." || updated.DescriptionStatus != guide.DescriptionReady {
		t.Fatalf("unexpected step: %+v", updated)
	}
	if updated.DescriptionSource != "scripted" {
		t.Fatalf("unexpected source: %q", updated.DescriptionSource)
	}

	// pending then ready
	first := <-events
	if first.Step.DescriptionStatus != guide.DescriptionPending {
		t.Fatalf("expected pending event first, got %+v", first.Step)
	}
	second := <-events
	if second.Step.DescriptionStatus != guide.DescriptionReady {
		t.Fatalf("expected ready event second, got %+v", second.Step)
	}
}

func TestServiceFailurePreservesExistingText(t *testing.T) {
	session := newSessionWithStep(t)
	if _, err := session.UpdateDescription(1, "Existing sentence.", "heuristic"); err != nil {
		t.Fatalf("seed description: %v", err)
	}

	bus := notify.NewBus()
	defer bus.Close()

	svc, err := NewService(scriptedGenerator{err: errors.New("backend down")}, bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	failed, err := svc.DescribeStep(context.Background(), session, 1)
	if err == nil {
		t.Fatalf("expected generation error")
	}
	if failed.DescriptionStatus != guide.DescriptionFailed {
		t.Fatalf("expected error status, got %s", failed.DescriptionStatus)
	}
	if failed.Description != "Existing sentence." {
		t.Fatalf("failure must not discard accepted text, got %q", failed.Description)
	}
	if failed.DescriptionError == "" {
		t.Fatalf("expected failure message on step")
	}
}

func TestServiceDescribeAllSkipsDescribed(t *testing.T) {
	session := newSessionWithStep(t)
	if _, err := session.Append(guide.Step{Action: guide.ActionClick}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := session.UpdateDescription(1, "Already done.", "heuristic"); err != nil {
		t.Fatalf("seed description: %v", err)
	}

	bus := notify.NewBus()
	defer bus.Close()

	svc, err := NewService(scriptedGenerator{text: "Fresh sentence."}, bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.DescribeAll(context.Background(), session); err != nil {
		t.Fatalf("describe all: %v", err)
	}

	first, _ := session.Step(1)
	if first.Description != "Already done." {
		t.Fatalf("existing description must be kept, got %q", first.Description)
	}
	second, _ := session.Step(2)
	if second.Description != "Fresh sentence." {
		t.Fatalf("missing description must be filled, got %q", second.Description)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New("mystery", "", NewKeyStore()); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
