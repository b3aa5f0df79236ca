package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

func writeTestGuide(t *testing.T, guidesDir, sessionID string) {
	t.Helper()
	layout := guide.BuildLayout(guidesDir, sessionID)
	if err := guide.EnsureFilesystem(layout); err != nil {
		t.Fatalf("ensure filesystem: %v", err)
	}
	stopped := time.Date(2026, 4, 2, 11, 5, 0, 0, time.UTC)
	doc := guide.Document{
		SchemaVersion: guide.SchemaVersion,
		SessionID:     sessionID,
		Title:         "Test Guide",
		StartedAt:     time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC),
		StoppedAt:     &stopped,
		Steps: []guide.Step{
			{ID: 1, Action: guide.ActionClick, App: "Finder", Description: "Open the folder."},
			{ID: 2, Action: guide.ActionShortcut, Shortcut: "cmd+key:S"},
		},
	}
	if err := guide.SaveDocument(doc, layout.DocumentPath); err != nil {
		t.Fatalf("save document: %v", err)
	}
}

func writeConfig(t *testing.T, guidesDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "paths:\n  guides_dir: " + guidesDir + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "guidecast ") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestStepsCommandPrintsGuide(t *testing.T) {
	guidesDir := t.TempDir()
	writeTestGuide(t, guidesDir, "sess-1")
	cfgPath := writeConfig(t, guidesDir)

	out, err := runCLI(t, "--config", cfgPath, "steps", "sess-1")
	if err != nil {
		t.Fatalf("steps: %v", err)
	}
	for _, want := range []string{"Test Guide", "Open the folder.", "cmd+key:S"} {
		if !strings.Contains(out, want) {
			t.Fatalf("steps output missing %q:\n%s", want, out)
		}
	}
}

func TestStepsCommandUnknownSessionFails(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())
	if _, err := runCLI(t, "--config", cfgPath, "steps", "missing"); err == nil {
		t.Fatalf("expected error for unknown session")
	}
}

func TestExportCommandWritesFiles(t *testing.T) {
	guidesDir := t.TempDir()
	writeTestGuide(t, guidesDir, "sess-2")
	cfgPath := writeConfig(t, guidesDir)

	out, err := runCLI(t, "--config", cfgPath, "export", "sess-2", "--format", "all")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	layout := guide.BuildLayout(guidesDir, "sess-2")
	for _, name := range []string{"guide.md", "guide.html"} {
		if _, err := os.Stat(filepath.Join(layout.ExportsDir, name)); err != nil {
			t.Fatalf("missing export %s: %v", name, err)
		}
	}
	if !strings.Contains(out, "Wrote ") {
		t.Fatalf("unexpected export output: %q", out)
	}
}

func TestExportCommandRejectsUnknownFormat(t *testing.T) {
	guidesDir := t.TempDir()
	writeTestGuide(t, guidesDir, "sess-3")
	cfgPath := writeConfig(t, guidesDir)

	if _, err := runCLI(t, "--config", cfgPath, "export", "sess-3", "--format", "pdf"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestDescribeCommandFillsHeuristics(t *testing.T) {
	guidesDir := t.TempDir()
	writeTestGuide(t, guidesDir, "sess-4")
	cfgPath := writeConfig(t, guidesDir)

	if _, err := runCLI(t, "--config", cfgPath, "describe", "sess-4", "--provider", "heuristic"); err != nil {
		t.Fatalf("describe: %v", err)
	}

	layout := guide.BuildLayout(guidesDir, "sess-4")
	doc, err := guide.LoadDocument(layout.DocumentPath)
	if err != nil {
		t.Fatalf("reload document: %v", err)
	}
	if doc.Steps[0].Description != "Open the folder." {
		t.Fatalf("existing description must survive, got %q", doc.Steps[0].Description)
	}
	if doc.Steps[1].Description == "" {
		t.Fatalf("missing description should be generated")
	}
}
