package guide

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout represents the absolute filesystem locations for one session.
type Layout struct {
	Root           string
	DocumentPath   string
	ScreenshotsDir string
	ExportsDir     string
}

// BuildLayout creates the layout for a session under the guides directory.
func BuildLayout(guidesDir, sessionID string) Layout {
	root := filepath.Join(guidesDir, sessionID)
	return Layout{
		Root:           root,
		DocumentPath:   filepath.Join(root, "guide.json"),
		ScreenshotsDir: filepath.Join(root, "screenshots"),
		ExportsDir:     filepath.Join(root, "exports"),
	}
}

// EnsureFilesystem creates the session directories.
func EnsureFilesystem(layout Layout) error {
	for _, dir := range []string{layout.Root, layout.ScreenshotsDir, layout.ExportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure session directory %q: %w", dir, err)
		}
	}
	return nil
}

// ScreenshotPath returns the deterministic absolute path for a step's
// screenshot file. ScreenshotName is already root-relative, so the join is
// against Root, not ScreenshotsDir.
func (l Layout) ScreenshotPath(stepID int) string {
	return filepath.Join(l.Root, ScreenshotName(stepID))
}

// ScreenshotName returns the session-relative screenshot file name stored on
// the step.
func ScreenshotName(stepID int) string {
	return filepath.Join("screenshots", fmt.Sprintf("step_%03d.png", stepID))
}
