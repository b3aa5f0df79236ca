// Package export renders a finished guide document into shareable files
// under the session's exports directory. Screenshots are referenced
// relative to the session root so the whole directory can be moved or
// zipped as one unit.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

// WriteMarkdown renders the guide as Markdown and returns the written path.
func WriteMarkdown(doc guide.Document, layout guide.Layout) (string, error) {
	var b strings.Builder

	title := doc.Title
	if title == "" {
		title = "Guide " + doc.SessionID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Recorded %s.\n\n", doc.StartedAt.Format("2006-01-02 15:04 MST"))

	for i, step := range doc.Steps {
		fmt.Fprintf(&b, "## Step %d\n\n", i+1)
		if text := stepText(step); text != "" {
			fmt.Fprintf(&b, "%s\n\n", text)
		}
		if step.Note != "" && step.Action != guide.ActionNote {
			fmt.Fprintf(&b, "> %s\n\n", step.Note)
		}
		if step.ScreenshotPath != "" {
			// Exports live one level below the session root.
			fmt.Fprintf(&b, "![Step %d](../%s)\n\n", i+1, filepath.ToSlash(step.ScreenshotPath))
		}
	}

	path := filepath.Join(layout.ExportsDir, "guide.md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write markdown export: %w", err)
	}
	return path, nil
}

// stepText picks the best available sentence for a step.
func stepText(step guide.Step) string {
	if step.Action == guide.ActionNote {
		if step.Note != "" {
			return step.Note
		}
		return step.Description
	}
	if step.Description != "" {
		return step.Description
	}
	switch step.Action {
	case guide.ActionDoubleClick:
		return fallbackAction("Double-click", step)
	case guide.ActionRightClick:
		return fallbackAction("Right-click", step)
	case guide.ActionShortcut:
		if step.Shortcut != "" {
			return fmt.Sprintf("Press %s.", step.Shortcut)
		}
		return "Press the shortcut."
	default:
		return fallbackAction("Click", step)
	}
}

func fallbackAction(verb string, step guide.Step) string {
	if step.App != "" {
		return fmt.Sprintf("%s in %s.", verb, step.App)
	}
	return verb + "."
}
