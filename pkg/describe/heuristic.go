package describe

import (
	"context"
	"fmt"
	"strings"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

// Heuristic builds descriptions from the step's own context without any
// network dependency. It is the default backend.
type Heuristic struct{}

func (Heuristic) Source() string { return "heuristic" }

func (Heuristic) Describe(ctx context.Context, step guide.Step) (string, error) {
	target := step.App
	if step.WindowTitle != "" && step.WindowTitle != step.App {
		if target != "" {
			target = fmt.Sprintf("%s (%s)", step.App, step.WindowTitle)
		} else {
			target = step.WindowTitle
		}
	}

	switch step.Action {
	case guide.ActionClick:
		return withTarget("Click", locationHint(step), target), nil
	case guide.ActionDoubleClick:
		return withTarget("Double-click", locationHint(step), target), nil
	case guide.ActionRightClick:
		return withTarget("Right-click", locationHint(step), target), nil
	case guide.ActionShortcut:
		label := prettyShortcut(step.Shortcut)
		if target != "" {
			return fmt.Sprintf("Press %s in %s.", label, target), nil
		}
		return fmt.Sprintf("Press %s.", label), nil
	case guide.ActionNote:
		if step.Note != "" {
			return step.Note, nil
		}
		return "Note.", nil
	default:
		return "Perform the highlighted action.", nil
	}
}

func withTarget(verb, hint, target string) string {
	if target == "" {
		return fmt.Sprintf("%s %s.", verb, hint)
	}
	return fmt.Sprintf("%s %s in %s.", verb, hint, target)
}

// locationHint maps the click percentage to a coarse region of the window.
func locationHint(step guide.Step) string {
	column := "the left side"
	switch {
	case step.ClickXPercent > 66:
		column = "the right side"
	case step.ClickXPercent > 33:
		column = "the middle"
	}
	row := "near the top"
	switch {
	case step.ClickYPercent > 66:
		row = "near the bottom"
	case step.ClickYPercent > 33:
		row = "midway down"
	}
	return fmt.Sprintf("%s of the window, %s", column, row)
}

func prettyShortcut(raw string) string {
	if raw == "" {
		return "the shortcut"
	}
	out := raw
	out = strings.ReplaceAll(out, "cmd", "Cmd")
	out = strings.ReplaceAll(out, "ctrl", "Ctrl")
	out = strings.ReplaceAll(out, "opt", "Option")
	out = strings.ReplaceAll(out, "shift", "Shift")
	out = strings.ReplaceAll(out, "key:", "")
	return out
}
