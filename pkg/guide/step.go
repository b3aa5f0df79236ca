// Package guide holds the recorded-guide data model: Steps, the Session that
// owns them, and the on-disk document/directory layout for one recording.
package guide

import (
	"fmt"
	"time"

	"github.com/offlinefirst/guidecast/pkg/geometry"
)

// Action classifies a recorded step.
type Action string

const (
	ActionClick       Action = "click"
	ActionDoubleClick Action = "double_click"
	ActionRightClick  Action = "right_click"
	ActionShortcut    Action = "shortcut"
	ActionNote        Action = "note"
)

// Valid reports whether the action is one of the known kinds.
func (a Action) Valid() bool {
	switch a {
	case ActionClick, ActionDoubleClick, ActionRightClick, ActionShortcut, ActionNote:
		return true
	}
	return false
}

// DescriptionStatus tracks the lifecycle of a generated step description.
type DescriptionStatus string

const (
	DescriptionPending DescriptionStatus = "pending"
	DescriptionReady   DescriptionStatus = "ready"
	DescriptionFailed  DescriptionStatus = "error"
)

// Step is one recorded user action. Raw X/Y are diagnostic only; rendering
// always uses the window-relative click percentages.
type Step struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`

	X float64 `json:"x"`
	Y float64 `json:"y"`

	ClickXPercent float64 `json:"click_x_percent"`
	ClickYPercent float64 `json:"click_y_percent"`

	App         string `json:"app,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
	Shortcut    string `json:"shortcut,omitempty"`

	// ScreenshotPath is relative to the session root; empty when capture
	// failed for this step.
	ScreenshotPath string `json:"screenshot_path,omitempty"`

	Note string `json:"note,omitempty"`

	Description       string            `json:"description,omitempty"`
	DescriptionSource string            `json:"description_source,omitempty"`
	DescriptionStatus DescriptionStatus `json:"description_status,omitempty"`
	DescriptionError  string            `json:"description_error,omitempty"`

	CropRegion *geometry.BoundsPercent `json:"crop_region,omitempty"`
}

// MarkerPosition locates the step's click marker within its active crop.
func (s Step) MarkerPosition() geometry.MarkerPosition {
	return geometry.MarkerFor(s.ClickXPercent, s.ClickYPercent, s.CropRegion)
}

// StepNotFoundError reports a mutation against an id the session does not hold.
type StepNotFoundError struct {
	ID int
}

func (e *StepNotFoundError) Error() string {
	return fmt.Sprintf("no step with id %d", e.ID)
}
