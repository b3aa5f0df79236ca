package guide

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/offlinefirst/guidecast/pkg/geometry"
)

// ErrInvalidOrder rejects a reorder request whose ids are not an exact
// permutation of the session's current ids.
var ErrInvalidOrder = errors.New("reorder ids must be an exact permutation of the session's step ids")

// Session owns the ordered Steps of one recording. All access goes through
// its lock; mutators return copies of the affected steps so callers can
// notify observers after the lock is released. Mutations are in-memory
// only; persistence is a separate, explicit save.
type Session struct {
	mu        sync.Mutex
	id        string
	startedAt time.Time
	layout    Layout
	steps     []Step
	nextID    int
}

// NewSession constructs an empty session rooted at the given layout.
func NewSession(id string, startedAt time.Time, layout Layout) *Session {
	return &Session{
		id:        id,
		startedAt: startedAt.UTC(),
		layout:    layout,
		nextID:    1,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// StartedAt returns the recording start time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Layout returns the session's filesystem layout.
func (s *Session) Layout() Layout { return s.layout }

// ReserveID hands out the next sequential step id. The capture pipeline
// reserves the id before its screenshot I/O so the per-step file path is
// deterministic without holding the lock across the write.
func (s *Session) ReserveID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// Append adds a fully constructed step to the end of the list. A step with
// id zero is assigned the next sequential id. Steps become visible to
// readers only once complete.
func (s *Session) Append(step Step) (Step, error) {
	if !step.Action.Valid() {
		return Step{}, fmt.Errorf("append step: unknown action %q", step.Action)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if step.ID == 0 {
		step.ID = s.nextID
		s.nextID++
	} else if step.ID >= s.nextID {
		s.nextID = step.ID + 1
	}
	step.Timestamp = step.Timestamp.UTC()
	s.steps = append(s.steps, step)
	return step, nil
}

// Steps returns a copy of the ordered step list.
func (s *Session) Steps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Len reports the number of steps.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Step returns the step with the given id.
func (s *Session) Step(id int) (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.steps[i], true
	}
	return Step{}, false
}

// UpdateNote sets or clears the user note on a step.
func (s *Session) UpdateNote(id int, note string) (Step, error) {
	return s.mutate(id, func(step *Step) {
		step.Note = note
	})
}

// UpdateDescription sets or clears a step description attributed to the
// given source. A non-empty text marks the description ready; empty text
// clears the description entirely.
func (s *Session) UpdateDescription(id int, text, source string) (Step, error) {
	return s.mutate(id, func(step *Step) {
		if text == "" {
			step.Description = ""
			step.DescriptionSource = ""
			step.DescriptionStatus = ""
			step.DescriptionError = ""
			return
		}
		step.Description = text
		step.DescriptionSource = source
		step.DescriptionStatus = DescriptionReady
		step.DescriptionError = ""
	})
}

// MarkDescriptionPending flags a step while a generator is working on it.
func (s *Session) MarkDescriptionPending(id int, source string) (Step, error) {
	return s.mutate(id, func(step *Step) {
		step.DescriptionSource = source
		step.DescriptionStatus = DescriptionPending
		step.DescriptionError = ""
	})
}

// MarkDescriptionFailed records a generator failure without touching any
// previously accepted description text.
func (s *Session) MarkDescriptionFailed(id int, source, message string) (Step, error) {
	return s.mutate(id, func(step *Step) {
		step.DescriptionSource = source
		step.DescriptionStatus = DescriptionFailed
		step.DescriptionError = message
	})
}

// UpdateCrop replaces the step's crop region. The region is normalized
// first; a degenerate or nil region stores "no crop".
func (s *Session) UpdateCrop(id int, region *geometry.BoundsPercent) (Step, error) {
	normalized := geometry.NormalizeCropRegion(region)
	return s.mutate(id, func(step *Step) {
		step.CropRegion = normalized
	})
}

// ClearScreenshot drops the screenshot reference from a step, used when the
// backing file disappears from disk.
func (s *Session) ClearScreenshot(id int) (Step, error) {
	return s.mutate(id, func(step *Step) {
		step.ScreenshotPath = ""
	})
}

// Delete removes one step by id. Permanent at this level; any undo grace
// period belongs to the presentation layer.
func (s *Session) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return &StepNotFoundError{ID: id}
	}
	s.steps = append(s.steps[:i], s.steps[i+1:]...)
	return nil
}

// Reorder replaces the display order. The ids must be exactly a permutation
// of the current ids: no missing, duplicate, or foreign entries.
func (s *Session) Reorder(ids []int) ([]Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) != len(s.steps) {
		return nil, fmt.Errorf("%w: got %d ids, have %d steps", ErrInvalidOrder, len(ids), len(s.steps))
	}

	byID := make(map[int]Step, len(s.steps))
	for _, step := range s.steps {
		byID[step.ID] = step
	}

	reordered := make([]Step, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidOrder, id)
		}
		seen[id] = struct{}{}
		step, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown id %d", ErrInvalidOrder, id)
		}
		reordered = append(reordered, step)
	}

	s.steps = reordered
	out := make([]Step, len(reordered))
	copy(out, reordered)
	return out, nil
}

// Discard empties the step list. The session itself (id, working
// directory, id counter) survives until the next recording replaces it.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = nil
}

func (s *Session) mutate(id int, apply func(*Step)) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Step{}, &StepNotFoundError{ID: id}
	}
	apply(&s.steps[i])
	return s.steps[i], nil
}

func (s *Session) indexOf(id int) int {
	for i := range s.steps {
		if s.steps[i].ID == id {
			return i
		}
	}
	return -1
}
