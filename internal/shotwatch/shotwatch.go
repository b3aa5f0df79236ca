// Package shotwatch keeps the session honest about its screenshot files.
// Users can delete screenshots out from under a recording (Finder, rm);
// when that happens the owning step's screenshot reference is cleared and
// observers are told, instead of exports breaking later on a dead path.
package shotwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/offlinefirst/guidecast/pkg/guide"
	"github.com/offlinefirst/guidecast/pkg/notify"
)

// Watcher observes one session's screenshots directory.
type Watcher struct {
	session *guide.Session
	bus     *notify.Bus
	logger  *slog.Logger
	fs      *fsnotify.Watcher
}

// New starts watching the session's screenshots directory.
func New(session *guide.Session, bus *notify.Bus, logger *slog.Logger) (*Watcher, error) {
	if session == nil {
		return nil, errors.New("session must be provided")
	}
	if bus == nil {
		return nil, errors.New("notification bus must be provided")
	}
	if logger == nil {
		return nil, errors.New("logger must be provided")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create screenshot watcher: %w", err)
	}
	dir := session.Layout().ScreenshotsDir
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{session: session, bus: bus, logger: logger, fs: fs}, nil
}

// Run processes filesystem events until the context ends or the watcher
// is closed. It always returns nil on a clean shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.handleRemoved(event.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("screenshot watcher error", "error", err)
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) handleRemoved(path string) {
	id, ok := stepIDForFile(filepath.Base(path))
	if !ok {
		return
	}
	step, found := w.session.Step(id)
	if !found || step.ScreenshotPath == "" {
		return
	}

	updated, err := w.session.ClearScreenshot(id)
	if err != nil {
		w.logger.Warn("clear screenshot failed", "step", id, "error", err)
		return
	}
	w.logger.Info("screenshot removed externally", "step", id, "path", path)
	w.bus.Publish(notify.StepUpdatedEvent(updated))
}

// stepIDForFile parses step ids out of screenshot names like step_003.png.
func stepIDForFile(name string) (int, bool) {
	if !strings.HasPrefix(name, "step_") || !strings.HasSuffix(name, ".png") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "step_"), ".png")
	id, err := strconv.Atoi(digits)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
