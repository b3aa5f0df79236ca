// Package recorder owns the recording lifecycle: it validates lifecycle
// commands against the state machine, allocates sessions and their on-disk
// layout, and drives the capture pipeline across pause and resume
// segments.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/offlinefirst/guidecast/pkg/capture"
	"github.com/offlinefirst/guidecast/pkg/guide"
	"github.com/offlinefirst/guidecast/pkg/notify"
)

// Options configure a Recorder.
type Options struct {
	GuidesDir  string
	Monitor    capture.MonitorFactory
	Windows    capture.WindowLookup
	Screens    capture.ScreenshotCapture
	Logger     *slog.Logger
	Bus        *notify.Bus
	Clock      func() time.Time
	AppVersion string
	QueueSize  int

	// NewSessionID overrides session id allocation, mainly for tests.
	NewSessionID func() string
}

// Recorder coordinates one active recording at a time. All lifecycle
// methods are safe for concurrent use; mutation of the underlying step
// list belongs to the session, not the recorder.
type Recorder struct {
	guidesDir    string
	monitor      capture.MonitorFactory
	windows      capture.WindowLookup
	screens      capture.ScreenshotCapture
	logger       *slog.Logger
	bus          *notify.Bus
	clock        func() time.Time
	appVersion   string
	queueSize    int
	newSessionID func() string

	mu       sync.Mutex
	state    State
	session  *guide.Session
	pipeline *capture.Pipeline
}

// New validates options and constructs an idle recorder.
func New(opts Options) (*Recorder, error) {
	if opts.GuidesDir == "" {
		return nil, errors.New("guides directory must be provided")
	}
	if opts.Monitor == nil {
		return nil, errors.New("monitor factory must be provided")
	}
	if opts.Windows == nil {
		return nil, errors.New("window lookup must be provided")
	}
	if opts.Screens == nil {
		return nil, errors.New("screenshot capture must be provided")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger must be provided")
	}
	if opts.Bus == nil {
		return nil, errors.New("notification bus must be provided")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := opts.NewSessionID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Recorder{
		guidesDir:    opts.GuidesDir,
		monitor:      opts.Monitor,
		windows:      opts.Windows,
		screens:      opts.Screens,
		logger:       opts.Logger,
		bus:          opts.Bus,
		clock:        clock,
		appVersion:   opts.AppVersion,
		queueSize:    opts.QueueSize,
		newSessionID: newID,
		state:        StateIdle,
	}, nil
}

// State reports the current lifecycle phase.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Session returns the active session, or nil when none is in flight.
func (r *Recorder) Session() *guide.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Start allocates a fresh session with its on-disk layout and begins
// capturing. Any failure after the transition check leaves the recorder in
// its previous state with no session attached.
func (r *Recorder) Start() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Next(r.state, CommandStart)
	if err != nil {
		return "", err
	}

	id := r.newSessionID()
	layout := guide.BuildLayout(r.guidesDir, id)
	if err := guide.EnsureFilesystem(layout); err != nil {
		return "", fmt.Errorf("prepare session directories: %w", err)
	}

	session := guide.NewSession(id, r.clock().UTC(), layout)
	pipeline, err := capture.NewPipeline(capture.Options{
		Session:   session,
		Monitor:   r.monitor,
		Windows:   r.windows,
		Screens:   r.screens,
		Logger:    r.logger,
		Clock:     r.clock,
		QueueSize: r.queueSize,
		Notify: func(step guide.Step) {
			r.bus.Publish(notify.StepCapturedEvent(step))
		},
	})
	if err != nil {
		return "", err
	}

	if err := pipeline.Start(); err != nil {
		return "", err
	}

	r.state = next
	r.session = session
	r.pipeline = pipeline
	r.logger.Info("recording started", "session", id)
	return id, nil
}

// Pause stops the monitor segment while keeping the session and its steps.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Next(r.state, CommandPause)
	if err != nil {
		return err
	}
	r.pipeline.Stop()
	r.state = next
	r.logger.Info("recording paused", "session", r.session.ID())
	return nil
}

// Resume starts a fresh monitor segment. Steps captured before the pause
// are untouched and ids continue from where they left off. A monitor that
// cannot be reacquired leaves the recorder paused.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Next(r.state, CommandResume)
	if err != nil {
		return err
	}
	if err := r.pipeline.Start(); err != nil {
		return err
	}
	r.state = next
	r.logger.Info("recording resumed", "session", r.session.ID())
	return nil
}

// Stop ends capture and persists the guide document. The session stays
// attached for post-recording edits and export; a later Start replaces it.
func (r *Recorder) Stop(title string) (guide.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Next(r.state, CommandStop)
	if err != nil {
		return guide.Document{}, err
	}
	r.pipeline.Stop()

	stoppedAt := r.clock().UTC()
	doc := r.session.Snapshot(title, r.appVersion, &stoppedAt)
	if err := guide.SaveDocument(doc, r.session.Layout().DocumentPath); err != nil {
		return guide.Document{}, err
	}

	r.state = next
	r.logger.Info("recording stopped", "session", r.session.ID(), "steps", len(doc.Steps))
	return doc, nil
}

// Discard empties the step list of the current session. The session
// itself, its working directory, and the recorder state are left alone:
// while Recording, capture keeps running into the now-empty list, and a
// stopped session stays available until the next Start replaces it.
// Directory cleanup belongs to whoever retires the session.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	session := r.session
	if session == nil {
		r.mu.Unlock()
		return &TransitionError{From: r.state, Command: CommandDiscard}
	}
	session.Discard()
	id := session.ID()
	r.mu.Unlock()

	r.logger.Info("recording discarded", "session", id)
	r.bus.Publish(notify.StepsDiscardedEvent())
	return nil
}

// Save re-persists the current session document, used after step edits on
// a stopped recording.
func (r *Recorder) Save(title string) (guide.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return guide.Document{}, errors.New("no session to save")
	}
	stoppedAt := r.clock().UTC()
	doc := r.session.Snapshot(title, r.appVersion, &stoppedAt)
	if err := guide.SaveDocument(doc, r.session.Layout().DocumentPath); err != nil {
		return guide.Document{}, err
	}
	return doc, nil
}
