package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

const defaultQueueSize = 64

// Options configure a pipeline for one session.
type Options struct {
	Session   *guide.Session
	Monitor   MonitorFactory
	Windows   WindowLookup
	Screens   ScreenshotCapture
	Logger    *slog.Logger
	Clock     func() time.Time
	Notify    func(guide.Step)
	QueueSize int
}

// Pipeline correlates monitor events with window context and screenshots
// and appends the resulting Steps to its session. Exactly one consumer
// goroutine drains the event queue at a time, so step ids and list order
// match real-world event order.
type Pipeline struct {
	session *guide.Session
	factory MonitorFactory
	windows WindowLookup
	screens ScreenshotCapture
	logger  *slog.Logger
	clock   func() time.Time
	notify  func(guide.Step)
	queue   int

	mu      sync.Mutex
	running bool
	monitor InputMonitor
	quit    chan struct{}
	done    chan struct{}
}

// NewPipeline validates options and constructs a pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Session == nil {
		return nil, errors.New("session must be provided")
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
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	queue := opts.QueueSize
	if queue <= 0 {
		queue = defaultQueueSize
	}
	return &Pipeline{
		session: opts.Session,
		factory: opts.Monitor,
		windows: opts.Windows,
		screens: opts.Screens,
		logger:  opts.Logger,
		clock:   clock,
		notify:  opts.Notify,
		queue:   queue,
	}, nil
}

// Start creates a fresh monitor instance and spawns the single consumer.
// A second Start while running returns ErrAlreadyRunning without touching
// the active listener; a monitor that cannot be acquired aborts with a
// MonitorStartError.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}

	events := make(chan ClickEvent, p.queue)
	quit := make(chan struct{})
	done := make(chan struct{})

	monitor := p.factory()
	emit := func(event ClickEvent) {
		select {
		case events <- event:
		case <-quit:
			// Teardown racing an in-flight event: best-effort drop.
		}
	}
	if err := monitor.Start(emit); err != nil {
		return &MonitorStartError{Err: err}
	}

	p.running = true
	p.monitor = monitor
	p.quit = quit
	p.done = done
	go p.consume(events, quit, done)
	return nil
}

// Stop tears down the monitor and waits for the consumer to exit. It is
// safe to call when the pipeline is not running and safe to call twice;
// steps already appended are untouched.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	monitor := p.monitor
	quit := p.quit
	done := p.done
	p.monitor = nil
	p.mu.Unlock()

	monitor.Stop()
	close(quit)
	<-done
}

// Running reports whether a consumer is active.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// consume drains events strictly in arrival order until told to quit. An
// event queued at the exact stop boundary may be dropped; the loop itself
// must never die to a per-event failure.
func (p *Pipeline) consume(events <-chan ClickEvent, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-quit:
			return
		case event := <-events:
			p.handle(event)
		}
	}
}

// handle enriches one event into a Step and appends it. Window lookup and
// screenshot failures are absorbed here: a step without context or without
// a screenshot still records the action, and the recording continues.
func (p *Pipeline) handle(event ClickEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("capture step panicked", "panic", r)
		}
	}()

	ctx := context.Background()

	win, lookupErr := p.windows.FrontmostWindow(ctx)
	if lookupErr != nil {
		p.logger.Warn("window lookup failed", "error", lookupErr)
	}

	xPct := percentWithin(event.X, win.Bounds.X, win.Bounds.Width)
	yPct := percentWithin(event.Y, win.Bounds.Y, win.Bounds.Height)

	id := p.session.ReserveID()

	screenshot := ""
	if lookupErr == nil {
		path := p.session.Layout().ScreenshotPath(id)
		if err := p.screens.CaptureWindow(ctx, win.ID, path); err != nil {
			p.logger.Warn("screenshot capture failed", "step", id, "error", err)
		} else {
			screenshot = guide.ScreenshotName(id)
		}
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = p.clock()
	}

	step := guide.Step{
		ID:             id,
		Timestamp:      timestamp.UTC(),
		Action:         actionForKind(event.Kind),
		X:              event.X,
		Y:              event.Y,
		ClickXPercent:  xPct,
		ClickYPercent:  yPct,
		App:            win.App,
		WindowTitle:    win.Title,
		Shortcut:       event.Shortcut,
		ScreenshotPath: screenshot,
	}

	stored, err := p.session.Append(step)
	if err != nil {
		p.logger.Error("append step failed", "step", id, "error", err)
		return
	}

	if p.notify != nil {
		p.notify(stored)
	}
}

func actionForKind(kind EventKind) guide.Action {
	switch kind {
	case KindDoubleClick:
		return guide.ActionDoubleClick
	case KindRightClick:
		return guide.ActionRightClick
	case KindShortcut:
		return guide.ActionShortcut
	default:
		return guide.ActionClick
	}
}
