package cmd

import (
	"fmt"
	"log/slog"

	"github.com/offlinefirst/guidecast/pkg/config"
	"github.com/offlinefirst/guidecast/pkg/guide"
	"github.com/offlinefirst/guidecast/pkg/logging"
)

// AppContext exposes lazily initialised configuration and logging
// facilities shared by all subcommands.
type AppContext struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

// Init loads configuration and builds the logger once; later calls reuse
// the same instances.
func (a *AppContext) Init() error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		level, err := config.NormalizeLogLevel(a.logLevel)
		if err != nil {
			return err
		}
		cfg.Logging.Level = level
	}
	if a.logFormat != "" {
		format, err := config.NormalizeFormat(a.logFormat)
		if err != nil {
			return err
		}
		cfg.Logging.Format = format
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}

	a.cfg = &cfg
	a.logger = logger
	return nil
}

// Config returns the loaded configuration. Init must have succeeded.
func (a *AppContext) Config() config.Config { return *a.cfg }

// Logger returns the shared logger. Init must have succeeded.
func (a *AppContext) Logger() *slog.Logger { return a.logger }

// loadGuide restores a persisted guide session by id.
func (a *AppContext) loadGuide(sessionID string) (guide.Document, guide.Layout, error) {
	layout := guide.BuildLayout(a.cfg.Paths.GuidesDir, sessionID)
	doc, err := guide.LoadDocument(layout.DocumentPath)
	if err != nil {
		return guide.Document{}, layout, fmt.Errorf("load guide %q: %w", sessionID, err)
	}
	return doc, layout, nil
}
