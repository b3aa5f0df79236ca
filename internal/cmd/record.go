package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/offlinefirst/guidecast/internal/buildinfo"
	"github.com/offlinefirst/guidecast/internal/httpapi"
	"github.com/offlinefirst/guidecast/internal/shotwatch"
	"github.com/offlinefirst/guidecast/internal/store"
	"github.com/offlinefirst/guidecast/pkg/capture"
	"github.com/offlinefirst/guidecast/pkg/describe"
	"github.com/offlinefirst/guidecast/pkg/notify"
	"github.com/offlinefirst/guidecast/pkg/recorder"
)

func recordCmd(app *AppContext) *cobra.Command {
	var title string
	var serve bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a new guide until interrupted",
		Long: `Record starts capturing clicks and shortcuts into a new guide session.
Stop with Ctrl+C; the guide document is saved and indexed. With --serve
the local control API runs alongside, so a UI can pause, edit, and
annotate the recording in flight.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			cfg := app.Config()
			logger := app.Logger()

			bus := notify.NewBus()
			defer bus.Close()

			rec, err := recorder.New(recorder.Options{
				GuidesDir:  cfg.Paths.GuidesDir,
				Monitor:    capture.DefaultMonitorFactory,
				Windows:    capture.DefaultWindowLookup(),
				Screens:    capture.DefaultScreenshotCapture(),
				Logger:     logger,
				Bus:        bus,
				AppVersion: buildinfo.Version(),
				QueueSize:  cfg.Capture.QueueSize,
			})
			if err != nil {
				return err
			}

			sessionID, err := rec.Start()
			if err != nil {
				var startErr *capture.MonitorStartError
				if errors.As(err, &startErr) {
					reportEnvironment(cmd)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recording session %s. Press Ctrl+C to stop.\n", sessionID)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			group, ctx := errgroup.WithContext(ctx)

			watcher, err := shotwatch.New(rec.Session(), bus, logger)
			if err != nil {
				return err
			}
			group.Go(func() error { return watcher.Run(ctx) })

			var httpSrv *http.Server
			if serve {
				generator, genErr := describe.New(cfg.Describe.Provider, cfg.Describe.Model, describe.NewKeyStore())
				if genErr != nil {
					return genErr
				}
				describeSvc, svcErr := describe.NewService(generator, bus, logger)
				if svcErr != nil {
					return svcErr
				}
				api, apiErr := httpapi.New(rec, bus, describeSvc, logger)
				if apiErr != nil {
					return apiErr
				}
				httpSrv = &http.Server{Addr: cfg.Serve.Addr, Handler: api.Handler()}
				group.Go(func() error {
					logger.Info("control api listening", "addr", cfg.Serve.Addr)
					if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
			}

			group.Go(func() error {
				<-ctx.Done()
				watcher.Close()
				if httpSrv != nil {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					httpSrv.Shutdown(shutdownCtx)
				}
				return nil
			})

			if err := group.Wait(); err != nil {
				abortRecording(rec, logger)
				return err
			}

			// The API may have already stopped or discarded the recording.
			switch rec.State() {
			case recorder.StateRecording, recorder.StatePaused:
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Recording already finalized.")
				return nil
			}

			doc, err := rec.Stop(title)
			if err != nil {
				return err
			}
			if err := indexGuide(cfg.Paths.GuidesDir, rec, doc.Title, len(doc.Steps)); err != nil {
				logger.Warn("index guide failed", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d steps to %s\n", len(doc.Steps), rec.Session().Layout().DocumentPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Guide title written into the document")
	cmd.Flags().BoolVar(&serve, "serve", true, "Run the local control API during recording")
	return cmd
}

// abortRecording throws away an in-flight recording after a supervisor
// failure: the step list is discarded, capture is torn down, and the
// session directory is removed so no half-written guide survives.
func abortRecording(rec *recorder.Recorder, logger *slog.Logger) {
	if err := rec.Discard(); err != nil {
		return
	}
	switch rec.State() {
	case recorder.StateRecording, recorder.StatePaused:
		if _, err := rec.Stop(""); err != nil {
			logger.Warn("stop aborted recording failed", "error", err)
		}
	}
	if session := rec.Session(); session != nil {
		if err := os.RemoveAll(session.Layout().Root); err != nil {
			logger.Warn("remove aborted session directory failed", "path", session.Layout().Root, "error", err)
		}
	}
}

func indexGuide(guidesDir string, rec *recorder.Recorder, title string, steps int) error {
	idx, err := store.Open(guidesDir)
	if err != nil {
		return err
	}
	defer idx.Close()

	session := rec.Session()
	return idx.Save(&store.GuideRecord{
		SessionID: session.ID(),
		Title:     title,
		Steps:     steps,
		Root:      session.Layout().Root,
		StartedAt: session.StartedAt(),
		StoppedAt: time.Now().UTC(),
	})
}

func reportEnvironment(cmd *cobra.Command) {
	for _, env := range capture.DetectEnvironment() {
		if env.Guidance != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s (%s)\n", env.Capability, env.Message, env.Guidance)
		}
	}
}
