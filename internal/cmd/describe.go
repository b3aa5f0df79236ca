package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/guidecast/pkg/describe"
	"github.com/offlinefirst/guidecast/pkg/guide"
	"github.com/offlinefirst/guidecast/pkg/notify"
)

func describeCmd(app *AppContext) *cobra.Command {
	var provider string
	var model string

	cmd := &cobra.Command{
		Use:   "describe <session-id>",
		Short: "Generate step descriptions for a recorded guide",
		Long: `Describe fills in a description for every step that has none, using the
configured backend (heuristic by default, or a hosted model after
'guidecast auth login'). The updated guide document is saved in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			cfg := app.Config()
			if provider == "" {
				provider = cfg.Describe.Provider
			}
			if model == "" {
				model = cfg.Describe.Model
			}

			doc, layout, err := app.loadGuide(args[0])
			if err != nil {
				return err
			}
			session := guide.Restore(doc, layout)

			generator, err := describe.New(provider, model, describe.NewKeyStore())
			if err != nil {
				return err
			}
			bus := notify.NewBus()
			defer bus.Close()
			svc, err := describe.NewService(generator, bus, app.Logger())
			if err != nil {
				return err
			}

			if err := svc.DescribeAll(cmd.Context(), session); err != nil {
				return err
			}

			updated := session.Snapshot(doc.Title, doc.AppVersion, doc.StoppedAt)
			if err := guide.SaveDocument(updated, layout.DocumentPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Described %d steps with %s\n", len(updated.Steps), generator.Source())
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Description backend (heuristic, anthropic, openai)")
	cmd.Flags().StringVar(&model, "model", "", "Model override for hosted backends")
	return cmd
}
