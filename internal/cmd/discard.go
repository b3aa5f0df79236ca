package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/offlinefirst/guidecast/internal/store"
	"github.com/offlinefirst/guidecast/pkg/guide"
)

func discardCmd(app *AppContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "discard <session-id>",
		Short: "Delete a recorded guide and its screenshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			sessionID := args[0]
			layout := guide.BuildLayout(app.Config().Paths.GuidesDir, sessionID)
			if _, err := os.Stat(layout.Root); err != nil {
				return fmt.Errorf("no guide found for session %q", sessionID)
			}

			if !force {
				confirmed := false
				prompt := huh.NewConfirm().
					Title(fmt.Sprintf("Delete guide %s?", sessionID)).
					Description("The guide document and all screenshots will be removed.").
					Affirmative("Delete").
					Negative("Keep").
					Value(&confirmed)
				if err := prompt.Run(); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Kept.")
					return nil
				}
			}

			if err := os.RemoveAll(layout.Root); err != nil {
				return fmt.Errorf("remove guide directory: %w", err)
			}

			idx, err := store.Open(app.Config().Paths.GuidesDir)
			if err == nil {
				defer idx.Close()
				if delErr := idx.Delete(sessionID); delErr != nil {
					app.Logger().Debug("index row already absent", "session", sessionID)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted guide %s\n", sessionID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")
	return cmd
}
