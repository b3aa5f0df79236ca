package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

func stepsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps <session-id>",
		Short: "Show the steps of a recorded guide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			doc, _, err := app.loadGuide(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			title := doc.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintln(out, headerStyle.Render(title))
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d steps, recorded %s", len(doc.Steps), doc.StartedAt.Local().Format("2006-01-02 15:04"))))
			fmt.Fprintln(out)

			for i, step := range doc.Steps {
				fmt.Fprintf(out, "%3d. %s\n", i+1, stepSummary(step))
				if step.Description != "" {
					fmt.Fprintf(out, "     %s\n", step.Description)
				}
				if step.Note != "" && step.Action != guide.ActionNote {
					fmt.Fprintf(out, "     %s\n", dimStyle.Render("note: "+step.Note))
				}
				if step.CropRegion != nil {
					fmt.Fprintf(out, "     %s\n", dimStyle.Render("crop: "+step.CropRegion.String()))
				}
			}
			return nil
		},
	}
	return cmd
}

func stepSummary(step guide.Step) string {
	switch step.Action {
	case guide.ActionShortcut:
		return fmt.Sprintf("[%s] %s", step.Action, step.Shortcut)
	case guide.ActionNote:
		return fmt.Sprintf("[%s] %s", step.Action, step.Note)
	default:
		target := step.App
		if step.WindowTitle != "" {
			target = fmt.Sprintf("%s / %s", step.App, step.WindowTitle)
		}
		return fmt.Sprintf("[%s] %s (%.0f%%, %.0f%%)", step.Action, target, step.ClickXPercent, step.ClickYPercent)
	}
}
