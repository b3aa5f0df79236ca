package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/offlinefirst/guidecast/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func listCmd(app *AppContext) *cobra.Command {
	var limit int
	var prune bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded guides",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}

			idx, err := store.Open(app.Config().Paths.GuidesDir)
			if err != nil {
				return err
			}
			defer idx.Close()

			if prune {
				pruned, err := idx.PruneMissing()
				if err != nil {
					return err
				}
				for _, id := range pruned {
					fmt.Fprintf(cmd.OutOrStdout(), "Pruned missing guide %s\n", id)
				}
			}

			records, err := idx.List(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No guides recorded yet.")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-38s %-26s %6s  %s", "SESSION", "RECORDED", "STEPS", "TITLE")))
			for _, r := range records {
				title := r.Title
				if title == "" {
					title = dimStyle.Render("(untitled)")
				}
				fmt.Fprintf(out, "%-38s %-26s %6d  %s\n",
					r.SessionID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Steps, title)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of guides to show")
	cmd.Flags().BoolVar(&prune, "prune", false, "Drop index entries whose directories are gone")
	return cmd
}
