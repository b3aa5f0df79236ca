package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/guidecast/pkg/export"
	"github.com/offlinefirst/guidecast/pkg/guide"
)

func exportCmd(app *AppContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Render a guide as Markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			doc, layout, err := app.loadGuide(args[0])
			if err != nil {
				return err
			}
			if err := guide.EnsureFilesystem(layout); err != nil {
				return err
			}

			var paths []string
			switch format {
			case "md":
				path, err := export.WriteMarkdown(doc, layout)
				if err != nil {
					return err
				}
				paths = append(paths, path)
			case "html":
				path, err := export.WriteHTML(doc, layout)
				if err != nil {
					return err
				}
				paths = append(paths, path)
			case "all":
				mdPath, err := export.WriteMarkdown(doc, layout)
				if err != nil {
					return err
				}
				htmlPath, err := export.WriteHTML(doc, layout)
				if err != nil {
					return err
				}
				paths = append(paths, mdPath, htmlPath)
			default:
				return fmt.Errorf("unknown export format %q (md, html, all)", format)
			}

			for _, path := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "all", "Export format: md, html, or all")
	return cmd
}
