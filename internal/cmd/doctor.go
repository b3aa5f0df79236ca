package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/guidecast/pkg/capture"
)

func doctorCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check capture backends and permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Init(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render("Capture environment"))

			healthy := true
			for _, env := range capture.DetectEnvironment() {
				marker := "ok"
				if !env.Available {
					marker = "unavailable"
					healthy = false
				}
				fmt.Fprintf(out, "%-14s %-18s %-12s permission=%s\n", env.Capability, env.Provider, marker, env.Permission)
				if env.Message != "" {
					fmt.Fprintf(out, "  %s\n", dimStyle.Render(env.Message))
				}
				if env.Guidance != "" {
					fmt.Fprintf(out, "  %s\n", dimStyle.Render(env.Guidance))
				}
			}

			cfg := app.Config()
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("Configuration"))
			fmt.Fprintf(out, "config source   %s\n", cfg.Source)
			fmt.Fprintf(out, "guides dir      %s\n", cfg.Paths.GuidesDir)
			fmt.Fprintf(out, "describe        %s\n", cfg.Describe.Provider)
			fmt.Fprintf(out, "control api     %s\n", cfg.Serve.Addr)

			if !healthy {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Some capture backends are unavailable; recording will use fallbacks.")
			}
			return nil
		},
	}
}
