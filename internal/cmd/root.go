// Package cmd assembles the guidecast CLI.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	ctx := &AppContext{}

	cmd := &cobra.Command{
		Use:   "guidecast",
		Short: "Record on-screen actions into step-by-step guides",
		Long: `guidecast records your clicks and shortcuts into an ordered guide:
each action becomes a step with a screenshot, window context, and an
editable description. Recording, editing, and export all run locally.

Quick start:
  guidecast record                 # Start recording (Ctrl+C to stop)
  guidecast list                   # List recorded guides
  guidecast steps <session-id>     # Inspect a guide's steps
  guidecast export <session-id>    # Render Markdown and HTML`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&ctx.configPath, "config", "", "Path to config file (default: ./config.yaml if present)")
	flags.StringVar(&ctx.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flags.StringVar(&ctx.logFormat, "log-format", "", "Override log output format (json, console)")

	cmd.AddCommand(recordCmd(ctx))
	cmd.AddCommand(listCmd(ctx))
	cmd.AddCommand(stepsCmd(ctx))
	cmd.AddCommand(exportCmd(ctx))
	cmd.AddCommand(describeCmd(ctx))
	cmd.AddCommand(discardCmd(ctx))
	cmd.AddCommand(authCmd(ctx))
	cmd.AddCommand(doctorCmd(ctx))
	cmd.AddCommand(versionCmd())

	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	root := rootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
