package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/guidecast/internal/buildinfo"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "guidecast %s (%s/%s)\n", buildinfo.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
