package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version is stamped via -ldflags "-X main.version=..." on release builds.
var version = "0.1.0"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the easysub version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "easysub %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
