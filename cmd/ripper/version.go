package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"ripper/pkg/ripper"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information and registered rippers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ripper %s\n", version)
			fmt.Fprintf(out, "Git Commit: %s\n", gitCommit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
			fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "Rippers: %s\n", strings.Join(ripper.Registered(), ", "))
		},
	}
}
