package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ripper/pkg/metadata"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <directory>",
		Short: "Remove manifest records whose downloaded file is gone",
		Long: `Every file a ripper saves gets a ` + metadata.Suffix + ` record next to it.
clean walks the directory tree and deletes the records left behind after
their files were removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := metadata.CleanOrphaned(args[0])
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphaned record(s)\n", removed)
			return nil
		},
	}
}
