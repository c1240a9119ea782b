package main

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"ripper/pkg/config"
	rerrors "ripper/pkg/errors"
	"ripper/pkg/ripper"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitError carries the process exit code for an error returned by a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// rootOptions holds the flags of the root command
type rootOptions struct {
	dryRun   bool
	logFile  string
	logLevel int
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ripper <config-path>",
		Short: "Batch-download files from websites",
		Long: `ripper walks a website and mirrors what it finds into a directory tree.

The configuration file (JSON, or YAML with a .yaml/.yml extension) names the
ripper to run under the "ripper" key and holds that ripper's settings. An
optional "session" section sets the user agent, extra headers, timeout and
request rate of the shared HTTP session. The timeout is a duration string
such as "15s" or "1m30s", or a number of seconds.

Log levels: 0 off, 1 critical, 2 error, 3 warning, 4 info, 5 debug.`,
		Example: `  # Mirror an index page
  ripper archive.json

  # See what would be downloaded without touching the filesystem
  ripper archive.json --dry-run --log-level 4

  # Debug logging to a file
  ripper archive.yaml -v 5 -l ripper.log`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRipper(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "d", false, "run without making any changes to the filesystem")
	cmd.Flags().StringVarP(&opts.logFile, "log-file", "l", "", "write log records to this file instead of standard output")
	cmd.Flags().IntVarP(&opts.logLevel, "log-level", "v", config.LogLevelDisabled, "log level, 0 (off) to 5 (debug)")

	cmd.SetVersionTemplate(`ripper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newVersionCmd(), newCleanCmd())
	return cmd
}

// runRipper initializes the controller and starts the configured ripper
func runRipper(cmd *cobra.Command, configPath string, opts *rootOptions) error {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("dry-run") {
		flags["dry-run"] = opts.dryRun
	}
	if cmd.Flags().Changed("log-file") {
		flags["log-file"] = opts.logFile
	}
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = opts.logLevel
	}

	inv, err := config.LoadInvocation(configPath, flags)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	c := ripper.NewController(inv)
	defer c.Close()

	if err := c.Init(); err != nil {
		return &exitError{code: exitFailure, err: err}
	}

	if err := c.Run(); err != nil {
		return &exitError{code: exitFailure, err: err}
	}

	return nil
}

// run executes the command line and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	fmt.Fprintln(stderr, "Error:", err)

	var ee *exitError
	if errors.As(err, &ee) {
		if rerrors.IsFatal(rerrors.TypeOf(ee.err)) {
			fmt.Fprintln(stderr, "Check the configuration file and the ripper it names.")
		}
		return ee.code
	}

	// Argument and flag errors come straight from cobra
	fmt.Fprintln(stderr, cmd.UsageString())
	return exitUsage
}
