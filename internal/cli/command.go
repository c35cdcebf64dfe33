package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/dupes/internal/dupes"
)

// ErrNoPaths is returned when no root path is given.
var ErrNoPaths = errors.New("at least one path is required")

// CLI represents the command-line interface.
type CLI struct {
	version string
	args    []string
	stdout  io.Writer
	stderr  io.Writer
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{
		version: version,
		args:    os.Args[1:],
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// flags binds the command-line flags to options.
func flags(set *pflag.FlagSet, options *dupes.Options, minSize *string) {
	set.IntVarP(&options.Workers, "workers", "w", runtime.NumCPU(), "Number of files inspected concurrently")
	set.StringVar(minSize, "min-size", "0B", "Ignore files smaller than this (e.g., 1KB)")
	set.BoolVar(&options.SkipEmpty, "skip-empty", false, "Ignore zero-byte files")
	set.StringSliceVarP(
		&options.Extensions,
		"ext",
		"x",
		[]string{},
		"File suffixes to include (e.g., .jpg,.png). Use '!' prefix to exclude (e.g., !.log)",
	)
	set.StringSliceVarP(&options.Excludes, "exclude", "e", []string{}, "Regex patterns to exclude")
	set.IntVarP(&options.Depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	set.StringVarP(&options.Output, "output", "o", "text", "Output format: text or json")
	set.BoolVar(&options.Stats, "stats", false, "Print a summary of the run to stderr")
	set.BoolVar(&options.Debug, "debug", false, "Enable debug output")

	set.SortFlags = false
}

// command builds the root command.
func (c CLI) command() *cobra.Command {
	var (
		options    dupes.Options
		minSizeStr string
	)

	allowedOutputs := []string{"text", "json"}

	cmd := &cobra.Command{
		Use:   "dupes [flags] <path> [<path> ...]",
		Short: "Find files with identical content",
		Long: heredoc.Doc(`
			dupes finds files with identical content below one or more directories.

			Files are compared by size first, then by a fingerprint of their first
			kilobyte, and only the remaining candidates are read in full.
			Nothing is ever deleted or modified.

			Positional Arguments:
			  path                   Directory (or file) to search. At least one is required.
		`),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()

				return ErrNoPaths
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(allowedOutputs, options.Output) {
				return fmt.Errorf("invalid output format %q: must be one of %v", options.Output, allowedOutputs)
			}

			if options.Depth < 0 {
				return errors.New("depth cannot be negative")
			}

			if options.Workers < 1 {
				return errors.New("workers must be at least 1")
			}

			// Parse minSize string to bytes
			if minSizeStr != "" {
				size, err := humanize.ParseBytes(minSizeStr)
				if err != nil {
					return fmt.Errorf("invalid min-size: %w", err)
				}

				options.MinSize = int64(size) //nolint:gosec // Size conversion from humanize is safe
			}

			options.Paths = args

			return c.logic(cmd.Context(), options)
		},
	}

	flags(cmd.Flags(), &options, &minSizeStr)

	cmd.SetArgs(c.args)
	cmd.SetOut(c.stdout)
	cmd.SetErr(c.stderr)

	return cmd
}

// Execute runs the CLI with the provided arguments.
func (c CLI) Execute() error {
	return c.command().Execute()
}
