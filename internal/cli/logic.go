package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/idelchi/dupes/internal/dupes"
)

// interactive reports whether w is a terminal.
func interactive(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

func (c CLI) logic(ctx context.Context, options dupes.Options) error {
	enableProgress := strings.ToLower(options.Output) != "json" &&
		!options.Debug &&
		interactive(c.stderr)

	// Simple progress callback that prints directly to stderr
	var progressHook func(dupes.Progress)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(c.stderr, "\033[?25l")
		defer fmt.Fprint(c.stderr, "\033[?25h")

		progressHook = func(p dupes.Progress) {
			fmt.Fprintf(c.stderr, "\r\033[2K%s\r", progressLine(p))
		}
	}

	report, err := dupes.Run(ctx, options, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(c.stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	if options.Stats {
		if err := PrintSummary(report, c.stderr); err != nil {
			return err
		}
	}

	switch strings.ToLower(options.Output) {
	case "json":
		return PrintJSON(report, c.stdout)
	case "text":
		return PrintText(report, c.stdout)
	default:
		return fmt.Errorf("unknown output format: %s", options.Output)
	}
}

// progressLine renders a progress snapshot as a single status line.
func progressLine(p dupes.Progress) string {
	if p.Stage == dupes.StageWalk {
		return fmt.Sprintf("Scanning… %d files", p.Done)
	}

	return fmt.Sprintf("Comparing by %s… %d/%d files, %s read",
		p.Stage, p.Done, p.Total, humanize.Bytes(uint64(p.Bytes))) //nolint:gosec // Bytes is always positive
}
