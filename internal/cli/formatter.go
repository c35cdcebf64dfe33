package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/dupes/internal/dupes"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// sizeUnits are the base-1000 units used by FormatSize.
//
//nolint:gochecknoglobals // Lookup table
var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatSize renders a byte count in base 1000 with two decimals, e.g. "1.00KB".
func FormatSize(bytes int64) string {
	exponent := 0
	divisor := 1.0

	for rest := bytes; rest >= 1000 && exponent < len(sizeUnits)-1; rest /= 1000 {
		exponent++
		divisor *= 1000
	}

	return fmt.Sprintf("%.2f%s", float64(bytes)/divisor, sizeUnits[exponent])
}

// PrintJSON outputs the report in JSON format.
func PrintJSON(report *dupes.Report, writer io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintText outputs every duplicate group with its size and paths.
func PrintText(report *dupes.Report, writer io.Writer) error {
	for _, g := range report.Groups {
		if _, err := fmt.Fprintf(writer, "Found duplicate files:\nSize:  %s\n", FormatSize(g.Size)); err != nil {
			return err
		}

		for _, path := range g.Paths {
			if _, err := fmt.Fprintln(writer, path); err != nil {
				return err
			}
		}
	}

	return nil
}

// PrintSummary outputs the run counters in table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintSummary(report *dupes.Report, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Files scanned:\t%d\n", report.FileCount)
	fmt.Fprintf(w, "Same size:\t%d\n", report.SizeSurvivors)
	fmt.Fprintf(w, "Same first %s:\t%d\n", humanize.IBytes(dupes.PartialSize), report.PartialSurvivors)
	fmt.Fprintf(w, "Duplicate groups:\t%d\n", len(report.Groups))
	fmt.Fprintf(w, "Duplicate files:\t%d\n", report.DuplicateFiles)
	fmt.Fprintf(w, "Reclaimable:\t%s (%d bytes)\n",
		humanize.Bytes(uint64(report.Reclaimable)), report.Reclaimable) //nolint:gosec // Always positive

	if report.Skipped > 0 || report.WalkErrors > 0 {
		fmt.Fprintf(w, "Unreadable:\t%d\n", report.Skipped+report.WalkErrors)
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", report.Elapsed)

	return w.Flush()
}
