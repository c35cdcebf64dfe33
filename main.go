// Command dupes reports files with identical content below one or more directories.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/dupes/internal/cli"
)

// Set by the build system.
var version = "unknown - unofficial build"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
