package dupes

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// logger provides conditional debug output.
type logger struct {
	enabled bool
}

// printf prints debug output if logging is enabled.
func (l logger) printf(format string, args ...any) {
	if l.enabled {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// shouldExcludeByPattern checks if path matches any exclusion regex.
func shouldExcludeByPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}

	fPath := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

// shouldIncludeByExtension checks if file should be included based on extension filters.
// Returns true if file should be included, false if excluded.
func shouldIncludeByExtension(path string, include, exclude map[string]struct{}) bool {
	// Check excludes first
	for ext := range exclude {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	// If no include filter, include all
	if len(include) == 0 {
		return true
	}
	// Check includes
	for ext := range include {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

// startProgressReporter invokes hook with a snapshot on each tick until ctx is
// done or the returned stop function is called. stop waits for a running hook
// to return, so nothing is reported after it.
//
//nolint:varnamelen // c is idiomatic for collector
func startProgressReporter(ctx context.Context, c *collector, hook func(Progress), interval time.Duration) (stop func()) {
	if hook == nil {
		return func() {}
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// filters holds the compiled walk filters.
type filters struct {
	include  map[string]struct{}
	exclude  map[string]struct{}
	patterns []*regexp.Regexp
	depth    int
}

// newFilters compiles the extension and regex filters of opt.
func newFilters(opt Options) (filters, error) {
	f := filters{
		include:  make(map[string]struct{}, len(opt.Extensions)),
		exclude:  make(map[string]struct{}, len(opt.Extensions)),
		patterns: make([]*regexp.Regexp, 0, len(opt.Excludes)),
		depth:    opt.Depth,
	}

	for _, e := range opt.Extensions { //nolint:varnamelen // e is standard for element in range
		e = strings.Trim(e, "'\"") // Strip quotes first

		if strings.HasPrefix(e, "!") {
			f.exclude[strings.TrimPrefix(e, "!")] = struct{}{}
		} else {
			f.include[e] = struct{}{}
		}
	}

	for _, p := range opt.Excludes {
		re, err := regexp.Compile(p)
		if err != nil {
			return f, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		f.patterns = append(f.patterns, re)
	}

	return f, nil
}

// Enumerate lists the regular files below the roots in opt.Paths.
//
// fastwalk visits directories in parallel, so the files of each root are
// sorted once its walk is done. Roots keep their order and a path reached
// through overlapping roots is listed once. A root that cannot be accessed
// contributes no files and is counted like any other walk error.
func Enumerate(ctx context.Context, opt Options) ([]string, error) {
	return enumerate(ctx, newCollector(), logger{enabled: opt.Debug}, opt)
}

//nolint:gocognit,funlen,varnamelen // Walk callback mirrors the filter order.
func enumerate(ctx context.Context, c *collector, log logger, opt Options) ([]string, error) {
	flt, err := newFilters(opt)
	if err != nil {
		return nil, err
	}

	c.begin(StageWalk, 0)

	seen := make(map[string]struct{})

	var paths []string

	for _, root := range opt.Paths {
		// Normalize to native format to handle both C:/Path and C:\Path inputs
		root = filepath.Clean(root)

		info, err := os.Stat(root)
		if err != nil {
			log.printf("[debug]: error accessing path %s: %v\n", root, err)
			c.addWalkError()

			continue
		}

		var found []string

		if info.Mode().IsRegular() {
			if matchedPattern := shouldExcludeByPattern(root, flt.patterns); matchedPattern != nil {
				log.printf("[debug]: excluding %s\n", filepath.ToSlash(root))
				log.printf("	 matched regex: %s\n", matchedPattern.String())

				continue
			}

			if !shouldIncludeByExtension(root, flt.include, flt.exclude) {
				log.printf("[debug]: excluding file (extension filter): %s\n", root)

				continue
			}

			found = append(found, root)
			c.advance(0)
		} else if info.IsDir() {
			var mu sync.Mutex

			conf := &fastwalk.Config{
				Follow: false, // Don't follow symlinks
			}

			walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					log.printf("[debug]: error accessing path %s: %v\n", path, err)
					c.addWalkError()

					return nil // Silently skip errors
				}

				// Check cancellation periodically
				select {
				case <-ctx.Done():
					return context.Canceled
				default:
				}

				// Calculate current depth and check against limit
				if flt.depth > 0 && calculateDepth(path, root) > flt.depth {
					if d.IsDir() {
						log.printf("[debug]: skipping directory (beyond depth %d): %s\n", flt.depth, path)

						return filepath.SkipDir
					}

					return nil
				}

				// Check regex exclusion patterns
				if matchedPattern := shouldExcludeByPattern(path, flt.patterns); matchedPattern != nil {
					log.printf("[debug]: excluding %s\n", filepath.ToSlash(path))
					log.printf("	 matched regex: %s\n", matchedPattern.String())

					if d.IsDir() && path != root {
						return filepath.SkipDir
					}

					return nil
				}

				if !d.Type().IsRegular() {
					return nil
				}

				if !shouldIncludeByExtension(path, flt.include, flt.exclude) {
					log.printf("[debug]: excluding file (extension filter): %s\n", path)

					return nil
				}

				mu.Lock()
				found = append(found, path)
				mu.Unlock()

				c.advance(0)

				return nil
			})
			if walkErr != nil {
				return nil, fmt.Errorf("walking %q: %w", root, walkErr)
			}

			slices.Sort(found)
		} else {
			log.printf("[debug]: skipping %s: not a regular file or directory\n", root)

			continue
		}

		for _, path := range found {
			if _, dup := seen[path]; dup {
				continue
			}

			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}

	log.printf("[debug]: enumerated %d files below %d roots\n", len(paths), len(opt.Paths))

	return paths, nil
}

// Run walks the roots in opt.Paths and reports the groups of files with
// identical content.
//
// The walk honors opt.Extensions, opt.Excludes and opt.Depth. The enumerated
// files then pass the size, partial fingerprint and full fingerprint stages,
// each computed by opt.Workers goroutines. Files that vanish or cannot be read
// along the way are dropped and counted in Report.Skipped; roots that cannot
// be accessed are counted in Report.WalkErrors.
//
// Progress updates are sent to progressHook if provided.
func Run(ctx context.Context, opt Options, progressHook func(Progress)) (*Report, error) {
	log := logger{enabled: opt.Debug}

	collector := newCollector()

	// Start progress reporter goroutine; stopping it waits for a running tick
	stop := startProgressReporter(ctx, collector, progressHook, opt.ProgressInterval)
	defer stop()

	start := time.Now()

	paths, err := enumerate(ctx, collector, log, opt)
	if err != nil {
		return nil, err
	}

	report, err := find(ctx, collector, log, paths, opt, FileProbe{ChunkSize: opt.ChunkSize})
	if err != nil {
		return nil, err
	}

	collector.finalize(report)

	report.Elapsed = time.Since(start)

	return report, nil
}
