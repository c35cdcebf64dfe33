package dupes

import (
	"sync"
	"time"
)

// Stage names a pass of the pipeline.
type Stage string

const (
	// StageWalk enumerates the files below the roots.
	StageWalk Stage = "walk"
	// StageSize groups files by size.
	StageSize Stage = "size"
	// StagePartial groups files by a fingerprint of their first bytes.
	StagePartial Stage = "partial"
	// StageFull groups files by a fingerprint of their whole content.
	StageFull Stage = "full"
)

// File is a duplicate candidate carried from one stage to the next.
type File struct {
	// Path is the file path as enumerated.
	Path string `json:"path"`
	// Size is the size in bytes observed by the size stage.
	Size int64 `json:"size"`
}

// DuplicateGroup is a set of at least two files with identical content.
type DuplicateGroup struct {
	// Size is the size in bytes of each file in the group.
	Size int64 `json:"size"`
	// Fingerprint is the hex digest shared by all files in the group.
	Fingerprint string `json:"fingerprint"`
	// Paths lists the files in the order they were enumerated.
	Paths []string `json:"paths"`
}

// Report holds the outcome of a run.
type Report struct {
	// Roots are the directories that were searched.
	Roots []string `json:"roots"`
	// Groups are the duplicate groups, in pipeline order.
	Groups []DuplicateGroup `json:"groups"`
	// FileCount is the number of files enumerated.
	FileCount int64 `json:"file_count"`
	// WalkErrors is the number of entries the walk could not inspect.
	WalkErrors int64 `json:"walk_errors"`
	// SizeSurvivors is the number of files sharing their size with another file.
	SizeSurvivors int `json:"size_survivors"`
	// PartialSurvivors is the number of files surviving the partial fingerprint stage.
	PartialSurvivors int `json:"partial_survivors"`
	// DuplicateFiles is the number of files in all groups.
	DuplicateFiles int `json:"duplicate_files"`
	// Reclaimable is the number of bytes held by all but one file of each group.
	Reclaimable int64 `json:"reclaimable_bytes"`
	// Skipped is the number of files dropped because they became unreadable.
	Skipped int64 `json:"skipped"`
	// Elapsed is the total time taken.
	Elapsed time.Duration `json:"elapsed"`
}

// Options configures a run.
type Options struct {
	// Paths are the roots to search.
	Paths []string
	// Extensions to include (empty = all).
	Extensions []string
	// Excludes contains regex patterns to exclude.
	Excludes []string
	// MinSize is the minimum file size in bytes.
	MinSize int64
	// SkipEmpty drops zero-byte files at the size stage.
	SkipEmpty bool
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// Workers is the number of files inspected concurrently within a stage.
	Workers int
	// ChunkSize is the read size for full fingerprints.
	ChunkSize int
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Debug indicates whether debug output is enabled.
	Debug bool
	// Output represents output format (text or json).
	Output string
	// Stats indicates whether to print a run summary.
	Stats bool
}

// Progress is a snapshot of the running stage.
type Progress struct {
	// Stage is the stage being worked on.
	Stage Stage
	// Done is the number of files handled so far in this stage.
	Done int64
	// Total is the number of files entering this stage (0 while walking).
	Total int64
	// Bytes is the number of bytes read so far in this stage.
	Bytes int64
}

// collector tracks progress and counters across the concurrent workers of a stage.
type collector struct {
	mu         sync.Mutex // Protect concurrent access
	stage      Stage
	done       int64
	total      int64
	bytes      int64
	skipped    int64
	walkErrors int64
}

// newCollector creates an idle collector.
func newCollector() *collector {
	return &collector{}
}

// begin resets the per-stage counters.
func (c *collector) begin(stage Stage, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stage = stage
	c.total = int64(total)
	c.done = 0
	c.bytes = 0
}

// advance records one handled file and the bytes read for it.
func (c *collector) advance(bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done++
	c.bytes += bytes
}

// skip records a file dropped as unreadable.
func (c *collector) skip() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done++
	c.skipped++
}

// addWalkError increments the walk error counter. This operation is protected
// by a mutex since fastwalk calls the callback from multiple goroutines concurrently.
func (c *collector) addWalkError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.walkErrors++
}

// snapshot returns the progress of the current stage.
func (c *collector) snapshot() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Progress{Stage: c.stage, Done: c.done, Total: c.total, Bytes: c.bytes}
}

// finalize fills the counters of report and derives its totals from the groups.
func (c *collector) finalize(report *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report.Skipped = c.skipped
	report.WalkErrors = c.walkErrors
	report.DuplicateFiles = 0
	report.Reclaimable = 0

	for _, g := range report.Groups {
		report.DuplicateFiles += len(g.Paths)
		report.Reclaimable += g.Size * int64(len(g.Paths)-1)
	}
}
