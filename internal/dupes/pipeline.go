package dupes

import (
	"context"
	"fmt"
	"runtime"
)

// sized pairs a fingerprint with the size of the file it was taken from,
// so that files of different sizes never share a discriminator.
type sized struct {
	size int64
	fp   Fingerprint
}

// Find runs the size, partial fingerprint and full fingerprint stages over
// paths and returns the duplicate groups. Paths are expected in traversal
// order; groups and their members keep that order.
func Find(ctx context.Context, paths []string, opt Options, probe Probe) (*Report, error) {
	c := newCollector()

	report, err := find(ctx, c, logger{enabled: opt.Debug}, paths, opt, probe)
	if err != nil {
		return nil, err
	}

	c.finalize(report)

	return report, nil
}

// find implements Find against an existing collector.
//
//nolint:varnamelen // c is idiomatic for collector
func find(ctx context.Context, c *collector, log logger, paths []string, opt Options, probe Probe) (*Report, error) {
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	files := make([]File, len(paths))
	for i, p := range paths {
		files[i] = File{Path: p}
	}

	report := &Report{Roots: opt.Paths, FileCount: int64(len(paths))}

	// Size stage. The size is carried on the File for the later stages.
	bySize, err := reduce(ctx, c, log, workers, files, stage[int64]{
		name: StageSize,
		key: func(f File) (int64, error) {
			size, err := probe.Size(f.Path)
			if err != nil {
				return 0, err
			}

			if size < opt.MinSize || (size == 0 && opt.SkipEmpty) {
				return 0, errFiltered
			}

			return size, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("grouping by size: %w", err)
	}

	for i := range bySize {
		for j := range bySize[i].files {
			bySize[i].files[j].Size = bySize[i].key
		}
	}

	files = flatten(bySize)
	report.SizeSurvivors = len(files)

	// Partial fingerprint stage.
	byPartial, err := reduce(ctx, c, log, workers, files, stage[sized]{
		name: StagePartial,
		key: func(f File) (sized, error) {
			fp, err := probe.Partial(f.Path)

			return sized{size: f.Size, fp: fp}, err
		},
		cost: func(f File) int64 { return min(f.Size, PartialSize) },
	})
	if err != nil {
		return nil, fmt.Errorf("grouping by partial fingerprint: %w", err)
	}

	files = flatten(byPartial)
	report.PartialSurvivors = len(files)

	// Full fingerprint stage. The groups themselves are the result.
	byFull, err := reduce(ctx, c, log, workers, files, stage[sized]{
		name: StageFull,
		key: func(f File) (sized, error) {
			fp, err := probe.Full(f.Path)

			return sized{size: f.Size, fp: fp}, err
		},
		cost: func(f File) int64 { return f.Size },
	})
	if err != nil {
		return nil, fmt.Errorf("grouping by full fingerprint: %w", err)
	}

	report.Groups = make([]DuplicateGroup, 0, len(byFull))

	for _, grp := range byFull {
		members := make([]string, len(grp.files))
		for i, f := range grp.files {
			members[i] = f.Path
		}

		report.Groups = append(report.Groups, DuplicateGroup{
			Size:        grp.key.size,
			Fingerprint: grp.key.fp.String(),
			Paths:       members,
		})
	}

	return report, nil
}
