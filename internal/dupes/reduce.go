package dupes

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// group is a set of files sharing a discriminator.
type group[K comparable] struct {
	key   K
	files []File
}

// groups maps discriminators to files, remembering the order in which
// discriminators were first seen.
type groups[K comparable] struct {
	index map[K]int
	list  []group[K]
}

func newGroups[K comparable](capacity int) *groups[K] {
	return &groups[K]{index: make(map[K]int, capacity)}
}

// add appends file to the group of key, creating the group if needed.
func (g *groups[K]) add(key K, file File) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.list)
		g.index[key] = i
		g.list = append(g.list, group[K]{key: key})
	}

	g.list[i].files = append(g.list[i].files, file)
}

// shared returns the groups holding at least two files, in first-seen order.
func (g *groups[K]) shared() []group[K] {
	out := make([]group[K], 0, len(g.list))

	for _, grp := range g.list {
		if len(grp.files) > 1 {
			out = append(out, grp)
		}
	}

	return out
}

// flatten concatenates the files of all groups.
func flatten[K comparable](list []group[K]) []File {
	var files []File
	for _, grp := range list {
		files = append(files, grp.files...)
	}

	return files
}

// errFiltered drops a file from a stage without counting it as unreadable.
var errFiltered = errors.New("filtered")

// outcome is the result of computing a discriminator for one file.
// A file that turned out unreadable is not present.
type outcome[K comparable] struct {
	key     K
	present bool
}

// stage is one narrowing pass of the pipeline.
type stage[K comparable] struct {
	name Stage
	// key computes the discriminator of a file.
	key func(File) (K, error)
	// cost is the number of bytes key reads for a file, for progress reporting.
	cost func(File) int64
}

// reduce computes the discriminator of every file, at most workers at a time,
// and returns the groups of files sharing a discriminator with at least one
// other file. Keys are computed concurrently but grouped in input order, so the
// result does not depend on scheduling. Unreadable files are dropped; any other
// error aborts the stage.
func reduce[K comparable](
	ctx context.Context,
	c *collector,
	log logger,
	workers int,
	files []File,
	st stage[K],
) ([]group[K], error) {
	c.begin(st.name, len(files))

	results := make([]outcome[K], len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(workers, 1))

	for i, file := range files {
		i, file := i, file // per-iteration copies (go directive < 1.22)

		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			key, err := st.key(file)
			if errors.Is(err, errFiltered) {
				c.advance(0)

				return nil
			}

			if errors.Is(err, ErrUnreadable) {
				log.printf("[debug]: %s stage: skipping %s: %v\n", st.name, file.Path, err)
				c.skip()

				return nil
			}

			if err != nil {
				return err
			}

			results[i] = outcome[K]{key: key, present: true}

			if st.cost != nil {
				c.advance(st.cost(file))
			} else {
				c.advance(0)
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	grouped := newGroups[K](len(files))

	for i, res := range results {
		if !res.present {
			continue
		}

		grouped.add(res.key, files[i])
	}

	shared := grouped.shared()

	log.printf("[debug]: %s stage: %d files in, %d groups out\n", st.name, len(files), len(shared))

	return shared, nil
}
