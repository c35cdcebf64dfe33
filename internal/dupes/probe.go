package dupes

import (
	"crypto/sha1" //nolint:gosec // Fingerprints only need to tell contents apart
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"
)

const (
	// PartialSize is the number of leading bytes covered by a partial fingerprint.
	PartialSize = 1024
	// DefaultChunkSize is the read size used for full fingerprints.
	DefaultChunkSize = 8192
)

// ErrUnreadable marks a file that cannot be inspected (vanished, permission
// denied, broken link). Such files are dropped from the run instead of failing it.
var ErrUnreadable = errors.New("file unreadable")

// Fingerprint is a digest of a byte range of a file.
type Fingerprint [sha1.Size]byte

// String returns the hex encoding of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Probe computes the per-file discriminators used by the pipeline.
type Probe interface {
	// Size returns the length of the file in bytes.
	Size(path string) (int64, error)
	// Partial fingerprints at most the first PartialSize bytes of the file.
	Partial(path string) (Fingerprint, error)
	// Full fingerprints the complete content of the file.
	Full(path string) (Fingerprint, error)
}

// FileProbe implements Probe on the local filesystem.
type FileProbe struct {
	// ChunkSize is the read size for full fingerprints (0 = DefaultChunkSize).
	ChunkSize int
}

// Size implements Probe.
func (p FileProbe) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, classify(err)
	}

	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}

	return info.Size(), nil
}

// Partial implements Probe.
func (p FileProbe) Partial(path string) (Fingerprint, error) {
	return p.fingerprint(path, func(f *os.File, sum io.Writer) error {
		_, err := io.CopyN(sum, f, PartialSize)
		if errors.Is(err, io.EOF) {
			return nil
		}

		return err
	})
}

// Full implements Probe.
func (p FileProbe) Full(path string) (Fingerprint, error) {
	size := p.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	return p.fingerprint(path, func(f *os.File, sum io.Writer) error {
		buf := make([]byte, size)

		for {
			n, err := f.Read(buf)
			if n > 0 {
				sum.Write(buf[:n]) //nolint:errcheck // hash.Hash never fails on Write
			}

			if errors.Is(err, io.EOF) {
				return nil
			}

			if err != nil {
				return err
			}
		}
	})
}

// fingerprint opens path, feeds it to read and closes it again.
func (p FileProbe) fingerprint(path string, read func(*os.File, io.Writer) error) (fp Fingerprint, err error) {
	f, err := os.Open(path)
	if err != nil {
		return fp, classify(err)
	}

	defer func() { err = errors.Join(err, f.Close()) }()

	sum := sha1.New() //nolint:gosec // See import
	if err := read(f, sum); err != nil {
		return fp, fmt.Errorf("reading %q: %w", path, classify(err))
	}

	copy(fp[:], sum.Sum(nil))

	return fp, nil
}

// classify tags errors that mean "this file cannot be looked at" with
// ErrUnreadable. Everything else is returned as is and treated as fatal.
func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission),
		errors.Is(err, syscall.ELOOP),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.EISDIR):
		return fmt.Errorf("%w: %w", ErrUnreadable, err)
	default:
		return err
	}
}
