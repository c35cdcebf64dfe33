package dupes

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // Reference digest
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content []byte) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))

	return path
}

func TestFileProbeSize(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "a"), []byte("hello"))

	size, err := FileProbe{}.Size(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	empty := writeFile(t, filepath.Join(dir, "empty"), nil)
	size, err = FileProbe{}.Size(empty)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestFileProbeMissingIsUnreadable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	probe := FileProbe{}

	_, err := probe.Size(missing)
	require.ErrorIs(t, err, ErrUnreadable)

	_, err = probe.Partial(missing)
	require.ErrorIs(t, err, ErrUnreadable)

	_, err = probe.Full(missing)
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestFileProbeDirectoryIsUnreadable(t *testing.T) {
	_, err := FileProbe{}.Size(t.TempDir())
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestFileProbeBrokenSymlinkIsUnreadable(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")

	if err := os.Symlink(filepath.Join(dir, "nowhere"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := FileProbe{}.Size(link)
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestPartialCoversOnlyPrefix(t *testing.T) {
	dir := t.TempDir()
	prefix := bytes.Repeat([]byte{'x'}, PartialSize)

	short := writeFile(t, filepath.Join(dir, "short"), prefix)
	longA := writeFile(t, filepath.Join(dir, "longA"), append(bytes.Clone(prefix), []byte("tail A")...))
	longB := writeFile(t, filepath.Join(dir, "longB"), append(bytes.Clone(prefix), []byte("a much longer tail B")...))

	probe := FileProbe{}

	want, err := probe.Partial(short)
	require.NoError(t, err)

	for _, path := range []string{longA, longB} {
		got, err := probe.Partial(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}

	assert.Equal(t, Fingerprint(sha1.Sum(prefix)), want)
}

func TestPartialOfShortFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "hello"), []byte("hello"))

	got, err := FileProbe{}.Partial(path)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(sha1.Sum([]byte("hello"))), got)
}

func TestFullIndependentOfChunkSize(t *testing.T) {
	content := make([]byte, 3*DefaultChunkSize+17)
	for i := range content {
		content[i] = byte(i * 7)
	}

	path := writeFile(t, filepath.Join(t.TempDir(), "big"), content)
	want := Fingerprint(sha1.Sum(content))

	for _, chunk := range []int{0, 1, 100, DefaultChunkSize, 1 << 20} {
		got, err := FileProbe{ChunkSize: chunk}.Full(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, "chunk=%d", chunk)
	}
}

func TestFullOfEmptyFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "empty"), nil)

	got, err := FileProbe{}.Full(path)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(sha1.Sum(nil)), got)
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", got.String())
}
