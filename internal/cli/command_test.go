package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dupes/internal/dupes"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	err := CLI{version: "test", args: args, stdout: &stdout, stderr: &stderr}.Execute()

	return stdout.String(), stderr.String(), err
}

func tree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return dir
}

func TestNoPathsIsUsageError(t *testing.T) {
	stdout, _, err := run(t)
	require.ErrorIs(t, err, ErrNoPaths)
	assert.Contains(t, stdout, "Usage:")
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "test")
}

func TestTextOutput(t *testing.T) {
	dir := tree(t, map[string]string{"a": "hello", "b": "hello", "c": "world"})

	stdout, _, err := run(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "Found duplicate files:\n"+
		"Size:  5.00B\n"+
		filepath.Join(dir, "a")+"\n"+
		filepath.Join(dir, "b")+"\n", stdout)
}

func TestEmptyTree(t *testing.T) {
	stdout, _, err := run(t, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestJSONOutputAndStats(t *testing.T) {
	dir := tree(t, map[string]string{"x/one": "same", "y/two": "same", "z": "diff!"})

	stdout, stderr, err := run(t, "--output", "json", "--stats", "--workers", "1", dir)
	require.NoError(t, err)

	var report dupes.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Groups, 1)
	assert.Equal(t, []string{filepath.Join(dir, "x", "one"), filepath.Join(dir, "y", "two")}, report.Groups[0].Paths)
	assert.Equal(t, int64(3), report.FileCount)

	assert.Contains(t, stderr, "Duplicate groups:")
}

func TestMinSizeAndSkipEmpty(t *testing.T) {
	dir := tree(t, map[string]string{"e1": "", "e2": "", "s1": "ab", "s2": "ab"})

	stdout, _, err := run(t, dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Size:  0.00B")
	assert.Contains(t, stdout, "Size:  2.00B")

	stdout, _, err = run(t, "--skip-empty", dir)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Size:  0.00B")
	assert.Contains(t, stdout, "Size:  2.00B")

	stdout, _, err = run(t, "--min-size", "3B", dir)
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestInvalidFlags(t *testing.T) {
	dir := t.TempDir()

	_, _, err := run(t, "--output", "yaml", dir)
	require.ErrorContains(t, err, "invalid output format")

	_, _, err = run(t, "--depth", "-1", dir)
	require.ErrorContains(t, err, "depth cannot be negative")

	_, _, err = run(t, "--workers", "0", dir)
	require.ErrorContains(t, err, "workers must be at least 1")

	_, _, err = run(t, "--min-size", "lots", dir)
	require.ErrorContains(t, err, "invalid min-size")
}

func TestMissingRootStillReportsOthers(t *testing.T) {
	dir := tree(t, map[string]string{"a": "hello", "b": "hello"})

	stdout, _, err := run(t, dir, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Equal(t, "Found duplicate files:\n"+
		"Size:  5.00B\n"+
		filepath.Join(dir, "a")+"\n"+
		filepath.Join(dir, "b")+"\n", stdout)
}

func TestProgressLine(t *testing.T) {
	assert.Equal(t, "Scanning… 3 files", progressLine(dupes.Progress{Stage: dupes.StageWalk, Done: 3}))
	assert.Equal(t, "Comparing by full… 1/4 files, 2.0 kB read",
		progressLine(dupes.Progress{Stage: dupes.StageFull, Done: 1, Total: 4, Bytes: 2000}))
}
