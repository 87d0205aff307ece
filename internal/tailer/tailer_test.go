package tailer

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.log"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mail.log"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	paths := ResolvePaths([]string{filepath.Join(dir, "*.log")}, testLogger())
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], ".log")

	// Unmatched and invalid patterns are skipped, not fatal.
	assert.Empty(t, ResolvePaths([]string{filepath.Join(dir, "*.missing")}, testLogger()))
}

func TestReadNewLinesEmitsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.log")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0o644))

	tl, err := New([]string{path}, testLogger())
	require.NoError(t, err)
	defer tl.fsw.Close()

	// Start at the end: historical lines are not replayed.
	tl.openFile(path, true)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("first new\nsecond new\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tl.readNewLines(path)

	first := <-tl.Lines()
	second := <-tl.Lines()
	assert.Equal(t, "first new", first.Text)
	assert.Equal(t, "second new", second.Text)
	assert.Equal(t, path, first.Path)
	assert.False(t, first.Time.IsZero())
}
