package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0644))

	// A missing destination is fine.
	assert.NoError(t, CheckFile(src, filepath.Join(dir, "b.txt")))

	// An existing, different destination is fine.
	other := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(other, []byte("other"), 0644))
	assert.NoError(t, CheckFile(src, other))

	// The same path is rejected.
	assert.ErrorIs(t, CheckFile(src, src), ErrSameFile)

	// The same file reached through a symlink is rejected too.
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(src, link))
	assert.ErrorIs(t, CheckFile(src, link), ErrSameFile)
}

func TestCheckDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0755))

	// Siblings and unrelated paths are fine.
	assert.NoError(t, CheckDir(src, filepath.Join(dir, "out")))
	assert.NoError(t, CheckDir(src, t.TempDir()))

	// The parent is fine: the source merely ends up alongside itself.
	assert.NoError(t, CheckDir(src, dir))

	// The source itself and anything beneath it are rejected.
	assert.ErrorIs(t, CheckDir(src, src), ErrNestedDestination)
	assert.ErrorIs(t, CheckDir(src, filepath.Join(src, "dist")), ErrNestedDestination)
	assert.ErrorIs(t, CheckDir(src, filepath.Join(src, "a", "b")), ErrNestedDestination)

	// A sibling whose name shares a prefix is not nested.
	assert.NoError(t, CheckDir(src, filepath.Join(dir, "srcfiles")))
}
