package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetcp/assetcp/pkg/copier"
)

// Test helper functions

func writeFile(t *testing.T, path, content string) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	require.NoError(t, err)
	err = os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
}

func readFile(t *testing.T, path string) string {
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func newTestResolver() *Resolver {
	c := copier.New(copier.Config{MaxConcurrent: 4}, zerolog.Nop())
	return New(c, zerolog.Nop())
}

// Test cases

func TestResolve_BracePattern(t *testing.T) {
	sourceDir := t.TempDir()
	destDir := t.TempDir()

	writeFile(t, filepath.Join(sourceDir, "a.txt"), "text")
	writeFile(t, filepath.Join(sourceDir, "b.json"), `{"k":1}`)
	writeFile(t, filepath.Join(sourceDir, "c.png"), "png bytes")

	r := newTestResolver()
	errs := r.Resolve(context.Background(), filepath.Join(sourceDir, "*.{txt,json}"), destDir)
	require.Empty(t, errs)

	// Only the extensions named in the braces are copied.
	assert.Equal(t, "text", readFile(t, filepath.Join(destDir, "a.txt")))
	assert.Equal(t, `{"k":1}`, readFile(t, filepath.Join(destDir, "b.json")))
	assert.False(t, fileExists(filepath.Join(destDir, "c.png")))
}

func TestResolve_NoMatches(t *testing.T) {
	sourceDir := t.TempDir()
	destDir := t.TempDir()

	r := newTestResolver()
	errs := r.Resolve(context.Background(), filepath.Join(sourceDir, "*.txt"), destDir)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNoMatches)
}

func TestResolve_MatchedDirectoriesKeepTheirName(t *testing.T) {
	sourceDir := t.TempDir()
	destDir := t.TempDir()

	writeFile(t, filepath.Join(sourceDir, "icons", "x.svg"), "svg")
	writeFile(t, filepath.Join(sourceDir, "fonts", "y.woff"), "woff")
	writeFile(t, filepath.Join(sourceDir, "readme.md"), "docs")

	r := newTestResolver()
	errs := r.Resolve(context.Background(), filepath.Join(sourceDir, "*"), destDir)
	require.Empty(t, errs)

	// Matched directories nest under their own name, matched files do not.
	assert.Equal(t, "svg", readFile(t, filepath.Join(destDir, "icons", "x.svg")))
	assert.Equal(t, "woff", readFile(t, filepath.Join(destDir, "fonts", "y.woff")))
	assert.Equal(t, "docs", readFile(t, filepath.Join(destDir, "readme.md")))
}

func TestResolve_DoublestarPattern(t *testing.T) {
	sourceDir := t.TempDir()
	destDir := t.TempDir()

	writeFile(t, filepath.Join(sourceDir, "a", "b", "deep.css"), "deep")
	writeFile(t, filepath.Join(sourceDir, "top.css"), "top")
	writeFile(t, filepath.Join(sourceDir, "a", "skip.js"), "js")

	r := newTestResolver()
	errs := r.Resolve(context.Background(), filepath.Join(sourceDir, "**", "*.css"), destDir)
	require.Empty(t, errs)

	// Every .css match is copied into the destination, flattened.
	assert.Equal(t, "deep", readFile(t, filepath.Join(destDir, "deep.css")))
	assert.Equal(t, "top", readFile(t, filepath.Join(destDir, "top.css")))
	assert.False(t, fileExists(filepath.Join(destDir, "skip.js")))
}
