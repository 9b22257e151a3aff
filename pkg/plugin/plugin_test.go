package plugin

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetcp/assetcp/pkg/config"
)

// Test helper functions

type fakeBuild struct {
	out string
}

func (b fakeBuild) OutputDir() string {
	return b.out
}

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

// Test cases

func TestName(t *testing.T) {
	assert.Equal(t, "assetcp", New(Options{}).Name())
}

func TestSetup_CopiesIntoBuildOutput(t *testing.T) {
	sourceDir := t.TempDir()
	buildOut := t.TempDir()

	writeFile(t, filepath.Join(sourceDir, "app.css"), "body{}")

	var buf bytes.Buffer
	p := New(Options{
		Resources: []config.Resource{{Src: filepath.Join(sourceDir, "app.css")}},
		Out:       &buf,
	})

	err := p.Setup(context.Background(), fakeBuild{out: buildOut})
	require.NoError(t, err)

	assert.Equal(t, "body{}", readFile(t, filepath.Join(buildOut, "app.css")))
}

func TestSetup_ResourceDestinationOverridesBuildOutput(t *testing.T) {
	sourceDir := t.TempDir()
	buildOut := t.TempDir()
	customOut := t.TempDir()

	writeFile(t, filepath.Join(sourceDir, "app.css"), "body{}")

	var buf bytes.Buffer
	p := New(Options{
		Resources: []config.Resource{{Src: filepath.Join(sourceDir, "app.css"), Dst: customOut}},
		Out:       &buf,
	})

	err := p.Setup(context.Background(), fakeBuild{out: buildOut})
	require.NoError(t, err)

	assert.Equal(t, "body{}", readFile(t, filepath.Join(customOut, "app.css")))
	assert.NoFileExists(t, filepath.Join(buildOut, "app.css"))
}

func TestSetup_InvalidConfigIsReturned(t *testing.T) {
	var buf bytes.Buffer
	p := New(Options{
		Resources: []config.Resource{{Src: ""}},
		Out:       &buf,
	})

	err := p.Setup(context.Background(), fakeBuild{out: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrEmptySource)
}

func TestSetup_CopyFailuresDoNotFailTheBuild(t *testing.T) {
	buildOut := t.TempDir()

	var buf bytes.Buffer
	p := New(Options{
		Resources: []config.Resource{{Src: filepath.Join(t.TempDir(), "missing.txt")}},
		Out:       &buf,
	})

	// The failure is logged, not returned.
	err := p.Setup(context.Background(), fakeBuild{out: buildOut})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Failed to copy resource")
}

func TestSetup_EmptyResourceListIsANoop(t *testing.T) {
	var buf bytes.Buffer
	p := New(Options{Out: &buf})

	err := p.Setup(context.Background(), fakeBuild{out: t.TempDir()})
	assert.NoError(t, err)
}
