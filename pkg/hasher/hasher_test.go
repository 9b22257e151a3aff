package hasher

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper functions

func writeFile(t *testing.T, path, content string) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	require.NoError(t, err)
	err = os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
}

func newTestVerifier() *Verifier {
	return New(Config{MaxConcurrentFiles: 4, BufferSize: 1024}, zerolog.Nop())
}

// Test cases

func TestNew_PanicsOnInvalidConfig(t *testing.T) {
	assert.Panics(t, func() {
		New(Config{}, zerolog.Nop())
	})
	assert.Panics(t, func() {
		New(Config{MaxConcurrentFiles: 4, BufferSize: 1024, RateLimit: -1}, zerolog.Nop())
	})
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	writeFile(t, path, "hello world")

	hash, hashed, err := HashFile(context.Background(), path, make([]byte, 64), nil)
	require.NoError(t, err)

	// Known SHA-256 of "hello world".
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hex.EncodeToString(hash))
	assert.Equal(t, int64(len("hello world")), hashed)
}

func TestVerify_AllMatch(t *testing.T) {
	dir := t.TempDir()

	var pairs []Pair
	for _, name := range []string{"a.txt", "b.txt"} {
		src := filepath.Join(dir, "src_"+name)
		dst := filepath.Join(dir, "dst_"+name)
		writeFile(t, src, "content of "+name)
		writeFile(t, dst, "content of "+name)
		pairs = append(pairs, Pair{Source: src, Destination: dst})
	}

	v := newTestVerifier()
	err := v.Verify(context.Background(), pairs)
	require.NoError(t, err)

	stats := v.Stats()
	assert.Equal(t, int64(2), stats.FilesVerified)
	assert.Equal(t, int64(0), stats.FilesFailed)

	// Source and destination bytes both count.
	assert.Equal(t, 2*int64(len("content of a.txt")+len("content of b.txt")), stats.BytesHashed)
}

func TestVerify_MismatchIsCountedAndReported(t *testing.T) {
	dir := t.TempDir()

	good := Pair{Source: filepath.Join(dir, "good_src"), Destination: filepath.Join(dir, "good_dst")}
	writeFile(t, good.Source, "same")
	writeFile(t, good.Destination, "same")

	bad := Pair{Source: filepath.Join(dir, "bad_src"), Destination: filepath.Join(dir, "bad_dst")}
	writeFile(t, bad.Source, "original")
	writeFile(t, bad.Destination, "corrupted")

	v := newTestVerifier()
	err := v.Verify(context.Background(), []Pair{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed verification")

	// The good pair was still checked.
	assert.Equal(t, int64(1), v.Stats().FilesVerified)
	assert.Equal(t, int64(1), v.Stats().FilesFailed)
}

func TestVerify_MissingDestination(t *testing.T) {
	dir := t.TempDir()

	pair := Pair{Source: filepath.Join(dir, "src"), Destination: filepath.Join(dir, "never_copied")}
	writeFile(t, pair.Source, "data")

	v := newTestVerifier()
	err := v.Verify(context.Background(), []Pair{pair})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files failed verification")
}

func TestVerify_NoPairs(t *testing.T) {
	v := newTestVerifier()
	assert.NoError(t, v.Verify(context.Background(), nil))
	assert.Equal(t, int64(0), v.Stats().FilesVerified)
}
