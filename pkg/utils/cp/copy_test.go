package cp

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy_Basic(t *testing.T) {
	src := strings.Repeat("some test data. ", 1024)
	var dst bytes.Buffer

	n, err := Copy(context.Background(), &dst, strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, int64(len(src)), n)
	assert.Equal(t, src, dst.String())
}

func TestCopy_SmallBufferManyBlocks(t *testing.T) {
	src := strings.Repeat("x", 1000)
	var dst bytes.Buffer

	// A 7-byte buffer forces many read/write rounds.
	n, err := Copy(context.Background(), &dst, strings.NewReader(src), WithBuffer(make([]byte, 7)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(src)), n)
	assert.Equal(t, src, dst.String())
}

func TestCopy_EmptySource(t *testing.T) {
	var dst bytes.Buffer

	n, err := Copy(context.Background(), &dst, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 0, dst.Len())
}

func TestCopy_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var dst bytes.Buffer
	_, err := Copy(ctx, &dst, strings.NewReader("never copied"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, dst.Len())
}
