package copier

import (
	"github.com/pkg/errors"

	"github.com/assetcp/assetcp/pkg/utils/cp"
)

type Config struct {
	// MaxConcurrent bounds how many immediate children of one directory
	// level are copied at once.
	MaxConcurrent int
	// BlockSize is the buffer size in bytes for byte copies. Zero selects
	// the cp package default.
	BlockSize int
	// RateLimit caps copied bytes per second across the whole engine.
	// Zero disables throttling.
	RateLimit int64
	// DryRun walks, classifies and logs without touching the destination.
	DryRun bool
	// OnFile, when set, is invoked after every file copy (or planned copy,
	// under DryRun). It is called from concurrent goroutines and must be
	// safe for concurrent use.
	OnFile func(src, dst string, size int64)
}

func (c Config) Validate() error {
	if c.MaxConcurrent <= 0 {
		return errors.New("max concurrent must be greater than 0")
	}
	if c.BlockSize < 0 {
		return errors.New("block size must not be negative")
	}
	if c.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}

func (c Config) blockSize() int {
	if c.BlockSize > 0 {
		return c.BlockSize
	}
	return cp.DefaultBufferSize
}
