package hasher

import (
	"github.com/pkg/errors"
)

type Config struct {
	// MaxConcurrentFiles bounds how many pairs are checked at once.
	MaxConcurrentFiles int
	// BufferSize is the read buffer size in bytes used while hashing.
	BufferSize int
	// RateLimit caps hashed bytes per second across source and destination
	// reads combined. Zero disables throttling.
	RateLimit int64
}

func (c Config) Validate() error {
	if c.MaxConcurrentFiles <= 0 {
		return errors.New("max concurrent files must be greater than 0")
	}
	if c.BufferSize <= 0 {
		return errors.New("buffer size must be greater than 0")
	}
	if c.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}
