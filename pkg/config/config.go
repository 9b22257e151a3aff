package config

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Resource is one configured copy request: a source path or glob pattern plus
// an optional destination directory. An empty Dst means "use the default
// output directory".
type Resource struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst,omitempty"`
}

// ParseResource parses a command-line resource argument of the form SRC or
// SRC=DST. Everything after the first '=' is the destination override.
func ParseResource(arg string) Resource {
	src, dst, _ := strings.Cut(arg, "=")
	return Resource{Src: src, Dst: dst}
}

var (
	ErrEmptySource      = errors.New("resource source must not be empty")
	ErrEmptyDestination = errors.New("resource has no destination and no default output directory is set")
	ErrInvalidPattern   = errors.New("invalid glob pattern")
)

const DefaultMaxConcurrent = 8

// Config carries everything the pipeline needs. It is built once, by the
// plugin adapter or the CLI, and passed by value; nothing mutates it
// afterwards.
type Config struct {
	// Verbose enables info-level log lines. Errors are always logged.
	Verbose bool
	// DryRun walks and logs without writing to the filesystem.
	DryRun bool
	// OutputDir is the destination for resources that do not name their own.
	OutputDir string
	// Resources are processed strictly in list order.
	Resources []Resource

	// MaxConcurrent bounds the concurrent copies of one directory's
	// immediate children. Zero selects DefaultMaxConcurrent.
	MaxConcurrent int
	// BlockSize is the copy buffer size in bytes. Zero selects the
	// cp package default.
	BlockSize int
	// TransferRateLimit caps copied bytes per second. Zero disables
	// throttling.
	TransferRateLimit int64

	// OnFile, when set, is invoked after every file copy (or planned copy,
	// under DryRun). It runs on the engine's worker goroutines and must be
	// safe for concurrent use. Never part of a manifest; hosts set it
	// programmatically.
	OnFile func(src, dst string, size int64)
}

// Validate checks the resource list and the engine knobs. An empty resource
// list is valid: processing it is a no-op.
func (c Config) Validate() error {
	for _, r := range c.Resources {
		if r.Src == "" {
			return ErrEmptySource
		}
		if HasMeta(r.Src) && !doublestar.ValidatePattern(r.Src) {
			return errors.Wrapf(ErrInvalidPattern, "%q", r.Src)
		}
		if c.Effective(r) == "" {
			return errors.Wrapf(ErrEmptyDestination, "source %q", r.Src)
		}
	}

	if c.MaxConcurrent < 0 {
		return errors.New("max concurrent must not be negative")
	}
	if c.BlockSize < 0 {
		return errors.New("block size must not be negative")
	}
	if c.TransferRateLimit < 0 {
		return errors.New("transfer rate limit must not be negative")
	}

	return nil
}

// Effective resolves the destination directory for a resource, falling back
// to the default output directory.
func (c Config) Effective(r Resource) string {
	if r.Dst != "" {
		return r.Dst
	}
	return c.OutputDir
}

// HasMeta reports whether the path contains glob metacharacters and therefore
// must be expanded by the resolver before it can be copied.
func HasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
