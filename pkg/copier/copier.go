package copier

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/detailyang/go-fallocate"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/assetcp/assetcp/pkg/utils/cp"
	"github.com/assetcp/assetcp/pkg/utils/size"
	"github.com/assetcp/assetcp/pkg/validation"
)

// Copier copies files and directory trees into destination directories. The
// immediate children of each directory level are copied concurrently and
// joined before the level reports completion; everything above that is
// sequential. Failures are returned to the caller, never logged here, so the
// pipeline can report them centrally.
type Copier struct {
	conf    Config
	logger  zerolog.Logger
	limiter *rate.Limiter

	// Stats
	filesCopied atomic.Int64
	dirsCopied  atomic.Int64
	bytesCopied atomic.Int64
}

type Stats struct {
	FilesCopied int64
	DirsCopied  int64
	BytesCopied int64
}

func New(conf Config, logger zerolog.Logger) *Copier {
	if err := conf.Validate(); err != nil {
		panic(err)
	}

	var limiter *rate.Limiter
	if conf.RateLimit > 0 {
		// Each child goroutine copies one block at a time, so the burst
		// must cover a full block per concurrent child.
		limiter = rate.NewLimiter(rate.Limit(conf.RateLimit), conf.blockSize()*conf.MaxConcurrent)
	}

	return &Copier{
		conf:    conf,
		logger:  logger.With().Str("component", "copier").Logger(),
		limiter: limiter,
	}
}

func (c *Copier) Stats() Stats {
	return Stats{
		FilesCopied: c.filesCopied.Load(),
		DirsCopied:  c.dirsCopied.Load(),
		BytesCopied: c.bytesCopied.Load(),
	}
}

// CopyDirectory mirrors the contents of the source directory into dst,
// creating dst and any missing ancestors first. One info line is logged per
// directory level, after that level's children have completed.
func (c *Copier) CopyDirectory(ctx context.Context, src, dst string) error {
	if err := validation.CheckDir(src, dst); err != nil {
		return err
	}

	if err := c.mkdirAll(dst); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "failed to read directory %s", src)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.conf.MaxConcurrent)

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			// Stop dispatching, but still join the children already
			// started below.
			if err := eg.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		default:
		}

		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			eg.Go(func() error {
				return c.CopyDirectory(ctx, srcPath, dstPath)
			})
			continue
		}

		if !entry.Type().IsRegular() && entry.Type()&os.ModeSymlink == 0 {
			c.logger.Warn().Str("path", srcPath).Str("type", entry.Type().String()).
				Msg("Skipping unsupported file type")
			continue
		}

		eg.Go(func() error {
			return c.copyFile(ctx, srcPath, dstPath)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	c.dirsCopied.Add(1)
	msg := "Copied directory"
	if c.conf.DryRun {
		msg = "Would copy directory"
	}
	c.logger.Info().Str("source", src).Str("destination", dst).Msg(msg)

	return nil
}

// CopyFileOrDirectory copies src into the destination directory dst under
// src's base name. Both paths are resolved to absolute form and dst is
// created if absent. Directories recurse through CopyDirectory; files are
// copied byte for byte.
func (c *Copier) CopyFileOrDirectory(ctx context.Context, src, dst string) error {
	src, err := filepath.Abs(src)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve source %s", src)
	}
	dst, err = filepath.Abs(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve destination %s", dst)
	}

	if err := c.mkdirAll(dst); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "failed to stat source %s", src)
	}

	target := filepath.Join(dst, filepath.Base(src))

	if info.IsDir() {
		return c.CopyDirectory(ctx, src, target)
	}

	return c.copyFile(ctx, src, target)
}

// copyFile copies one regular file. An existing destination is truncated; the
// last write wins. Source file modes are not preserved.
func (c *Copier) copyFile(ctx context.Context, src, dst string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := validation.CheckFile(src, dst); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "failed to stat source %s", src)
	}

	// A symlink that points at a directory. Follow it like any other
	// directory.
	if info.IsDir() {
		return c.CopyDirectory(ctx, src, dst)
	}

	logger := c.logger.With().
		Str("source", src).
		Str("destination", dst).
		Int64("size", info.Size()).
		Str("sizeHuman", size.FormatBytes(info.Size())).
		Logger()

	if c.conf.DryRun {
		c.recordFile(src, dst, info.Size())
		logger.Info().Msg("Would copy file")
		return nil
	}

	written, err := c.writeFile(ctx, src, dst, info.Size())
	if err != nil {
		return err
	}

	c.bytesCopied.Add(written)
	c.recordFile(src, dst, written)
	logger.Info().Msg("Copied file")

	return nil
}

func (c *Copier) writeFile(ctx context.Context, src, dst string, expected int64) (int64, error) {
	srcFD, err := os.Open(src)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open %s for reading", src)
	}
	defer srcFD.Close()

	dstFD, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open %s for writing", dst)
	}

	if expected > 0 {
		if err := fallocate.Fallocate(dstFD, 0, expected); err != nil {
			// fallocate can fail on some filesystems. The copy still
			// works without it.
			c.logger.Warn().Err(err).Str("destination", dst).
				Msg("Failed to preallocate disk space. Continuing anyway.")
		}
	}

	buffer := make([]byte, c.conf.blockSize())
	written, err := cp.Copy(ctx, dstFD, srcFD, cp.WithBuffer(buffer), cp.WithRateLimiter(c.limiter))
	if err != nil {
		_ = dstFD.Close()
		return written, errors.Wrapf(err, "failed to copy %s to %s", src, dst)
	}

	if err := dstFD.Close(); err != nil {
		return written, errors.Wrapf(err, "failed to close destination %s", dst)
	}

	return written, nil
}

// mkdirAll creates a destination directory and its missing ancestors. It runs
// lazily and idempotently right before each write, because resources may
// target arbitrarily nested trees that do not exist yet.
func (c *Copier) mkdirAll(dir string) error {
	if c.conf.DryRun {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}
	return nil
}

func (c *Copier) recordFile(src, dst string, bytes int64) {
	c.filesCopied.Add(1)
	if c.conf.OnFile != nil {
		c.conf.OnFile(src, dst, bytes)
	}
}
