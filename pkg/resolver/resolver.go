package resolver

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/assetcp/assetcp/pkg/copier"
)

// ErrNoMatches reports a pattern that expanded to nothing. This is a
// reported, non-fatal condition: the pipeline logs it and moves on to the
// next resource.
var ErrNoMatches = errors.New("no files or directories found for pattern")

// Resolver expands glob patterns against the filesystem and feeds every
// match through the copy engine.
type Resolver struct {
	copier *copier.Copier
	logger zerolog.Logger
}

func New(c *copier.Copier, logger zerolog.Logger) *Resolver {
	return &Resolver{
		copier: c,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve expands pattern and copies each match into dest, one match at a
// time in lexical order. Matched directories land under dest by their base
// name; matched files land directly in dest. Per-match failures are collected
// and returned without stopping the remaining matches; the caller decides how
// to report them.
func (r *Resolver) Resolve(ctx context.Context, pattern, dest string) []error {
	matches, err := doublestar.FilepathGlob(filepath.ToSlash(pattern))
	if err != nil {
		return []error{errors.Wrapf(err, "failed to expand pattern %q", pattern)}
	}

	if len(matches) == 0 {
		return []error{errors.Wrapf(ErrNoMatches, "%q", pattern)}
	}

	// Lexical order keeps runs reproducible.
	sort.Strings(matches)

	r.logger.Info().Str("pattern", pattern).Int("matches", len(matches)).Msg("Expanded pattern")

	var errs []error
	for _, match := range matches {
		if err := r.copyMatch(ctx, match, dest); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func (r *Resolver) copyMatch(ctx context.Context, match, dest string) error {
	info, err := os.Stat(match)
	if err != nil {
		return errors.Wrapf(err, "failed to stat match %s", match)
	}

	if info.IsDir() {
		return r.copier.CopyDirectory(ctx, match, filepath.Join(dest, filepath.Base(match)))
	}

	return r.copier.CopyFileOrDirectory(ctx, match, dest)
}
