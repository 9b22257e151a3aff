package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/assetcp/assetcp/pkg/config"
	"github.com/assetcp/assetcp/pkg/copier"
	"github.com/assetcp/assetcp/pkg/resolver"
	"github.com/assetcp/assetcp/pkg/utils/size"
)

// Summary reports one pipeline run. All failures have already been logged by
// the time Process returns; the summary exists so hosts and tests can inspect
// the outcome without capturing log output.
type Summary struct {
	Resources   int
	FilesCopied int64
	DirsCopied  int64
	BytesCopied int64
	Errors      []error
	Elapsed     time.Duration
}

// Failed reports whether any resource failed to copy completely.
func (s Summary) Failed() bool {
	return len(s.Errors) > 0
}

// Pipeline processes the configured resource list strictly in declared order.
// Failures never stop the run: each is logged at error level, collected into
// the summary, and the next resource proceeds. Later resources win
// conflicting writes; intentionally overlapping destinations within a single
// directory fan-out are undefined.
type Pipeline struct {
	conf     config.Config
	copier   *copier.Copier
	resolver *resolver.Resolver
	logger   zerolog.Logger
}

// New builds a pipeline and its engine from one validated config. Call
// conf.Validate first; New panics on an invalid config.
func New(conf config.Config, logger zerolog.Logger) *Pipeline {
	if err := conf.Validate(); err != nil {
		panic(err)
	}

	maxConcurrent := conf.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = config.DefaultMaxConcurrent
	}

	c := copier.New(copier.Config{
		MaxConcurrent: maxConcurrent,
		BlockSize:     conf.BlockSize,
		RateLimit:     conf.TransferRateLimit,
		DryRun:        conf.DryRun,
		OnFile:        conf.OnFile,
	}, logger)

	return &Pipeline{
		conf:     conf,
		copier:   c,
		resolver: resolver.New(c, logger),
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// Stats is a live snapshot of the engine's counters. Safe to call while
// Process is running, so progress displays can poll it.
func (p *Pipeline) Stats() copier.Stats {
	return p.copier.Stats()
}

// Process copies every configured resource. Resources run one at a time in
// list order; only the engine's per-directory fan-out is concurrent. The
// final info line reports the total elapsed wall-clock time.
func (p *Pipeline) Process(ctx context.Context) Summary {
	started := time.Now()

	summary := Summary{Resources: len(p.conf.Resources)}

	for _, res := range p.conf.Resources {
		if err := ctx.Err(); err != nil {
			p.logger.Error().Err(err).Msg("Aborted before all resources were processed")
			summary.Errors = append(summary.Errors, err)
			break
		}

		dest := p.conf.Effective(res)

		for _, err := range p.processResource(ctx, res, dest) {
			p.logger.Error().Err(err).Str("source", res.Src).Str("destination", dest).
				Msg("Failed to copy resource")
			summary.Errors = append(summary.Errors, err)
		}
	}

	stats := p.copier.Stats()
	summary.FilesCopied = stats.FilesCopied
	summary.DirsCopied = stats.DirsCopied
	summary.BytesCopied = stats.BytesCopied
	summary.Elapsed = time.Since(started)

	p.logger.Info().
		Int("resources", summary.Resources).
		Int64("files", summary.FilesCopied).
		Int64("directories", summary.DirsCopied).
		Str("bytes", size.FormatBytes(summary.BytesCopied)).
		Str("elapsed", fmt.Sprintf("%.2fs", summary.Elapsed.Seconds())).
		Msg("Finished copying assets")

	return summary
}

// processResource classifies one source and dispatches it. A glob pattern
// goes through the resolver; a literal path is statted and copied either as a
// directory (contents mirrored into dest) or as a single file (placed in dest
// under its base name).
func (p *Pipeline) processResource(ctx context.Context, res config.Resource, dest string) []error {
	if config.HasMeta(res.Src) {
		return p.resolver.Resolve(ctx, res.Src, dest)
	}

	info, err := os.Stat(res.Src)
	if err != nil {
		return []error{errors.Wrapf(err, "failed to stat source %s", res.Src)}
	}

	if info.IsDir() {
		if err := p.copier.CopyDirectory(ctx, res.Src, dest); err != nil {
			return []error{err}
		}
		return nil
	}

	if err := p.copier.CopyFileOrDirectory(ctx, res.Src, dest); err != nil {
		return []error{err}
	}

	return nil
}
