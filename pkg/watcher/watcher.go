package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	rwatcher "github.com/radovskyb/watcher"
	"github.com/rs/zerolog"

	"github.com/assetcp/assetcp/pkg/config"
	"github.com/assetcp/assetcp/pkg/pipeline"
)

const (
	DefaultDebounce = 500 * time.Millisecond

	pollInterval = 100 * time.Millisecond
)

// Watcher re-runs the copy pipeline whenever a watched source tree changes.
// Events only mark the state dirty; a ticker flushes at most one pipeline run
// per debounce interval, so bursts of writes collapse into a single re-copy.
type Watcher struct {
	conf     config.Config
	debounce time.Duration
	logger   zerolog.Logger
}

func New(conf config.Config, debounce time.Duration, logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		conf:     conf,
		debounce: debounce,
		logger:   logger.With().Str("component", "watcher").Logger(),
	}
}

// WatchRoot derives the path to watch for one resource source. A literal
// path is watched as-is; a glob pattern is watched at its static prefix
// (everything before the first metacharacter).
func WatchRoot(src string) string {
	if !config.HasMeta(src) {
		return src
	}

	base, _ := doublestar.SplitPattern(filepath.ToSlash(src))
	return filepath.FromSlash(base)
}

// Start copies everything once, then blocks watching every resource's source
// root until ctx is cancelled or the underlying watcher fails. Destination
// directories are ignored so the copies themselves never trigger a rebuild.
func (w *Watcher) Start(ctx context.Context) error {
	// Always copy once before watching.
	w.run(ctx)

	fw := rwatcher.New()
	fw.FilterOps(rwatcher.Create, rwatcher.Write, rwatcher.Remove, rwatcher.Rename, rwatcher.Move)

	ignored := make([]string, 0, len(w.conf.Resources))
	for _, res := range w.conf.Resources {
		ignored = append(ignored, w.conf.Effective(res))
	}
	if err := fw.Ignore(ignored...); err != nil {
		return errors.Wrap(err, "failed to ignore destination paths")
	}

	watching := 0
	for _, res := range w.conf.Resources {
		root := WatchRoot(res.Src)

		info, err := os.Stat(root)
		if err != nil {
			w.logger.Warn().Err(err).Str("source", res.Src).Msg("Skipping unwatchable source")
			continue
		}

		if info.IsDir() {
			err = fw.AddRecursive(root)
		} else {
			err = fw.Add(root)
		}
		if err != nil {
			return errors.Wrapf(err, "failed to watch %s", root)
		}

		w.logger.Info().Str("root", root).Str("source", res.Src).Msg("Watching source")
		watching++
	}

	if watching == 0 {
		return errors.New("no watchable sources")
	}

	go func() {
		<-ctx.Done()
		fw.Close()
	}()

	started := make(chan error, 1)
	go func() {
		started <- fw.Start(pollInterval)
	}()

	dirty := false
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event := <-fw.Event:
			dirty = true
			w.logger.Info().Str("path", event.Path).Str("op", event.Op.String()).Msg("Source changed")
		case err := <-fw.Error:
			w.logger.Error().Err(err).Msg("Watcher error")
		case err := <-started:
			if err != nil {
				return errors.Wrap(err, "failed to start watcher")
			}
		case <-fw.Closed:
			return ctx.Err()
		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			w.run(ctx)
		}
	}
}

// run processes the whole resource list with a fresh pipeline so every run
// reports its own counts.
func (w *Watcher) run(ctx context.Context) {
	pipeline.New(w.conf, w.logger).Process(ctx)
}
