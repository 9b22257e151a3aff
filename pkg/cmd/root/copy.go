package root

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/assetcp/assetcp/pkg/config"
	"github.com/assetcp/assetcp/pkg/pipeline"
	"github.com/assetcp/assetcp/pkg/utils/log"
	"github.com/assetcp/assetcp/pkg/utils/progress"
	"github.com/assetcp/assetcp/pkg/utils/size"
)

func runCopy(cmd *cobra.Command, args []string) error {
	conf, err := buildConfig(args)
	if err != nil {
		return err
	}
	err = conf.Validate()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var logger zerolog.Logger
	var progressBar *progress.Progress
	progressDone := make(chan struct{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		progressBar = progress.New(os.Stderr, 100*time.Millisecond)

		// So we can print out summary.
		defer func() {
			cancel()
			<-progressDone
		}()

		go func() {
			defer close(progressDone)
			progressBar.Start(ctx)
		}()
	}

	if progressBar == nil {
		logger = log.GetLogger(os.Stderr, false, conf.Verbose)
	} else {
		logger = log.GetLogger(progressBar, true, conf.Verbose)
	}

	p := pipeline.New(conf, logger)
	if progressBar != nil {
		progressBar.SetStatsGetter(func() progress.Stats {
			stats := p.Stats()
			return progress.Stats{
				Files:       stats.FilesCopied,
				Directories: stats.DirsCopied,
				Bytes:       stats.BytesCopied,
			}
		})
	}

	summary := p.Process(ctx)
	if strict && summary.Failed() {
		return errors.Errorf("%d errors while copying %d resources", len(summary.Errors), summary.Resources)
	}

	return nil
}

// buildConfig assembles the pipeline configuration from the manifest (if
// any), the flags, and the positional RESOURCE arguments. Flags override
// manifest settings; arguments are appended after manifest resources.
func buildConfig(args []string) (config.Config, error) {
	conf := config.Config{
		Verbose:       verbose,
		DryRun:        dryRun,
		OutputDir:     outputDir,
		MaxConcurrent: maxConcurrent,
	}

	blockSizeBytes, err := size.Parse(blockSize)
	if err != nil {
		return conf, errors.Wrap(err, "invalid block size")
	}
	conf.BlockSize = int(blockSizeBytes)

	conf.TransferRateLimit, err = size.Parse(transferRateLimitStr)
	if err != nil {
		return conf, errors.Wrap(err, "invalid transfer rate limit")
	}

	if manifestPath != "" {
		m, err := config.LoadManifest(manifestPath)
		if err != nil {
			return conf, err
		}
		conf.Verbose = conf.Verbose || m.Verbose
		if conf.OutputDir == "" {
			conf.OutputDir = m.Out
		}
		conf.Resources = m.Resources
	}

	for _, arg := range args {
		conf.Resources = append(conf.Resources, config.ParseResource(arg))
	}

	return conf, nil
}
