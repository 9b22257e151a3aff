package verify

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/assetcp/assetcp/pkg/config"
	"github.com/assetcp/assetcp/pkg/hasher"
	"github.com/assetcp/assetcp/pkg/pipeline"
	"github.com/assetcp/assetcp/pkg/utils/log"
	"github.com/assetcp/assetcp/pkg/utils/progress"
	"github.com/assetcp/assetcp/pkg/utils/size"
)

// Pipeline config
var (
	outputDir    string
	manifestPath string
	verbose      bool
)

// Hasher config
var (
	maxConcurrentFiles   int
	blockSize            string
	transferRateLimitStr string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [flags] [RESOURCE...]",
		Short: "Verify copied assets against their sources",
		Long: `
Resolves the same resources a copy would, but instead of writing anything,
hashes every source file and its destination counterpart and reports files
whose contents differ or are missing. Run it with the same manifest and
arguments as the copy.
`,
		Args:         cobra.ArbitraryArgs,
		RunE:         runVerify,
		SilenceUsage: true,
	}

	f := cmd.Flags()

	f.StringVarP(&outputDir, "out", "o", "", "Default output directory for resources without an explicit destination")
	f.StringVarP(&manifestPath, "manifest", "m", "", "YAML manifest with resources and defaults")

	// Hasher
	f.IntVarP(&maxConcurrentFiles, "concurrent-files", "c", 16, "Maximum number of files hashed concurrently")
	f.StringVar(&blockSize, "block-size", "64k", "Internal read block size (e.g., 32k, 1m)")
	f.StringVar(&transferRateLimitStr, "transfer-rate-limit", "", "Limit bytes hashed per second (e.g., 1m, 500k), counting both source and destination files")

	f.BoolVarP(&verbose, "verbose", "v", false, "Log every verified file, not just mismatches")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	// A dry run resolves patterns and walks directories exactly like a real
	// copy, so the OnFile hook sees every source/destination pair a copy
	// would produce without touching the filesystem.
	var mu sync.Mutex
	var pairs []hasher.Pair
	conf.DryRun = true
	conf.OnFile = func(src, dst string, _ int64) {
		mu.Lock()
		pairs = append(pairs, hasher.Pair{Source: src, Destination: dst})
		mu.Unlock()
	}

	summary := pipeline.New(conf, logger).Process(ctx)
	if summary.Failed() {
		return errors.Errorf("%d errors while resolving %d resources, cannot verify", len(summary.Errors), summary.Resources)
	}

	blockSizeBytes, err := size.Parse(blockSize)
	if err != nil {
		return errors.Wrap(err, "invalid block size")
	}
	rateLimit, err := size.Parse(transferRateLimitStr)
	if err != nil {
		return errors.Wrap(err, "invalid transfer rate limit")
	}

	hasherConfig := hasher.Config{
		MaxConcurrentFiles: maxConcurrentFiles,
		BufferSize:         int(blockSizeBytes),
		RateLimit:          rateLimit,
	}
	err = hasherConfig.Validate()
	if err != nil {
		return err
	}

	v := hasher.New(hasherConfig, logger)
	if progressBar != nil {
		progressBar.SetStatsGetter(func() progress.Stats {
			stats := v.Stats()
			return progress.Stats{
				Files: stats.FilesVerified + stats.FilesFailed,
				Bytes: stats.BytesHashed,
			}
		})
	}

	return v.Verify(ctx, pairs)
}

func buildConfig(args []string) (config.Config, error) {
	conf := config.Config{
		Verbose:   verbose,
		OutputDir: outputDir,
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
