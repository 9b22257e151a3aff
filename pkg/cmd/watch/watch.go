package watch

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/assetcp/assetcp/pkg/config"
	"github.com/assetcp/assetcp/pkg/utils/log"
	"github.com/assetcp/assetcp/pkg/utils/size"
	"github.com/assetcp/assetcp/pkg/watcher"
)

// Pipeline config
var (
	outputDir    string
	manifestPath string
	verbose      bool
)

// Copier config
var (
	maxConcurrent        int
	blockSize            string
	transferRateLimitStr string
)

var debounce time.Duration

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] [RESOURCE...]",
		Short: "Copy assets, then re-copy whenever a source changes",
		Long: `
Copies every resource once, then keeps watching the source paths (for glob
patterns, the static prefix of the pattern) and re-runs the whole copy when
anything under them changes. Changes arriving within one debounce interval
are collapsed into a single re-copy.

Destination directories are never watched, so the copies themselves do not
trigger another run. Stop with Ctrl-C.
`,
		Args:         cobra.ArbitraryArgs,
		RunE:         runWatch,
		SilenceUsage: true,
	}

	f := cmd.Flags()

	f.StringVarP(&outputDir, "out", "o", "", "Default output directory for resources without an explicit destination")
	f.StringVarP(&manifestPath, "manifest", "m", "", "YAML manifest with resources and defaults")
	f.DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Minimum interval between re-copies after a change")

	// Copier
	f.IntVarP(&maxConcurrent, "max-concurrent", "c", config.DefaultMaxConcurrent, "Maximum number of concurrently copied entries per directory")
	f.StringVar(&blockSize, "block-size", "64k", "Copy buffer size (e.g., 32k, 1m)")
	f.StringVar(&transferRateLimitStr, "transfer-rate-limit", "", "Limit bytes copied per second (e.g., 1m, 500k)")

	f.BoolVarP(&verbose, "verbose", "v", false, "Log every copied file and directory, not just errors")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	conf, err := buildConfig(args)
	if err != nil {
		return err
	}
	err = conf.Validate()
	if err != nil {
		return err
	}

	logger := log.GetLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), conf.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	err = watcher.New(conf, debounce, logger).Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func buildConfig(args []string) (config.Config, error) {
	conf := config.Config{
		Verbose:       verbose,
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
