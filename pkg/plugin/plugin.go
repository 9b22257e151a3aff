package plugin

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/assetcp/assetcp/pkg/config"
	"github.com/assetcp/assetcp/pkg/pipeline"
	"github.com/assetcp/assetcp/pkg/utils/log"
)

// Options is the construction input for the plugin.
type Options struct {
	// Verbose enables info-level log lines. Errors are always logged.
	Verbose bool
	// Resources are processed in list order.
	Resources []config.Resource

	// Engine knobs, all optional.
	MaxConcurrent     int
	BlockSize         int
	TransferRateLimit int64

	// Out overrides the log destination. Defaults to stderr with terminal
	// detection; an explicit writer is treated as a plain stream.
	Out io.Writer
}

// BuildContext is the slice of the host build tool's resolved configuration
// that the plugin consumes.
type BuildContext interface {
	// OutputDir is the build's default output directory, used for every
	// resource that does not name its own destination.
	OutputDir() string
}

// Plugin copies the configured resources into the build output as a build
// step. Construct it once with New; the host activates it by calling Setup
// with its resolved build configuration.
type Plugin struct {
	opts Options
}

func New(opts Options) *Plugin {
	return &Plugin{opts: opts}
}

func (p *Plugin) Name() string {
	return "assetcp"
}

// Setup runs the copy step. The only errors it returns are configuration
// errors; copy failures are logged and folded into the run's summary, never
// surfaced as a build-halting fault.
func (p *Plugin) Setup(ctx context.Context, build BuildContext) error {
	conf := config.Config{
		Verbose:           p.opts.Verbose,
		OutputDir:         build.OutputDir(),
		Resources:         p.opts.Resources,
		MaxConcurrent:     p.opts.MaxConcurrent,
		BlockSize:         p.opts.BlockSize,
		TransferRateLimit: p.opts.TransferRateLimit,
	}

	if err := conf.Validate(); err != nil {
		return err
	}

	out := p.opts.Out
	isTerminal := false
	if out == nil {
		out = os.Stderr
		isTerminal = term.IsTerminal(int(os.Stderr.Fd()))
	}

	logger := log.GetLogger(out, isTerminal, conf.Verbose)

	pipeline.New(conf, logger).Process(ctx)

	return nil
}
