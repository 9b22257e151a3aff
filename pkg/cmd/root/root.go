package root

import (
	"github.com/spf13/cobra"

	"github.com/assetcp/assetcp/pkg/config"
)

// Pipeline config
var (
	outputDir    string
	manifestPath string
	dryRun       bool
	strict       bool
	verbose      bool
)

// Copier config
var (
	maxConcurrent        int
	blockSize            string
	transferRateLimitStr string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assetcp [flags] [RESOURCE...]",
		Short: "Copy static assets into build output directories",
		Long: `
Each RESOURCE argument is a source path with an optional destination:
  - SRC        copy into the default output directory (--out)
  - SRC=DST    copy into directory DST instead

How sources are copied:
  - Source: an existing file (a.txt)
    Result: copied into the destination under its own name (out/a.txt).
  - Source: an existing directory (static)
    Result: its contents are mirrored into the destination, so
            static/img/logo.png becomes out/img/logo.png.
  - Source: a glob pattern (assets/*.{txt,json})
    Result: every match is copied into the destination; matched
            directories keep their own name under it.

Resources may also come from a YAML manifest (--manifest). Positional
arguments are appended after manifest entries. Resources are processed
in order, and later copies overwrite earlier ones.
`,
		Args:         cobra.ArbitraryArgs,
		RunE:         runCopy,
		SilenceUsage: true,
	}

	f := cmd.Flags()

	f.StringVarP(&outputDir, "out", "o", "", "Default output directory for resources without an explicit destination")
	f.StringVarP(&manifestPath, "manifest", "m", "", "YAML manifest with resources and defaults")
	f.BoolVar(&dryRun, "dry-run", false, "Log planned copies without writing anything")
	f.BoolVar(&strict, "strict", false, "Exit non-zero if any resource fails to copy")

	// Copier
	f.IntVarP(&maxConcurrent, "max-concurrent", "c", config.DefaultMaxConcurrent, "Maximum number of concurrently copied entries per directory")
	f.StringVar(&blockSize, "block-size", "64k", "Copy buffer size (e.g., 32k, 1m)")
	f.StringVar(&transferRateLimitStr, "transfer-rate-limit", "", "Limit bytes copied per second (e.g., 1m, 500k)")

	f.BoolVarP(&verbose, "verbose", "v", false, "Log every copied file and directory, not just errors")

	return cmd
}
