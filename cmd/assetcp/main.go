package main

import (
	"os"
	"runtime/pprof"

	"golang.org/x/term"

	"github.com/assetcp/assetcp/pkg/cmd/root"
	"github.com/assetcp/assetcp/pkg/cmd/verify"
	"github.com/assetcp/assetcp/pkg/cmd/watch"
	"github.com/assetcp/assetcp/pkg/utils/log"
)

var (
	logger = log.GetLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), false)
)

func main() {
	rootCmd := root.NewCommand()

	rootCmd.AddCommand(watch.NewCommand())
	rootCmd.AddCommand(verify.NewCommand())

	// Only enable CPU profiling if explicitly requested via environment variable
	if os.Getenv("ASSETCP_ENABLE_PROFILING") == "1" {
		f, err := os.Create("cpuprofile")
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create cpuprofile file")
			return
		}

		err = pprof.StartCPUProfile(f)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to start cpu profile")
		}
		defer f.Close()
		defer pprof.StopCPUProfile()
	}

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal().Err(err).Msg("Error executing assetcp")
	}
}
