package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cygrid-bench",
	Short: "cygrid-bench exercises the cygrid gridder against synthetic sky samples",
	Long: `cygrid-bench generates a synthetic set of sky positions and spectra and grids
them onto a projection grid, reporting throughput and the resulting weight
coverage. It has no sight-line mode.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("cygrid-bench failed")
		os.Exit(1)
	}
}
