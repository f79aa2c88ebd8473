// Package cli wires the command-line entry points.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "geogate",
	Short: "rate-limited geocoding gateway",
	Long: `
geogate resolves addresses and coordinates through a configured geocoding
provider while respecting its usage policy: requests are paced, transient
failures are retried, and results are cached.
`,
	SilenceUsage: true,
}

// ExecuteContext runs the root command under ctx, so a signal cancels
// whichever surface is running.
func ExecuteContext(ctx context.Context, version string) {
	rootCmd.Version = version

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the config file (defaults to ./configs/<APP_ENV>.yaml)")
}
