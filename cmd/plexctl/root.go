package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/osiris-robotics/plexus/internal/domain"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	dir    string
	maxAge time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "plexctl",
	Short: "Inspect plexus node heartbeats on this host",
	Long: "plexctl reads the per-node heartbeat slots written by plexus runtimes\n" +
		"and reports each node's state, health, and freshness.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	defaults := domain.DefaultHeartbeatConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.dir, "dir", defaults.Dir, "heartbeat slot directory")
	pf.DurationVar(&rootFlags.maxAge, "max-age", defaults.FreshnessThreshold, "age beyond which a heartbeat counts as stale")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(netCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
