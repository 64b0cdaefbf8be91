package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/osiris-robotics/plexus/internal/adapters/heartbeat"
)

var watchFlags struct {
	interval time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll heartbeats until interrupted",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchFlags.interval, "interval", time.Second, "poll interval")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	store, err := heartbeat.NewFileStore(rootFlags.dir, nil)
	if err != nil {
		return fmt.Errorf("open heartbeat dir: %w", err)
	}

	out := cmd.OutOrStdout()
	ticker := time.NewTicker(watchFlags.interval)
	defer ticker.Stop()

	for {
		fmt.Fprintf(out, "-- %s --\n", time.Now().Format(time.RFC3339))
		if err := printStatus(out, store); err != nil {
			return err
		}
		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}
