package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/osiris-robotics/plexus/internal/adapters/heartbeat"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show every node's last heartbeat",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	store, err := heartbeat.NewFileStore(rootFlags.dir, nil)
	if err != nil {
		return fmt.Errorf("open heartbeat dir: %w", err)
	}
	return printStatus(cmd.OutOrStdout(), store)
}

func printStatus(out io.Writer, store *heartbeat.FileStore) error {
	records := store.ListHeartbeats()
	if len(records) == 0 {
		fmt.Fprintf(out, "No heartbeats under %s\n", rootFlags.dir)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tSTATE\tHEALTH\tTICKS\tERRORS\tRATE\tAGE\tFRESH")
	for _, rec := range records {
		age := time.Since(rec.HeartbeatTimestamp).Round(time.Millisecond)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f/%.1f\t%s\t%v\n",
			rec.NodeName,
			rec.State,
			rec.Health,
			rec.TickCount,
			rec.ErrorCount,
			rec.ActualRateHz,
			rec.TargetRateHz,
			age,
			rec.IsFresh(rootFlags.maxAge))
	}
	return w.Flush()
}
