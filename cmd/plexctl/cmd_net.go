package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osiris-robotics/plexus/internal/adapters/heartbeat"
	"github.com/osiris-robotics/plexus/internal/xjson"
)

var netCmd = &cobra.Command{
	Use:   "net <node>",
	Short: "Show a node's transport telemetry record",
	Args:  cobra.ExactArgs(1),
	RunE:  runNet,
}

func runNet(cmd *cobra.Command, args []string) error {
	store, err := heartbeat.NewFileStore(rootFlags.dir, nil)
	if err != nil {
		return fmt.Errorf("open heartbeat dir: %w", err)
	}

	rec, ok := store.ReadNetworkStatus(args[0])
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "No network status for node %s\n", args[0])
		return nil
	}

	data, err := xjson.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
