package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tobyv/a11yrelay/internal/model"
	"github.com/tobyv/a11yrelay/internal/transport"
)

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "Run a local controller that receives forests from an agent",
	Long: `Run the controller side of the protocol for development: listen for a
device connection, buffer its forests and events, and print a summary of
each as JSONL to stdout.

With --pull, a pull-request is sent on each interval instead of relying
on the device's periodic pushes.

Examples:
  a11yrelay controller --listen :8554
  a11yrelay controller --listen :8554 --pull --interval 1000`,
	RunE: runController,
}

func init() {
	rootCmd.AddCommand(controllerCmd)
	controllerCmd.Flags().String("listen", ":8554", "Address to listen on")
	controllerCmd.Flags().Bool("pull", false, "Actively pull forests instead of waiting for pushes")
	controllerCmd.Flags().Int("interval", 1000, "Gather/pull interval in milliseconds")
	controllerCmd.Flags().Bool("latest-only", false, "Keep only the newest forest between gathers")
}

// forestSummary is one JSONL line describing a received forest.
type forestSummary struct {
	TS      int64  `json:"ts"`
	Kind    string `json:"kind"`
	Windows int    `json:"windows,omitempty"`
	Nodes   int    `json:"nodes,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Event   any    `json:"event,omitempty"`
}

func runController(cmd *cobra.Command, args []string) error {
	listenAddr, _ := cmd.Flags().GetString("listen")
	pull, _ := cmd.Flags().GetBool("pull")
	intervalMs, _ := cmd.Flags().GetInt("interval")
	latestOnly, _ := cmd.Flags().GetBool("latest-only")

	var opts []transport.CollectorOption
	if latestOnly {
		opts = append(opts, transport.WithLatestForestOnly())
	}
	collector := transport.NewCollector(nil, opts...)
	collector.Resume()

	l, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", listenAddr, err)
	}
	fmt.Fprintf(os.Stderr, "controller listening on %s\n", l.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go collector.Serve(ctx, l)

	enc := json.NewEncoder(os.Stdout)
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if pull {
				pullCtx, cancel := context.WithTimeout(ctx, time.Duration(intervalMs)*time.Millisecond)
				forest, err := collector.RequestForest(pullCtx)
				cancel()
				if err == nil {
					emitForest(enc, forest)
				}
			}
			for _, forest := range collector.GatherForests() {
				emitForest(enc, forest)
			}
			for _, event := range collector.GatherEvents() {
				enc.Encode(forestSummary{TS: time.Now().UnixMilli(), Kind: "event", Event: event})
			}
		}
	}
}

func emitForest(enc *json.Encoder, forest model.Forest) {
	summary := forestSummary{
		TS:      time.Now().UnixMilli(),
		Kind:    "forest",
		Windows: len(forest.Windows),
		Nodes:   forest.NodeCount(),
	}
	if len(forest.Windows) > 0 {
		// Screen size per the frontmost window's bounds.
		bounds := forest.Windows[0].Bounds
		summary.Width = bounds.Width()
		summary.Height = bounds.Height()
	}
	enc.Encode(summary)
}
