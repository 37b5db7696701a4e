package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tobyv/a11yrelay/internal/control"
	"github.com/tobyv/a11yrelay/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent with an MCP control plane",
	Long: `Run the capture-and-forwarding agent and expose the control-plane
actions (enable-capture, disable-capture, set-endpoint, status) as MCP
tools, so an agent harness can toggle capture behavior at runtime.

Supported transports:
  stdio             Standard I/O (default)
  streamable-http   Streamable HTTP transport (for remote harnesses)

Examples:
  a11yrelay serve --fake
  a11yrelay serve --transport streamable-http --control-port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addAgentFlags(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Control-plane transport: stdio, streamable-http")
	serveCmd.Flags().Int("control-port", 8080, "HTTP port for streamable-http transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	store, r, err := buildAgent(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go r.Run(ctx)

	receiver := control.NewReceiver(store, nil)
	transportName, _ := cmd.Flags().GetString("transport")
	controlPort, _ := cmd.Flags().GetInt("control-port")
	srv := control.NewMCPServer(receiver, store, version.Version)
	return srv.Serve(control.MCPConfig{Transport: transportName, Port: controlPort})
}
