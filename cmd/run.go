package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tobyv/a11yrelay/internal/flags"
	"github.com/tobyv/a11yrelay/internal/relay"
	"github.com/tobyv/a11yrelay/internal/transport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the capture-and-forwarding agent",
	Long: `Run the on-device agent: capture the accessibility forest on a
periodic tick and stream it, plus discrete UI events, to the remote
controller. Pull-requests from the controller are served on the same
channel.

Examples:
  a11yrelay run --host 10.0.2.2 --port 8554 --enable
  a11yrelay run --config /etc/a11yrelay.yaml
  a11yrelay run --fake --port 8554 --enable --period 500`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addAgentFlags(runCmd)
}

func addAgentFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "YAML config file")
	cmd.Flags().String("host", "", "Controller host (default: the emulator loopback alias)")
	cmd.Flags().Int("port", 0, "Controller port (0 disables forwarding)")
	cmd.Flags().Int("period", 0, "Capture period in milliseconds (default 100)")
	cmd.Flags().Bool("enable", false, "Start with periodic capture enabled")
	cmd.Flags().Bool("fake", false, "Use the built-in fake UI instead of the platform provider")
}

// buildAgent assembles the flag store and relay from config and flags.
func buildAgent(cmd *cobra.Command) (*flags.Store, *relay.Relay, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	store := flags.NewStore()
	applyConfig(cfg, store)

	if cmd.Flags().Changed("host") || cmd.Flags().Changed("port") {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		store.SetEndpoint(host, port)
	}
	if cmd.Flags().Changed("period") {
		periodMs, _ := cmd.Flags().GetInt("period")
		store.SetCapturePeriod(time.Duration(periodMs) * time.Millisecond)
	}
	if cmd.Flags().Changed("enable") {
		enable, _ := cmd.Flags().GetBool("enable")
		store.SetCaptureEnabled(enable)
	}

	provider, err := resolveProvider(cmd)
	if err != nil {
		return nil, nil, err
	}
	r := relay.New(provider, store, &transport.TCPDialer{Timeout: 5 * time.Second}, nil, nil)
	return store, r, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	_, r, err := buildAgent(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.Run(ctx)
}
